package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/outbound"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/pkg/errors"
	"go.uber.org/zap"
)

const statusOK = "OK"

type selectRequest struct {
	Size int        `json:"size"`
	Plan planFilter `json:"plan"`
}

type planFilter struct {
	Accept   *criteria                `json:"accept,omitempty"`
	Fit      map[string]rangeFilter   `json:"fit,omitempty"`
	Exclude  []string                 `json:"exclude,omitempty"`
	Sections map[string]sectionFilter `json:"sections"`
}

type criteria struct {
	All []map[string][]string `json:"all"`
}

type rangeFilter struct {
	Min float64 `json:"min,omitempty"`
	Max float64 `json:"max,omitempty"`
}

type sectionFilter struct {
	Accept criteria `json:"accept"`
}

type selectResponse struct {
	Status    string         `json:"status"`
	Selection []daySelection `json:"selection"`
}

type daySelection struct {
	Sections orderedSections `json:"sections"`
}

type sectionPayload struct {
	Assigned string `json:"assigned"`
}

type namedSection struct {
	Name    string
	Payload sectionPayload
}

// orderedSections keeps the provider's key order, which defines slot priority
type orderedSections []namedSection

func (s *orderedSections) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("sections: expected object, got %v", tok)
	}

	var sections orderedSections
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("sections: expected key, got %v", tok)
		}
		var payload sectionPayload
		if err := dec.Decode(&payload); err != nil {
			return fmt.Errorf("sections.%s: %w", name, err)
		}
		sections = append(sections, namedSection{Name: name, Payload: payload})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = sections
	return nil
}

// GeneratePlan asks the remote generator for a day × slot selection grid.
// Any status other than OK fails the plan.
func (c *Client) GeneratePlan(ctx context.Context, req outbound.PlanRequest) (mealplan.WeeklySelectionGrid, error) {
	var resp selectResponse
	path := fmt.Sprintf("/api/meal-planner/v1/%s/select", c.appID)

	err := c.call(ctx, ServicePlanner, http.MethodPost, path, nil, buildSelectRequest(req), &resp)
	if err != nil {
		return mealplan.WeeklySelectionGrid{}, err
	}
	if resp.Status != statusOK {
		c.logger.Error("Plan generator rejected request",
			zap.String("status", resp.Status),
			zap.Int("days", req.Days),
		)
		return mealplan.WeeklySelectionGrid{}, errors.NewPlanGenerationError(resp.Status, nil)
	}

	grid := mealplan.WeeklySelectionGrid{Days: make([]mealplan.DaySelection, 0, len(resp.Selection))}
	for _, day := range resp.Selection {
		selection := mealplan.DaySelection{Sections: make([]mealplan.Section, 0, len(day.Sections))}
		for _, section := range day.Sections {
			selection.Sections = append(selection.Sections, mealplan.Section{
				Key:        section.Name,
				Slot:       mealplan.NewMealSlot(section.Name),
				Assignment: mealplan.SectionAssignment{RecipeRef: mealplan.RecipeRef(section.Payload.Assigned)},
			})
		}
		grid.Days = append(grid.Days, selection)
	}

	c.logger.Debug("Plan generated",
		zap.Int("days", len(grid.Days)),
		zap.Int("recipes", len(grid.Refs())),
	)
	return grid, nil
}

func buildSelectRequest(req outbound.PlanRequest) selectRequest {
	out := selectRequest{
		Size: req.Days,
		Plan: planFilter{Sections: make(map[string]sectionFilter, len(req.Slots))},
	}

	prefs := req.Preferences
	var accept []map[string][]string
	if len(prefs.HealthLabels) > 0 {
		accept = append(accept, map[string][]string{"health": prefs.HealthLabels})
	}
	if len(prefs.DietLabels) > 0 {
		accept = append(accept, map[string][]string{"diet": prefs.DietLabels})
	}
	if len(prefs.CuisineTypes) > 0 {
		accept = append(accept, map[string][]string{"cuisine": prefs.CuisineTypes})
	}
	if len(accept) > 0 {
		out.Plan.Accept = &criteria{All: accept}
	}

	if prefs.CaloriesMin > 0 || prefs.CaloriesMax > 0 {
		out.Plan.Fit = map[string]rangeFilter{"ENERC_KCAL": {Min: prefs.CaloriesMin, Max: prefs.CaloriesMax}}
	}

	for _, ref := range req.Exclusions {
		if !ref.IsZero() {
			out.Plan.Exclude = append(out.Plan.Exclude, ref.Normalize().String())
		}
	}

	for _, slot := range req.Slots {
		out.Plan.Sections[sectionName(slot)] = sectionFilter{
			Accept: criteria{All: []map[string][]string{{"meal": {slot.String()}}}},
		}
	}
	return out
}

// sectionName renders a slot the way the generator spells section keys
func sectionName(slot mealplan.MealSlot) string {
	s := slot.String()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
