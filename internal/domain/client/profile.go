// Package client holds the client profile consumed by plan generation:
// timezone, favorite recipes and planning preferences.
package client

import (
	"errors"
	"strings"
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
)

var (
	ErrMissingClientID = errors.New("client id is required")
	ErrInvalidCalories = errors.New("calorie range is invalid")
)

// Preferences are passed to the remote plan generator
type Preferences struct {
	DietLabels   []string `json:"diet_labels,omitempty"`
	HealthLabels []string `json:"health_labels,omitempty"`
	CuisineTypes []string `json:"cuisine_types,omitempty"`
	CaloriesMin  float64  `json:"calories_min,omitempty"`
	CaloriesMax  float64  `json:"calories_max,omitempty"`
}

// Validate checks the calorie range
func (p Preferences) Validate() error {
	if p.CaloriesMin < 0 || p.CaloriesMax < 0 {
		return ErrInvalidCalories
	}
	if p.CaloriesMax > 0 && p.CaloriesMin > p.CaloriesMax {
		return ErrInvalidCalories
	}
	return nil
}

// Profile is a client's planning profile
type Profile struct {
	ClientID     string
	Timezone     string
	FavoriteRefs []mealplan.RecipeRef
	Preferences  Preferences
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewProfile validates and creates a profile
func NewProfile(clientID, timezone string, favorites []mealplan.RecipeRef, prefs Preferences) (*Profile, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, ErrMissingClientID
	}

	p := &Profile{ClientID: clientID, CreatedAt: time.Now().UTC()}
	if err := p.Update(timezone, favorites, prefs); err != nil {
		return nil, err
	}
	p.UpdatedAt = p.CreatedAt
	return p, nil
}

// Update replaces timezone, favorites and preferences
func (p *Profile) Update(timezone string, favorites []mealplan.RecipeRef, prefs Preferences) error {
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return mealplan.ErrInvalidTimezone
	}
	if err := prefs.Validate(); err != nil {
		return err
	}

	p.Timezone = timezone
	p.FavoriteRefs = dedupeRefs(favorites)
	p.Preferences = prefs
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Location returns the profile's timezone
func (p *Profile) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func dedupeRefs(refs []mealplan.RecipeRef) []mealplan.RecipeRef {
	seen := make(map[mealplan.RecipeRef]struct{}, len(refs))
	out := make([]mealplan.RecipeRef, 0, len(refs))
	for _, ref := range refs {
		key := ref.Normalize()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ref)
	}
	return out
}
