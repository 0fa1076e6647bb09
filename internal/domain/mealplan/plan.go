package mealplan

import (
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// BatchFailure describes a shopping batch that could not be consolidated
type BatchFailure struct {
	Index   int    `json:"index"`
	Entries int    `json:"entries"`
	Reason  string `json:"reason"`
}

// ShoppingOutcome is the consolidated list plus its completeness report
type ShoppingOutcome struct {
	List          ConsolidatedShoppingList `json:"list"`
	Batches       int                      `json:"batches"`
	FailedBatches []BatchFailure           `json:"failed_batches,omitempty"`
}

// Complete reports whether every batch made it into the list
func (o ShoppingOutcome) Complete() bool {
	return len(o.FailedBatches) == 0
}

// MealPlan is the aggregate persisted for a client after a generation request
type MealPlan struct {
	shared.AggregateRoot

	ID               uuid.UUID
	ClientID         string
	StartDate        time.Time
	Days             int
	Timezone         string
	Grid             WeeklySelectionGrid
	Instances        []ScheduledRecipeInstance
	Substitutions    []SubstitutionRecord
	Shopping         ShoppingOutcome
	RequestedRecipes int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewMealPlan starts a plan for a client
func NewMealPlan(clientID string, startDate time.Time, days int, timezone string) (*MealPlan, error) {
	if days < 1 {
		return nil, ErrInvalidDays
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, ErrInvalidTimezone
	}

	now := time.Now().UTC()
	return &MealPlan{
		ID:        uuid.New(),
		ClientID:  clientID,
		StartDate: startDate,
		Days:      days,
		Timezone:  timezone,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Location returns the client's timezone, falling back to UTC
func (p *MealPlan) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Complete stores the pipeline results and records MealPlanGeneratedEvent
func (p *MealPlan) Complete(grid WeeklySelectionGrid, requested int, personalized PersonalizeResult, shopping ShoppingOutcome) {
	p.Grid = grid
	p.RequestedRecipes = requested
	p.Instances = personalized.Instances
	p.Substitutions = personalized.Substitutions
	p.Shopping = shopping
	p.UpdatedAt = time.Now().UTC()

	p.AddEvent(MealPlanGeneratedEvent{
		PlanID:           p.ID,
		ClientID:         p.ClientID,
		Instances:        len(p.Instances),
		Substitutions:    len(p.Substitutions),
		ShoppingComplete: shopping.Complete(),
		Timestamp:        p.UpdatedAt,
	})
}

// ReplaceShopping swaps in a rebuilt shopping list
func (p *MealPlan) ReplaceShopping(shopping ShoppingOutcome) {
	p.Shopping = shopping
	p.UpdatedAt = time.Now().UTC()

	p.AddEvent(ShoppingListRebuiltEvent{
		PlanID:        p.ID,
		Ingredients:   len(shopping.List),
		FailedBatches: len(shopping.FailedBatches),
		Timestamp:     p.UpdatedAt,
	})
}

// FinalRecipes returns the recipe of every scheduled instance, post-substitution
func (p *MealPlan) FinalRecipes() []ResolvedRecipe {
	recipes := make([]ResolvedRecipe, len(p.Instances))
	for i, instance := range p.Instances {
		recipes[i] = instance.Recipe
	}
	return recipes
}
