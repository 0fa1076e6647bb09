package mealplan

import (
	"time"

	"github.com/google/uuid"
)

// MealPlanGeneratedEvent is raised when a plan has been resolved, personalized and consolidated
type MealPlanGeneratedEvent struct {
	PlanID           uuid.UUID
	ClientID         string
	Instances        int
	Substitutions    int
	ShoppingComplete bool
	Timestamp        time.Time
}

func (e MealPlanGeneratedEvent) EventName() string     { return "mealplan.generated" }
func (e MealPlanGeneratedEvent) OccurredAt() time.Time { return e.Timestamp }

// ShoppingListRebuiltEvent is raised when a stored plan's shopping list is regenerated
type ShoppingListRebuiltEvent struct {
	PlanID        uuid.UUID
	Ingredients   int
	FailedBatches int
	Timestamp     time.Time
}

func (e ShoppingListRebuiltEvent) EventName() string     { return "mealplan.shopping_rebuilt" }
func (e ShoppingListRebuiltEvent) OccurredAt() time.Time { return e.Timestamp }
