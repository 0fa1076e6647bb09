// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/client"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when a record does not exist
var ErrNotFound = errors.New("record not found")

// ErrCacheMiss is returned by cache repositories for absent keys
var ErrCacheMiss = errors.New("cache miss")

// MealPlanRepository defines the interface for meal plan persistence
type MealPlanRepository interface {
	Create(ctx context.Context, plan *mealplan.MealPlan) error
	Update(ctx context.Context, plan *mealplan.MealPlan) error
	FindByID(ctx context.Context, id uuid.UUID) (*mealplan.MealPlan, error)
	FindByClientID(ctx context.Context, clientID string, offset, limit int) ([]*mealplan.MealPlan, int, error)
}

// ClientProfileRepository defines the interface for client profile persistence
type ClientProfileRepository interface {
	// Save creates or replaces the profile
	Save(ctx context.Context, profile *client.Profile) error
	FindByClientID(ctx context.Context, clientID string) (*client.Profile, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PlanRequest is what the remote generator needs to build a selection grid
type PlanRequest struct {
	Days        int
	Slots       []mealplan.MealSlot
	Preferences client.Preferences
	Exclusions  []mealplan.RecipeRef
}

// MealPlanGenerator is the remote meal-plan generator. A non-OK status is terminal.
type MealPlanGenerator interface {
	GeneratePlan(ctx context.Context, req PlanRequest) (mealplan.WeeklySelectionGrid, error)
}

// RecipeLookup resolves a single recipe reference
type RecipeLookup interface {
	LookupRecipe(ctx context.Context, ref mealplan.RecipeRef) (mealplan.ResolvedRecipe, error)
}

// ShoppingListService normalizes one batch of shopping entries
type ShoppingListService interface {
	ConsolidateBatch(ctx context.Context, batch mealplan.ShoppingBatch) ([]mealplan.ShoppingLine, error)
}

// PlanMetrics receives pipeline measurements
type PlanMetrics interface {
	RecordPlanGenerated(duration time.Duration, instances, substitutions, uncommitted int)
	RecordPlanFailed(stage string)
	RecordBulkFetch(kind string, succeeded, failed int)
	RecordShoppingBatches(succeeded, failed int)
}
