// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the use cases the application exposes to HTTP handlers
package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MealPlanService defines the meal plan use cases
type MealPlanService interface {
	// Commands
	GenerateMealPlan(ctx context.Context, cmd GenerateMealPlanCommand) (*MealPlanDTO, error)
	RebuildShoppingList(ctx context.Context, planID uuid.UUID) (*ShoppingListDTO, error)

	// Queries
	GetMealPlan(ctx context.Context, planID uuid.UUID) (*MealPlanDTO, error)
	ListMealPlans(ctx context.Context, clientID string, params PaginationParams) (*MealPlanList, error)
}

// ClientProfileService manages the client profile used for personalization
type ClientProfileService interface {
	UpsertProfile(ctx context.Context, cmd UpsertProfileCommand) (*ClientProfileDTO, error)
	GetProfile(ctx context.Context, clientID string) (*ClientProfileDTO, error)
}

// GenerateMealPlanCommand requests a new plan for a client.
// Days and Slots fall back to the configured defaults when empty.
type GenerateMealPlanCommand struct {
	ClientID    string          `json:"-" validate:"required,max=128"`
	StartDate   time.Time       `json:"start_date" validate:"required"`
	Days        int             `json:"days" validate:"omitempty,min=1,max=14"`
	Slots       []string        `json:"slots" validate:"omitempty,max=6,dive,required,max=32"`
	Preferences *PreferencesDTO `json:"preferences,omitempty"`
	Exclusions  []string        `json:"exclusions" validate:"omitempty,max=100,dive,required"`
}

// UpsertProfileCommand creates or replaces a client profile
type UpsertProfileCommand struct {
	ClientID     string         `json:"-" validate:"required,max=128"`
	Timezone     string         `json:"timezone" validate:"required,timezone"`
	FavoriteRefs []string       `json:"favorite_refs" validate:"omitempty,max=200,dive,required"`
	Preferences  PreferencesDTO `json:"preferences"`
}

// PaginationParams for paginated queries
type PaginationParams struct {
	Offset int `form:"offset" validate:"min=0"`
	Limit  int `form:"limit" validate:"min=0,max=100"`
}

// PreferencesDTO carries diet and calorie preferences
type PreferencesDTO struct {
	DietLabels   []string `json:"diet_labels,omitempty"`
	HealthLabels []string `json:"health_labels,omitempty"`
	CuisineTypes []string `json:"cuisine_types,omitempty"`
	CaloriesMin  float64  `json:"calories_min,omitempty" validate:"gte=0"`
	CaloriesMax  float64  `json:"calories_max,omitempty" validate:"gte=0"`
}

// Response DTOs

// MealPlanDTO is the data transfer object for a generated plan
type MealPlanDTO struct {
	ID               uuid.UUID          `json:"id"`
	ClientID         string             `json:"client_id"`
	StartDate        string             `json:"start_date"`
	Days             int                `json:"days"`
	Timezone         string             `json:"timezone"`
	Meals            []ScheduledMealDTO `json:"meals"`
	Grid             []DaySelectionDTO  `json:"grid"`
	Substitutions    []SubstitutionDTO  `json:"substitutions"`
	Shopping         ShoppingListDTO    `json:"shopping_list"`
	RequestedRecipes int                `json:"requested_recipes"`
	ResolvedRecipes  int                `json:"resolved_recipes"`
	CreatedAt        string             `json:"created_at"`
	UpdatedAt        string             `json:"updated_at"`
}

// ScheduledMealDTO is one scheduled recipe. LocalTime is rendered in the
// client's timezone at read time; ScheduledAtUTC is what is stored.
type ScheduledMealDTO struct {
	DayIndex       int       `json:"day_index"`
	MealSlot       string    `json:"meal_slot"`
	RecipeRef      string    `json:"recipe_ref"`
	Label          string    `json:"label"`
	Yield          int       `json:"yield"`
	ScheduledAtUTC time.Time `json:"scheduled_at_utc"`
	LocalTime      string    `json:"local_time"`
	OriginalRef    string    `json:"original_ref,omitempty"`
	Substituted    bool      `json:"substituted"`
	Committed      bool      `json:"committed"`
}

// DaySelectionDTO is one day of the (patched) selection grid
type DaySelectionDTO struct {
	Day      int          `json:"day"`
	Sections []SectionDTO `json:"sections"`
}

// SectionDTO is one slot of a grid day
type SectionDTO struct {
	Slot                string `json:"slot"`
	RecipeRef           string `json:"recipe_ref"`
	AssignedOverrideRef string `json:"assigned_override_ref,omitempty"`
	VisibleRef          string `json:"visible_ref"`
}

// SubstitutionDTO links an original recipe to its favorite substitute
type SubstitutionDTO struct {
	OriginalRef   string `json:"original_ref"`
	SubstituteRef string `json:"substitute_ref"`
}

// ShoppingListDTO is the consolidated list with its completeness signal
type ShoppingListDTO struct {
	Items         []ShoppingItemDTO `json:"items"`
	Batches       int               `json:"batches"`
	FailedBatches []BatchFailureDTO `json:"failed_batches,omitempty"`
	Complete      bool              `json:"complete"`
}

// ShoppingItemDTO is one ingredient with its merged quantities
type ShoppingItemDTO struct {
	Ingredient string        `json:"ingredient"`
	Quantities []QuantityDTO `json:"quantities"`
}

// QuantityDTO is an amount of an ingredient
type QuantityDTO struct {
	Quantity   float64  `json:"quantity"`
	Unit       string   `json:"unit"`
	Qualifiers []string `json:"qualifiers,omitempty"`
}

// BatchFailureDTO describes a dropped shopping batch
type BatchFailureDTO struct {
	Index   int    `json:"index"`
	Entries int    `json:"entries"`
	Reason  string `json:"reason"`
}

// MealPlanList is a page of plans
type MealPlanList struct {
	Plans  []MealPlanDTO `json:"plans"`
	Total  int           `json:"total"`
	Offset int           `json:"offset"`
	Limit  int           `json:"limit"`
}

// ClientProfileDTO is the data transfer object for a client profile
type ClientProfileDTO struct {
	ClientID     string         `json:"client_id"`
	Timezone     string         `json:"timezone"`
	FavoriteRefs []string       `json:"favorite_refs"`
	Preferences  PreferencesDTO `json:"preferences"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
}
