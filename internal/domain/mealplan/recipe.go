package mealplan

import "strings"

// Ingredient is one line of a recipe's ingredient list
type Ingredient struct {
	Food     string  `json:"food"`
	Quantity float64 `json:"quantity"`
	Measure  string  `json:"measure,omitempty"`
	Weight   float64 `json:"weight,omitempty"`
	Text     string  `json:"text,omitempty"`
}

// Nutrient is a nutrient total for the whole recipe
type Nutrient struct {
	Label    string  `json:"label"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// ResolvedRecipe is a fully fetched recipe record
type ResolvedRecipe struct {
	Ref         RecipeRef           `json:"ref"`
	Label       string              `json:"label"`
	Yield       int                 `json:"yield"`
	MealTypes   []string            `json:"meal_types"`
	Ingredients []Ingredient        `json:"ingredients"`
	Nutrients   map[string]Nutrient `json:"nutrients,omitempty"`
}

// Identity is the normalized reference used for ledger and batch bookkeeping
func (r ResolvedRecipe) Identity() RecipeRef {
	return r.Ref.Normalize()
}

// Servings is the yield used for reuse bookkeeping; a missing or invalid yield counts as one serving
func (r ResolvedRecipe) Servings() int {
	if r.Yield < 1 {
		return 1
	}
	return r.Yield
}

// Tags returns the recipe's meal-type tags as slots. Provider values such as
// "lunch/dinner" carry several tags at once.
func (r ResolvedRecipe) Tags() []MealSlot {
	seen := make(map[MealSlot]struct{})
	tags := make([]MealSlot, 0, len(r.MealTypes))
	for _, mealType := range r.MealTypes {
		for _, part := range strings.Split(mealType, "/") {
			slot := NewMealSlot(part)
			if slot == "" {
				continue
			}
			if _, ok := seen[slot]; ok {
				continue
			}
			seen[slot] = struct{}{}
			tags = append(tags, slot)
		}
	}
	return tags
}

// HasTag reports whether the recipe is tagged with the slot
func (r ResolvedRecipe) HasTag(slot MealSlot) bool {
	slot = NewMealSlot(string(slot))
	for _, tag := range r.Tags() {
		if tag == slot {
			return true
		}
	}
	return false
}

// SharesTag reports whether two recipes have at least one meal-type tag in common
func (r ResolvedRecipe) SharesTag(other ResolvedRecipe) bool {
	for _, tag := range other.Tags() {
		if r.HasTag(tag) {
			return true
		}
	}
	return false
}
