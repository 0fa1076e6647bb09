// Package mealplan holds the meal-plan data model and the pure planning
// algorithms: slot resolution, favorite substitution under a reuse ledger,
// selection-grid patch-back and shopping-list batch partitioning.
package mealplan

import "strings"

// RecipeRef is an opaque URI identifying a recipe in the remote recipe service
type RecipeRef string

// identityFragmentPrefix marks a fragment that names the recipe itself, as in
// http://www.edamam.com/ontologies/edamam.owl#recipe_<id>
const identityFragmentPrefix = "recipe_"

// Normalize strips surrounding whitespace, the query and a trailing fragment.
// A fragment naming the recipe (#recipe_<id>) is part of the identity and
// is kept.
func (r RecipeRef) Normalize() RecipeRef {
	s := strings.TrimSpace(string(r))
	base, fragment, hasFragment := strings.Cut(s, "#")
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}
	if hasFragment {
		if i := strings.IndexByte(fragment, '?'); i >= 0 {
			fragment = fragment[:i]
		}
		if len(fragment) > len(identityFragmentPrefix) && strings.HasPrefix(fragment, identityFragmentPrefix) {
			return RecipeRef(base + "#" + fragment)
		}
	}
	return RecipeRef(base)
}

// Equal compares two references by normalized URI
func (r RecipeRef) Equal(other RecipeRef) bool {
	return r.Normalize() == other.Normalize()
}

// IsZero reports whether the reference is empty once normalized
func (r RecipeRef) IsZero() bool {
	return r.Normalize() == ""
}

func (r RecipeRef) String() string {
	return string(r)
}

// MealSlot is a provider-defined meal type used both as a scheduling bucket
// and as a recipe tag. Slots compare case-insensitively.
type MealSlot string

// Common slots; the provider may send others.
const (
	SlotBreakfast MealSlot = "breakfast"
	SlotBrunch    MealSlot = "brunch"
	SlotLunch     MealSlot = "lunch"
	SlotSnack     MealSlot = "snack"
	SlotTeatime   MealSlot = "teatime"
	SlotDinner    MealSlot = "dinner"
)

// NewMealSlot canonicalizes a provider key or tag into a slot
func NewMealSlot(key string) MealSlot {
	return MealSlot(strings.ToLower(strings.TrimSpace(key)))
}

func (s MealSlot) String() string {
	return string(s)
}
