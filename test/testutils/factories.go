// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"
	"strings"
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/client"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/brianvoe/gofakeit/v6"
)

// RecipeFactory provides methods to create test recipes
type RecipeFactory struct {
	faker *gofakeit.Faker
	seq   int
}

// NewRecipeFactory creates a new recipe factory with seeded faker
func NewRecipeFactory(seed int64) *RecipeFactory {
	return &RecipeFactory{
		faker: gofakeit.New(seed),
	}
}

// RecipeRef returns a unique recipe reference shaped like a provider URI
func (f *RecipeFactory) RecipeRef() mealplan.RecipeRef {
	f.seq++
	return mealplan.RecipeRef(fmt.Sprintf("http://www.edamam.com/ontologies/edamam.owl#recipe_%04d%s", f.seq, strings.ToLower(f.faker.LetterN(8))))
}

// Recipe builds a recipe with the given yield, meal types and ingredient count
func (f *RecipeFactory) Recipe(yield int, ingredients int, mealTypes ...string) mealplan.ResolvedRecipe {
	r := mealplan.ResolvedRecipe{
		Ref:       f.RecipeRef(),
		Label:     f.faker.Dessert(),
		Yield:     yield,
		MealTypes: mealTypes,
		Nutrients: map[string]mealplan.Nutrient{
			"ENERC_KCAL": {Label: "Energy", Quantity: f.faker.Float64Range(150, 1200), Unit: "kcal"},
		},
	}
	for i := 0; i < ingredients; i++ {
		food := strings.ToLower(f.faker.Vegetable())
		quantity := float64(f.faker.Number(1, 500))
		r.Ingredients = append(r.Ingredients, mealplan.Ingredient{
			Food:     food,
			Quantity: quantity,
			Measure:  "gram",
			Weight:   quantity,
			Text:     fmt.Sprintf("%.0fg %s", quantity, food),
		})
	}
	return r
}

// Week builds days×len(slots) recipes, each tagged with the slot it belongs to
func (f *RecipeFactory) Week(days int, slots ...string) []mealplan.ResolvedRecipe {
	var recipes []mealplan.ResolvedRecipe
	for d := 0; d < days; d++ {
		for _, slot := range slots {
			recipes = append(recipes, f.Recipe(f.faker.Number(1, 4), f.faker.Number(2, 5), slot))
		}
	}
	return recipes
}

// Grid lays recipes out as a selection grid with len(slots) sections per day
func Grid(recipes []mealplan.ResolvedRecipe, slots ...string) mealplan.WeeklySelectionGrid {
	grid := mealplan.WeeklySelectionGrid{}
	if len(slots) == 0 {
		return grid
	}
	for i := 0; i < len(recipes); i += len(slots) {
		day := mealplan.DaySelection{}
		for s, slot := range slots {
			if i+s >= len(recipes) {
				break
			}
			day.Sections = append(day.Sections, mealplan.Section{
				Key:        slot,
				Slot:       mealplan.NewMealSlot(slot),
				Assignment: mealplan.SectionAssignment{RecipeRef: recipes[i+s].Ref},
			})
		}
		grid.Days = append(grid.Days, day)
	}
	return grid
}

// ProfileFactory provides methods to create client profiles
type ProfileFactory struct {
	faker *gofakeit.Faker
}

// NewProfileFactory creates a new profile factory with seeded faker
func NewProfileFactory(seed int64) *ProfileFactory {
	return &ProfileFactory{faker: gofakeit.New(seed)}
}

// Profile builds a profile for the timezone with the given favorites
func (f *ProfileFactory) Profile(timezone string, favorites ...mealplan.ResolvedRecipe) *client.Profile {
	refs := make([]mealplan.RecipeRef, len(favorites))
	for i, fav := range favorites {
		refs[i] = fav.Ref
	}
	now := time.Now().UTC()
	return &client.Profile{
		ClientID:     f.faker.UUID(),
		Timezone:     timezone,
		FavoriteRefs: refs,
		Preferences: client.Preferences{
			DietLabels:  []string{"balanced"},
			CaloriesMin: 1400,
			CaloriesMax: 2400,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
