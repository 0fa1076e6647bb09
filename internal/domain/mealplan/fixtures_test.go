package mealplan

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

func testRecipe(ref string, yield int, mealTypes ...string) ResolvedRecipe {
	return ResolvedRecipe{
		Ref:       RecipeRef(ref),
		Label:     "Recipe " + ref,
		Yield:     yield,
		MealTypes: mealTypes,
		Ingredients: []Ingredient{
			{Food: "salt", Quantity: 1, Measure: "teaspoon"},
		},
	}
}

func recipesWithIngredients(ref string, count int) ResolvedRecipe {
	r := testRecipe(ref, 2, "lunch")
	r.Ingredients = nil
	for i := 0; i < count; i++ {
		r.Ingredients = append(r.Ingredients, Ingredient{Food: fmt.Sprintf("%s-food-%d", ref, i), Quantity: float64(i + 1), Measure: "gram"})
	}
	return r
}

func testGrid(days int, slots ...string) WeeklySelectionGrid {
	grid := WeeklySelectionGrid{}
	for d := 0; d < days; d++ {
		day := DaySelection{}
		for _, slot := range slots {
			day.Sections = append(day.Sections, Section{
				Key:        slot,
				Slot:       NewMealSlot(slot),
				Assignment: SectionAssignment{RecipeRef: RecipeRef(fmt.Sprintf("https://recipes.test/r/%d-%s", d, NewMealSlot(slot)))},
			})
		}
		grid.Days = append(grid.Days, day)
	}
	return grid
}

// fixedPicker always returns the same index (clamped to n)
type fixedPicker int

func (p fixedPicker) IntN(n int) int {
	if int(p) >= n {
		return n - 1
	}
	return int(p)
}

// sequencePicker returns its picks in order, then repeats the last one
type sequencePicker struct {
	picks []int
	next  int
}

func (p *sequencePicker) IntN(n int) int {
	i := p.next
	if i >= len(p.picks) {
		i = len(p.picks) - 1
	}
	p.next++
	if p.picks[i] >= n {
		return n - 1
	}
	return p.picks[i]
}

var monday = time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)
