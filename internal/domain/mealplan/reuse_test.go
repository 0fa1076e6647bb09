package mealplan

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lunchWeek(t *testing.T) []ScheduledRecipeInstance {
	t.Helper()
	var recipes []ResolvedRecipe
	for i := 0; i < 7; i++ {
		recipes = append(recipes, testRecipe(fmt.Sprintf("https://recipes.test/lunch/%d", i), 1, "lunch"))
	}
	instances, err := NewResolver(nil).Resolve(ResolveInput{Slots: []MealSlot{SlotLunch}, Recipes: recipes, StartDate: monday})
	require.NoError(t, err)
	return instances
}

func TestPersonalize_DeterministicForSeed(t *testing.T) {
	instances := lunchWeek(t)
	favorites := []ResolvedRecipe{
		testRecipe("https://recipes.test/fav/soup", 3, "lunch"),
		testRecipe("https://recipes.test/fav/salad", 2, "lunch/dinner"),
		testRecipe("https://recipes.test/fav/toast", 4, "breakfast"),
	}

	first := Personalize(instances, favorites, NewReuseLedger(), rand.New(rand.NewPCG(42, 7)))
	second := Personalize(instances, favorites, NewReuseLedger(), rand.New(rand.NewPCG(42, 7)))

	assert.Equal(t, first.Instances, second.Instances)
	assert.Equal(t, first.Substitutions, second.Substitutions)
	assert.Equal(t, first.Ledger.Snapshot(), second.Ledger.Snapshot())
}

func TestPersonalize_SubstitutionKeepsSlotAndTime(t *testing.T) {
	instances := lunchWeek(t)
	favorite := testRecipe("https://recipes.test/fav/soup", 7, "lunch")

	result := Personalize(instances, []ResolvedRecipe{favorite}, NewReuseLedger(), fixedPicker(0))

	require.Len(t, result.Instances, len(instances))
	require.Len(t, result.Substitutions, len(instances))
	for i, instance := range result.Instances {
		assert.Equal(t, instances[i].ScheduledAtUTC, instance.ScheduledAtUTC)
		assert.Equal(t, instances[i].MealSlot, instance.MealSlot)
		assert.Equal(t, instances[i].DayIndex, instance.DayIndex)
		assert.Equal(t, instances[i].Recipe.Ref, instance.OriginalRef)
		assert.Equal(t, favorite.Ref, instance.Recipe.Ref)
		assert.True(t, instance.Substituted)
		assert.True(t, instance.Committed)
		assert.Equal(t, SubstitutionRecord{OriginalRef: instances[i].Recipe.Ref, SubstituteRef: favorite.Ref}, result.Substitutions[i])
	}
}

func TestPersonalize_FavoriteNeverExceedsYield(t *testing.T) {
	instances := lunchWeek(t)
	favorite := testRecipe("https://recipes.test/fav/soup", 2, "lunch")

	result := Personalize(instances, []ResolvedRecipe{favorite}, NewReuseLedger(), fixedPicker(0))

	used := 0
	for _, instance := range result.Instances {
		if instance.Recipe.Ref == favorite.Ref {
			used++
		}
	}
	assert.Equal(t, 2, used)
	assert.Len(t, result.Substitutions, 2)
	assert.Equal(t, 2, result.Ledger.Committed(favorite.Ref))
	assert.False(t, result.Ledger.HasCapacity(favorite))
	assert.Len(t, result.Instances, 7)

	// the remaining lunches stay on their originals
	for _, instance := range result.Instances[2:] {
		assert.False(t, instance.Substituted)
		assert.Equal(t, instance.OriginalRef, instance.Recipe.Ref)
	}
}

func TestPersonalize_NoMatchingFavoriteKeepsOriginal(t *testing.T) {
	instances := lunchWeek(t)
	breakfastOnly := testRecipe("https://recipes.test/fav/toast", 5, "breakfast")

	result := Personalize(instances, []ResolvedRecipe{breakfastOnly}, nil, fixedPicker(0))

	assert.Empty(t, result.Substitutions)
	for i, instance := range result.Instances {
		assert.Equal(t, instances[i].Recipe, instance.Recipe)
		assert.True(t, instance.Committed)
	}
	assert.Len(t, result.Ledger.Placed(), 7)
}

func TestPersonalize_ExhaustedOriginalKeptUncommitted(t *testing.T) {
	repeated := testRecipe("https://recipes.test/r/stew", 1, "dinner")
	instances := []ScheduledRecipeInstance{
		{Recipe: repeated, MealSlot: SlotDinner, DayIndex: 0, ScheduledAtUTC: monday.Add(18 * time.Hour)},
		{Recipe: repeated, MealSlot: SlotDinner, DayIndex: 1, ScheduledAtUTC: monday.Add(42 * time.Hour)},
	}

	result := Personalize(instances, nil, NewReuseLedger(), nil)

	require.Len(t, result.Instances, 2)
	assert.True(t, result.Instances[0].Committed)
	assert.False(t, result.Instances[1].Committed)
	assert.Equal(t, 1, result.Uncommitted)
	assert.Equal(t, 1, result.Ledger.Committed(repeated.Ref))
}

func TestPersonalize_PickingTheOriginalIsNotASubstitution(t *testing.T) {
	original := testRecipe("https://recipes.test/r/soup", 3, "lunch")
	instances := []ScheduledRecipeInstance{{Recipe: original, MealSlot: SlotLunch, ScheduledAtUTC: monday}}

	result := Personalize(instances, []ResolvedRecipe{testRecipe("https://recipes.test/r/soup?type=public", 3, "lunch")}, NewReuseLedger(), fixedPicker(0))

	assert.Empty(t, result.Substitutions)
	assert.False(t, result.Instances[0].Substituted)
	assert.True(t, result.Instances[0].Committed)
}

func TestReuseLedger(t *testing.T) {
	ledger := NewReuseLedger()
	recipe := testRecipe("https://recipes.test/r/1?app_key=x", 2, "lunch")

	assert.Equal(t, 2, ledger.Remaining(recipe))
	assert.True(t, ledger.Commit(recipe))
	assert.True(t, ledger.Commit(recipe))
	assert.False(t, ledger.Commit(recipe))
	assert.Equal(t, 2, ledger.Committed("https://recipes.test/r/1"))
	assert.Equal(t, []RecipeRef{"https://recipes.test/r/1"}, ledger.Placed())
	assert.Equal(t, map[RecipeRef]int{"https://recipes.test/r/1": 2}, ledger.Snapshot())
}

func TestPersonalize_LunchFavoriteIntoLunchDinnerInstance(t *testing.T) {
	scheduledAt := time.Date(2024, time.January, 10, 1, 0, 0, 0, time.UTC)
	instance := ScheduledRecipeInstance{
		Recipe:         testRecipe("https://recipes.test/r/curry", 4, "lunch", "dinner"),
		MealSlot:       SlotDinner,
		DayIndex:       2,
		ScheduledAtUTC: scheduledAt,
		OriginalRef:    "https://recipes.test/r/curry",
	}
	favorite := testRecipe("https://recipes.test/fav/wrap", 2, "lunch")

	result := Personalize([]ScheduledRecipeInstance{instance}, []ResolvedRecipe{favorite}, NewReuseLedger(), rand.New(rand.NewPCG(1, 1)))

	require.Len(t, result.Instances, 1)
	assert.Equal(t, scheduledAt, result.Instances[0].ScheduledAtUTC)
	assert.Equal(t, favorite.Ref, result.Instances[0].Recipe.Ref)
	assert.Equal(t, SlotDinner, result.Instances[0].MealSlot)
	assert.Equal(t, []SubstitutionRecord{{OriginalRef: instance.Recipe.Ref, SubstituteRef: favorite.Ref}}, result.Substitutions)
}

func TestReuseLedger_DistinctFragmentRecipesTrackedSeparately(t *testing.T) {
	a := testRecipe("http://www.edamam.com/ontologies/edamam.owl#recipe_aaa", 1, "lunch")
	b := testRecipe("http://www.edamam.com/ontologies/edamam.owl#recipe_bbb", 1, "lunch")
	ledger := NewReuseLedger()

	assert.True(t, ledger.Commit(a))
	assert.True(t, ledger.Commit(b))
	assert.False(t, ledger.Commit(a))
	assert.Equal(t, []RecipeRef{a.Identity(), b.Identity()}, ledger.Placed())
}

func TestResolve_CarriesGridPositions(t *testing.T) {
	recipes := []ResolvedRecipe{testRecipe("r1", 1, "lunch"), testRecipe("r2", 1, "lunch")}
	positions := []GridPosition{{Day: 0, Section: 1}, {Day: 2, Section: 0}}

	instances, err := NewResolver(nil).Resolve(ResolveInput{Slots: []MealSlot{SlotLunch}, Recipes: recipes, Positions: positions, StartDate: monday})
	require.NoError(t, err)
	require.Len(t, instances, 2)
	for i, instance := range instances {
		require.NotNil(t, instance.GridPosition)
		assert.Equal(t, positions[i], *instance.GridPosition)
	}

	_, err = NewResolver(nil).Resolve(ResolveInput{Slots: []MealSlot{SlotLunch}, Recipes: recipes, Positions: positions[:1], StartDate: monday})
	assert.Error(t, err)
}
