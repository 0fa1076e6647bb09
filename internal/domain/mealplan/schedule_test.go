package mealplan

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ResolverTestSuite struct {
	suite.Suite
	resolver *Resolver
	slots    []MealSlot
}

func (s *ResolverTestSuite) SetupTest() {
	s.resolver = NewResolver(nil)
	s.slots = []MealSlot{SlotBreakfast, SlotLunch, SlotDinner}
}

func (s *ResolverTestSuite) TestFullWeekFillsEverySlotOncePerDay() {
	tags := []string{"breakfast", "lunch/dinner", "lunch/dinner"}
	var recipes []ResolvedRecipe
	for i := 0; i < 21; i++ {
		recipes = append(recipes, testRecipe(fmt.Sprintf("https://recipes.test/r/%d", i), 2, tags[i%3]))
	}

	instances, err := s.resolver.Resolve(ResolveInput{Slots: s.slots, Recipes: recipes, StartDate: monday})
	s.Require().NoError(err)
	s.Require().Len(instances, 21)

	perDay := map[int]map[MealSlot]int{}
	for _, instance := range instances {
		if perDay[instance.DayIndex] == nil {
			perDay[instance.DayIndex] = map[MealSlot]int{}
		}
		perDay[instance.DayIndex][instance.MealSlot]++
	}
	s.Len(perDay, 7)
	for day, slots := range perDay {
		for _, slot := range s.slots {
			s.Equal(1, slots[slot], "day %d slot %s", day, slot)
		}
	}
}

func (s *ResolverTestSuite) TestAllRecipesAmbiguousStillDistinct() {
	var recipes []ResolvedRecipe
	for i := 0; i < 3; i++ {
		recipes = append(recipes, testRecipe(fmt.Sprintf("https://recipes.test/r/%d", i), 1, "lunch/dinner"))
	}

	instances, err := s.resolver.Resolve(ResolveInput{Slots: s.slots, Recipes: recipes, StartDate: monday})
	s.Require().NoError(err)

	s.Equal(SlotLunch, instances[0].MealSlot)
	s.Equal(SlotDinner, instances[1].MealSlot)
	s.Equal(SlotBreakfast, instances[2].MealSlot)
}

func (s *ResolverTestSuite) TestAmbiguousRecipesAlternateEarliestAndLatest() {
	slots := []MealSlot{SlotBreakfast, SlotLunch, SlotSnack, SlotDinner}
	recipes := []ResolvedRecipe{
		testRecipe("r1", 1, "lunch/dinner"),
		testRecipe("r2", 1, "snack", "dinner"),
		testRecipe("r3", 1),
		testRecipe("r4", 1),
	}

	instances, err := s.resolver.Resolve(ResolveInput{Slots: slots, Recipes: recipes, StartDate: monday})
	s.Require().NoError(err)

	s.Equal(SlotLunch, instances[0].MealSlot)
	s.Equal(SlotDinner, instances[1].MealSlot)
	s.Equal(SlotBreakfast, instances[2].MealSlot)
	s.Equal(SlotSnack, instances[3].MealSlot)
}

func (s *ResolverTestSuite) TestShortInputLeavesGapsAtTheEnd() {
	var recipes []ResolvedRecipe
	for i := 0; i < 5; i++ {
		recipes = append(recipes, testRecipe(fmt.Sprintf("r%d", i), 1))
	}

	instances, err := s.resolver.Resolve(ResolveInput{Slots: s.slots, Recipes: recipes, StartDate: monday})
	s.Require().NoError(err)
	s.Require().Len(instances, 5)

	s.Equal([]int{0, 0, 0, 1, 1}, []int{instances[0].DayIndex, instances[1].DayIndex, instances[2].DayIndex, instances[3].DayIndex, instances[4].DayIndex})
	s.Equal(SlotBreakfast, instances[3].MealSlot)
	s.Equal(SlotLunch, instances[4].MealSlot)
}

func (s *ResolverTestSuite) TestTimestampsConvertedFromClientTimezone() {
	loc, err := time.LoadLocation("America/New_York")
	s.Require().NoError(err)

	recipes := []ResolvedRecipe{
		testRecipe("b0", 1, "breakfast"),
		testRecipe("l0", 1, "lunch"),
		testRecipe("d0", 1, "dinner"),
		testRecipe("b1", 1, "breakfast"),
		testRecipe("l1", 1, "lunch"),
		testRecipe("d1", 1, "dinner"),
	}

	instances, err := s.resolver.Resolve(ResolveInput{Slots: s.slots, Recipes: recipes, StartDate: monday, Location: loc})
	s.Require().NoError(err)

	s.Equal(time.Date(2024, time.January, 8, 12, 0, 0, 0, time.UTC), instances[0].ScheduledAtUTC)
	s.Equal(time.Date(2024, time.January, 9, 23, 0, 0, 0, time.UTC), instances[5].ScheduledAtUTC)
	s.Equal(time.UTC, instances[0].ScheduledAtUTC.Location())

	local := instances[5].LocalTime(loc)
	s.Equal(18, local.Hour())
	s.Equal(9, local.Day())
}

func (s *ResolverTestSuite) TestOriginalRefDefaultsToOwnRef() {
	instances, err := s.resolver.Resolve(ResolveInput{Slots: s.slots, Recipes: []ResolvedRecipe{testRecipe("r1", 1, "lunch")}, StartDate: monday})
	s.Require().NoError(err)

	s.Equal(RecipeRef("r1"), instances[0].OriginalRef)
	s.False(instances[0].Substituted)
}

func (s *ResolverTestSuite) TestEmptyInputs() {
	instances, err := s.resolver.Resolve(ResolveInput{Slots: s.slots, StartDate: monday})
	s.NoError(err)
	s.Empty(instances)

	_, err = s.resolver.Resolve(ResolveInput{Recipes: []ResolvedRecipe{testRecipe("r1", 1)}, StartDate: monday})
	s.ErrorIs(err, ErrNoSlots)
}

func TestResolverTestSuite(t *testing.T) {
	suite.Run(t, new(ResolverTestSuite))
}

func TestParseSlotSchedule(t *testing.T) {
	schedule, err := ParseSlotSchedule(map[string]string{"Dinner": "19:30", "supper": "21:00"})
	require.NoError(t, err)

	assert.Equal(t, SlotClock{Hour: 19, Minute: 30}, schedule.ClockFor(SlotDinner))
	assert.Equal(t, SlotClock{Hour: 21}, schedule.ClockFor("Supper"))
	assert.Equal(t, SlotClock{Hour: 7}, schedule.ClockFor(SlotBreakfast))
	assert.Equal(t, SlotClock{Hour: 12}, schedule.ClockFor("midnight-feast"))

	_, err = ParseSlotSchedule(map[string]string{"dinner": "7pm"})
	assert.Error(t, err)
}

func TestResolvedRecipe_Tags(t *testing.T) {
	recipe := testRecipe("r1", 0, "lunch/dinner", "Dinner", " snack ")

	assert.Equal(t, []MealSlot{SlotLunch, SlotDinner, SlotSnack}, recipe.Tags())
	assert.True(t, recipe.HasTag("LUNCH"))
	assert.False(t, recipe.HasTag(SlotBreakfast))
	assert.Equal(t, 1, recipe.Servings())
	assert.True(t, recipe.SharesTag(testRecipe("r2", 1, "dinner")))
	assert.False(t, recipe.SharesTag(testRecipe("r3", 1, "breakfast")))
}
