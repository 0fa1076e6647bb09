package mealplan_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"
	_ "time/tzdata"

	app "github.com/TroydonAnabolic/meal-planner-website-sub000/internal/application/mealplan"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/application/fetch"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/inbound"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/outbound"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/pkg/errors"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

var monday = time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)

type zeroPicker struct{}

func (zeroPicker) IntN(int) int { return 0 }

// scriptedPicker returns picks in order
type scriptedPicker struct {
	picks []int
}

func (p *scriptedPicker) IntN(n int) int {
	pick := p.picks[0]
	if len(p.picks) > 1 {
		p.picks = p.picks[1:]
	}
	if pick >= n {
		return n - 1
	}
	return pick
}

type ServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	generator *testutils.MockMealPlanGenerator
	recipes   *testutils.MockRecipeLookup
	shopping  *testutils.MockShoppingListService
	plans     *testutils.MockMealPlanRepository
	profiles  *testutils.MockClientProfileRepository
	factory   *testutils.RecipeFactory
	service   *app.Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.generator = &testutils.MockMealPlanGenerator{}
	s.recipes = testutils.NewMockRecipeLookup()
	s.shopping = testutils.NewMockShoppingListService()
	s.plans = testutils.NewMockMealPlanRepository()
	s.profiles = &testutils.MockClientProfileRepository{}
	s.factory = testutils.NewRecipeFactory(42)

	logger := zaptest.NewLogger(s.T())
	s.service = app.NewService(app.Dependencies{
		Generator:    s.generator,
		Recipes:      s.recipes,
		Consolidator: app.NewShoppingConsolidator(s.shopping, app.DefaultBatchDivisor, nil, logger),
		Plans:        s.plans,
		Profiles:     s.profiles,
	}, app.Settings{DefaultDays: 7}, logger, app.WithPicker(func() mealplan.Picker { return zeroPicker{} }))
}

// week stores days×3 slot-tagged recipes in the lookup and makes the
// generator return them as a grid
func (s *ServiceTestSuite) week(days int) []mealplan.ResolvedRecipe {
	recipes := s.factory.Week(days, "breakfast", "lunch", "dinner")
	for _, r := range recipes {
		s.recipes.Add(r)
	}
	s.generator.On("GeneratePlan", mock.Anything, mock.MatchedBy(func(req outbound.PlanRequest) bool {
		return req.Days == days && len(req.Slots) == 3
	})).Return(testutils.Grid(recipes, "breakfast", "lunch", "dinner"), nil)
	return recipes
}

func (s *ServiceTestSuite) noProfile(clientID string) {
	s.profiles.On("FindByClientID", mock.Anything, clientID).Return(nil, outbound.ErrNotFound)
}

func (s *ServiceTestSuite) command(clientID string, days int) inbound.GenerateMealPlanCommand {
	return inbound.GenerateMealPlanCommand{ClientID: clientID, StartDate: monday, Days: days}
}

func (s *ServiceTestSuite) TestGenerateMealPlan_FullWeek() {
	recipes := s.week(7)
	s.noProfile("client-1")

	plan, err := s.service.GenerateMealPlan(s.ctx, s.command("client-1", 7))
	s.Require().NoError(err)

	s.Equal("client-1", plan.ClientID)
	s.Equal("2024-01-08", plan.StartDate)
	s.Equal("UTC", plan.Timezone)
	s.Equal(21, plan.RequestedRecipes)
	s.Equal(21, plan.ResolvedRecipes)
	s.Require().Len(plan.Meals, 21)
	s.Empty(plan.Substitutions)

	slots := []string{"breakfast", "lunch", "dinner"}
	for i, meal := range plan.Meals {
		s.Equal(i/3, meal.DayIndex)
		s.Equal(slots[i%3], meal.MealSlot)
		s.Equal(recipes[i].Ref.String(), meal.RecipeRef)
		s.Equal(monday.AddDate(0, 0, i/3).Format("2006-01-02"), meal.ScheduledAtUTC.Format("2006-01-02"))
		s.True(meal.Committed)
	}

	s.True(plan.Shopping.Complete)
	s.Positive(plan.Shopping.Batches)
	s.NotEmpty(plan.Shopping.Items)
	s.Equal(1, s.plans.Count())
	s.generator.AssertExpectations(s.T())

	stored, err := s.plans.FindByID(s.ctx, plan.ID)
	s.Require().NoError(err)
	planAssert := testutils.NewPlanAssertions(s.T())
	planAssert.SlotsInOrder(stored.Instances, []mealplan.MealSlot{"breakfast", "lunch", "dinner"})
	planAssert.ServingsWithinYield(stored.Instances)
}

func (s *ServiceTestSuite) TestGenerateMealPlan_DefaultsDays() {
	s.week(7)
	s.noProfile("client-1")

	plan, err := s.service.GenerateMealPlan(s.ctx, s.command("client-1", 0))
	s.Require().NoError(err)
	s.Equal(7, plan.Days)
}

func (s *ServiceTestSuite) TestGenerateMealPlan_SubstitutesFavorites() {
	recipes := s.week(3)
	favorite := s.factory.Recipe(2, 3, "lunch")
	s.recipes.Add(favorite)

	profile := testutils.NewProfileFactory(7).Profile("Pacific/Auckland", favorite)
	profile.ClientID = "client-2"
	s.profiles.On("FindByClientID", mock.Anything, "client-2").Return(profile, nil)

	plan, err := s.service.GenerateMealPlan(s.ctx, s.command("client-2", 3))
	s.Require().NoError(err)

	s.Equal("Pacific/Auckland", plan.Timezone)
	s.Require().Len(plan.Substitutions, 2)
	s.Equal(recipes[1].Ref.String(), plan.Substitutions[0].OriginalRef)
	s.Equal(recipes[4].Ref.String(), plan.Substitutions[1].OriginalRef)
	for _, sub := range plan.Substitutions {
		s.Equal(favorite.Ref.String(), sub.SubstituteRef)
	}

	// third lunch stays because the favorite only yields two servings
	s.True(plan.Meals[1].Substituted)
	s.True(plan.Meals[4].Substituted)
	s.False(plan.Meals[7].Substituted)
	s.Equal(recipes[7].Ref.String(), plan.Meals[7].RecipeRef)
	s.Equal(recipes[1].Ref.String(), plan.Meals[1].OriginalRef)

	// the grid keeps the original and exposes the substitute
	lunch0 := plan.Grid[0].Sections[1]
	s.Equal(recipes[1].Ref.String(), lunch0.RecipeRef)
	s.Equal(favorite.Ref.String(), lunch0.AssignedOverrideRef)
	s.Equal(favorite.Ref.String(), lunch0.VisibleRef)
	lunch2 := plan.Grid[2].Sections[1]
	s.Empty(lunch2.AssignedOverrideRef)
	s.Equal(recipes[7].Ref.String(), lunch2.VisibleRef)

	s.Equal(1, s.recipes.Calls(favorite.Ref))
}

func (s *ServiceTestSuite) TestGenerateMealPlan_RepeatedRecipePatchesOwnCell() {
	missing := s.factory.Recipe(1, 2, "lunch")
	repeated := s.factory.Recipe(2, 2, "lunch")
	favorite := s.factory.Recipe(2, 2, "lunch")
	s.recipes.Add(repeated)
	s.recipes.Add(favorite)
	s.recipes.Fail(missing.Ref, errors.NewRecipeNotFoundError(missing.Ref.String()))

	grid := testutils.Grid([]mealplan.ResolvedRecipe{missing, repeated, repeated}, "lunch")
	s.generator.On("GeneratePlan", mock.Anything, mock.Anything).Return(grid, nil)

	profile := testutils.NewProfileFactory(7).Profile("UTC", repeated, favorite)
	profile.ClientID = "client-3"
	s.profiles.On("FindByClientID", mock.Anything, "client-3").Return(profile, nil)

	logger := zaptest.NewLogger(s.T())
	service := app.NewService(app.Dependencies{
		Generator:    s.generator,
		Recipes:      s.recipes,
		Consolidator: app.NewShoppingConsolidator(s.shopping, app.DefaultBatchDivisor, nil, logger),
		Plans:        s.plans,
		Profiles:     s.profiles,
	}, app.Settings{DefaultDays: 3}, logger, app.WithPicker(func() mealplan.Picker {
		// first repeat keeps itself, second takes the other favorite
		return &scriptedPicker{picks: []int{0, 1}}
	}))

	plan, err := service.GenerateMealPlan(s.ctx, s.command("client-3", 3))
	s.Require().NoError(err)

	s.Require().Len(plan.Meals, 2)
	s.False(plan.Meals[0].Substituted)
	s.True(plan.Meals[1].Substituted)
	s.Require().Len(plan.Substitutions, 1)

	s.Require().Len(plan.Grid, 3)
	s.Empty(plan.Grid[0].Sections[0].AssignedOverrideRef)
	s.Empty(plan.Grid[1].Sections[0].AssignedOverrideRef, "kept repeat must not take the substitute")
	s.Equal(repeated.Ref.String(), plan.Grid[1].Sections[0].VisibleRef)
	s.Equal(favorite.Ref.String(), plan.Grid[2].Sections[0].AssignedOverrideRef)
	s.Equal(repeated.Ref.String(), plan.Grid[2].Sections[0].RecipeRef)
}

func (s *ServiceTestSuite) TestGenerateMealPlan_DropsFailedRecipes() {
	recipes := s.week(2)
	s.recipes.Fail(recipes[2].Ref, errors.NewRecipeNotFoundError(recipes[2].Ref.String()))
	s.noProfile("client-1")

	plan, err := s.service.GenerateMealPlan(s.ctx, s.command("client-1", 2))
	s.Require().NoError(err)

	s.Equal(6, plan.RequestedRecipes)
	s.Equal(5, plan.ResolvedRecipes)
	for _, meal := range plan.Meals {
		s.NotEqual(recipes[2].Ref.String(), meal.RecipeRef)
	}
}

func (s *ServiceTestSuite) TestGenerateMealPlan_PartialShoppingList() {
	s.week(2)
	s.noProfile("client-1")
	s.shopping.FailBatch(0, stderrors.New("shopping service unavailable"))

	plan, err := s.service.GenerateMealPlan(s.ctx, s.command("client-1", 2))
	s.Require().NoError(err)

	s.False(plan.Shopping.Complete)
	s.Require().Len(plan.Shopping.FailedBatches, 1)
	s.Equal(0, plan.Shopping.FailedBatches[0].Index)
	s.Contains(plan.Shopping.FailedBatches[0].Reason, "unavailable")
	s.Equal(1, s.plans.Count())
}

func (s *ServiceTestSuite) TestGenerateMealPlan_GeneratorErrors() {
	tests := []struct {
		name string
		err  error
		code errors.ErrorCode
	}{
		{
			name: "non-OK status",
			err:  errors.NewPlanGenerationError("NOT_OK", nil),
			code: errors.CodePlanGenerationFailed,
		},
		{
			name: "client error",
			err:  &fetch.StatusError{Service: "planner", StatusCode: 400, Body: "bad request"},
			code: errors.CodePlanGenerationFailed,
		},
		{
			name: "retries exhausted",
			err:  &fetch.ExhaustedError{Service: "planner", Attempts: 6, Last: &fetch.StatusError{Service: "planner", StatusCode: 503}},
			code: errors.CodeRetriesExhausted,
		},
		{
			name: "transport failure",
			err:  stderrors.New("connection reset"),
			code: errors.CodeExternalServiceError,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			s.noProfile("client-1")
			s.generator.On("GeneratePlan", mock.Anything, mock.Anything).Return(mealplan.WeeklySelectionGrid{}, tt.err)

			_, err := s.service.GenerateMealPlan(s.ctx, s.command("client-1", 7))
			s.Require().Error(err)
			s.Equal(tt.code, errors.GetCode(err))
			s.Zero(s.plans.Count())
		})
	}
}

func (s *ServiceTestSuite) TestGenerateMealPlan_EmptyGrid() {
	s.noProfile("client-1")
	s.generator.On("GeneratePlan", mock.Anything, mock.Anything).Return(mealplan.WeeklySelectionGrid{}, nil)

	_, err := s.service.GenerateMealPlan(s.ctx, s.command("client-1", 7))
	s.Require().Error(err)
	s.Equal(errors.CodePlanGenerationFailed, errors.GetCode(err))
	s.ErrorIs(err, mealplan.ErrEmptyGrid)
}

func (s *ServiceTestSuite) TestGenerateMealPlan_Validation() {
	tests := []struct {
		name string
		cmd  inbound.GenerateMealPlanCommand
	}{
		{name: "missing client", cmd: inbound.GenerateMealPlanCommand{StartDate: monday}},
		{name: "missing start date", cmd: inbound.GenerateMealPlanCommand{ClientID: "client-1"}},
		{name: "too many days", cmd: inbound.GenerateMealPlanCommand{ClientID: "client-1", StartDate: monday, Days: 30}},
		{name: "blank slot", cmd: inbound.GenerateMealPlanCommand{ClientID: "client-1", StartDate: monday, Slots: []string{"lunch", ""}}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.GenerateMealPlan(s.ctx, tt.cmd)
			s.Require().Error(err)
			s.Equal(errors.CodeValidationFailed, errors.GetCode(err))
		})
	}
	s.generator.AssertNotCalled(s.T(), "GeneratePlan", mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestGenerateMealPlan_ProfileStoreDown() {
	s.profiles.On("FindByClientID", mock.Anything, "client-1").Return(nil, stderrors.New("connection refused"))

	_, err := s.service.GenerateMealPlan(s.ctx, s.command("client-1", 7))
	s.Require().Error(err)
	s.Equal(errors.CodeDatabaseError, errors.GetCode(err))
}

func (s *ServiceTestSuite) TestGenerateMealPlan_PersistFailure() {
	s.week(1)
	s.noProfile("client-1")
	s.plans.FailWrites()
	s.plans.On("Create", mock.Anything, mock.Anything).Return(stderrors.New("disk full"))

	_, err := s.service.GenerateMealPlan(s.ctx, s.command("client-1", 1))
	s.Require().Error(err)
	s.Equal(errors.CodeDatabaseError, errors.GetCode(err))
}

func (s *ServiceTestSuite) TestGetMealPlan() {
	s.week(1)
	s.noProfile("client-1")

	created, err := s.service.GenerateMealPlan(s.ctx, s.command("client-1", 1))
	s.Require().NoError(err)

	found, err := s.service.GetMealPlan(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)
	s.Len(found.Meals, 3)

	_, err = s.service.GetMealPlan(s.ctx, uuid.New())
	s.Require().Error(err)
	s.Equal(errors.CodeMealPlanNotFound, errors.GetCode(err))
}

func (s *ServiceTestSuite) TestListMealPlans() {
	s.week(1)
	s.noProfile("client-1")

	for i := 0; i < 2; i++ {
		_, err := s.service.GenerateMealPlan(s.ctx, s.command("client-1", 1))
		s.Require().NoError(err)
	}

	list, err := s.service.ListMealPlans(s.ctx, "client-1", inbound.PaginationParams{Limit: 1})
	s.Require().NoError(err)
	s.Equal(2, list.Total)
	s.Len(list.Plans, 1)
	s.Equal(1, list.Limit)

	list, err = s.service.ListMealPlans(s.ctx, "client-1", inbound.PaginationParams{})
	s.Require().NoError(err)
	s.Len(list.Plans, 2)
	s.Equal(20, list.Limit)

	_, err = s.service.ListMealPlans(s.ctx, "", inbound.PaginationParams{})
	s.Equal(errors.CodeBadRequest, errors.GetCode(err))

	_, err = s.service.ListMealPlans(s.ctx, "client-1", inbound.PaginationParams{Limit: 500})
	s.Equal(errors.CodeValidationFailed, errors.GetCode(err))
}

func (s *ServiceTestSuite) TestRebuildShoppingList() {
	s.week(2)
	s.noProfile("client-1")
	s.shopping.FailBatch(1, stderrors.New("timeout"))

	created, err := s.service.GenerateMealPlan(s.ctx, s.command("client-1", 2))
	s.Require().NoError(err)
	s.Require().False(created.Shopping.Complete)

	s.shopping.ClearFailures()
	rebuilt, err := s.service.RebuildShoppingList(s.ctx, created.ID)
	s.Require().NoError(err)
	s.True(rebuilt.Complete)
	s.Empty(rebuilt.FailedBatches)
	s.Equal(created.Shopping.Batches, rebuilt.Batches)

	stored, err := s.service.GetMealPlan(s.ctx, created.ID)
	s.Require().NoError(err)
	s.True(stored.Shopping.Complete)

	_, err = s.service.RebuildShoppingList(s.ctx, uuid.New())
	s.Equal(errors.CodeMealPlanNotFound, errors.GetCode(err))
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func TestNewService_Defaults(t *testing.T) {
	factory := testutils.NewRecipeFactory(1)
	recipes := factory.Week(7, "breakfast", "lunch", "dinner")

	generator := &testutils.MockMealPlanGenerator{}
	generator.On("GeneratePlan", mock.Anything, mock.MatchedBy(func(req outbound.PlanRequest) bool {
		return req.Days == 7 &&
			assert.ObjectsAreEqual([]mealplan.MealSlot{"breakfast", "lunch", "dinner"}, req.Slots)
	})).Return(testutils.Grid(recipes, "breakfast", "lunch", "dinner"), nil)

	profiles := &testutils.MockClientProfileRepository{}
	profiles.On("FindByClientID", mock.Anything, "client-1").Return(nil, outbound.ErrNotFound)

	service := app.NewService(app.Dependencies{
		Generator:    generator,
		Recipes:      testutils.NewMockRecipeLookup(recipes...),
		Consolidator: app.NewShoppingConsolidator(testutils.NewMockShoppingListService(), 0, nil, nil),
		Plans:        testutils.NewMockMealPlanRepository(),
		Profiles:     profiles,
	}, app.Settings{FavoriteSeed: 99}, nil)

	plan, err := service.GenerateMealPlan(context.Background(), inbound.GenerateMealPlanCommand{ClientID: "client-1", StartDate: monday})
	require.NoError(t, err)
	assert.Equal(t, 7, plan.Days)
	assert.Len(t, plan.Meals, 21)
	generator.AssertExpectations(t)
}
