// Package mealplan provides the application layer for meal plan generation
// This implements the use cases defined in the inbound ports
package mealplan

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/application/fetch"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/client"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/inbound"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/outbound"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultPageSize = 20

// Settings are the planner defaults applied to incoming commands
type Settings struct {
	DefaultDays  int
	DefaultSlots []string
	// FavoriteSeed pins favorite selection when non-zero
	FavoriteSeed int64
}

// Dependencies groups the collaborators of the service
type Dependencies struct {
	Generator    outbound.MealPlanGenerator
	Recipes      outbound.RecipeLookup
	Consolidator *ShoppingConsolidator
	Plans        outbound.MealPlanRepository
	Profiles     outbound.ClientProfileRepository
	Resolver     *mealplan.Resolver
	Metrics      outbound.PlanMetrics
}

// Service implements the meal plan use cases
type Service struct {
	generator    outbound.MealPlanGenerator
	recipes      outbound.RecipeLookup
	consolidator *ShoppingConsolidator
	plans        outbound.MealPlanRepository
	profiles     outbound.ClientProfileRepository
	resolver     *mealplan.Resolver
	metrics      outbound.PlanMetrics
	settings     Settings
	validate     *validator.Validate
	tracer       trace.Tracer
	newPicker    func() mealplan.Picker
	logger       *zap.Logger
}

// Option customizes the service
type Option func(*Service)

// WithPicker overrides the source of randomness used to pick favorites
func WithPicker(newPicker func() mealplan.Picker) Option {
	return func(s *Service) {
		if newPicker != nil {
			s.newPicker = newPicker
		}
	}
}

// NewService creates a new meal plan service
func NewService(deps Dependencies, settings Settings, logger *zap.Logger, opts ...Option) *Service {
	if deps.Resolver == nil {
		deps.Resolver = mealplan.NewResolver(nil)
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if settings.DefaultDays < 1 {
		settings.DefaultDays = 7
	}
	if len(settings.DefaultSlots) == 0 {
		settings.DefaultSlots = []string{"breakfast", "lunch", "dinner"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		generator:    deps.Generator,
		recipes:      deps.Recipes,
		consolidator: deps.Consolidator,
		plans:        deps.Plans,
		profiles:     deps.Profiles,
		resolver:     deps.Resolver,
		metrics:      deps.Metrics,
		settings:     settings,
		validate:     validator.New(),
		tracer:       otel.Tracer("mealplan-service"),
		logger:       logger.Named("mealplan-service"),
	}
	s.newPicker = s.defaultPicker
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ inbound.MealPlanService = (*Service)(nil)

func (s *Service) defaultPicker() mealplan.Picker {
	if s.settings.FavoriteSeed != 0 {
		seed := uint64(s.settings.FavoriteSeed)
		return rand.New(rand.NewPCG(seed, seed))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// GenerateMealPlan runs the full pipeline: generator call, recipe resolution,
// slot assignment, favorite substitution, grid patch-back and shopping list.
func (s *Service) GenerateMealPlan(ctx context.Context, cmd inbound.GenerateMealPlanCommand) (*inbound.MealPlanDTO, error) {
	started := time.Now()

	if cmd.Days == 0 {
		cmd.Days = s.settings.DefaultDays
	}
	if len(cmd.Slots) == 0 {
		cmd.Slots = s.settings.DefaultSlots
	}
	if err := s.validate.Struct(cmd); err != nil {
		return nil, errors.FromValidator(err)
	}

	ctx, span := s.tracer.Start(ctx, "mealplan.generate",
		trace.WithAttributes(
			attribute.String("client.id", cmd.ClientID),
			attribute.Int("plan.days", cmd.Days),
		),
	)
	defer span.End()

	s.logger.Info("Generating meal plan",
		zap.String("client_id", cmd.ClientID),
		zap.Int("days", cmd.Days),
		zap.Strings("slots", cmd.Slots),
	)

	profile, err := s.loadProfile(ctx, cmd.ClientID)
	if err != nil {
		return nil, s.fail(span, "profile", err)
	}

	start := cmd.StartDate
	plan, err := mealplan.NewMealPlan(cmd.ClientID, time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC), cmd.Days, profile.Timezone)
	if err != nil {
		return nil, s.fail(span, "plan", errors.NewValidationError(err.Error()))
	}

	// 1. remote generator
	grid, err := s.generate(ctx, cmd, profile)
	if err != nil {
		return nil, s.fail(span, "generate", err)
	}
	cells := grid.Flatten()
	refs := make([]mealplan.RecipeRef, len(cells))
	for i, cell := range cells {
		refs[i] = cell.Ref
	}
	if len(refs) == 0 {
		return nil, s.fail(span, "generate", errors.NewPlanGenerationError("EMPTY", mealplan.ErrEmptyGrid))
	}

	// 2. resolve recipes in grid order
	resolved, fetched, err := s.fetchRecipes(ctx, "recipes", refs)
	if err != nil {
		return nil, s.fail(span, "recipes", err)
	}
	positions := make([]mealplan.GridPosition, len(fetched))
	for i, index := range fetched {
		positions[i] = cells[index].Position()
	}

	// 3. slot assignment
	instances, err := s.resolver.Resolve(mealplan.ResolveInput{
		Slots:     grid.SlotKeys(),
		Recipes:   resolved,
		Positions: positions,
		StartDate: plan.StartDate,
		Location:  plan.Location(),
	})
	if err != nil {
		return nil, s.fail(span, "resolve", errors.Wrap(err, "failed to resolve meal slots"))
	}

	// 4. favorites and reuse
	favorites, _, err := s.fetchRecipes(ctx, "favorites", profile.FavoriteRefs)
	if err != nil {
		return nil, s.fail(span, "favorites", err)
	}
	personalized := mealplan.Personalize(instances, favorites, mealplan.NewReuseLedger(), s.newPicker())

	// 5. patch the grid with substitutions
	patched, err := grid.Patch(personalized.Substitutions)
	if err != nil {
		var unknown *mealplan.UnknownRefError
		ref := ""
		if stderrors.As(err, &unknown) {
			ref = unknown.Ref.String()
		}
		return nil, s.fail(span, "patch", errors.NewUnknownOriginalRefError(ref, err))
	}

	// 6. shopping list
	shopping, err := s.consolidate(ctx, personalized.FinalRecipes())
	if err != nil {
		return nil, s.fail(span, "shopping", err)
	}

	plan.Complete(patched, len(refs), personalized, shopping)

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, s.fail(span, "persist", errors.NewDatabaseError("create meal plan", err))
	}
	s.publishEvents(plan)

	s.metrics.RecordPlanGenerated(time.Since(started), len(personalized.Instances), len(personalized.Substitutions), personalized.Uncommitted)
	span.SetAttributes(
		attribute.Int("plan.instances", len(personalized.Instances)),
		attribute.Int("plan.substitutions", len(personalized.Substitutions)),
		attribute.Bool("shopping.complete", shopping.Complete()),
	)

	s.logger.Info("Meal plan generated",
		zap.String("plan_id", plan.ID.String()),
		zap.Int("requested", len(refs)),
		zap.Int("scheduled", len(personalized.Instances)),
		zap.Int("substitutions", len(personalized.Substitutions)),
		zap.Int("uncommitted", personalized.Uncommitted),
		zap.Bool("shopping_complete", shopping.Complete()),
		zap.Duration("duration", time.Since(started)),
	)

	return toMealPlanDTO(plan), nil
}

// GetMealPlan returns a stored plan
func (s *Service) GetMealPlan(ctx context.Context, planID uuid.UUID) (*inbound.MealPlanDTO, error) {
	plan, err := s.findPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return toMealPlanDTO(plan), nil
}

// ListMealPlans returns a client's plans, newest first
func (s *Service) ListMealPlans(ctx context.Context, clientID string, params inbound.PaginationParams) (*inbound.MealPlanList, error) {
	if clientID == "" {
		return nil, errors.NewBadRequestError("client id is required")
	}
	if err := s.validate.Struct(params); err != nil {
		return nil, errors.FromValidator(err)
	}
	if params.Limit == 0 {
		params.Limit = defaultPageSize
	}

	plans, total, err := s.plans.FindByClientID(ctx, clientID, params.Offset, params.Limit)
	if err != nil {
		return nil, errors.NewDatabaseError("list meal plans", err)
	}

	list := &inbound.MealPlanList{
		Plans:  make([]inbound.MealPlanDTO, 0, len(plans)),
		Total:  total,
		Offset: params.Offset,
		Limit:  params.Limit,
	}
	for _, plan := range plans {
		list.Plans = append(list.Plans, *toMealPlanDTO(plan))
	}
	return list, nil
}

// RebuildShoppingList re-runs consolidation for a stored plan and replaces its list
func (s *Service) RebuildShoppingList(ctx context.Context, planID uuid.UUID) (*inbound.ShoppingListDTO, error) {
	ctx, span := s.tracer.Start(ctx, "mealplan.rebuild_shopping_list",
		trace.WithAttributes(attribute.String("plan.id", planID.String())),
	)
	defer span.End()

	plan, err := s.findPlan(ctx, planID)
	if err != nil {
		return nil, s.fail(span, "load", err)
	}

	shopping, err := s.consolidate(ctx, plan.FinalRecipes())
	if err != nil {
		return nil, s.fail(span, "shopping", err)
	}
	plan.ReplaceShopping(shopping)

	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, s.fail(span, "persist", errors.NewDatabaseError("update meal plan", err))
	}
	s.publishEvents(plan)

	dto := toShoppingListDTO(plan.Shopping)
	return &dto, nil
}

func (s *Service) findPlan(ctx context.Context, planID uuid.UUID) (*mealplan.MealPlan, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		if stderrors.Is(err, outbound.ErrNotFound) {
			return nil, errors.NewMealPlanNotFoundError(planID.String())
		}
		return nil, errors.NewDatabaseError("find meal plan", err)
	}
	return plan, nil
}

// loadProfile falls back to UTC and no favorites for clients without a profile
func (s *Service) loadProfile(ctx context.Context, clientID string) (*client.Profile, error) {
	profile, err := s.profiles.FindByClientID(ctx, clientID)
	if err == nil {
		return profile, nil
	}
	if !stderrors.Is(err, outbound.ErrNotFound) {
		return nil, errors.NewDatabaseError("find client profile", err)
	}

	s.logger.Info("No client profile, planning in UTC without favorites",
		zap.String("client_id", clientID),
	)
	return &client.Profile{ClientID: clientID, Timezone: "UTC"}, nil
}

func (s *Service) generate(ctx context.Context, cmd inbound.GenerateMealPlanCommand, profile *client.Profile) (mealplan.WeeklySelectionGrid, error) {
	ctx, span := s.tracer.Start(ctx, "mealplan.generator")
	defer span.End()

	prefs := profile.Preferences
	if cmd.Preferences != nil {
		prefs = toPreferences(*cmd.Preferences)
	}

	slots := make([]mealplan.MealSlot, len(cmd.Slots))
	for i, slot := range cmd.Slots {
		slots[i] = mealplan.NewMealSlot(slot)
	}
	exclusions := make([]mealplan.RecipeRef, len(cmd.Exclusions))
	for i, ref := range cmd.Exclusions {
		exclusions[i] = mealplan.RecipeRef(ref)
	}

	grid, err := s.generator.GeneratePlan(ctx, outbound.PlanRequest{
		Days:        cmd.Days,
		Slots:       slots,
		Preferences: prefs,
		Exclusions:  exclusions,
	})
	if err != nil {
		span.RecordError(err)
		return mealplan.WeeklySelectionGrid{}, remoteError("planner", err)
	}
	span.SetAttributes(attribute.Int("grid.days", len(grid.Days)))
	return grid, nil
}

// fetchRecipes resolves refs concurrently. Failed lookups are dropped and
// the survivors keep the order of refs; the returned indices point each
// survivor back into refs.
func (s *Service) fetchRecipes(ctx context.Context, kind string, refs []mealplan.RecipeRef) ([]mealplan.ResolvedRecipe, []int, error) {
	if len(refs) == 0 {
		return nil, nil, nil
	}

	ctx, span := s.tracer.Start(ctx, "mealplan.fetch_"+kind,
		trace.WithAttributes(attribute.Int("refs", len(refs))),
	)
	defer span.End()

	result, err := fetch.BulkFetch(ctx, s.logger.With(zap.String("kind", kind)), refs, s.recipes.LookupRecipe)
	if err != nil {
		return nil, nil, errors.Wrap(err, "recipe lookup interrupted")
	}

	s.metrics.RecordBulkFetch(kind, result.SuccessCount, result.FailureCount)
	span.SetAttributes(
		attribute.Int("succeeded", result.SuccessCount),
		attribute.Int("failed", result.FailureCount),
	)
	return result.Succeeded, result.Indices, nil
}

func (s *Service) consolidate(ctx context.Context, recipes []mealplan.ResolvedRecipe) (mealplan.ShoppingOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "mealplan.shopping_list")
	defer span.End()

	outcome, err := s.consolidator.Consolidate(ctx, recipes)
	if err != nil {
		return mealplan.ShoppingOutcome{}, errors.Wrap(err, "shopping list consolidation interrupted")
	}
	span.SetAttributes(
		attribute.Int("batches", outcome.Batches),
		attribute.Int("failed_batches", len(outcome.FailedBatches)),
	)
	return outcome, nil
}

func (s *Service) publishEvents(plan *mealplan.MealPlan) {
	for _, event := range plan.Events() {
		s.logger.Info("Domain event",
			zap.String("event", event.EventName()),
			zap.String("plan_id", plan.ID.String()),
			zap.Time("occurred_at", event.OccurredAt()),
		)
	}
}

func (s *Service) fail(span trace.Span, stage string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	s.metrics.RecordPlanFailed(stage)
	s.logger.Error("Meal plan pipeline failed",
		zap.String("stage", stage),
		zap.Error(err),
	)
	return err
}

// remoteError maps fetch-layer failures onto application errors
func remoteError(service string, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	var exhausted *fetch.ExhaustedError
	if stderrors.As(err, &exhausted) {
		return errors.NewRetriesExhaustedError(service, exhausted.Attempts, exhausted.Last)
	}

	var statusErr *fetch.StatusError
	if stderrors.As(err, &statusErr) && service == "planner" {
		return errors.NewPlanGenerationError(strconv.Itoa(statusErr.StatusCode), err)
	}

	return errors.NewExternalServiceError(service, err)
}

type nopMetrics struct{}

func (nopMetrics) RecordPlanGenerated(time.Duration, int, int, int) {}
func (nopMetrics) RecordPlanFailed(string)                          {}
func (nopMetrics) RecordBulkFetch(string, int, int)                 {}
func (nopMetrics) RecordShoppingBatches(int, int)                   {}
