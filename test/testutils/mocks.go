// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/client"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/inbound"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/outbound"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockMealPlanGenerator provides a mock implementation of MealPlanGenerator
type MockMealPlanGenerator struct {
	mock.Mock
}

// GeneratePlan returns the configured grid
func (m *MockMealPlanGenerator) GeneratePlan(ctx context.Context, req outbound.PlanRequest) (mealplan.WeeklySelectionGrid, error) {
	args := m.Called(ctx, req)
	grid, _ := args.Get(0).(mealplan.WeeklySelectionGrid)
	return grid, args.Error(1)
}

// MockRecipeLookup serves recipes from a map. Refs listed in Failing return
// their error; refs that are neither stored nor failing fall through to the mock.
type MockRecipeLookup struct {
	mock.Mock
	mu      sync.RWMutex
	recipes map[mealplan.RecipeRef]mealplan.ResolvedRecipe
	failing map[mealplan.RecipeRef]error
	calls   map[mealplan.RecipeRef]int
}

// NewMockRecipeLookup creates a lookup backed by the given recipes
func NewMockRecipeLookup(recipes ...mealplan.ResolvedRecipe) *MockRecipeLookup {
	m := &MockRecipeLookup{
		recipes: make(map[mealplan.RecipeRef]mealplan.ResolvedRecipe),
		failing: make(map[mealplan.RecipeRef]error),
		calls:   make(map[mealplan.RecipeRef]int),
	}
	for _, r := range recipes {
		m.Add(r)
	}
	return m
}

// Add stores a recipe
func (m *MockRecipeLookup) Add(r mealplan.ResolvedRecipe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipes[r.Identity()] = r
}

// Fail makes lookups of ref return err
func (m *MockRecipeLookup) Fail(ref mealplan.RecipeRef, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[ref.Normalize()] = err
}

// Calls returns how often ref was looked up
func (m *MockRecipeLookup) Calls(ref mealplan.RecipeRef) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[ref.Normalize()]
}

// LookupRecipe resolves a reference
func (m *MockRecipeLookup) LookupRecipe(ctx context.Context, ref mealplan.RecipeRef) (mealplan.ResolvedRecipe, error) {
	key := ref.Normalize()

	m.mu.Lock()
	m.calls[key]++
	err, failing := m.failing[key]
	r, stored := m.recipes[key]
	m.mu.Unlock()

	if failing {
		return mealplan.ResolvedRecipe{}, err
	}
	if stored {
		return r, nil
	}

	args := m.Called(ctx, ref)
	found, _ := args.Get(0).(mealplan.ResolvedRecipe)
	return found, args.Error(1)
}

// MockShoppingListService echoes each entry back as a shopping line unless
// the batch index is configured to fail
type MockShoppingListService struct {
	mu       sync.Mutex
	failing  map[int]error
	received []mealplan.ShoppingBatch
	delay    time.Duration
}

// NewMockShoppingListService creates an echoing shopping-list service
func NewMockShoppingListService() *MockShoppingListService {
	return &MockShoppingListService{failing: make(map[int]error)}
}

// FailBatch makes the batch with the given index fail
func (m *MockShoppingListService) FailBatch(index int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[index] = err
}

// ClearFailures lets every batch succeed again
func (m *MockShoppingListService) ClearFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = make(map[int]error)
}

// SetDelay slows every batch down
func (m *MockShoppingListService) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Received returns the batches seen so far
func (m *MockShoppingListService) Received() []mealplan.ShoppingBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mealplan.ShoppingBatch(nil), m.received...)
}

// ConsolidateBatch turns every entry into a line keyed by food
func (m *MockShoppingListService) ConsolidateBatch(ctx context.Context, batch mealplan.ShoppingBatch) ([]mealplan.ShoppingLine, error) {
	m.mu.Lock()
	m.received = append(m.received, batch)
	err := m.failing[batch.Index]
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	lines := make([]mealplan.ShoppingLine, 0, len(batch.Entries))
	for _, entry := range batch.Entries {
		lines = append(lines, mealplan.ShoppingLine{
			IngredientName: entry.Food,
			Quantities:     []mealplan.QuantityLine{{Quantity: entry.Quantity, Unit: entry.Measure}},
		})
	}
	return lines, nil
}

// MockMealPlanRepository provides an in-memory MealPlanRepository that can be
// told to fail through the embedded mock
type MockMealPlanRepository struct {
	mock.Mock
	mu    sync.RWMutex
	plans map[uuid.UUID]*mealplan.MealPlan
	fail  bool
}

// NewMockMealPlanRepository creates a new mock meal plan repository
func NewMockMealPlanRepository() *MockMealPlanRepository {
	return &MockMealPlanRepository{plans: make(map[uuid.UUID]*mealplan.MealPlan)}
}

// FailWrites makes Create and Update consult the mock for their error
func (m *MockMealPlanRepository) FailWrites() {
	m.fail = true
}

// Create stores a plan
func (m *MockMealPlanRepository) Create(ctx context.Context, plan *mealplan.MealPlan) error {
	if m.fail {
		return m.Called(ctx, plan).Error(0)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[plan.ID] = plan
	return nil
}

// Update replaces a plan
func (m *MockMealPlanRepository) Update(ctx context.Context, plan *mealplan.MealPlan) error {
	if m.fail {
		return m.Called(ctx, plan).Error(0)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[plan.ID]; !ok {
		return outbound.ErrNotFound
	}
	m.plans[plan.ID] = plan
	return nil
}

// FindByID finds a plan by ID
func (m *MockMealPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*mealplan.MealPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if plan, ok := m.plans[id]; ok {
		return plan, nil
	}
	return nil, outbound.ErrNotFound
}

// FindByClientID pages through a client's plans
func (m *MockMealPlanRepository) FindByClientID(ctx context.Context, clientID string, offset, limit int) ([]*mealplan.MealPlan, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*mealplan.MealPlan
	for _, plan := range m.plans {
		if plan.ClientID == clientID {
			matched = append(matched, plan)
		}
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// Count returns the number of stored plans
func (m *MockMealPlanRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.plans)
}

// MockClientProfileRepository provides a mock implementation of ClientProfileRepository
type MockClientProfileRepository struct {
	mock.Mock
}

// Save saves a profile
func (m *MockClientProfileRepository) Save(ctx context.Context, profile *client.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// FindByClientID finds a profile
func (m *MockClientProfileRepository) FindByClientID(ctx context.Context, clientID string) (*client.Profile, error) {
	args := m.Called(ctx, clientID)
	profile, _ := args.Get(0).(*client.Profile)
	return profile, args.Error(1)
}

// MockCacheRepository provides a mock implementation of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

// Get gets a value from cache
func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	value, _ := args.Get(0).([]byte)
	return value, args.Error(1)
}

// Set sets a value in cache
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Delete deletes a value from cache
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Exists checks if a key exists in cache
func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// MockMealPlanService provides a mock implementation of the inbound MealPlanService
type MockMealPlanService struct {
	mock.Mock
}

// GenerateMealPlan returns the configured plan
func (m *MockMealPlanService) GenerateMealPlan(ctx context.Context, cmd inbound.GenerateMealPlanCommand) (*inbound.MealPlanDTO, error) {
	args := m.Called(ctx, cmd)
	plan, _ := args.Get(0).(*inbound.MealPlanDTO)
	return plan, args.Error(1)
}

// RebuildShoppingList returns the configured list
func (m *MockMealPlanService) RebuildShoppingList(ctx context.Context, planID uuid.UUID) (*inbound.ShoppingListDTO, error) {
	args := m.Called(ctx, planID)
	list, _ := args.Get(0).(*inbound.ShoppingListDTO)
	return list, args.Error(1)
}

// GetMealPlan returns the configured plan
func (m *MockMealPlanService) GetMealPlan(ctx context.Context, planID uuid.UUID) (*inbound.MealPlanDTO, error) {
	args := m.Called(ctx, planID)
	plan, _ := args.Get(0).(*inbound.MealPlanDTO)
	return plan, args.Error(1)
}

// ListMealPlans returns the configured page
func (m *MockMealPlanService) ListMealPlans(ctx context.Context, clientID string, params inbound.PaginationParams) (*inbound.MealPlanList, error) {
	args := m.Called(ctx, clientID, params)
	list, _ := args.Get(0).(*inbound.MealPlanList)
	return list, args.Error(1)
}

// MockClientProfileService provides a mock implementation of the inbound ClientProfileService
type MockClientProfileService struct {
	mock.Mock
}

// UpsertProfile returns the configured profile
func (m *MockClientProfileService) UpsertProfile(ctx context.Context, cmd inbound.UpsertProfileCommand) (*inbound.ClientProfileDTO, error) {
	args := m.Called(ctx, cmd)
	profile, _ := args.Get(0).(*inbound.ClientProfileDTO)
	return profile, args.Error(1)
}

// GetProfile returns the configured profile
func (m *MockClientProfileService) GetProfile(ctx context.Context, clientID string) (*inbound.ClientProfileDTO, error) {
	args := m.Called(ctx, clientID)
	profile, _ := args.Get(0).(*inbound.ClientProfileDTO)
	return profile, args.Error(1)
}
