package cache_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/cache"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/config"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/persistence/memory"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/outbound"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/pkg/errors"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCachedRecipeLookup_CachesByNormalizedRef(t *testing.T) {
	recipe := testutils.NewRecipeFactory(5).Recipe(2, 3, "dinner")
	remote := testutils.NewMockRecipeLookup(recipe)
	store := memory.NewCacheRepository(0)

	lookup := cache.NewCachedRecipeLookup(remote, store, time.Hour, zaptest.NewLogger(t))
	ctx := context.Background()

	first, err := lookup.LookupRecipe(ctx, recipe.Ref)
	require.NoError(t, err)
	assert.Equal(t, recipe, first)

	variant := recipe.Ref + "?type=public"
	second, err := lookup.LookupRecipe(ctx, variant)
	require.NoError(t, err)
	assert.Equal(t, variant, second.Ref)
	assert.Equal(t, recipe.Label, second.Label)
	assert.Equal(t, recipe.Ingredients, second.Ingredients)

	assert.Equal(t, 1, remote.Calls(recipe.Ref))
	hits, misses := lookup.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	exists, err := store.Exists(ctx, cache.RecipeKey(recipe.Ref))
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, lookup.Invalidate(ctx, recipe.Ref))
	_, err = lookup.LookupRecipe(ctx, recipe.Ref)
	require.NoError(t, err)
	assert.Equal(t, 2, remote.Calls(recipe.Ref))
}

func TestCachedRecipeLookup_FailuresAreNotCached(t *testing.T) {
	remote := testutils.NewMockRecipeLookup()
	remote.Fail("http://recipes.test/gone", errors.NewRecipeNotFoundError("http://recipes.test/gone"))
	store := memory.NewCacheRepository(0)

	lookup := cache.NewCachedRecipeLookup(remote, store, 0, nil)

	_, err := lookup.LookupRecipe(context.Background(), "http://recipes.test/gone")
	assert.Equal(t, errors.CodeRecipeNotFound, errors.GetCode(err))
	assert.Zero(t, store.Len())
}

func TestCachedRecipeLookup_CacheErrorsAreIgnored(t *testing.T) {
	recipe := testutils.NewRecipeFactory(6).Recipe(1, 2, "lunch")
	remote := testutils.NewMockRecipeLookup(recipe)

	broken := &testutils.MockCacheRepository{}
	broken.On("Get", mock.Anything, cache.RecipeKey(recipe.Ref)).Return(nil, stderrors.New("redis: connection refused"))
	broken.On("Set", mock.Anything, cache.RecipeKey(recipe.Ref), mock.Anything, cache.DefaultRecipeTTL).Return(stderrors.New("redis: connection refused"))

	lookup := cache.NewCachedRecipeLookup(remote, broken, 0, zaptest.NewLogger(t))

	got, err := lookup.LookupRecipe(context.Background(), recipe.Ref)
	require.NoError(t, err)
	assert.Equal(t, recipe.Ref, got.Ref)
	broken.AssertExpectations(t)
}

func TestCachedRecipeLookup_CorruptEntryIsRefetched(t *testing.T) {
	recipe := testutils.NewRecipeFactory(8).Recipe(3, 1, "breakfast")
	remote := testutils.NewMockRecipeLookup(recipe)
	store := memory.NewCacheRepository(0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, cache.RecipeKey(recipe.Ref), []byte("{not json"), time.Hour))

	lookup := cache.NewCachedRecipeLookup(remote, store, time.Hour, nil)
	got, err := lookup.LookupRecipe(ctx, recipe.Ref)
	require.NoError(t, err)
	assert.Equal(t, recipe.Label, got.Label)
	assert.Equal(t, 1, remote.Calls(recipe.Ref))

	raw, err := store.Get(ctx, cache.RecipeKey(recipe.Ref))
	require.NoError(t, err)
	var cached cache.CachedRecipe
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Equal(t, recipe.Label, cached.Recipe.Label)
}

func TestRecipeKey(t *testing.T) {
	assert.Equal(t, "recipe:http://recipes.test/r1", cache.RecipeKey(" http://recipes.test/r1?type=public "))
	assert.Equal(t, cache.RecipeKey(mealplan.RecipeRef("a#frag")), cache.RecipeKey("a"))
	assert.NotEqual(t,
		cache.RecipeKey("http://www.edamam.com/ontologies/edamam.owl#recipe_aaa"),
		cache.RecipeKey("http://www.edamam.com/ontologies/edamam.owl#recipe_bbb"))
}

func TestCachedRecipeLookup_DistinctFragmentRefs(t *testing.T) {
	factory := testutils.NewRecipeFactory(9)
	a := factory.Recipe(2, 1, "lunch")
	b := factory.Recipe(2, 1, "dinner")
	remote := testutils.NewMockRecipeLookup(a, b)
	lookup := cache.NewCachedRecipeLookup(remote, memory.NewCacheRepository(0), time.Hour, zaptest.NewLogger(t))
	ctx := context.Background()

	gotA, err := lookup.LookupRecipe(ctx, a.Ref)
	require.NoError(t, err)
	gotB, err := lookup.LookupRecipe(ctx, b.Ref)
	require.NoError(t, err)

	assert.Equal(t, []string{"lunch"}, gotA.MealTypes)
	assert.Equal(t, []string{"dinner"}, gotB.MealTypes)
	assert.Equal(t, 1, remote.Calls(a.Ref))
	assert.Equal(t, 1, remote.Calls(b.Ref))
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	_, err := cache.NewRedisClient(config.RedisConfig{
		Addrs:       []string{"127.0.0.1:1"},
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")

	_, err = cache.NewRedisClient(config.RedisConfig{}, nil)
	assert.Error(t, err)
}

var _ outbound.CacheRepository = (*memory.CacheRepository)(nil)
