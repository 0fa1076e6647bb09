package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync/atomic"
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/outbound"
	"go.uber.org/zap"
)

// DefaultRecipeTTL is used when no ttl is configured
const DefaultRecipeTTL = 24 * time.Hour

const recipeKeyPrefix = "recipe:"

// CachedRecipe is the stored form of a resolved recipe
type CachedRecipe struct {
	Recipe   mealplan.ResolvedRecipe `json:"recipe"`
	CachedAt time.Time               `json:"cached_at"`
}

// CachedRecipeLookup serves recipes from the cache and falls back to the
// remote lookup. Cache failures never fail a lookup; they are logged and the
// remote answer is used.
type CachedRecipeLookup struct {
	next   outbound.RecipeLookup
	cache  outbound.CacheRepository
	ttl    time.Duration
	logger *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedRecipeLookup wraps next with a cache-first lookup
func NewCachedRecipeLookup(next outbound.RecipeLookup, cache outbound.CacheRepository, ttl time.Duration, logger *zap.Logger) *CachedRecipeLookup {
	if ttl <= 0 {
		ttl = DefaultRecipeTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRecipeLookup{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.Named("recipe-cache"),
	}
}

var _ outbound.RecipeLookup = (*CachedRecipeLookup)(nil)

// RecipeKey is the cache key for a reference
func RecipeKey(ref mealplan.RecipeRef) string {
	return recipeKeyPrefix + ref.Normalize().String()
}

// LookupRecipe returns the cached recipe or fetches and stores it
func (c *CachedRecipeLookup) LookupRecipe(ctx context.Context, ref mealplan.RecipeRef) (mealplan.ResolvedRecipe, error) {
	key := RecipeKey(ref)

	data, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var cached CachedRecipe
		if err := json.Unmarshal(data, &cached); err == nil {
			c.hits.Add(1)
			c.logger.Debug("Recipe cache hit", zap.String("ref", ref.String()))
			// the caller's spelling of the ref identifies the grid cell
			cached.Recipe.Ref = ref
			return cached.Recipe, nil
		}
		c.logger.Warn("Discarding unreadable cached recipe", zap.String("key", key), zap.Error(err))
	case stderrors.Is(err, outbound.ErrCacheMiss):
	default:
		c.logger.Warn("Recipe cache read failed", zap.String("key", key), zap.Error(err))
	}
	c.misses.Add(1)

	recipe, err := c.next.LookupRecipe(ctx, ref)
	if err != nil {
		return mealplan.ResolvedRecipe{}, err
	}

	payload, err := json.Marshal(CachedRecipe{Recipe: recipe, CachedAt: time.Now().UTC()})
	if err != nil {
		c.logger.Warn("Failed to encode recipe for cache", zap.String("ref", ref.String()), zap.Error(err))
		return recipe, nil
	}
	if err := c.cache.Set(ctx, key, payload, c.ttl); err != nil {
		c.logger.Warn("Recipe cache write failed", zap.String("key", key), zap.Error(err))
	}
	return recipe, nil
}

// Invalidate drops a cached recipe
func (c *CachedRecipeLookup) Invalidate(ctx context.Context, ref mealplan.RecipeRef) error {
	return c.cache.Delete(ctx, RecipeKey(ref))
}

// Stats returns hit and miss counts since start
func (c *CachedRecipeLookup) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
