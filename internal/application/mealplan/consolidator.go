package mealplan

import (
	"context"
	"fmt"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/outbound"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchDivisor splits the shopping entries into roughly five batches
const DefaultBatchDivisor = 5

// ShoppingConsolidator partitions ingredient requirements into batches without
// repeated recipes, sends every batch to the shopping-list service and merges
// whatever comes back. It waits for all batches before merging.
type ShoppingConsolidator struct {
	shopping outbound.ShoppingListService
	divisor  int
	metrics  outbound.PlanMetrics
	logger   *zap.Logger
}

// NewShoppingConsolidator creates a consolidator
func NewShoppingConsolidator(shopping outbound.ShoppingListService, divisor int, metrics outbound.PlanMetrics, logger *zap.Logger) *ShoppingConsolidator {
	if divisor < 1 {
		divisor = DefaultBatchDivisor
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShoppingConsolidator{
		shopping: shopping,
		divisor:  divisor,
		metrics:  metrics,
		logger:   logger.Named("shopping-consolidator"),
	}
}

// Consolidate builds the shopping list for the final recipes of a plan.
// Failed batches are left out of the list and reported in FailedBatches.
// An error is returned only when ctx is done.
func (c *ShoppingConsolidator) Consolidate(ctx context.Context, recipes []mealplan.ResolvedRecipe) (mealplan.ShoppingOutcome, error) {
	entries := mealplan.FlattenIngredients(recipes)
	batches := mealplan.PartitionEntries(entries, c.divisor)

	outcome := mealplan.ShoppingOutcome{
		List:    mealplan.ConsolidatedShoppingList{},
		Batches: len(batches),
	}
	if len(batches) == 0 {
		return outcome, ctx.Err()
	}

	lines := make([][]mealplan.ShoppingLine, len(batches))
	failures := make([]error, len(batches))

	var g errgroup.Group
	for i, batch := range batches {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					failures[i] = fmt.Errorf("panic: %v", r)
				}
			}()
			lines[i], failures[i] = c.shopping.ConsolidateBatch(ctx, batch)
			return nil
		})
	}
	_ = g.Wait()

	var succeeded [][]mealplan.ShoppingLine
	for i, err := range failures {
		if err != nil {
			outcome.FailedBatches = append(outcome.FailedBatches, mealplan.BatchFailure{
				Index:   batches[i].Index,
				Entries: len(batches[i].Entries),
				Reason:  err.Error(),
			})
			c.logger.Warn("Shopping batch dropped",
				zap.Int("batch", batches[i].Index),
				zap.Int("entries", len(batches[i].Entries)),
				zap.Error(err),
			)
			continue
		}
		succeeded = append(succeeded, lines[i])
	}
	outcome.List = mealplan.MergeShoppingLines(succeeded...)

	c.metrics.RecordShoppingBatches(len(succeeded), len(outcome.FailedBatches))
	c.logger.Info("Shopping list consolidated",
		zap.Int("entries", len(entries)),
		zap.Int("batches", len(batches)),
		zap.Int("failed_batches", len(outcome.FailedBatches)),
		zap.Int("ingredients", len(outcome.List)),
	)

	return outcome, ctx.Err()
}
