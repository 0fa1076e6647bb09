package mealplan

import (
	"sort"
	"strings"
)

// ShoppingListEntry is one ingredient requirement sent to the shopping-list service
type ShoppingListEntry struct {
	Quantity        float64   `json:"quantity"`
	Measure         string    `json:"measure,omitempty"`
	Food            string    `json:"food,omitempty"`
	SourceRecipeRef RecipeRef `json:"source_recipe_ref"`
}

// ShoppingBatch is a set of entries from mutually distinct source recipes
type ShoppingBatch struct {
	Index   int                 `json:"index"`
	Entries []ShoppingListEntry `json:"entries"`
}

// Contains reports whether the batch already holds an entry from the recipe
func (b ShoppingBatch) Contains(ref RecipeRef) bool {
	ref = ref.Normalize()
	for _, entry := range b.Entries {
		if entry.SourceRecipeRef.Normalize() == ref {
			return true
		}
	}
	return false
}

// FlattenIngredients turns recipes into shopping entries, keeping each recipe's entries together
func FlattenIngredients(recipes []ResolvedRecipe) []ShoppingListEntry {
	var entries []ShoppingListEntry
	for _, recipe := range recipes {
		for _, ingredient := range recipe.Ingredients {
			entries = append(entries, ShoppingListEntry{
				Quantity:        ingredient.Quantity,
				Measure:         ingredient.Measure,
				Food:            ingredient.Food,
				SourceRecipeRef: recipe.Ref,
			})
		}
	}
	return entries
}

// TargetBatchSize is ceil(total/divisor)
func TargetBatchSize(total, divisor int) int {
	if total <= 0 {
		return 0
	}
	if divisor < 1 {
		divisor = 1
	}
	return (total + divisor - 1) / divisor
}

// PartitionEntries walks entries in order and closes the current batch when
// the next entry's recipe is already in it or the batch is full.
func PartitionEntries(entries []ShoppingListEntry, divisor int) []ShoppingBatch {
	target := TargetBatchSize(len(entries), divisor)
	if target == 0 {
		return nil
	}

	var batches []ShoppingBatch
	current := ShoppingBatch{}
	for _, entry := range entries {
		if len(current.Entries) > 0 && (current.Contains(entry.SourceRecipeRef) || len(current.Entries) >= target) {
			batches = append(batches, current)
			current = ShoppingBatch{Index: len(batches)}
		}
		current.Entries = append(current.Entries, entry)
	}
	batches = append(batches, current)

	return batches
}

// QuantityLine is a normalized amount for one ingredient
type QuantityLine struct {
	Quantity   float64  `json:"quantity"`
	Unit       string   `json:"unit"`
	Qualifiers []string `json:"qualifiers,omitempty"`
}

// ShoppingLine is one ingredient as returned by the shopping-list service for a batch
type ShoppingLine struct {
	IngredientName string         `json:"ingredient_name"`
	Quantities     []QuantityLine `json:"quantities"`
}

// ConsolidatedShoppingList maps an ingredient name to its merged quantities
type ConsolidatedShoppingList map[string][]QuantityLine

// MergeShoppingLines merges batch results. Quantities of the same ingredient
// with the same unit and qualifiers are summed; anything else is listed side by side.
func MergeShoppingLines(batches ...[]ShoppingLine) ConsolidatedShoppingList {
	merged := make(ConsolidatedShoppingList)
	for _, lines := range batches {
		for _, line := range lines {
			name := strings.ToLower(strings.TrimSpace(line.IngredientName))
			if name == "" {
				continue
			}
			for _, quantity := range line.Quantities {
				merged[name] = mergeQuantity(merged[name], quantity)
			}
			if _, ok := merged[name]; !ok {
				merged[name] = []QuantityLine{}
			}
		}
	}
	return merged
}

func mergeQuantity(existing []QuantityLine, next QuantityLine) []QuantityLine {
	key := quantityKey(next)
	for i := range existing {
		if quantityKey(existing[i]) == key {
			existing[i].Quantity += next.Quantity
			return existing
		}
	}
	next.Qualifiers = append([]string(nil), next.Qualifiers...)
	return append(existing, next)
}

func quantityKey(q QuantityLine) string {
	qualifiers := make([]string, len(q.Qualifiers))
	for i, qualifier := range q.Qualifiers {
		qualifiers[i] = strings.ToLower(strings.TrimSpace(qualifier))
	}
	sort.Strings(qualifiers)
	return strings.ToLower(strings.TrimSpace(q.Unit)) + "|" + strings.Join(qualifiers, ",")
}

// Ingredients returns the ingredient names in alphabetical order
func (c ConsolidatedShoppingList) Ingredients() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
