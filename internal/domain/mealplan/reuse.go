package mealplan

// SubstitutionRecord links a grid reference to the favorite that replaced it.
// Position, when known, is the grid cell the substituted instance came from.
type SubstitutionRecord struct {
	OriginalRef   RecipeRef     `json:"original_ref"`
	SubstituteRef RecipeRef     `json:"substitute_ref"`
	Position      *GridPosition `json:"position,omitempty"`
}

// ReuseLedger tracks, for one week, how many servings of each recipe have been
// committed and which recipes were placed. Committed servings never exceed
// the recipe's yield.
type ReuseLedger struct {
	committed map[RecipeRef]int
	placed    []RecipeRef
}

// NewReuseLedger returns an empty ledger for a new week
func NewReuseLedger() *ReuseLedger {
	return &ReuseLedger{committed: make(map[RecipeRef]int)}
}

// Committed returns the servings already committed for a recipe
func (l *ReuseLedger) Committed(ref RecipeRef) int {
	return l.committed[ref.Normalize()]
}

// Remaining returns the servings still available for a recipe this week
func (l *ReuseLedger) Remaining(recipe ResolvedRecipe) int {
	return recipe.Servings() - l.committed[recipe.Identity()]
}

// HasCapacity reports whether one more serving can be committed
func (l *ReuseLedger) HasCapacity(recipe ResolvedRecipe) bool {
	return l.Remaining(recipe) > 0
}

// Commit records one serving if capacity remains and reports whether it did
func (l *ReuseLedger) Commit(recipe ResolvedRecipe) bool {
	if !l.HasCapacity(recipe) {
		return false
	}
	id := recipe.Identity()
	if l.committed[id] == 0 {
		l.placed = append(l.placed, id)
	}
	l.committed[id]++
	return true
}

// Placed returns the recipes placed this week in first-placement order
func (l *ReuseLedger) Placed() []RecipeRef {
	return append([]RecipeRef(nil), l.placed...)
}

// Snapshot returns a copy of the committed servings per recipe
func (l *ReuseLedger) Snapshot() map[RecipeRef]int {
	snapshot := make(map[RecipeRef]int, len(l.committed))
	for ref, servings := range l.committed {
		snapshot[ref] = servings
	}
	return snapshot
}

// Picker chooses an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Picker interface {
	IntN(n int) int
}

// PersonalizeResult is the outcome of one personalization pass
type PersonalizeResult struct {
	Instances     []ScheduledRecipeInstance
	Substitutions []SubstitutionRecord
	Ledger        *ReuseLedger
	// Uncommitted counts instances kept although their recipe's yield was exhausted
	Uncommitted int
}

// FinalRecipes returns the recipe of every instance, in order
func (r PersonalizeResult) FinalRecipes() []ResolvedRecipe {
	recipes := make([]ResolvedRecipe, len(r.Instances))
	for i, instance := range r.Instances {
		recipes[i] = instance.Recipe
	}
	return recipes
}

// Personalize walks the instances in order and swaps in favorites.
//
// Favorites qualify when they share a meal-type tag with the instance and
// still have ledger capacity; one is picked uniformly with picker. Without a
// qualifying favorite the original recipe stays and a serving is committed
// for it when possible. An original whose yield is already exhausted is kept
// with Committed=false rather than dropped or overcommitted.
func Personalize(instances []ScheduledRecipeInstance, favorites []ResolvedRecipe, ledger *ReuseLedger, picker Picker) PersonalizeResult {
	if ledger == nil {
		ledger = NewReuseLedger()
	}

	result := PersonalizeResult{
		Instances: make([]ScheduledRecipeInstance, 0, len(instances)),
		Ledger:    ledger,
	}

	for _, instance := range instances {
		var matches []ResolvedRecipe
		for _, favorite := range favorites {
			if favorite.SharesTag(instance.Recipe) && ledger.HasCapacity(favorite) {
				matches = append(matches, favorite)
			}
		}

		if len(matches) > 0 && picker != nil {
			favorite := matches[picker.IntN(len(matches))]
			if favorite.Identity() != instance.Recipe.Identity() {
				substituted := instance
				substituted.Recipe = favorite
				substituted.OriginalRef = instance.Recipe.Ref
				substituted.Substituted = true
				substituted.Committed = ledger.Commit(favorite)

				result.Instances = append(result.Instances, substituted)
				result.Substitutions = append(result.Substitutions, SubstitutionRecord{
					OriginalRef:   instance.Recipe.Ref,
					SubstituteRef: favorite.Ref,
					Position:      instance.GridPosition,
				})
				continue
			}
		}

		kept := instance
		kept.Committed = ledger.Commit(instance.Recipe)
		if !kept.Committed {
			result.Uncommitted++
		}
		result.Instances = append(result.Instances, kept)
	}

	return result
}
