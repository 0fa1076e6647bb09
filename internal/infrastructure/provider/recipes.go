package provider

import (
	"context"
	"math"
	"net/http"
	"net/url"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/pkg/errors"
)

type recipeSearchResponse struct {
	Hits []struct {
		Recipe recipePayload `json:"recipe"`
	} `json:"hits"`
}

type recipePayload struct {
	URI            string                     `json:"uri"`
	Label          string                     `json:"label"`
	Yield          float64                    `json:"yield"`
	MealType       []string                   `json:"mealType"`
	Ingredients    []ingredientPayload        `json:"ingredients"`
	TotalNutrients map[string]nutrientPayload `json:"totalNutrients"`
}

type ingredientPayload struct {
	Food     string  `json:"food"`
	Quantity float64 `json:"quantity"`
	Measure  string  `json:"measure"`
	Weight   float64 `json:"weight"`
	Text     string  `json:"text"`
}

type nutrientPayload struct {
	Label    string  `json:"label"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// LookupRecipe fetches one recipe by its URI. An empty result is a terminal
// not-found for that reference.
func (c *Client) LookupRecipe(ctx context.Context, ref mealplan.RecipeRef) (mealplan.ResolvedRecipe, error) {
	query := url.Values{}
	query.Set("type", "public")
	query.Set("uri", ref.Normalize().String())

	var resp recipeSearchResponse
	if err := c.call(ctx, ServiceRecipes, http.MethodGet, "/api/recipes/v2/by-uri", query, nil, &resp); err != nil {
		return mealplan.ResolvedRecipe{}, err
	}
	if len(resp.Hits) == 0 {
		return mealplan.ResolvedRecipe{}, errors.NewRecipeNotFoundError(ref.String())
	}

	return toResolvedRecipe(ref, resp.Hits[0].Recipe), nil
}

// toResolvedRecipe keeps the requested reference so the recipe matches its grid cell
func toResolvedRecipe(ref mealplan.RecipeRef, p recipePayload) mealplan.ResolvedRecipe {
	recipe := mealplan.ResolvedRecipe{
		Ref:         ref,
		Label:       p.Label,
		Yield:       int(math.Round(p.Yield)),
		MealTypes:   p.MealType,
		Ingredients: make([]mealplan.Ingredient, 0, len(p.Ingredients)),
	}

	for _, ing := range p.Ingredients {
		recipe.Ingredients = append(recipe.Ingredients, mealplan.Ingredient{
			Food:     ing.Food,
			Quantity: ing.Quantity,
			Measure:  ing.Measure,
			Weight:   ing.Weight,
			Text:     ing.Text,
		})
	}

	if len(p.TotalNutrients) > 0 {
		recipe.Nutrients = make(map[string]mealplan.Nutrient, len(p.TotalNutrients))
		for code, n := range p.TotalNutrients {
			recipe.Nutrients[code] = mealplan.Nutrient{Label: n.Label, Quantity: n.Quantity, Unit: n.Unit}
		}
	}
	return recipe
}
