package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
)

type shoppingRequest struct {
	Entries []shoppingEntry `json:"entries"`
}

type shoppingEntry struct {
	Quantity float64 `json:"quantity"`
	Measure  string  `json:"measure,omitempty"`
	Food     string  `json:"food,omitempty"`
	Recipe   string  `json:"recipe"`
}

type shoppingResponse struct {
	Entries []struct {
		Food       string `json:"food"`
		Quantities []struct {
			Quantity   float64  `json:"quantity"`
			Measure    string   `json:"measure"`
			Qualifiers []string `json:"qualifiers"`
		} `json:"quantities"`
	} `json:"entries"`
}

// ConsolidateBatch sends one batch to the shopping-list service and returns
// its normalized lines
func (c *Client) ConsolidateBatch(ctx context.Context, batch mealplan.ShoppingBatch) ([]mealplan.ShoppingLine, error) {
	body := shoppingRequest{Entries: make([]shoppingEntry, 0, len(batch.Entries))}
	for _, entry := range batch.Entries {
		body.Entries = append(body.Entries, shoppingEntry{
			Quantity: entry.Quantity,
			Measure:  entry.Measure,
			Food:     entry.Food,
			Recipe:   entry.SourceRecipeRef.String(),
		})
	}

	var resp shoppingResponse
	path := fmt.Sprintf("/api/meal-planner/v1/%s/shopping-list", c.appID)
	if err := c.call(ctx, ServiceShopping, http.MethodPost, path, nil, body, &resp); err != nil {
		return nil, err
	}

	lines := make([]mealplan.ShoppingLine, 0, len(resp.Entries))
	for _, entry := range resp.Entries {
		line := mealplan.ShoppingLine{IngredientName: entry.Food}
		for _, q := range entry.Quantities {
			line.Quantities = append(line.Quantities, mealplan.QuantityLine{
				Quantity:   q.Quantity,
				Unit:       q.Measure,
				Qualifiers: q.Qualifiers,
			})
		}
		lines = append(lines, line)
	}
	return lines, nil
}
