package gorm

import (
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/client"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
)

// MealPlanToModel converts a domain meal plan to a GORM model
func MealPlanToModel(p *mealplan.MealPlan) *MealPlanModel {
	return &MealPlanModel{
		ID:               p.ID,
		ClientID:         p.ClientID,
		StartDate:        p.StartDate.UTC(),
		Days:             p.Days,
		Timezone:         p.Timezone,
		RequestedRecipes: p.RequestedRecipes,
		Grid:             NewJSONColumn(p.Grid),
		Instances:        NewJSONColumn(p.Instances),
		Substitutions:    NewJSONColumn(p.Substitutions),
		Shopping:         NewJSONColumn(p.Shopping),
		ShoppingComplete: p.Shopping.Complete(),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// ModelToMealPlan converts a GORM model to a domain meal plan
func ModelToMealPlan(m *MealPlanModel) *mealplan.MealPlan {
	return &mealplan.MealPlan{
		ID:               m.ID,
		ClientID:         m.ClientID,
		StartDate:        m.StartDate.UTC(),
		Days:             m.Days,
		Timezone:         m.Timezone,
		Grid:             m.Grid.Data,
		Instances:        m.Instances.Data,
		Substitutions:    m.Substitutions.Data,
		Shopping:         m.Shopping.Data,
		RequestedRecipes: m.RequestedRecipes,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// ProfileToModel converts a domain client profile to a GORM model
func ProfileToModel(p *client.Profile) *ClientProfileModel {
	favorites := make(StringSlice, len(p.FavoriteRefs))
	for i, ref := range p.FavoriteRefs {
		favorites[i] = ref.String()
	}

	return &ClientProfileModel{
		ClientID:     p.ClientID,
		Timezone:     p.Timezone,
		FavoriteRefs: favorites,
		DietLabels:   p.Preferences.DietLabels,
		HealthLabels: p.Preferences.HealthLabels,
		CuisineTypes: p.Preferences.CuisineTypes,
		CaloriesMin:  p.Preferences.CaloriesMin,
		CaloriesMax:  p.Preferences.CaloriesMax,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// ModelToProfile converts a GORM model to a domain client profile
func ModelToProfile(m *ClientProfileModel) *client.Profile {
	favorites := make([]mealplan.RecipeRef, len(m.FavoriteRefs))
	for i, ref := range m.FavoriteRefs {
		favorites[i] = mealplan.RecipeRef(ref)
	}

	return &client.Profile{
		ClientID:     m.ClientID,
		Timezone:     m.Timezone,
		FavoriteRefs: favorites,
		Preferences: client.Preferences{
			DietLabels:   nilIfEmpty(m.DietLabels),
			HealthLabels: nilIfEmpty(m.HealthLabels),
			CuisineTypes: nilIfEmpty(m.CuisineTypes),
			CaloriesMin:  m.CaloriesMin,
			CaloriesMax:  m.CaloriesMax,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func nilIfEmpty(s StringSlice) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
