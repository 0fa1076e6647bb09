package mealplan

import (
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/client"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/inbound"
)

func toMealPlanDTO(plan *mealplan.MealPlan) *inbound.MealPlanDTO {
	loc := plan.Location()

	dto := &inbound.MealPlanDTO{
		ID:               plan.ID,
		ClientID:         plan.ClientID,
		StartDate:        plan.StartDate.Format(time.DateOnly),
		Days:             plan.Days,
		Timezone:         plan.Timezone,
		Meals:            make([]inbound.ScheduledMealDTO, 0, len(plan.Instances)),
		Grid:             make([]inbound.DaySelectionDTO, 0, len(plan.Grid.Days)),
		Substitutions:    make([]inbound.SubstitutionDTO, 0, len(plan.Substitutions)),
		Shopping:         toShoppingListDTO(plan.Shopping),
		RequestedRecipes: plan.RequestedRecipes,
		ResolvedRecipes:  len(plan.Instances),
		CreatedAt:        plan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        plan.UpdatedAt.Format(time.RFC3339),
	}

	for _, instance := range plan.Instances {
		meal := inbound.ScheduledMealDTO{
			DayIndex:       instance.DayIndex,
			MealSlot:       instance.MealSlot.String(),
			RecipeRef:      instance.Recipe.Ref.String(),
			Label:          instance.Recipe.Label,
			Yield:          instance.Recipe.Yield,
			ScheduledAtUTC: instance.ScheduledAtUTC,
			LocalTime:      instance.LocalTime(loc).Format(time.RFC3339),
			Substituted:    instance.Substituted,
			Committed:      instance.Committed,
		}
		if instance.Substituted {
			meal.OriginalRef = instance.OriginalRef.String()
		}
		dto.Meals = append(dto.Meals, meal)
	}

	for i, day := range plan.Grid.Days {
		dayDTO := inbound.DaySelectionDTO{Day: i, Sections: make([]inbound.SectionDTO, 0, len(day.Sections))}
		for _, section := range day.Sections {
			dayDTO.Sections = append(dayDTO.Sections, inbound.SectionDTO{
				Slot:                section.Slot.String(),
				RecipeRef:           section.Assignment.RecipeRef.String(),
				AssignedOverrideRef: section.Assignment.AssignedOverrideRef.String(),
				VisibleRef:          section.Assignment.Visible().String(),
			})
		}
		dto.Grid = append(dto.Grid, dayDTO)
	}

	for _, record := range plan.Substitutions {
		dto.Substitutions = append(dto.Substitutions, inbound.SubstitutionDTO{
			OriginalRef:   record.OriginalRef.String(),
			SubstituteRef: record.SubstituteRef.String(),
		})
	}

	return dto
}

func toShoppingListDTO(outcome mealplan.ShoppingOutcome) inbound.ShoppingListDTO {
	dto := inbound.ShoppingListDTO{
		Items:    make([]inbound.ShoppingItemDTO, 0, len(outcome.List)),
		Batches:  outcome.Batches,
		Complete: outcome.Complete(),
	}

	for _, name := range outcome.List.Ingredients() {
		item := inbound.ShoppingItemDTO{Ingredient: name, Quantities: make([]inbound.QuantityDTO, 0, len(outcome.List[name]))}
		for _, q := range outcome.List[name] {
			item.Quantities = append(item.Quantities, inbound.QuantityDTO{
				Quantity:   q.Quantity,
				Unit:       q.Unit,
				Qualifiers: q.Qualifiers,
			})
		}
		dto.Items = append(dto.Items, item)
	}

	for _, failure := range outcome.FailedBatches {
		dto.FailedBatches = append(dto.FailedBatches, inbound.BatchFailureDTO{
			Index:   failure.Index,
			Entries: failure.Entries,
			Reason:  failure.Reason,
		})
	}

	return dto
}

func toPreferences(dto inbound.PreferencesDTO) client.Preferences {
	return client.Preferences{
		DietLabels:   dto.DietLabels,
		HealthLabels: dto.HealthLabels,
		CuisineTypes: dto.CuisineTypes,
		CaloriesMin:  dto.CaloriesMin,
		CaloriesMax:  dto.CaloriesMax,
	}
}
