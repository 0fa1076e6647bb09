package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MealPlanRepository implements the meal plan repository interface using GORM
type MealPlanRepository struct {
	db *gorm.DB
}

// NewMealPlanRepository creates a new meal plan repository
func NewMealPlanRepository(db *gorm.DB) *MealPlanRepository {
	return &MealPlanRepository{db: db}
}

var _ outbound.MealPlanRepository = (*MealPlanRepository)(nil)

// Create stores a new meal plan
func (r *MealPlanRepository) Create(ctx context.Context, plan *mealplan.MealPlan) error {
	model := MealPlanToModel(plan)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("create meal plan: %w", err)
	}

	plan.ID = model.ID
	return nil
}

// Update replaces every stored field of an existing plan except its creation time
func (r *MealPlanRepository) Update(ctx context.Context, plan *mealplan.MealPlan) error {
	model := MealPlanToModel(plan)

	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("update meal plan: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return outbound.ErrNotFound
	}

	return nil
}

// FindByID finds a meal plan by ID
func (r *MealPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*mealplan.MealPlan, error) {
	var model MealPlanModel

	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrNotFound
		}
		return nil, fmt.Errorf("find meal plan: %w", result.Error)
	}

	return ModelToMealPlan(&model), nil
}

// FindByClientID pages through a client's plans, newest first
func (r *MealPlanRepository) FindByClientID(ctx context.Context, clientID string, offset, limit int) ([]*mealplan.MealPlan, int, error) {
	var models []MealPlanModel
	var total int64

	// Count total
	if err := r.db.WithContext(ctx).
		Model(&MealPlanModel{}).
		Where("client_id = ?", clientID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count meal plans: %w", err)
	}

	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("list meal plans: %w", err)
	}

	plans := make([]*mealplan.MealPlan, len(models))
	for i := range models {
		plans[i] = ModelToMealPlan(&models[i])
	}

	return plans, int(total), nil
}
