package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/client"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/outbound"
	"gorm.io/gorm"
)

// ClientProfileRepository implements the client profile repository using GORM
type ClientProfileRepository struct {
	db *gorm.DB
}

// NewClientProfileRepository creates a new client profile repository
func NewClientProfileRepository(db *gorm.DB) *ClientProfileRepository {
	return &ClientProfileRepository{db: db}
}

var _ outbound.ClientProfileRepository = (*ClientProfileRepository)(nil)

// Save creates or replaces a profile
func (r *ClientProfileRepository) Save(ctx context.Context, profile *client.Profile) error {
	if err := r.db.WithContext(ctx).Save(ProfileToModel(profile)).Error; err != nil {
		return fmt.Errorf("save client profile: %w", err)
	}
	return nil
}

// FindByClientID finds a profile; missing profiles return outbound.ErrNotFound
func (r *ClientProfileRepository) FindByClientID(ctx context.Context, clientID string) (*client.Profile, error) {
	var model ClientProfileModel

	result := r.db.WithContext(ctx).First(&model, "client_id = ?", clientID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrNotFound
		}
		return nil, fmt.Errorf("find client profile: %w", result.Error)
	}

	return ModelToProfile(&model), nil
}
