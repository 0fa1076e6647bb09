// Package client provides the application layer for client profiles
package client

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/client"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/inbound"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/outbound"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/pkg/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ProfileService implements the client profile use cases
type ProfileService struct {
	profiles outbound.ClientProfileRepository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(profiles outbound.ClientProfileRepository, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		profiles: profiles,
		validate: validator.New(),
		logger:   logger.Named("profile-service"),
	}
}

var _ inbound.ClientProfileService = (*ProfileService)(nil)

// UpsertProfile creates the profile or replaces its settings
func (s *ProfileService) UpsertProfile(ctx context.Context, cmd inbound.UpsertProfileCommand) (*inbound.ClientProfileDTO, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, errors.FromValidator(err)
	}

	favorites := make([]mealplan.RecipeRef, len(cmd.FavoriteRefs))
	for i, ref := range cmd.FavoriteRefs {
		favorites[i] = mealplan.RecipeRef(ref)
	}
	prefs := client.Preferences{
		DietLabels:   cmd.Preferences.DietLabels,
		HealthLabels: cmd.Preferences.HealthLabels,
		CuisineTypes: cmd.Preferences.CuisineTypes,
		CaloriesMin:  cmd.Preferences.CaloriesMin,
		CaloriesMax:  cmd.Preferences.CaloriesMax,
	}

	profile, err := s.profiles.FindByClientID(ctx, cmd.ClientID)
	switch {
	case err == nil:
		err = profile.Update(cmd.Timezone, favorites, prefs)
	case stderrors.Is(err, outbound.ErrNotFound):
		profile, err = client.NewProfile(cmd.ClientID, cmd.Timezone, favorites, prefs)
	default:
		return nil, errors.NewDatabaseError("find client profile", err)
	}
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, errors.NewDatabaseError("save client profile", err)
	}

	s.logger.Info("Client profile saved",
		zap.String("client_id", profile.ClientID),
		zap.String("timezone", profile.Timezone),
		zap.Int("favorites", len(profile.FavoriteRefs)),
	)

	return toProfileDTO(profile), nil
}

// GetProfile returns a stored profile
func (s *ProfileService) GetProfile(ctx context.Context, clientID string) (*inbound.ClientProfileDTO, error) {
	profile, err := s.profiles.FindByClientID(ctx, clientID)
	if err != nil {
		if stderrors.Is(err, outbound.ErrNotFound) {
			return nil, errors.NewClientNotFoundError(clientID)
		}
		return nil, errors.NewDatabaseError("find client profile", err)
	}
	return toProfileDTO(profile), nil
}

func toProfileDTO(profile *client.Profile) *inbound.ClientProfileDTO {
	favorites := make([]string, len(profile.FavoriteRefs))
	for i, ref := range profile.FavoriteRefs {
		favorites[i] = ref.String()
	}
	return &inbound.ClientProfileDTO{
		ClientID:     profile.ClientID,
		Timezone:     profile.Timezone,
		FavoriteRefs: favorites,
		Preferences: inbound.PreferencesDTO{
			DietLabels:   profile.Preferences.DietLabels,
			HealthLabels: profile.Preferences.HealthLabels,
			CuisineTypes: profile.Preferences.CuisineTypes,
			CaloriesMin:  profile.Preferences.CaloriesMin,
			CaloriesMax:  profile.Preferences.CaloriesMax,
		},
		CreatedAt: profile.CreatedAt.Format(time.RFC3339),
		UpdatedAt: profile.UpdatedAt.Format(time.RFC3339),
	}
}

