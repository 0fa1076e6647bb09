package client

import (
	"testing"
	_ "time/tzdata"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProfile(t *testing.T) {
	profile, err := NewProfile(" client-7 ", "Pacific/Auckland", []mealplan.RecipeRef{
		"https://recipes.test/r/1",
		"https://recipes.test/r/1?type=public",
		"",
		"https://recipes.test/r/2",
	}, Preferences{DietLabels: []string{"balanced"}, CaloriesMin: 1200, CaloriesMax: 2200})
	require.NoError(t, err)

	assert.Equal(t, "client-7", profile.ClientID)
	assert.Equal(t, "Pacific/Auckland", profile.Location().String())
	assert.Equal(t, []mealplan.RecipeRef{"https://recipes.test/r/1", "https://recipes.test/r/2"}, profile.FavoriteRefs)
	assert.Equal(t, profile.CreatedAt, profile.UpdatedAt)
}

func TestNewProfile_Validation(t *testing.T) {
	tests := []struct {
		name     string
		clientID string
		timezone string
		prefs    Preferences
		wantErr  error
	}{
		{"missing client", "  ", "UTC", Preferences{}, ErrMissingClientID},
		{"bad timezone", "c1", "Not/AZone", Preferences{}, mealplan.ErrInvalidTimezone},
		{"negative calories", "c1", "UTC", Preferences{CaloriesMin: -1}, ErrInvalidCalories},
		{"inverted range", "c1", "UTC", Preferences{CaloriesMin: 3000, CaloriesMax: 1000}, ErrInvalidCalories},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProfile(tt.clientID, tt.timezone, nil, tt.prefs)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProfile_EmptyTimezoneDefaultsToUTC(t *testing.T) {
	profile, err := NewProfile("c1", "", nil, Preferences{})
	require.NoError(t, err)

	assert.Equal(t, "UTC", profile.Timezone)
	assert.Empty(t, profile.FavoriteRefs)
}
