// Package gorm provides GORM model definitions and repositories for meal plans
// and client profiles
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MealPlanModel represents the GORM model for generated meal plans
type MealPlanModel struct {
	ID               uuid.UUID `gorm:"type:char(36);primaryKey"`
	ClientID         string    `gorm:"type:varchar(255);not null;index"`
	StartDate        time.Time `gorm:"not null"`
	Days             int       `gorm:"not null"`
	Timezone         string    `gorm:"type:varchar(64);not null"`
	RequestedRecipes int       `gorm:"default:0"`

	Grid          JSONColumn[mealplan.WeeklySelectionGrid]        `gorm:"type:json"`
	Instances     JSONColumn[[]mealplan.ScheduledRecipeInstance] `gorm:"type:json"`
	Substitutions JSONColumn[[]mealplan.SubstitutionRecord]      `gorm:"type:json"`
	Shopping      JSONColumn[mealplan.ShoppingOutcome]           `gorm:"type:json"`

	ShoppingComplete bool `gorm:"default:true;index"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// ClientProfileModel represents the GORM model for client planning profiles
type ClientProfileModel struct {
	ClientID     string      `gorm:"type:varchar(255);primaryKey"`
	Timezone     string      `gorm:"type:varchar(64);not null;default:'UTC'"`
	FavoriteRefs StringSlice `gorm:"type:json"`
	DietLabels   StringSlice `gorm:"type:json"`
	HealthLabels StringSlice `gorm:"type:json"`
	CuisineTypes StringSlice `gorm:"type:json"`
	CaloriesMin  float64     `gorm:"default:0"`
	CaloriesMax  float64     `gorm:"default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StringSlice custom type for handling string arrays in JSON columns
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// JSONColumn stores any JSON-encodable value in a single column
type JSONColumn[T any] struct {
	Data T
}

// NewJSONColumn wraps a value for storage
func NewJSONColumn[T any](data T) JSONColumn[T] {
	return JSONColumn[T]{Data: data}
}

// Scan implements the sql.Scanner interface
func (j *JSONColumn[T]) Scan(value interface{}) error {
	var zero T
	j.Data = zero

	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, &j.Data)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), &j.Data)
	default:
		return fmt.Errorf("cannot scan %T into JSONColumn", value)
	}
}

// Value implements the driver.Valuer interface
func (j JSONColumn[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// BeforeCreate hook for MealPlanModel
func (m *MealPlanModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name for MealPlanModel
func (MealPlanModel) TableName() string {
	return "meal_plans"
}

// TableName specifies the table name for ClientProfileModel
func (ClientProfileModel) TableName() string {
	return "client_profiles"
}

// Models lists every model managed by AutoMigrate
func Models() []interface{} {
	return []interface{}{
		&MealPlanModel{},
		&ClientProfileModel{},
	}
}
