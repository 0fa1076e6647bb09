// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// PlanAssertions provides meal-plan specific assertion methods
type PlanAssertions struct {
	t *testing.T
}

// NewPlanAssertions creates a new plan assertions helper
func NewPlanAssertions(t *testing.T) *PlanAssertions {
	return &PlanAssertions{t: t}
}

// ServingsWithinYield asserts that no recipe was committed more times than it serves
func (pa *PlanAssertions) ServingsWithinYield(instances []mealplan.ScheduledRecipeInstance, msgAndArgs ...interface{}) {
	committed := make(map[mealplan.RecipeRef]int)
	yields := make(map[mealplan.RecipeRef]int)
	for _, instance := range instances {
		if !instance.Committed {
			continue
		}
		id := instance.Recipe.Identity()
		committed[id]++
		yields[id] = instance.Recipe.Servings()
	}
	for ref, count := range committed {
		assert.LessOrEqual(pa.t, count, yields[ref], append([]interface{}{"recipe %s over-committed", ref}, msgAndArgs...)...)
	}
}

// SlotsInOrder asserts that each day's instances follow the slot order
func (pa *PlanAssertions) SlotsInOrder(instances []mealplan.ScheduledRecipeInstance, slots []mealplan.MealSlot, msgAndArgs ...interface{}) {
	require.NotEmpty(pa.t, slots)
	require.Zero(pa.t, len(instances)%len(slots), "instances should fill whole days")
	for i, instance := range instances {
		assert.Equal(pa.t, slots[i%len(slots)], instance.MealSlot, msgAndArgs...)
		assert.Equal(pa.t, i/len(slots), instance.DayIndex, msgAndArgs...)
	}
}

// HTTPAssertions provides HTTP-specific assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// StatusCode asserts the HTTP status code
func (ha *HTTPAssertions) StatusCode(resp *httptest.ResponseRecorder, expectedCode int, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")
	assert.Equal(ha.t, expectedCode, resp.Code, append(msgAndArgs, resp.Body.String())...)
}

// JSONResponse asserts that the response is valid JSON and unmarshals it
func (ha *HTTPAssertions) JSONResponse(resp *httptest.ResponseRecorder, target interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")

	contentType := resp.Header().Get("Content-Type")
	assert.True(ha.t, strings.Contains(contentType, "application/json"),
		"Response should have JSON content type, got: %s", contentType)

	require.NoError(ha.t, json.Unmarshal(resp.Body.Bytes(), target), "Response should be valid JSON")
}

// ErrorBody is the error envelope returned by the API
type ErrorBody struct {
	Error struct {
		Code      string                 `json:"code"`
		Message   string                 `json:"message"`
		Details   string                 `json:"details"`
		Metadata  map[string]interface{} `json:"metadata"`
		RequestID string                 `json:"request_id"`
	} `json:"error"`
}

// ErrorResponse asserts status and error code and returns the decoded envelope
func (ha *HTTPAssertions) ErrorResponse(resp *httptest.ResponseRecorder, expectedStatus int, expectedCode string) ErrorBody {
	ha.StatusCode(resp, expectedStatus)

	var body ErrorBody
	ha.JSONResponse(resp, &body)
	assert.Equal(ha.t, expectedCode, body.Error.Code)
	assert.NotEmpty(ha.t, body.Error.Message)
	return body
}

// HasHeader asserts that a header exists
func (ha *HTTPAssertions) HasHeader(resp *httptest.ResponseRecorder, headerName string) {
	assert.NotEmpty(ha.t, resp.Header().Get(headerName), "Header %s should be present", headerName)
}

// DatabaseAssertions provides database-specific assertions
type DatabaseAssertions struct {
	t  *testing.T
	db *TestDatabase
}

// NewDatabaseAssertions creates a new database assertions helper
func NewDatabaseAssertions(t *testing.T, db *TestDatabase) *DatabaseAssertions {
	return &DatabaseAssertions{t: t, db: db}
}

// RecordExists asserts that a record exists in the database
func (da *DatabaseAssertions) RecordExists(table, whereClause string, args ...interface{}) {
	exists, err := da.db.RecordExists(table, whereClause, args...)
	require.NoError(da.t, err, "Failed to check if record exists")
	assert.True(da.t, exists, "Record should exist in table %s with condition %s", table, whereClause)
}

// RecordCount asserts the number of records in a table
func (da *DatabaseAssertions) RecordCount(table string, expectedCount int, msgAndArgs ...interface{}) {
	count, err := da.db.CountRecords(table)
	require.NoError(da.t, err, "Failed to count records")
	assert.Equal(da.t, expectedCount, count, msgAndArgs...)
}
