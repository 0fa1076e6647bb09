// Package testutils provides common testing utilities and infrastructure setup
package testutils

import (
	"fmt"
	"testing"

	gormModels "github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/persistence/gorm"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/persistence/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// TestDatabase is a migrated in-memory SQLite database scoped to one test
type TestDatabase struct {
	GormDB *gorm.DB
	t      testing.TB
}

// SetupTestDatabase opens a fresh database and closes it when the test ends
func SetupTestDatabase(t testing.TB) *TestDatabase {
	t.Helper()

	db, err := sqlite.SetupDatabase("", gormModels.NewLogger(zaptest.NewLogger(t), "warn", 0))
	require.NoError(t, err, "Failed to set up test database")

	td := &TestDatabase{GormDB: db, t: t}
	t.Cleanup(td.Cleanup)
	return td
}

// TruncateAllTables removes every row from the managed tables
func (td *TestDatabase) TruncateAllTables() error {
	for _, model := range gormModels.Models() {
		if err := td.GormDB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("truncate %T: %w", model, err)
		}
	}
	return nil
}

// CountRecords counts rows in a table
func (td *TestDatabase) CountRecords(table string) (int, error) {
	var count int64
	err := td.GormDB.Table(table).Count(&count).Error
	return int(count), err
}

// RecordExists reports whether a row matches the where clause
func (td *TestDatabase) RecordExists(table, whereClause string, args ...interface{}) (bool, error) {
	var count int64
	err := td.GormDB.Table(table).Where(whereClause, args...).Count(&count).Error
	return count > 0, err
}

// Cleanup closes the connection
func (td *TestDatabase) Cleanup() {
	sqlDB, err := td.GormDB.DB()
	if err != nil {
		td.t.Logf("Failed to get sql.DB: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		td.t.Logf("Failed to close test database: %v", err)
	}
}
