package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_pragma=foreign_keys(1)", sqliteDSN(":memory:"))
	assert.Equal(t, "mims.db?_pragma=foreign_keys(1)", sqliteDSN("mims.db"))
	assert.Equal(t, "file:mims.db?cache=shared&_pragma=foreign_keys(1)", sqliteDSN("file:mims.db?cache=shared"))
}

func TestOpenSQLiteEnforcesForeignKeys(t *testing.T) {
	db, err := OpenDatabase(DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	var enabled int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
	assert.Equal(t, 1, enabled)
}

func TestOpenDatabaseRejectsUnknownDriver(t *testing.T) {
	_, err := OpenDatabase(DatabaseConfig{Driver: "oracle"}, logger.Silent)
	assert.Error(t, err)
}
