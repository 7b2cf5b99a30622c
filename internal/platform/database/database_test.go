package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"remobot/internal/model"
)

func TestNewSQLiteAndMigrate(t *testing.T) {
	db, err := New(context.Background(), "sqlite", filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "chat_history", "chat_messages"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), "oracle", "", nil)
	assert.Error(t, err)
}

func TestMissingRowIsNotLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	db, err := New(context.Background(), "sqlite", filepath.Join(t.TempDir(), "test.db"), zap.New(core))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	logs.TakeAll()

	var user model.User
	err = db.Where("username = ?", "Gus").First(&user).Error
	require.Error(t, err)
	assert.Zero(t, logs.Len())

	err = db.Exec("SELECT * FROM no_such_table").Error
	require.Error(t, err)
	assert.NotZero(t, logs.FilterLoggerName("gorm").Len())
}
