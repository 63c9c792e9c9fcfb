package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/erp/egnyte-provisioner/internal/infrastructure/config"
)

func TestNewDatabase_Sqlite(t *testing.T) {
	cfg := &config.LedgerConfig{Enabled: true, Driver: "sqlite", DSN: ":memory:"}

	db, err := NewDatabase(cfg, zap.NewNop(), Options{LogLevel: gormlogger.Silent})
	require.NoError(t, err)
	defer db.Close()

	assert.NotNil(t, db.DB)
	assert.NoError(t, db.Ping())
}

func TestNewDatabase_EmptyDriverDefaultsToSqlite(t *testing.T) {
	cfg := &config.LedgerConfig{Enabled: true, DSN: ":memory:"}

	db, err := NewDatabase(cfg, zap.NewNop(), Options{LogLevel: gormlogger.Silent})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Ping())
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	cfg := &config.LedgerConfig{Enabled: true, Driver: "oracle", DSN: "dsn"}

	_, err := NewDatabase(cfg, zap.NewNop(), Options{LogLevel: gormlogger.Silent})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestDatabase_PingFailsAfterClose(t *testing.T) {
	cfg := &config.LedgerConfig{Enabled: true, Driver: "sqlite", DSN: ":memory:"}

	db, err := NewDatabase(cfg, zap.NewNop(), Options{LogLevel: gormlogger.Silent})
	require.NoError(t, err)

	require.NoError(t, db.Ping())
	require.NoError(t, db.Close())
	assert.Error(t, db.Ping())
}
