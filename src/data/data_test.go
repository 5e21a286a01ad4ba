package data

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureParam(t *testing.T) {
	assert.Equal(t, "u:p@tcp(h)/db?parseTime=true", ensureParam("u:p@tcp(h)/db", "parseTime", "true"))
	assert.Equal(t, "u:p@tcp(h)/db?a=1&loc=UTC", ensureParam("u:p@tcp(h)/db?a=1", "loc", "UTC"))
	assert.Equal(t, "u:p@tcp(h)/db?loc=Local", ensureParam("u:p@tcp(h)/db?loc=Local", "loc", "UTC"))
}

func TestGetMySQLDSN(t *testing.T) {
	t.Setenv("MYSQL_DSN", " ")
	_, err := GetMySQLDSN()
	assert.Error(t, err)

	t.Setenv("MYSQL_DSN", "u:p@tcp(h)/db")
	dsn, err := GetMySQLDSN()
	require.NoError(t, err)
	assert.Equal(t, "u:p@tcp(h)/db", dsn)
}

func TestSettingsCache(t *testing.T) {
	db, err := ConnectSQLite(filepath.Join(t.TempDir(), "settings.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, LoadSettings(db))
	assert.Equal(t, "", GetSetting("guild_id"))

	require.NoError(t, db.Create(&Setting{Name: "guild_id", Value: "123"}).Error)
	require.NoError(t, db.Create(&Setting{Name: "old", Value: "x"}).Error)
	require.NoError(t, db.Model(&Setting{}).Where("name = ?", "old").Update("active", 0).Error)

	// The cache only changes on reload.
	assert.Equal(t, "", GetSetting("guild_id"))
	require.NoError(t, LoadSettings(db))
	assert.Equal(t, "123", GetSetting("guild_id"))
	assert.Equal(t, "", GetSetting("old"))
}
