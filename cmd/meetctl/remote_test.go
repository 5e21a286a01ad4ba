package main

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/govmeet/src/api/webserver"
	"github.com/stake-plus/govmeet/src/config"
	"github.com/stake-plus/govmeet/src/data"
	"github.com/stake-plus/govmeet/src/meeting/engine"
	"github.com/stake-plus/govmeet/src/meeting/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startAPI(t *testing.T, secret string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := data.ConnectSQLite(filepath.Join(t.TempDir(), "api.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	s := webserver.New(config.APIConfig{JWTSecret: secret}, engine.New(store.NewSharedProvider(db, nil), nil))
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		s.Close()
	})
	return srv.URL
}

func TestRemoteRunsAgainstAPI(t *testing.T) {
	url := startAPI(t, "shared")

	out, err := execute(t, "", "remote", "--api", url, "--secret", "shared", "-c", "board", "prepare", "Budget")
	require.NoError(t, err)
	assert.Equal(t, "Meeting initialised, meeting id 1 on channel board\n", out)

	out, err = execute(t, "", "remote", "--api", url, "--secret", "shared", "-c", "board", "agenda", "delete", "3")
	assert.ErrorIs(t, err, errCommandFailed)
	assert.Equal(t, "Cannot find agenda item 3\n", out)

	_, err = execute(t, "", "remote", "--api", url, "--secret", "wrong", "-c", "board", "status")
	assert.Error(t, err)
}

func TestRemoteNeedsCredentials(t *testing.T) {
	_, err := execute(t, "", "remote", "--api", "http://127.0.0.1:1", "--token", "", "status")
	assert.EqualError(t, err, "remote commands need --token or --secret")
}
