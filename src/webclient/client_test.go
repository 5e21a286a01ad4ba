package webclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoWithRetry(t *testing.T) {
	ctx := context.Background()

	var calls int
	status, _, err := DoWithRetry(ctx, 3, time.Millisecond, func() (int, []byte, error) {
		calls++
		if calls < 3 {
			return http.StatusServiceUnavailable, nil, nil
		}
		return http.StatusOK, []byte("ok"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, calls)

	calls = 0
	_, _, err = DoWithRetry(ctx, 2, time.Millisecond, func() (int, []byte, error) {
		calls++
		return 0, nil, errors.New("dial")
	})
	assert.EqualError(t, err, "dial")
	assert.Equal(t, 2, calls)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = DoWithRetry(cancelled, 5, time.Hour, func() (int, []byte, error) {
		return http.StatusTooManyRequests, nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientCommand(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/v1/channels/%23board/commands", r.URL.EscapedPath())
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		if req["command"] == "agenda delete 9" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]interface{}{"lines": []string{"Cannot find agenda item 9"}, "error": true})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"lines": []string{"ok: " + req["command"]}})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "tok")
	reply, err := c.Command(context.Background(), "#board", "status")
	require.NoError(t, err)
	assert.Equal(t, []string{"ok: status"}, reply.Lines)
	assert.False(t, reply.Error)

	reply, err = c.Command(context.Background(), "#board", "agenda delete 9")
	require.NoError(t, err)
	assert.True(t, reply.Error)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"err":"no current meeting in channel board"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	var out map[string]interface{}
	err := c.Get(context.Background(), "board", "agenda", &out)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "no current meeting in channel board", apiErr.Message)
}
