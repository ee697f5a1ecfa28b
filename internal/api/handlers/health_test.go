package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dom/task-manager/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	ts := testutil.NewTestServer(t)

	t.Run("root", func(t *testing.T) {
		resp, err := http.Get(ts.BaseURL() + "/")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		testutil.AssertJSONResponse(t, resp, &body)
		assert.Equal(t, "Task Manager API is running!", body["message"])
	})

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(ts.BaseURL() + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		testutil.AssertJSONResponse(t, resp, &body)
		assert.Equal(t, "OK", body["status"])
		_, err = time.Parse(time.RFC3339Nano, body["timestamp"])
		assert.NoError(t, err)
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, err := http.Get(ts.BaseURL() + "/nope")
		require.NoError(t, err)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Not found")
	})
}
