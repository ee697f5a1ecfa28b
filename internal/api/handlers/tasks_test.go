package handlers_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/dom/task-manager/internal/auth"
	"github.com/dom/task-manager/internal/domain"
	"github.com/dom/task-manager/internal/repository/jsonfile"
	"github.com/dom/task-manager/internal/service"
	"github.com/dom/task-manager/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listTasks(t *testing.T, ts *testutil.TestServer, token string) []domain.Task {
	t.Helper()
	resp := testutil.DoAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/tasks"), nil, token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tasks []domain.Task
	testutil.AssertJSONResponse(t, resp, &tasks)
	return tasks
}

func TestTaskHandler_Create(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	tests := []struct {
		name           string
		request        interface{}
		expectedStatus int
		expectedError  string
		checkResponse  func(*testing.T, domain.Task)
	}{
		{
			name:           "defaults to pending",
			request:        map[string]string{"title": "Write report", "description": "quarterly"},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, task domain.Task) {
				assert.NotEmpty(t, task.ID)
				assert.Equal(t, user.ID, task.UserID)
				assert.Equal(t, "Write report", task.Title)
				assert.Equal(t, "quarterly", task.Description)
				assert.Equal(t, domain.TaskStatusPending, task.Status)
				assert.True(t, task.CreatedAt.Equal(task.UpdatedAt))
			},
		},
		{
			name:           "explicit status",
			request:        map[string]string{"title": "Done already", "status": "completed"},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, task domain.Task) {
				assert.Equal(t, domain.TaskStatusCompleted, task.Status)
				assert.Empty(t, task.Description)
			},
		},
		{
			name:           "missing title",
			request:        map[string]string{"description": "no title"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Title is required",
		},
		{
			name:           "blank title",
			request:        map[string]string{"title": "   "},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Title is required",
		},
		{
			name:           "invalid status",
			request:        map[string]string{"title": "x", "status": "archived"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Status must be",
		},
		{
			name:           "malformed body",
			request:        []int{1, 2},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.DoAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/tasks"), tt.request, token)
			defer resp.Body.Close()

			if tt.expectedError != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedError)
				return
			}

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			var task domain.Task
			testutil.AssertJSONResponse(t, resp, &task)
			tt.checkResponse(t, task)
		})
	}
}

func TestTaskHandler_IDsAreUnique(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		task := testutil.CreateTask(t, ts, token, "task")
		assert.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
}

func TestTaskHandler_RequiresAuth(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedError  string
	}{
		{"no header", "", http.StatusUnauthorized, "Access token required"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Access token required"},
		{"garbage token", "Bearer not-a-jwt", http.StatusForbidden, "Invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, ts.APIURL("/tasks"), nil)
			require.NoError(t, err)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedError)
		})
	}
}

func TestTaskHandler_TokenForDeletedUser(t *testing.T) {
	ts := testutil.NewTestServer(t)

	// Signed with the server's secret for a user that was never stored.
	tokens := auth.NewTokenService(ts.Config.JWTSecret, ts.Config.TokenTTL())
	userless, err := tokens.Issue("ghost")
	require.NoError(t, err)

	resp := testutil.DoAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/tasks"), nil, userless)
	defer resp.Body.Close()
	testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "user not found")
}

func TestTaskHandler_OwnershipIsolation(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, tokenA := testutil.NewUserBuilder().WithUsername("owner_a").BuildAndAuthenticate(t, ts)
	_, tokenB := testutil.NewUserBuilder().WithUsername("owner_b").BuildAndAuthenticate(t, ts)

	task := testutil.CreateTask(t, ts, tokenA, "private")

	for _, other := range listTasks(t, ts, tokenB) {
		assert.NotEqual(t, task.ID, other.ID)
	}
	assert.Len(t, listTasks(t, ts, tokenA), 1)

	taskURL := ts.APIURL("/tasks/" + task.ID)

	tests := []struct {
		name   string
		method string
		body   interface{}
	}{
		{"get", http.MethodGet, nil},
		{"update", http.MethodPut, map[string]string{"title": "hijacked"}},
		{"delete", http.MethodDelete, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.DoAuthenticatedRequest(t, tt.method, taskURL, tt.body, tokenB)
			defer resp.Body.Close()
			testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Task not found")
		})
	}

	resp := testutil.DoAuthenticatedRequest(t, http.MethodGet, taskURL, nil, tokenA)
	defer resp.Body.Close()
	var unchanged domain.Task
	testutil.AssertJSONResponse(t, resp, &unchanged)
	assert.Equal(t, "private", unchanged.Title)
}

func TestTaskHandler_Update(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	task := testutil.CreateTask(t, ts, token, "original")

	t.Run("partial update keeps other fields", func(t *testing.T) {
		resp := testutil.DoAuthenticatedRequest(t, http.MethodPut, ts.APIURL("/tasks/"+task.ID),
			map[string]string{"status": "completed"}, token)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var updated domain.Task
		testutil.AssertJSONResponse(t, resp, &updated)
		assert.Equal(t, "original", updated.Title)
		assert.Equal(t, domain.TaskStatusCompleted, updated.Status)
		assert.True(t, updated.UpdatedAt.After(task.UpdatedAt))
		assert.True(t, updated.CreatedAt.Equal(task.CreatedAt))
	})

	t.Run("empty body still advances updatedAt", func(t *testing.T) {
		before := listTasks(t, ts, token)[0]

		resp := testutil.DoAuthenticatedRequest(t, http.MethodPut, ts.APIURL("/tasks/"+task.ID),
			map[string]string{}, token)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var updated domain.Task
		testutil.AssertJSONResponse(t, resp, &updated)
		assert.Equal(t, before.Title, updated.Title)
		assert.Equal(t, before.Description, updated.Description)
		assert.Equal(t, before.Status, updated.Status)
		assert.True(t, updated.UpdatedAt.After(before.UpdatedAt))
	})

	t.Run("description can be cleared", func(t *testing.T) {
		resp := testutil.DoAuthenticatedRequest(t, http.MethodPut, ts.APIURL("/tasks/"+task.ID),
			map[string]string{"description": ""}, token)
		defer resp.Body.Close()

		var updated domain.Task
		testutil.AssertJSONResponse(t, resp, &updated)
		assert.Empty(t, updated.Description)
	})

	t.Run("blank title rejected", func(t *testing.T) {
		resp := testutil.DoAuthenticatedRequest(t, http.MethodPut, ts.APIURL("/tasks/"+task.ID),
			map[string]string{"title": ""}, token)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Title cannot be empty")
	})

	t.Run("unknown id", func(t *testing.T) {
		resp := testutil.DoAuthenticatedRequest(t, http.MethodPut, ts.APIURL("/tasks/99999"),
			map[string]string{"title": "x"}, token)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Task not found")
	})
}

func TestTaskHandler_Delete(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	task := testutil.CreateTask(t, ts, token, "short lived")

	resp := testutil.DoAuthenticatedRequest(t, http.MethodDelete, ts.APIURL("/tasks/"+task.ID), nil, token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var deleted domain.Task
	testutil.AssertJSONResponse(t, resp, &deleted)
	assert.Equal(t, task.ID, deleted.ID)
	assert.Empty(t, listTasks(t, ts, token))

	again := testutil.DoAuthenticatedRequest(t, http.MethodDelete, ts.APIURL("/tasks/"+task.ID), nil, token)
	defer again.Body.Close()
	testutil.AssertErrorResponse(t, again, http.StatusNotFound, "Task not found")
}

func TestTaskHandler_CorruptedStoreHeals(t *testing.T) {
	ts := testutil.NewTestServer(t)

	demo, err := ts.Services.Auth.Login(context.Background(), service.LoginInput{
		Username: jsonfile.DemoUsername,
		Password: jsonfile.DemoPassword,
	})
	require.NoError(t, err)

	tasksPath := ts.StoragePath(jsonfile.TasksFile)
	require.NoError(t, os.WriteFile(tasksPath, []byte("{not json"), 0o644))

	tasks := listTasks(t, ts, demo.Token)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Sample Task", tasks[0].Title)

	backups, err := filepath.Glob(tasksPath + ".backup-*")
	require.NoError(t, err)
	require.Len(t, backups, 1)
	data, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}
