// Package client provides unit tests for the dler API client.
//
// The tests use httptest to create a mock server that simulates the dler
// API, allowing the client to be tested without requiring a real server.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlerhq/dler/internal/api/v1/handlers"
	"github.com/dlerhq/dler/internal/db/models"
	"github.com/dlerhq/dler/internal/services"
)

// TestNewClient tests the NewClient function with various configurations.
func TestNewClient(t *testing.T) {
	tests := []struct {
		name       string
		opts       *Options
		wantErr    bool
		validateFn func(t *testing.T, client Client)
	}{
		{
			name:    "nil options",
			opts:    nil,
			wantErr: false,
			validateFn: func(t *testing.T, client Client) {
				apiClient, ok := client.(*APIClient)
				assert.True(t, ok, "client should be an *APIClient")

				expectedDefaults := DefaultOptions()
				assert.Equal(t, expectedDefaults.BaseURL, apiClient.baseURL)
				assert.Equal(t, expectedDefaults.Timeout, apiClient.timeout)
			},
		},
		{
			name: "valid options",
			opts: &Options{
				BaseURL: "http://example.com",
				Timeout: 10 * time.Second,
			},
			wantErr: false,
			validateFn: func(t *testing.T, client Client) {
				apiClient, ok := client.(*APIClient)
				assert.True(t, ok, "client should be an *APIClient")
				assert.Equal(t, "http://example.com", apiClient.baseURL)
				assert.Equal(t, 10*time.Second, apiClient.timeout)
			},
		},
		{
			name: "invalid base URL",
			opts: &Options{
				BaseURL: "://not-a-url",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validateFn != nil {
				tt.validateFn(t, c)
			}
		})
	}
}

// newTestClient starts a mock server and returns a client pointed at it
func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(&Options{BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestCreateTask(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tasks", r.URL.Path)

		var req handlers.TaskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://video.example/watch?v=abc", req.URL)

		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(handlers.TaskAcceptedResponse{
			TaskID: "task-1",
			URL:    req.URL,
		})
	})

	resp, err := c.CreateTask(context.Background(), handlers.TaskRequest{
		URL: "https://video.example/watch?v=abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "task-1", resp.TaskID)
	assert.Equal(t, "https://video.example/watch?v=abc", resp.URL)
}

func TestCreateTaskServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid URL"}`))
	})

	_, err := c.CreateTask(context.Background(), handlers.TaskRequest{URL: "not a url"})
	require.Error(t, err)

	var fiberErr *fiber.Error
	require.True(t, errors.As(err, &fiberErr))
	assert.Equal(t, http.StatusBadRequest, fiberErr.Code)
}

func TestGetTask(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/tasks/task-1", r.URL.Path)

		_ = json.NewEncoder(w).Encode(services.TaskStatusInfo{
			TaskID:      "task-1",
			Status:      models.TaskStatusSuccess,
			URL:         "https://video.example/watch?v=abc",
			DownloadURL: "/files/task-1",
		})
	})

	info, err := c.GetTask(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", info.TaskID)
	assert.Equal(t, models.TaskStatusSuccess, info.Status)
	assert.Equal(t, "/files/task-1", info.DownloadURL)
}

func TestGetTaskNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Task not found"}`))
	})

	_, err := c.GetTask(context.Background(), "nope")
	require.Error(t, err)

	var fiberErr *fiber.Error
	require.True(t, errors.As(err, &fiberErr))
	assert.Equal(t, http.StatusNotFound, fiberErr.Code)
}

func TestGetHistory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks/history", r.URL.Path)

		_ = json.NewEncoder(w).Encode([]services.TaskStatusInfo{
			{TaskID: "task-2", Status: models.TaskStatusPending},
			{TaskID: "task-1", Status: models.TaskStatusSuccess},
		})
	})

	infos, err := c.GetHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "task-2", infos[0].TaskID)
	assert.Equal(t, "task-1", infos[1].TaskID)
}

func TestDeleteTask(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/tasks/task-1", r.URL.Path)

		_ = json.NewEncoder(w).Encode(handlers.TaskDeletedResponse{
			Status: "deleted",
			TaskID: "task-1",
		})
	})

	resp, err := c.DeleteTask(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, "deleted", resp.Status)
	assert.Equal(t, "task-1", resp.TaskID)
}

func TestRedownloadTask(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tasks/task-1/redownload", r.URL.Path)

		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(handlers.TaskAcceptedResponse{
			TaskID: "task-2",
			URL:    "https://video.example/watch?v=abc",
		})
	})

	resp, err := c.RedownloadTask(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, "task-2", resp.TaskID)
}

func TestDownloadFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/task-1", r.URL.Path)
		_, _ = w.Write([]byte("media"))
	})

	body, err := c.DownloadFile(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("media"), body)
}

func TestHealthCheck(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	health, err := c.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health["status"])
}
