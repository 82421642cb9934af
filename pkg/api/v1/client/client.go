// Package client provides the API client for interacting with the dler API
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/dlerhq/dler/internal/api/v1/handlers"
	"github.com/dlerhq/dler/internal/services"
	"github.com/dlerhq/dler/pkg/api/v1/routes"
)

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 30 * time.Second

// Client is the interface for API client
type Client interface {
	// Health Check
	HealthCheck(ctx context.Context) (map[string]string, error)

	// Task Endpoints
	CreateTask(ctx context.Context, req handlers.TaskRequest) (handlers.TaskAcceptedResponse, error)
	GetTask(ctx context.Context, id string) (services.TaskStatusInfo, error)
	GetHistory(ctx context.Context) ([]services.TaskStatusInfo, error)
	DeleteTask(ctx context.Context, id string) (handlers.TaskDeletedResponse, error)
	RedownloadTask(ctx context.Context, id string) (handlers.TaskAcceptedResponse, error)

	// File Endpoints
	DownloadFile(ctx context.Context, id string) ([]byte, error)
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Validate the base URL
	_, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return &APIClient{
		baseURL: opts.BaseURL,
		timeout: opts.Timeout,
	}, nil
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
	// Resolve the endpoint URL
	fullURL := c.baseURL + endpoint

	// Create a new agent based on the HTTP method
	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	case http.MethodDelete:
		agent = fiber.Delete(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	// Set common headers
	agent.Set("Content-Type", "application/json")
	agent.Set("Accept", "application/json")

	// Add body if provided
	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// doRequest sends the HTTP request and processes the response
func (c *APIClient) doRequest(agent *fiber.Agent, v interface{}) error {
	// Execute the request
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}

	// Check for non-success status codes
	if statusCode < 200 || statusCode >= 300 {
		// If we can't decode the error response, return an error with the raw body as the message
		return &fiber.Error{
			Code:    statusCode,
			Message: string(body),
		}
	}

	// Decode the response body if a target is provided
	if v != nil && len(body) > 0 {
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}

	return nil
}

// executeRequest creates an agent, sends the request, and processes the response
func (c *APIClient) executeRequest(ctx context.Context, method, endpoint string, body, response interface{}) error {
	agent, err := c.createAgent(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	return c.doRequest(agent, response)
}

// Health check implementation

// HealthCheck checks the health of the API
func (c *APIClient) HealthCheck(ctx context.Context) (map[string]string, error) {
	endpoint := routes.HealthCheckURL()
	var response map[string]string
	if err := c.executeRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return map[string]string{}, err
	}
	return response, nil
}

// Task methods implementation

// CreateTask submits a URL for download and returns the covering task
func (c *APIClient) CreateTask(ctx context.Context, req handlers.TaskRequest) (handlers.TaskAcceptedResponse, error) {
	endpoint := routes.CreateTaskURL()
	var response handlers.TaskAcceptedResponse
	if err := c.executeRequest(ctx, http.MethodPost, endpoint, req, &response); err != nil {
		return handlers.TaskAcceptedResponse{}, err
	}
	return response, nil
}

// GetTask retrieves a task's status by ID
func (c *APIClient) GetTask(ctx context.Context, id string) (services.TaskStatusInfo, error) {
	endpoint := routes.GetTaskStatusURL(id)
	var response services.TaskStatusInfo
	if err := c.executeRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return services.TaskStatusInfo{}, err
	}
	return response, nil
}

// GetHistory retrieves the recent submissions, most recent first
func (c *APIClient) GetHistory(ctx context.Context) ([]services.TaskStatusInfo, error) {
	endpoint := routes.GetTaskHistoryURL()
	var response []services.TaskStatusInfo
	if err := c.executeRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// DeleteTask deletes a task by ID
func (c *APIClient) DeleteTask(ctx context.Context, id string) (handlers.TaskDeletedResponse, error) {
	endpoint := routes.DeleteTaskURL(id)
	var response handlers.TaskDeletedResponse
	if err := c.executeRequest(ctx, http.MethodDelete, endpoint, nil, &response); err != nil {
		return handlers.TaskDeletedResponse{}, err
	}
	return response, nil
}

// RedownloadTask re-submits a task's URL, bypassing the result cache
func (c *APIClient) RedownloadTask(ctx context.Context, id string) (handlers.TaskAcceptedResponse, error) {
	endpoint := routes.RedownloadTaskURL(id)
	var response handlers.TaskAcceptedResponse
	if err := c.executeRequest(ctx, http.MethodPost, endpoint, nil, &response); err != nil {
		return handlers.TaskAcceptedResponse{}, err
	}
	return response, nil
}

// File methods implementation

// DownloadFile retrieves the file backing a successful task
func (c *APIClient) DownloadFile(ctx context.Context, id string) ([]byte, error) {
	endpoint := routes.DownloadFileURL(id)
	agent, err := c.createAgent(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("error sending request: %w", errs[0])
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, &fiber.Error{
			Code:    statusCode,
			Message: string(body),
		}
	}

	return body, nil
}
