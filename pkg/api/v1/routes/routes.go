// Package routes defines the API routes and URL structure
package routes

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/dlerhq/dler/internal/api/v1/handlers"
)

// API base configuration
const (
	// DefaultPort is the default port for the API
	DefaultPort = "8080"
)

// DefaultBaseURL is the default base URL for the API
var DefaultBaseURL = fmt.Sprintf("http://localhost:%s", DefaultPort)

// Route names for lookup
const (
	// Health check
	HealthCheck = "HealthCheck"

	// Task routes
	GetTaskHistory = "GetTaskHistory"
	GetTaskStatus  = "GetTaskStatus"
	CreateTask     = "CreateTask"
	DeleteTask     = "DeleteTask"
	RedownloadTask = "RedownloadTask"

	// File routes
	DownloadFile = "DownloadFile"
)

// routeCache stores extracted routes for use prior to compilation
var (
	routeCache     map[string]string
	routeCacheMu   sync.RWMutex
	routeCacheInit sync.Once
)

// RegisterRoutes configures all the routes
//
// NOTE: route ordering is important because routes will try and match in the
// order they are registered. /tasks/history must be registered before
// /tasks/:id or "history" gets interpreted as a task ID.
func RegisterRoutes(app *fiber.App, taskHandler *handlers.TaskHandler) {
	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	}).Name(HealthCheck)

	// Task endpoints
	tasks := app.Group("/tasks")
	tasks.Get("/history", taskHandler.GetHistory).Name(GetTaskHistory)
	tasks.Get("/:id", taskHandler.GetTaskStatus).Name(GetTaskStatus)
	tasks.Post("/", taskHandler.CreateTask).Name(CreateTask)
	tasks.Post("/:id/redownload", taskHandler.RedownloadTask).Name(RedownloadTask)
	tasks.Delete("/:id", taskHandler.DeleteTask).Name(DeleteTask)

	// File endpoints
	files := app.Group("/files")
	files.Get("/:id", taskHandler.DownloadFile).Name(DownloadFile)
}

// initRouteCache initializes the route cache by creating a mock app and extracting routes
func initRouteCache() {
	routeCacheInit.Do(func() {
		routeCache = make(map[string]string)

		// Create a mock app
		app := fiber.New()

		// Register routes with an empty handler
		RegisterRoutes(app, &handlers.TaskHandler{})

		// Extract routes from the app
		for _, route := range app.GetRoutes() {
			if route.Name != "" {
				routeCache[route.Name] = route.Path
			}
		}
	})
}

// GetRoute returns the route pattern for the given route name
func GetRoute(name string) string {
	routeCacheMu.RLock()
	defer routeCacheMu.RUnlock()

	// Initialize cache if needed
	if routeCache == nil {
		routeCacheMu.RUnlock()
		initRouteCache()
		routeCacheMu.RLock()
	}

	return routeCache[name]
}

// BuildURL builds a URL for the given route name and parameters
func BuildURL(routeName string, params map[string]string, queryParams url.Values) string {
	route := GetRoute(routeName)
	if route == "" {
		return ""
	}

	// Replace parameters in the route
	for param, value := range params {
		route = strings.ReplaceAll(route, ":"+param, value)
	}

	// Remove trailing slash if it's a base endpoint with no parameters
	if strings.HasSuffix(route, "/") && !strings.Contains(route, ":") {
		route = strings.TrimSuffix(route, "/")
	}

	// Add query parameters if any
	if len(queryParams) > 0 {
		route = fmt.Sprintf("%s?%s", route, queryParams.Encode())
	}

	return route
}

// Health check route helper

// HealthCheckURL returns the URL for the health check endpoint
func HealthCheckURL() string {
	return BuildURL(HealthCheck, nil, nil)
}

// Task route helpers

// GetTaskHistoryURL returns the URL for the task history endpoint
func GetTaskHistoryURL() string {
	return BuildURL(GetTaskHistory, nil, nil)
}

// GetTaskStatusURL returns the URL for getting a task's status by ID
func GetTaskStatusURL(id string) string {
	return BuildURL(GetTaskStatus, map[string]string{"id": id}, nil)
}

// CreateTaskURL returns the URL for submitting a task
func CreateTaskURL() string {
	return BuildURL(CreateTask, nil, nil)
}

// DeleteTaskURL returns the URL for deleting a task by ID
func DeleteTaskURL(id string) string {
	return BuildURL(DeleteTask, map[string]string{"id": id}, nil)
}

// RedownloadTaskURL returns the URL for re-submitting a task's URL by ID
func RedownloadTaskURL(id string) string {
	return BuildURL(RedownloadTask, map[string]string{"id": id}, nil)
}

// File route helpers

// DownloadFileURL returns the URL for downloading a task's file by ID
func DownloadFileURL(id string) string {
	return BuildURL(DownloadFile, map[string]string{"id": id}, nil)
}
