// Package handlers provides HTTP request handling
package handlers

// Common error messages
const (
	ErrMsgInvalidReqBody = "Invalid request body"
	ErrMsgURLRequired    = "URL is required"
	ErrMsgInvalidURL     = "URL must be a well-formed http(s) URL"
	ErrMsgTaskIDRequired = "Task id is required"
	ErrMsgTaskNotFound   = "Task not found"
	ErrMsgHistoryFailed  = "Failed to list task history"
	ErrMsgSubmitFailed   = "Failed to create download task"
	ErrMsgDeleteFailed   = "Failed to delete task"
	ErrMsgRedoFailed     = "Failed to redownload task"
	ErrMsgStatusFailed   = "Failed to get task status"
	ErrMsgFileNotFound   = "File not found on the server"
	ErrMsgFileForbidden  = "Forbidden: access to this file is not allowed"
)
