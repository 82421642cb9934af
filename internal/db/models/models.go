// Package models defines the persisted entities of the download service.
package models

const (
	// MaxHistorySize is the maximum number of entries kept in the task history ledger
	MaxHistorySize = 100
)
