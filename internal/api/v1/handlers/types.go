package handlers

// TaskOptions are the caller-selectable download options
type TaskOptions struct {
	AudioOnly bool   `json:"audio_only"`
	Format    string `json:"format,omitempty"`
}

// TaskRequest is the body of a task submission
type TaskRequest struct {
	URL     string       `json:"url"`
	Options *TaskOptions `json:"options,omitempty"`
}

// TaskAcceptedResponse acknowledges an accepted submission
type TaskAcceptedResponse struct {
	TaskID string `json:"task_id"`
	URL    string `json:"url"`
}

// TaskDeletedResponse confirms a deletion
type TaskDeletedResponse struct {
	Status string `json:"status"`
	TaskID string `json:"task_id"`
}
