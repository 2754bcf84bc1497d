package model

type APIResponse struct {
	Success      bool          `json:"success"`
	Data         any           `json:"data,omitempty"`
	Error        *APIError     `json:"error,omitempty"`
	Meta         *Meta         `json:"meta,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Notification is the titled message an operator sees after a mutation.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant,omitempty"`
}

const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)
