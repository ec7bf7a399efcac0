// Package models defines the core types shared by the media monitoring pipeline.
package models

import "time"

// Category is the coarse media kind that drives probe and preview dispatch.
type Category string

const (
	CategoryVideo    Category = "video"
	CategoryStream   Category = "stream"
	CategoryImage    Category = "image"
	CategoryText     Category = "text"
	CategoryHTML     Category = "html"
	CategoryDocument Category = "document"
	CategoryUnknown  Category = "unknown"
)

// Previewable reports whether a still-image preview can be generated
// for this category.
func (c Category) Previewable() bool {
	switch c {
	case CategoryVideo, CategoryStream, CategoryImage:
		return true
	default:
		return false
	}
}

// Status is the liveness outcome of a check cycle.
type Status string

const (
	StatusActive Status = "active"
	StatusError  Status = "error"
)

// StatusRecord is the outcome of one check cycle for a tracked URL.
// PreviewRef and TextPreview are mutually exclusive: PreviewRef is set only
// for active, previewable resources; TextPreview only for text/html ones.
type StatusRecord struct {
	Status      Status         `json:"status"`
	Message     string         `json:"message"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	PreviewRef  string         `json:"preview,omitempty"`
	TextPreview string         `json:"text_preview,omitempty"`
}

// ErrorRecord builds an error StatusRecord with the given message.
func ErrorRecord(message string) StatusRecord {
	return StatusRecord{
		Status:  StatusError,
		Message: message,
	}
}

// TrackedItem is one entry in the watch-list. Its mutable fields are owned
// exclusively by the item's own check cycle; the monitor guarantees at most
// one in-flight cycle per item.
type TrackedItem struct {
	URL             string        `json:"url"`
	DeclaredType    string        `json:"declared_type,omitempty"`
	Category        Category      `json:"category"`
	LastCheckedAt   time.Time     `json:"last_checked_at,omitzero"`
	PreviewFailures int           `json:"preview_failures"`
	LastStatus      *StatusRecord `json:"last_status,omitempty"`
}
