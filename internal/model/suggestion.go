package model

import "time"

// SuggestionKind distinguishes the variants of Suggestion.
type SuggestionKind string

const (
	// SuggestionNewTask proposes a task the user has not created yet.
	SuggestionNewTask SuggestionKind = "new-task"

	// SuggestionInsight is an observation about the current task list.
	SuggestionInsight SuggestionKind = "insight"

	// SuggestionEnhancement proposes details for a task being written.
	SuggestionEnhancement SuggestionKind = "enhancement"
)

// Priority is a coarse urgency estimate attached to suggestions.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// InsightCategory groups insight suggestions.
type InsightCategory string

const (
	InsightProductivity InsightCategory = "productivity"
	InsightDeadline     InsightCategory = "deadline"
	InsightOrganization InsightCategory = "organization"
	InsightSuggestion   InsightCategory = "suggestion"
)

// Suggestion is a single piece of advice derived from the task list. Which
// fields are meaningful depends on Kind.
type Suggestion struct {
	Kind SuggestionKind `json:"kind"`

	Title   string `json:"title"`
	Message string `json:"message"`

	// New-task and enhancement fields.
	Priority          Priority `json:"priority,omitempty"`
	EstimatedDuration string   `json:"estimated_duration,omitempty"`
	Category          string   `json:"category,omitempty"`
	Tags              []string `json:"tags,omitempty"`

	// SuggestedDue is only set on enhancements.
	SuggestedDue *time.Time `json:"suggested_due,omitempty"`

	// Insight fields.
	Insight    InsightCategory `json:"insight,omitempty"`
	Actionable bool            `json:"actionable,omitempty"`
}
