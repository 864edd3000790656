package model

import "time"

// Sentiment is the coarse sentiment signal attached to a feedback item by the
// upstream analysis pipeline. The engine only reads it; it never derives it.
type Sentiment string

const (
	SentimentNeutral   Sentiment = "neutral"
	SentimentSatisfied Sentiment = "satisfied"
	SentimentUrgent    Sentiment = "urgent"
	SentimentAngry     Sentiment = "angry"
	SentimentCritical  Sentiment = "critical"
)

// IsHot reports whether the sentiment alone warrants escalation attention.
func (s Sentiment) IsHot() bool {
	switch s {
	case SentimentUrgent, SentimentAngry, SentimentCritical:
		return true
	default:
		return false
	}
}

// WorkflowStatus is the feedback workflow state owned by the feedback module.
type WorkflowStatus string

const (
	StatusOpen     WorkflowStatus = "open"
	StatusInReview WorkflowStatus = "in_review"
	StatusResolved WorkflowStatus = "resolved"
	StatusClosed   WorkflowStatus = "closed"
)

// Terminal reports whether the workflow state is final. Sweeps only look at
// feedback in non-terminal states.
func (w WorkflowStatus) Terminal() bool {
	return w == StatusResolved || w == StatusClosed
}

// Feedback is the read-only view of a feedback item the escalation engine
// consumes. Ownership of these rows stays with the feedback module.
type Feedback struct {
	ID             string         `json:"id"`
	TenantID       string         `json:"tenantId"`
	ClientID       string         `json:"clientId"`
	Category       string         `json:"category"`
	SeverityRating int            `json:"severityRating"` // 1 (mild) .. 5 (severe)
	Sentiment      Sentiment      `json:"sentiment"`
	Status         WorkflowStatus `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
}
