package model

import "time"

// TriggerReason enumerates why an escalation was opened. Kept as a closed set;
// the engine derives it with a priority-ordered chain (see engine.DeriveReason).
type TriggerReason string

const (
	ReasonCriticalRating    TriggerReason = "critical_rating"
	ReasonMultipleIncidents TriggerReason = "multiple_incidents"
	ReasonUrgentSentiment   TriggerReason = "urgent_sentiment"
	ReasonSLABreach         TriggerReason = "sla_breach"
)

// Channel is a notification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelInApp Channel = "in_app"
)

// ParseChannel maps a stored channel string onto the closed set.
func ParseChannel(s string) (Channel, bool) {
	switch Channel(s) {
	case ChannelEmail, ChannelSMS, ChannelInApp:
		return Channel(s), true
	}
	return "", false
}

// Escalation is one tier instance for one feedback item. At most one
// unresolved row may exist per (FeedbackID, Tier); the store enforces this
// with a partial unique index, not application sequencing.
type Escalation struct {
	ID         string        `json:"id"`
	FeedbackID string        `json:"feedbackId"`
	TenantID   string        `json:"tenantId"`
	Tier       int           `json:"tier"` // 1..3
	Reason     TriggerReason `json:"reason"`
	CreatedAt  time.Time     `json:"createdAt"`

	NotifiedAt       *time.Time `json:"notifiedAt,omitempty"`
	NotifiedChannels []Channel  `json:"notifiedChannels,omitempty"`
	NotifiedUserIDs  []string   `json:"notifiedUserIds,omitempty"`

	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
	ResolutionNotes string     `json:"resolutionNotes,omitempty"`
}

// Resolved reports whether this tier instance is terminal.
func (e *Escalation) Resolved() bool { return e.ResolvedAt != nil }

// Notified reports whether at least one delivery succeeded for this instance.
func (e *Escalation) Notified() bool { return e.NotifiedAt != nil }
