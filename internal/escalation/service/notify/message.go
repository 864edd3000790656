package notify

import (
	"fmt"

	"github.com/voicedesk/voicedesk/internal/escalation/model"
)

// Template rendering is owned by the notification-template module; these are
// the built-in fallbacks used when no tenant template applies.

func escalationTitle(esc *model.Escalation) string {
	return fmt.Sprintf("SLA escalation tier %d: %s", esc.Tier, reasonText(esc.Reason))
}

func escalationBody(esc *model.Escalation) string {
	return fmt.Sprintf(
		"Feedback %s breached its tier %d deadline (%s). Opened at %s. Please review and respond.",
		esc.FeedbackID, esc.Tier, reasonText(esc.Reason), esc.CreatedAt.Format("2006-01-02 15:04 MST"),
	)
}

func reasonText(r model.TriggerReason) string {
	switch r {
	case model.ReasonCriticalRating:
		return "critical rating"
	case model.ReasonMultipleIncidents:
		return "repeat incidents from the same client"
	case model.ReasonUrgentSentiment:
		return "urgent sentiment"
	case model.ReasonSLABreach:
		return "deadline exceeded"
	default:
		return string(r)
	}
}
