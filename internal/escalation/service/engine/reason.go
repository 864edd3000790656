package engine

import (
	"time"

	"github.com/voicedesk/voicedesk/internal/escalation/model"
)

const (
	// criticalSeverityMin is the rating floor for the critical_rating reason.
	criticalSeverityMin = 4

	// incidentWindow is the trailing window inspected for repeat incidents
	// from the same originating client.
	incidentWindow = 7 * 24 * time.Hour

	// incidentThreshold is the repeat-incident count that upgrades the
	// trigger reason to multiple_incidents.
	incidentThreshold = 3
)

// DeriveReason picks the trigger reason for a new escalation. Checks run in
// priority order; the first match wins, sla_breach is the fallback.
func DeriveReason(fb *model.Feedback, recentIncidents int) model.TriggerReason {
	angryOrCritical := fb.Sentiment == model.SentimentAngry || fb.Sentiment == model.SentimentCritical
	switch {
	case fb.SeverityRating >= criticalSeverityMin && angryOrCritical:
		return model.ReasonCriticalRating
	case recentIncidents >= incidentThreshold:
		return model.ReasonMultipleIncidents
	case fb.Sentiment.IsHot():
		return model.ReasonUrgentSentiment
	default:
		return model.ReasonSLABreach
	}
}
