package engine

import (
	"testing"

	"github.com/voicedesk/voicedesk/internal/escalation/model"
)

func TestDeriveReason(t *testing.T) {
	tests := []struct {
		name      string
		severity  int
		sentiment model.Sentiment
		incidents int
		want      model.TriggerReason
	}{
		{name: "critical rating beats everything", severity: 5, sentiment: model.SentimentAngry, incidents: 10, want: model.ReasonCriticalRating},
		{name: "critical sentiment counts too", severity: 4, sentiment: model.SentimentCritical, incidents: 0, want: model.ReasonCriticalRating},
		{name: "high severity without hot sentiment is not critical", severity: 5, sentiment: model.SentimentNeutral, incidents: 0, want: model.ReasonSLABreach},
		{name: "urgent sentiment alone is not critical rating", severity: 3, sentiment: model.SentimentUrgent, incidents: 0, want: model.ReasonUrgentSentiment},
		{name: "repeat incidents outrank sentiment", severity: 2, sentiment: model.SentimentAngry, incidents: 3, want: model.ReasonMultipleIncidents},
		{name: "two incidents are not enough", severity: 2, sentiment: model.SentimentAngry, incidents: 2, want: model.ReasonUrgentSentiment},
		{name: "fallback", severity: 2, sentiment: model.SentimentNeutral, incidents: 0, want: model.ReasonSLABreach},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &model.Feedback{SeverityRating: tt.severity, Sentiment: tt.sentiment}
			if got := DeriveReason(fb, tt.incidents); got != tt.want {
				t.Errorf("DeriveReason() = %s, want %s", got, tt.want)
			}
		})
	}
}
