package report

import (
	"time"

	"github.com/mailfleet/campdash/internal/klaviyo"
)

// CampaignMetrics is the canonical per-campaign record exposed to the
// dashboard. Rates are percentages.
type CampaignMetrics struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	SentAt     string  `json:"sentAt,omitempty"`
	Recipients int     `json:"recipients"`
	Opens      int     `json:"opens"`
	Clicks     int     `json:"clicks"`
	OpenRate   float64 `json:"openRate"`
	ClickRate  float64 `json:"clickRate"`
}

// NormalizeCampaign converts a raw upstream campaign and an optional
// engagement record into a CampaignMetrics. Missing counters default to
// zero, and rates of campaigns without recipients are zero rather than
// NaN. The upstream status string is passed through verbatim.
func NormalizeCampaign(c klaviyo.Campaign, m *klaviyo.MetricRecord) CampaignMetrics {
	var recipients, opens, clicks int
	if m != nil {
		recipients = intValue(m.Attributes.Recipients)
		opens = intValue(m.Attributes.UniqueOpens)
		clicks = intValue(m.Attributes.UniqueClicks)
	}

	var openRate, clickRate float64
	if recipients > 0 {
		openRate = float64(opens) / float64(recipients) * 100
		clickRate = float64(clicks) / float64(recipients) * 100
	}

	return CampaignMetrics{
		ID:         c.ID,
		Name:       c.Attributes.Name,
		Status:     c.Attributes.Status,
		SentAt:     c.Attributes.SendTime,
		Recipients: recipients,
		Opens:      opens,
		Clicks:     clicks,
		OpenRate:   openRate,
		ClickRate:  clickRate,
	}
}

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// sentAtTime parses a campaign's send time. The second return is false
// when the campaign has no usable send time.
func sentAtTime(c CampaignMetrics) (time.Time, bool) {
	if c.SentAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, c.SentAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
