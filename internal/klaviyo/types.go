package klaviyo

// CampaignList is the response of the campaign listing endpoint.
type CampaignList struct {
	Data  []Campaign `json:"data"`
	Links Links      `json:"links"`
}

// Campaign is one raw campaign record as returned upstream.
type Campaign struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Attributes CampaignAttributes `json:"attributes"`
}

// CampaignAttributes holds the sparse fieldset requested from the
// campaign listing endpoint.
type CampaignAttributes struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	SendTime string `json:"send_time,omitempty"`
}

// Links carries pagination cursors for list responses.
type Links struct {
	Next string `json:"next,omitempty"`
	Prev string `json:"prev,omitempty"`
}

// CampaignMetrics is the response of the per-campaign metrics endpoint.
type CampaignMetrics struct {
	Data MetricRecord `json:"data"`
}

// MetricRecord is the engagement record for one campaign message.
type MetricRecord struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	Attributes MetricAttributes `json:"attributes"`
}

// MetricAttributes holds the engagement counters. Fields are pointers so
// an absent counter can be told apart from an explicit zero.
type MetricAttributes struct {
	Recipients   *int `json:"recipients,omitempty"`
	UniqueOpens  *int `json:"unique_opens,omitempty"`
	UniqueClicks *int `json:"unique_clicks,omitempty"`
}
