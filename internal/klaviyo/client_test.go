package klaviyo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchCampaignsRequest(t *testing.T) {
	var gotAuth, gotRevision string
	var gotQuery map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRevision = r.Header.Get("revision")
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"c1","type":"campaign","attributes":{"name":"Spring Sale","status":"sent","send_time":"2024-03-01T10:00:00Z"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	campaigns, err := client.FetchCampaigns(context.Background(), "secret-key", Filter{Start: &start, End: &end})
	if err != nil {
		t.Fatalf("FetchCampaigns() error = %v", err)
	}

	if gotAuth != "Klaviyo-API-Key secret-key" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Klaviyo-API-Key secret-key")
	}
	if gotRevision != DefaultRevision {
		t.Errorf("revision = %q, want %q", gotRevision, DefaultRevision)
	}
	if got := gotQuery["fields[campaign]"]; len(got) != 1 || got[0] != "name,status,send_time" {
		t.Errorf("fields[campaign] = %v, want [name,status,send_time]", got)
	}

	filters := gotQuery["filter"]
	if len(filters) != 2 {
		t.Fatalf("filter params = %d, want 2", len(filters))
	}
	if filters[0] != "greater-or-equal(send_time,2024-01-01T00:00:00Z)" {
		t.Errorf("filter[0] = %q", filters[0])
	}
	if filters[1] != "less-or-equal(send_time,2024-04-01T00:00:00Z)" {
		t.Errorf("filter[1] = %q", filters[1])
	}

	if len(campaigns) != 1 {
		t.Fatalf("campaigns = %d, want 1", len(campaigns))
	}
	if campaigns[0].ID != "c1" || campaigns[0].Attributes.Name != "Spring Sale" {
		t.Errorf("campaign = %+v", campaigns[0])
	}
}

func TestFetchCampaignsUnboundedFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query()["filter"]; len(got) != 0 {
			t.Errorf("filter params = %v, want none", got)
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	campaigns, err := client.FetchCampaigns(context.Background(), "key", Filter{})
	if err != nil {
		t.Fatalf("FetchCampaigns() error = %v", err)
	}
	if len(campaigns) != 0 {
		t.Errorf("campaigns = %d, want 0", len(campaigns))
	}
}

func TestFetchCampaignsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"detail":"bad key"}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.FetchCampaigns(context.Background(), "bad", Filter{})
	if err == nil {
		t.Fatal("FetchCampaigns() error = nil, want APIError")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, http.StatusUnauthorized)
	}
	if apiErr.Body == "" {
		t.Error("Body is empty, want error payload")
	}
}

func TestFetchCampaignsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.FetchCampaigns(context.Background(), "key", Filter{})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for transport failure", apiErr.StatusCode)
	}
}

func TestFetchCampaignsPagination(t *testing.T) {
	var srv *httptest.Server
	pages := 0
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		switch pages {
		case 1:
			w.Write([]byte(`{"data":[{"id":"c1","type":"campaign","attributes":{"name":"A","status":"sent"}}],"links":{"next":"` + srv.URL + `/campaigns?page=2"}}`))
		case 2:
			w.Write([]byte(`{"data":[{"id":"c2","type":"campaign","attributes":{"name":"B","status":"sent"}}],"links":{"next":"` + srv.URL + `/campaigns?page=3"}}`))
		default:
			w.Write([]byte(`{"data":[{"id":"c3","type":"campaign","attributes":{"name":"C","status":"sent"}}]}`))
		}
	}))
	defer srv.Close()

	// Default keeps the original single-page behavior.
	client := NewClient(Config{BaseURL: srv.URL})
	campaigns, err := client.FetchCampaigns(context.Background(), "key", Filter{})
	if err != nil {
		t.Fatalf("FetchCampaigns() error = %v", err)
	}
	if len(campaigns) != 1 {
		t.Errorf("campaigns = %d, want 1 with default MaxPages", len(campaigns))
	}

	pages = 0
	client = NewClient(Config{BaseURL: srv.URL, MaxPages: 2})
	campaigns, err = client.FetchCampaigns(context.Background(), "key", Filter{})
	if err != nil {
		t.Fatalf("FetchCampaigns() error = %v", err)
	}
	if len(campaigns) != 2 {
		t.Errorf("campaigns = %d, want 2 with MaxPages=2", len(campaigns))
	}
	if campaigns[1].ID != "c2" {
		t.Errorf("campaigns[1].ID = %q, want c2", campaigns[1].ID)
	}
}

func TestFetchCampaignMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/campaign-messages/c1/metrics" {
			t.Errorf("path = %q, want /campaign-messages/c1/metrics", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"id":"c1","type":"campaign-message","attributes":{"recipients":100,"unique_opens":20,"unique_clicks":5}}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	record, err := client.FetchCampaignMetrics(context.Background(), "c1", "key")
	if err != nil {
		t.Fatalf("FetchCampaignMetrics() error = %v", err)
	}

	if record.Attributes.Recipients == nil || *record.Attributes.Recipients != 100 {
		t.Errorf("Recipients = %v, want 100", record.Attributes.Recipients)
	}
	if record.Attributes.UniqueOpens == nil || *record.Attributes.UniqueOpens != 20 {
		t.Errorf("UniqueOpens = %v, want 20", record.Attributes.UniqueOpens)
	}
	if record.Attributes.UniqueClicks == nil || *record.Attributes.UniqueClicks != 5 {
		t.Errorf("UniqueClicks = %v, want 5", record.Attributes.UniqueClicks)
	}
}
