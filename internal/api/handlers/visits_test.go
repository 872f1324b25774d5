package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smartip-service/internal/adapters/geoip"
	"smartip-service/internal/adapters/repositories"
	"smartip-service/internal/api/dto"
	"smartip-service/internal/domain"
)

func newVisitHandler(skipEU bool) (*VisitHandler, *repositories.MemoryVisitRepository) {
	repo := repositories.NewMemoryVisitRepository()
	provider := geoip.NewMockProvider([]domain.Location{
		{IP: "2.2.2.2", CountryCode: "FR", Country: "France", Latitude: 48.8566, Longitude: 2.3522},
		{IP: "8.8.8.8", CountryCode: "US", Country: "United States", Latitude: 37.4056, Longitude: -122.0775},
	})

	return &VisitHandler{
		Repo:           repo,
		Provider:       provider,
		SkipEUVisitors: skipEU,
	}, repo
}

func TestVisitAnnotate(t *testing.T) {
	h, repo := newVisitHandler(false)

	body := `{"ips": ["2.2.2.2", "8.8.8.8"]}`
	req := httptest.NewRequest(http.MethodPost, "/visits", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Annotate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var res dto.ListVisitsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(res.Visits) != 2 {
		t.Fatalf("expected 2 visits, got %d", len(res.Visits))
	}
	if res.Visits[0].VisitID == "" {
		t.Error("visit_id missing")
	}
	if !res.Visits[0].Location.EUMember {
		t.Error("expected FR visit to be flagged as EU member")
	}

	stored, err := repo.ListVisits(req.Context(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored visits, got %d", len(stored))
	}
}

func TestVisitAnnotateEUOptOut(t *testing.T) {
	h, repo := newVisitHandler(true)

	body := `{"ips": ["2.2.2.2", "8.8.8.8"]}`
	req := httptest.NewRequest(http.MethodPost, "/visits", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Annotate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	stored, err := repo.ListVisits(req.Context(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected only the non-EU visit stored, got %d", len(stored))
	}
	if stored[0].Location.CountryCode != "US" {
		t.Errorf("stored visit = %q, want US", stored[0].Location.CountryCode)
	}
}

func TestVisitAnnotateDefaultsToClientIP(t *testing.T) {
	h, _ := newVisitHandler(false)

	req := httptest.NewRequest(http.MethodPost, "/visits", strings.NewReader(`{}`))
	req.RemoteAddr = "8.8.8.8:40000"
	rec := httptest.NewRecorder()

	h.Annotate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var res dto.ListVisitsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Visits) != 1 || res.Visits[0].Location.IP != "8.8.8.8" {
		t.Fatalf("expected caller ip annotation, got %+v", res.Visits)
	}
}

func TestVisitAnnotateDebugIP(t *testing.T) {
	h, _ := newVisitHandler(false)

	body := `{"debug_ip": "2.2.2.2"}`
	req := httptest.NewRequest(http.MethodPost, "/visits", strings.NewReader(body))
	req.RemoteAddr = "8.8.8.8:40000"
	rec := httptest.NewRecorder()

	h.Annotate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var res dto.ListVisitsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Visits) != 1 {
		t.Fatalf("expected 1 visit, got %d", len(res.Visits))
	}
	if res.Visits[0].Location.IP != "2.2.2.2" || !res.Visits[0].Spoofed {
		t.Fatalf("expected spoofed debug visit, got %+v", res.Visits[0])
	}
}

func TestVisitAnnotateRejectsBadBody(t *testing.T) {
	h, _ := newVisitHandler(false)

	cases := []string{
		`{"ips": ["10.0.0.1"]}`,  // non-routable
		`{"unknown_field": true}`, // unknown field
		`{"ips": []}{"ips": []}`,  // trailing garbage
		`not json`,                // invalid body
	}

	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/visits", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.Annotate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestVisitList(t *testing.T) {
	h, _ := newVisitHandler(false)

	seed := httptest.NewRequest(http.MethodPost, "/visits", strings.NewReader(`{"ips": ["8.8.8.8"]}`))
	h.Annotate(httptest.NewRecorder(), seed)

	req := httptest.NewRequest(http.MethodGet, "/visits?limit=10", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var res dto.ListVisitsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Visits) != 1 {
		t.Fatalf("expected 1 visit, got %d", len(res.Visits))
	}

	bad := httptest.NewRequest(http.MethodGet, "/visits?limit=0", nil)
	rec = httptest.NewRecorder()
	h.List(rec, bad)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for limit=0", rec.Code)
	}
}
