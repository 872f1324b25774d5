package services

import (
	"context"
	"testing"

	"smartip-service/internal/adapters/geoip"
	"smartip-service/internal/adapters/repositories"
	"smartip-service/internal/domain"
)

func testProvider() *geoip.MockProvider {
	return geoip.NewMockProvider([]domain.Location{
		{
			IP:          "2.2.2.2",
			CountryCode: "FR",
			Country:     "France",
			City:        "Paris",
			Latitude:    48.8566,
			Longitude:   2.3522,
			TimeZone:    "Europe/Paris",
		},
		{
			IP:          "88.88.88.88",
			CountryCode: "GL",
			Country:     "Greenland",
			City:        "Nuuk",
			Latitude:    64.1835,
			Longitude:   -51.7216,
			TimeZone:    "America/Nuuk",
		},
		{
			IP:          "8.8.8.8",
			CountryCode: "US",
			Country:     "United States",
			City:        "Mountain View",
			Latitude:    37.4056,
			Longitude:   -122.0775,
			TimeZone:    "America/Los_Angeles",
		},
	})
}

func TestAnnotateVisits(t *testing.T) {
	repo := repositories.NewMemoryVisitRepository()
	provider := testProvider()

	req := AnnotateRequest{IPs: []string{"2.2.2.2", "8.8.8.8", "2.2.2.2"}}

	visits, err := AnnotateVisits(context.Background(), req, repo, provider, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// duplicate input collapses to one visit
	if len(visits) != 2 {
		t.Fatalf("expected 2 visits, got %d", len(visits))
	}

	fr := visits[0]
	if fr.Location.IP != "2.2.2.2" {
		t.Fatalf("expected first visit for 2.2.2.2, got %q", fr.Location.IP)
	}
	if !fr.EUMember || fr.GDPRTerritory {
		t.Errorf("FR flags = eu:%v gdpr:%v, want eu only", fr.EUMember, fr.GDPRTerritory)
	}
	if fr.Jurisdiction != "France" {
		t.Errorf("FR jurisdiction = %q, want France", fr.Jurisdiction)
	}
	if fr.LatitudeDMS != `48° 51' 23.76" N` {
		t.Errorf("FR latitude DMS = %q", fr.LatitudeDMS)
	}
	if fr.ID == "" {
		t.Error("visit ID not generated")
	}

	us := visits[1]
	if us.EUMember || us.GDPRTerritory || us.Jurisdiction != "" {
		t.Errorf("US should classify into no jurisdiction, got %+v", us)
	}
	if us.LongitudeDMS != `122° 4' 39" W` {
		t.Errorf("US longitude DMS = %q", us.LongitudeDMS)
	}

	stored, err := repo.ListVisits(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored visits, got %d", len(stored))
	}
}

func TestAnnotateVisitsEUOptOut(t *testing.T) {
	repo := repositories.NewMemoryVisitRepository()
	provider := testProvider()

	req := AnnotateRequest{
		IPs:            []string{"2.2.2.2", "88.88.88.88", "8.8.8.8"},
		SkipEUVisitors: true,
	}

	visits, err := AnnotateVisits(context.Background(), req, repo, provider, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// all three annotated and returned
	if len(visits) != 3 {
		t.Fatalf("expected 3 visits, got %d", len(visits))
	}

	gl := visits[1]
	if gl.EUMember || !gl.GDPRTerritory {
		t.Errorf("GL flags = eu:%v gdpr:%v, want gdpr territory only", gl.EUMember, gl.GDPRTerritory)
	}
	if gl.Jurisdiction != "Greenland" {
		t.Errorf("GL jurisdiction = %q, want Greenland", gl.Jurisdiction)
	}

	// only the US visit survives persistence
	stored, err := repo.ListVisits(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored visit, got %d", len(stored))
	}
	if stored[0].Location.CountryCode != "US" {
		t.Errorf("stored visit = %q, want US", stored[0].Location.CountryCode)
	}
}

func TestAnnotateVisitsEUMemberOnlyOptOut(t *testing.T) {
	repo := repositories.NewMemoryVisitRepository()
	provider := testProvider()

	// strict EU matching: Greenland falls outside the opt-out and is stored
	req := AnnotateRequest{
		IPs:            []string{"88.88.88.88"},
		EUMemberOnly:   true,
		SkipEUVisitors: true,
	}

	if _, err := AnnotateVisits(context.Background(), req, repo, provider, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := repo.ListVisits(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored visit, got %d", len(stored))
	}
}

func TestAnnotateVisitsDebugIP(t *testing.T) {
	repo := repositories.NewMemoryVisitRepository()
	provider := testProvider()

	req := AnnotateRequest{
		IPs:     []string{"8.8.8.8"},
		DebugIP: "2.2.2.2",
	}

	visits, err := AnnotateVisits(context.Background(), req, repo, provider, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(visits) != 1 {
		t.Fatalf("expected 1 visit, got %d", len(visits))
	}
	if visits[0].Location.IP != "2.2.2.2" {
		t.Errorf("debug ip not used: got %q", visits[0].Location.IP)
	}
	if !visits[0].Spoofed {
		t.Error("visit not flagged as spoofed")
	}
}

func TestAnnotateVisitsRejectsNonRoutable(t *testing.T) {
	repo := repositories.NewMemoryVisitRepository()
	provider := testProvider()

	for _, ip := range []string{"127.0.0.1", "10.0.0.1", "not-an-ip"} {
		req := AnnotateRequest{IPs: []string{ip}}
		if _, err := AnnotateVisits(context.Background(), req, repo, provider, nil); err == nil {
			t.Errorf("expected error for %q", ip)
		}
	}
}

func TestAnnotateLocation(t *testing.T) {
	loc := domain.Location{
		IP:          "1.2.3.4",
		CountryCode: "NO",
		Country:     "Norway",
		Latitude:    59.9139,
		Longitude:   10.7522,
	}

	visit, err := AnnotateLocation(loc, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if visit.EUMember {
		t.Error("Norway is not an EU member")
	}
	if !visit.GDPRTerritory {
		t.Error("Norway is a GDPR territory")
	}
	if visit.Jurisdiction != "Norway" {
		t.Errorf("jurisdiction = %q, want Norway", visit.Jurisdiction)
	}
}
