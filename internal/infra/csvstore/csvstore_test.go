package csvstore

import (
	"testing"

	"github.com/longnd/fixturewatch/internal/core/domain"
)

func intPtr(n int) *int { return &n }

func TestStore_WriteAndRead(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	fixtures := []*domain.Fixture{
		{
			League: domain.LeaguePremierLeague, Season: "2025-2026",
			Date: "2025-08-16", DayOfWeek: "Sat",
			HomeTeam: "Arsenal", AwayTeam: "Chelsea",
			HomeScore: intPtr(2), AwayScore: intPtr(1),
			MatchReport: "/en/matches/01234abc/Arsenal-Chelsea",
		},
		{
			League: domain.LeaguePremierLeague, Season: "2025-2026",
			Date: "2026-05-02", DayOfWeek: "Sat",
			HomeTeam: "Everton", AwayTeam: "Liverpool",
		},
	}

	path, err := store.Write(domain.LeaguePremierLeague, "2025-2026", fixtures)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if path == "" {
		t.Fatal("expected snapshot path")
	}

	got, err := store.Read(domain.LeaguePremierLeague, "2025-2026")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 fixtures, got %d", len(got))
	}

	if got[0].HomeTeam != "Arsenal" || got[0].HomeScore == nil || *got[0].HomeScore != 2 {
		t.Errorf("first fixture mismatch: %+v", got[0])
	}
	if got[1].Played() {
		t.Error("future fixture should have nil scores")
	}
}

func TestStore_WriteReplacesPrevious(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	first := []*domain.Fixture{{
		League: domain.LeagueLaLiga, Season: "2025-2026",
		Date: "2025-09-01", HomeTeam: "Sevilla", AwayTeam: "Betis",
	}}
	if _, err := store.Write(domain.LeagueLaLiga, "2025-2026", first); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	second := append(first, &domain.Fixture{
		League: domain.LeagueLaLiga, Season: "2025-2026",
		Date: "2025-09-08", HomeTeam: "Girona", AwayTeam: "Valencia",
	})
	if _, err := store.Write(domain.LeagueLaLiga, "2025-2026", second); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	got, err := store.Read(domain.LeagueLaLiga, "2025-2026")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected replaced snapshot with 2 rows, got %d", len(got))
	}
}

func TestStore_ReadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if _, err := store.Read(domain.LeagueSerieA, "2025-2026"); err == nil {
		t.Error("expected error for missing snapshot")
	}
}
