package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/longnd/fixturewatch/internal/core/domain"
	"github.com/longnd/fixturewatch/internal/reliability"
)

const scheduleCSV = `league,season,date,day_of_week,home_team,away_team,home_score,away_score,match_report
ENG-Premier League,2425,2024-08-17,Sat,Arsenal,Wolves,2.0,0.0,/en/matches/0123abcd/Arsenal-Wolves
ENG-Premier League,2425,2024-08-18,Sun,Chelsea,Man City,,,
`

func newTestSource(t *testing.T, handler http.HandlerFunc) (*FBrefSource, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	src := NewFBrefSource("fbref", srv.URL, "fixturewatch-test", 5*time.Second)
	return src, srv.Close
}

// =============================================================================
// ReadSchedule
// =============================================================================

func TestReadScheduleDecodesRows(t *testing.T) {
	src, done := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("league"); got != "ENG-Premier League" {
			t.Errorf("league query = %q", got)
		}
		if got := r.URL.Query().Get("season"); got != "2425" {
			t.Errorf("season query = %q", got)
		}
		w.Write([]byte(scheduleCSV))
	})
	defer done()

	rows, err := src.ReadSchedule(context.Background(), domain.LeaguePremierLeague, "2425")
	if err != nil {
		t.Fatalf("ReadSchedule() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}

	first := rows[0]
	if first.HomeTeam != "Arsenal" || first.AwayTeam != "Wolves" {
		t.Errorf("first row teams = %q vs %q", first.HomeTeam, first.AwayTeam)
	}
	if first.HomeScore != "2.0" {
		t.Errorf("first row home score = %q", first.HomeScore)
	}
	if first.Line != 2 {
		t.Errorf("first row line = %d, want 2", first.Line)
	}
	if rows[1].HomeScore != "" {
		t.Errorf("unplayed row home score = %q, want empty", rows[1].HomeScore)
	}
}

func TestReadScheduleFillsLeagueAndSeason(t *testing.T) {
	csvBody := "date,home_team,away_team\n2024-08-17,Arsenal,Wolves\n"
	src, done := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(csvBody))
	})
	defer done()

	rows, err := src.ReadSchedule(context.Background(), domain.LeaguePremierLeague, "2425")
	if err != nil {
		t.Fatalf("ReadSchedule() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].League != string(domain.LeaguePremierLeague) {
		t.Errorf("league = %q, want filled from request", rows[0].League)
	}
	if rows[0].Season != "2425" {
		t.Errorf("season = %q, want filled from request", rows[0].Season)
	}
}

func TestReadScheduleRateLimited(t *testing.T) {
	src, done := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	defer done()

	_, err := src.ReadSchedule(context.Background(), domain.LeaguePremierLeague, "2425")
	if err == nil {
		t.Fatal("ReadSchedule() error = nil, want rate limit fault")
	}
	if kind := reliability.KindOf(err); kind != reliability.KindRateLimit {
		t.Errorf("KindOf(err) = %v, want %v", kind, reliability.KindRateLimit)
	}
}

func TestReadScheduleServerError(t *testing.T) {
	src, done := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer done()

	_, err := src.ReadSchedule(context.Background(), domain.LeaguePremierLeague, "2425")
	if err == nil {
		t.Fatal("ReadSchedule() error = nil, want server fault")
	}
	if kind := reliability.KindOf(err); kind != reliability.KindServerError {
		t.Errorf("KindOf(err) = %v, want %v", kind, reliability.KindServerError)
	}
}

func TestReadScheduleMissingColumn(t *testing.T) {
	src, done := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("date,home_team\n2024-08-17,Arsenal\n"))
	})
	defer done()

	_, err := src.ReadSchedule(context.Background(), domain.LeaguePremierLeague, "2425")
	if err == nil {
		t.Fatal("ReadSchedule() error = nil, want parsing fault")
	}
	if kind := reliability.KindOf(err); kind != reliability.KindParsing {
		t.Errorf("KindOf(err) = %v, want %v", kind, reliability.KindParsing)
	}
}

func TestReadScheduleNetworkFailure(t *testing.T) {
	src, done := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {})
	done() // server already closed, connection refused

	_, err := src.ReadSchedule(context.Background(), domain.LeaguePremierLeague, "2425")
	if err == nil {
		t.Fatal("ReadSchedule() error = nil, want network fault")
	}
	if kind := reliability.KindOf(err); kind != reliability.KindNetwork {
		t.Errorf("KindOf(err) = %v, want %v", kind, reliability.KindNetwork)
	}
}
