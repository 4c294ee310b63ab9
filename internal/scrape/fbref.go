package scrape

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/longnd/fixturewatch/internal/core/domain"
	"github.com/longnd/fixturewatch/internal/reliability"
)

// FBrefSource fetches league schedules from the fbref CSV export
// endpoint. Failures are raised as typed reliability faults so the
// retry engine picks the right policy without message sniffing.
type FBrefSource struct {
	name       string
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewFBrefSource creates a schedule source against the given base URL.
func NewFBrefSource(name, baseURL, userAgent string, timeout time.Duration) *FBrefSource {
	return &FBrefSource{
		name:      name,
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (s *FBrefSource) Name() string { return s.name }

// ReadSchedule fetches and decodes the schedule CSV for a league/season.
func (s *FBrefSource) ReadSchedule(
	ctx context.Context,
	league domain.LeagueID,
	season string,
) ([]domain.RawFixture, error) {
	endpoint := fmt.Sprintf("%s/schedule.csv?league=%s&season=%s",
		s.baseURL, url.QueryEscape(string(league)), url.QueryEscape(season))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, reliability.NewNetworkFault(err, "fetch schedule for %s %s", league, season)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		return nil, reliability.NewRateLimitFault(nil, "upstream returned %d for %s %s", resp.StatusCode, league, season)
	case resp.StatusCode >= 500:
		return nil, reliability.NewServerFault(nil, "upstream returned %d for %s %s", resp.StatusCode, league, season)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("upstream returned %d for %s %s", resp.StatusCode, league, season)
	}

	rows, err := decodeScheduleCSV(resp.Body, league, season)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Schedule export column order. The upstream has kept this stable, but
// we map by header name anyway since columns have been reordered before.
var requiredColumns = []string{"date", "home_team", "away_team"}

func decodeScheduleCSV(body io.Reader, league domain.LeagueID, season string) ([]domain.RawFixture, error) {
	r := csv.NewReader(body)
	r.FieldsPerRecord = -1 // validated per row below

	header, err := r.Read()
	if err != nil {
		return nil, reliability.NewParsingFault(err, "decode schedule header for %s %s", league, season)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, reliability.NewParsingFault(nil, "schedule for %s %s is malformed: missing column %q", league, season, name)
		}
	}

	cell := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []domain.RawFixture
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, reliability.NewParsingFault(err, "decode schedule row %d for %s %s", line, league, season)
		}

		raw := domain.RawFixture{
			League:      cell(rec, "league"),
			Season:      cell(rec, "season"),
			Date:        cell(rec, "date"),
			DayOfWeek:   cell(rec, "day_of_week"),
			HomeTeam:    cell(rec, "home_team"),
			AwayTeam:    cell(rec, "away_team"),
			HomeScore:   cell(rec, "home_score"),
			AwayScore:   cell(rec, "away_score"),
			MatchReport: cell(rec, "match_report"),
			Line:        line,
		}
		// Combined exports carry league/season columns; single-league
		// ones often omit them.
		if raw.League == "" {
			raw.League = string(league)
		}
		if raw.Season == "" {
			raw.Season = season
		}
		rows = append(rows, raw)
	}

	return rows, nil
}
