// Package validate checks scraped fixture rows against the expected
// schema before they are persisted or served.
package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/longnd/fixturewatch/internal/core/domain"
	"github.com/longnd/fixturewatch/internal/reliability"
)

var (
	datePattern        = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	matchReportPattern = regexp.MustCompile(`^/en/matches/[a-f0-9]{8}/`)

	validLeagues = map[domain.LeagueID]struct{}{
		domain.LeaguePremierLeague: {},
		domain.LeagueLaLiga:        {},
		domain.LeagueSerieA:        {},
		domain.LeagueBundesliga:    {},
		domain.LeagueLigue1:        {},
		domain.LeagueBig5:          {},
	}
)

const maxScore = 99

// Fixture validates and normalizes one raw schedule row. Shape/range
// breaches come back as validation faults; a score that cannot even be
// decoded as a number is a parsing fault.
func Fixture(raw domain.RawFixture) (*domain.Fixture, error) {
	league := domain.LeagueID(strings.TrimSpace(raw.League))
	if _, ok := validLeagues[league]; !ok {
		return nil, reliability.NewValidationFault(nil, "unknown league %q (line %d)", raw.League, raw.Line)
	}

	season := strings.TrimSpace(raw.Season)
	if season == "" {
		return nil, reliability.NewValidationFault(nil, "missing required field season (line %d)", raw.Line)
	}

	date := strings.TrimSpace(raw.Date)
	if !datePattern.MatchString(date) {
		return nil, reliability.NewValidationFault(nil, "invalid field date %q, want YYYY-MM-DD (line %d)", raw.Date, raw.Line)
	}

	home := strings.TrimSpace(raw.HomeTeam)
	away := strings.TrimSpace(raw.AwayTeam)
	if home == "" || away == "" {
		return nil, reliability.NewValidationFault(nil, "missing required team name (line %d)", raw.Line)
	}
	if home == away {
		return nil, reliability.NewValidationFault(nil, "home and away team are both %q (line %d)", home, raw.Line)
	}

	homeScore, err := parseScore(raw.HomeScore, raw.Line)
	if err != nil {
		return nil, err
	}
	awayScore, err := parseScore(raw.AwayScore, raw.Line)
	if err != nil {
		return nil, err
	}
	// A half-recorded result is worse than none.
	if (homeScore == nil) != (awayScore == nil) {
		return nil, reliability.NewValidationFault(nil, "score out of range: only one side recorded (line %d)", raw.Line)
	}

	report := strings.TrimSpace(raw.MatchReport)
	if report != "" && !matchReportPattern.MatchString(report) {
		return nil, reliability.NewValidationFault(nil, "invalid field match_report %q (line %d)", raw.MatchReport, raw.Line)
	}

	return &domain.Fixture{
		League:      league,
		Season:      season,
		Date:        date,
		DayOfWeek:   strings.TrimSpace(raw.DayOfWeek),
		HomeTeam:    home,
		AwayTeam:    away,
		HomeScore:   homeScore,
		AwayScore:   awayScore,
		MatchReport: report,
	}, nil
}

// parseScore decodes an optional score cell. Empty means "not played
// yet". Upstream exports whole scores as floats ("2.0"), so both forms
// are accepted.
func parseScore(cell string, line int) (*int, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, reliability.NewParsingFault(err, "failed to parse score %q (line %d)", cell, line)
	}

	score := int(f)
	if float64(score) != f {
		return nil, reliability.NewParsingFault(nil, "failed to parse score %q: not a whole number (line %d)", cell, line)
	}
	if score < 0 || score > maxScore {
		return nil, reliability.NewValidationFault(nil, "score out of range: %d (line %d)", score, line)
	}
	return &score, nil
}

// QualityScore is the percentage of rows that validated cleanly, 0-100.
func QualityScore(valid, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(valid) / float64(total) * 100
}
