package domain

// LeagueID identifies a league in "COUNTRY-Name" form, e.g. "ENG-Premier League".
type LeagueID string

const (
	LeaguePremierLeague LeagueID = "ENG-Premier League"
	LeagueLaLiga        LeagueID = "ESP-La Liga"
	LeagueSerieA        LeagueID = "ITA-Serie A"
	LeagueBundesliga    LeagueID = "GER-Bundesliga"
	LeagueLigue1        LeagueID = "FRA-Ligue 1"
	LeagueBig5          LeagueID = "Big 5 European Leagues Combined"
)

// RawFixture is a schedule row as it came off the upstream export,
// before any validation or normalization.
type RawFixture struct {
	League      string `json:"league"`
	Season      string `json:"season"`
	Date        string `json:"date"`
	DayOfWeek   string `json:"day_of_week"`
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`
	HomeScore   string `json:"home_score"`
	AwayScore   string `json:"away_score"`
	MatchReport string `json:"match_report"`
	Line        int    `json:"line"`
}

// Fixture is a validated schedule row. Scores are nil for fixtures
// that have not been played yet.
type Fixture struct {
	League      LeagueID `json:"league"`
	Season      string   `json:"season"`
	Date        string   `json:"date"` // YYYY-MM-DD
	DayOfWeek   string   `json:"day_of_week"`
	HomeTeam    string   `json:"home_team"`
	AwayTeam    string   `json:"away_team"`
	HomeScore   *int     `json:"home_score"`
	AwayScore   *int     `json:"away_score"`
	MatchReport string   `json:"match_report,omitempty"`
}

// Played reports whether the fixture has a final score.
func (f *Fixture) Played() bool {
	return f.HomeScore != nil && f.AwayScore != nil
}
