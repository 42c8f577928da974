package domain

import (
	"fmt"
	"time"
)

// GameStatus is the lifecycle of a game as reported by the stats provider.
type GameStatus string

const (
	GameNotStarted GameStatus = "NOT_STARTED"
	GameLive       GameStatus = "LIVE"
	GameFinished   GameStatus = "FINISHED"
)

// Valid reports whether s is a known status.
func (s GameStatus) Valid() bool {
	return s == GameNotStarted || s == GameLive || s == GameFinished
}

// Text returns the display text of the status.
func (s GameStatus) Text() string {
	switch s {
	case GameNotStarted:
		return "Not Started"
	case GameLive:
		return "Live"
	case GameFinished:
		return "Finished"
	}
	return "Unknown"
}

// Game is one scheduled or played game on a date.
type Game struct {
	ID        string
	Date      time.Time
	Status    GameStatus
	Period    int
	Clock     time.Duration // remaining in the current period
	HomeTeam  string
	AwayTeam  string
	HomeScore int
	AwayScore int
}

// Matchup returns "AWAY @ HOME".
func (g Game) Matchup() string {
	return fmt.Sprintf("%s @ %s", g.AwayTeam, g.HomeTeam)
}

// Score returns "away - home".
func (g Game) Score() string {
	return fmt.Sprintf("%d - %d", g.AwayScore, g.HomeScore)
}

// PeriodText formats the period the way the dashboard shows it: Q1..Q4, OT, 2OT...
func PeriodText(period int) string {
	switch {
	case period <= 0:
		return "-"
	case period <= 4:
		return fmt.Sprintf("Q%d", period)
	case period == 5:
		return "OT"
	default:
		return fmt.Sprintf("%dOT", period-4)
	}
}

// PlayerLine is a player's accumulated box score line in one game.
type PlayerLine struct {
	PlayerID int
	Name     string
	Team     string
	Points   float64
	Rebounds float64
	Assists  float64
	PRA      *float64 // nil when the provider returned no statistics
	Minutes  *float64
}

// Observation returns the settlement observation carried by the line.
func (p PlayerLine) Observation() Observation {
	return Observation{PRA: p.PRA, Minutes: p.Minutes}
}

// GameSnapshot is the transient state of a game for one poll/sync cycle.
type GameSnapshot struct {
	Game    Game
	Players map[int]PlayerLine
}

// Player returns the line of a player, if present.
func (s GameSnapshot) Player(playerID int) (PlayerLine, bool) {
	p, ok := s.Players[playerID]
	return p, ok
}

// LiveInput builds the classifier input for a player, or a not-started
// input when the player has no line yet.
func (s GameSnapshot) LiveInput(playerID int) LiveInput {
	in := LiveInput{
		Status: s.Game.Status,
		Period: s.Game.Period,
		Clock:  s.Game.Clock,
	}
	if p, ok := s.Players[playerID]; ok {
		in.CurrentPRA = p.PRA
		if p.Minutes != nil {
			in.MinutesPlayed = *p.Minutes
		}
	}
	return in
}
