package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the civil date format used for game dates everywhere (storage, provider, logs).
const DateLayout = "2006-01-02"

// Direction is the side of the prop: OVER or UNDER the betting line.
type Direction string

const (
	DirectionOver  Direction = "OVER"
	DirectionUnder Direction = "UNDER"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == DirectionOver || d == DirectionUnder
}

// Result is the settlement state of a bet.
type Result string

const (
	ResultPending Result = "PENDING"
	ResultWon     Result = "WON"
	ResultLost    Result = "LOST"
	ResultVoided  Result = "VOIDED"
)

// Valid reports whether r is a known result.
func (r Result) Valid() bool {
	switch r {
	case ResultPending, ResultWon, ResultLost, ResultVoided:
		return true
	}
	return false
}

// Terminal reports whether the result can no longer change.
func (r Result) Terminal() bool {
	return r == ResultWon || r == ResultLost || r == ResultVoided
}

// ParseResult converts a stored string into a Result.
func ParseResult(s string) (Result, error) {
	r := Result(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown result %q", ErrInputContract, s)
	}
	return r, nil
}

// BetKey is the natural identity of a bet: one prop per player per game date.
type BetKey struct {
	PlayerID int
	GameDate time.Time
}

func (k BetKey) String() string {
	return fmt.Sprintf("%d@%s", k.PlayerID, k.GameDate.Format(DateLayout))
}

// BetTerms is the subset of a bet that settlement and live tracking need.
type BetTerms struct {
	Direction   Direction
	BettingLine float64
}

// Validate rejects terms that no classifier can interpret.
func (t BetTerms) Validate() error {
	if !t.Direction.Valid() {
		return fmt.Errorf("%w: direction %q", ErrInputContract, t.Direction)
	}
	if math.IsNaN(t.BettingLine) || math.IsInf(t.BettingLine, 0) {
		return fmt.Errorf("%w: betting line %v", ErrInputContract, t.BettingLine)
	}
	return nil
}

// Bet is one wagered PRA proposition.
type Bet struct {
	PlayerID      int
	PlayerName    string
	GameDate      time.Time // civil date, midnight UTC
	BettingLine   float64
	Direction     Direction
	Tier          string  // e.g. GOLDEN, HIGH_VOLATILITY; drives Units only
	Units         float64 // stake
	Prediction    *float64
	ActualPRA     *float64
	ActualMinutes *float64
	Result        Result
	CreatedAt     time.Time
}

// Key returns the bet identity.
func (b Bet) Key() BetKey {
	return BetKey{PlayerID: b.PlayerID, GameDate: b.GameDate}
}

// Terms returns the settlement terms of the bet.
func (b Bet) Terms() BetTerms {
	return BetTerms{Direction: b.Direction, BettingLine: b.BettingLine}
}

// Observation returns what has been observed for the bet so far.
func (b Bet) Observation() Observation {
	return Observation{PRA: b.ActualPRA, Minutes: b.ActualMinutes}
}

// Validate checks the bet contract. Violations wrap ErrInputContract.
func (b Bet) Validate() error {
	if b.PlayerID <= 0 {
		return fmt.Errorf("%w: player id %d", ErrInputContract, b.PlayerID)
	}
	if b.GameDate.IsZero() {
		return fmt.Errorf("%w: bet %d has no game date", ErrInputContract, b.PlayerID)
	}
	if err := b.Terms().Validate(); err != nil {
		return fmt.Errorf("bet %s: %w", b.Key(), err)
	}
	if !(b.Units > 0) || math.IsInf(b.Units, 0) {
		return fmt.Errorf("%w: bet %s units %v", ErrInputContract, b.Key(), b.Units)
	}
	if !b.Result.Valid() {
		return fmt.Errorf("%w: bet %s result %q", ErrInputContract, b.Key(), b.Result)
	}
	if (b.Result == ResultPending) != (b.ActualPRA == nil) {
		return fmt.Errorf("%w: bet %s result %s inconsistent with actual_pra", ErrInputContract, b.Key(), b.Result)
	}
	return nil
}

// CivilDate truncates t to UTC midnight, keeping the year, month and day of its own zone.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD game date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: game date %q", ErrInputContract, s)
	}
	return t, nil
}

// Float returns a pointer to v. Handy for optional stats.
func Float(v float64) *float64 {
	return &v
}
