package domain

import (
	"fmt"
	"math"
	"time"
)

// LiveStatus is the closed taxonomy of in-game bet states.
type LiveStatus string

const (
	LiveNotStarted LiveStatus = "not_started"
	LiveHit        LiveStatus = "hit"
	LiveMiss       LiveStatus = "miss"
	LiveOnTrack    LiveStatus = "on_track"
	LiveNeedsMore  LiveStatus = "needs_more"
	LiveUnlikely   LiveStatus = "unlikely"
	LiveDanger     LiveStatus = "danger"
	LiveSafe       LiveStatus = "safe"
	LiveClose      LiveStatus = "close"
	LiveBusted     LiveStatus = "busted"
)

// AllLiveStatuses lists every status, in display order.
var AllLiveStatuses = []LiveStatus{
	LiveNotStarted, LiveHit, LiveMiss, LiveOnTrack, LiveNeedsMore,
	LiveUnlikely, LiveDanger, LiveSafe, LiveClose, LiveBusted,
}

// Label returns the upper-case display text.
func (s LiveStatus) Label() string {
	switch s {
	case LiveNotStarted:
		return "NOT STARTED"
	case LiveHit:
		return "HIT"
	case LiveMiss:
		return "MISS"
	case LiveOnTrack:
		return "ON TRACK"
	case LiveNeedsMore:
		return "NEEDS MORE"
	case LiveUnlikely:
		return "UNLIKELY"
	case LiveDanger:
		return "DANGER"
	case LiveSafe:
		return "SAFE"
	case LiveClose:
		return "CLOSE"
	case LiveBusted:
		return "BUSTED"
	}
	panic(fmt.Sprintf("domain: unknown live status %q", string(s)))
}

// Color returns the traffic-light colour associated with the status.
func (s LiveStatus) Color() string {
	switch s {
	case LiveNotStarted:
		return "gray"
	case LiveHit, LiveOnTrack, LiveSafe:
		return "green"
	case LiveNeedsMore, LiveClose:
		return "yellow"
	case LiveMiss, LiveUnlikely, LiveDanger, LiveBusted:
		return "red"
	}
	panic(fmt.Sprintf("domain: unknown live status %q", string(s)))
}

// LiveThresholds are the policy boundaries of the live classifier.
// They encode risk tolerance, not statistics.
type LiveThresholds struct {
	OnTrackRatio         float64 // OVER: projected above line×ratio is on track
	NeedsMoreRatio       float64 // OVER: projected above line×ratio needs more
	SafeRatio            float64 // UNDER: projected below line×ratio is safe
	LateGameMinutes      float64 // game minutes left at or below which a short OVER is danger
	MinutesCeiling       float64 // realistic max minutes for one player
	PeriodMinutes        float64 // regulation period length
	OvertimeMinutes      float64 // overtime period length
	RegulationPeriods    int     // periods before overtime
	MinRateMinutes       float64 // floor for the per-minute rate denominator
	DefaultParticipation float64 // share of game minutes assumed before anything elapsed
}

// DefaultLiveThresholds returns the dashboard defaults.
func DefaultLiveThresholds() LiveThresholds {
	return LiveThresholds{
		OnTrackRatio:         1.05,
		NeedsMoreRatio:       0.85,
		SafeRatio:            0.95,
		LateGameMinutes:      6,
		MinutesCeiling:       40,
		PeriodMinutes:        12,
		OvertimeMinutes:      5,
		RegulationPeriods:    4,
		MinRateMinutes:       1,
		DefaultParticipation: 0.7,
	}
}

// Validate rejects inconsistent thresholds.
func (t LiveThresholds) Validate() error {
	switch {
	case !(t.NeedsMoreRatio > 0) || !(t.OnTrackRatio > t.NeedsMoreRatio):
		return fmt.Errorf("%w: need 0 < needs_more_ratio < on_track_ratio", ErrInputContract)
	case !(t.SafeRatio > 0) || t.SafeRatio > 1:
		return fmt.Errorf("%w: safe_ratio must be in (0,1]", ErrInputContract)
	case t.LateGameMinutes < 0:
		return fmt.Errorf("%w: late_game_minutes must be >= 0", ErrInputContract)
	case !(t.MinutesCeiling > 0):
		return fmt.Errorf("%w: minutes_ceiling must be > 0", ErrInputContract)
	case !(t.PeriodMinutes > 0) || !(t.OvertimeMinutes > 0) || t.RegulationPeriods <= 0:
		return fmt.Errorf("%w: period lengths must be > 0", ErrInputContract)
	case !(t.MinRateMinutes > 0):
		return fmt.Errorf("%w: min_rate_minutes must be > 0", ErrInputContract)
	case !(t.DefaultParticipation > 0) || t.DefaultParticipation > 1:
		return fmt.Errorf("%w: default_participation must be in (0,1]", ErrInputContract)
	}
	return nil
}

// LiveInput is the in-game snapshot of one player for one bet.
type LiveInput struct {
	CurrentPRA    *float64
	MinutesPlayed float64
	Status        GameStatus
	Period        int
	Clock         time.Duration // remaining in the current period
}

// LiveResult is the classifier output.
type LiveResult struct {
	Status               LiveStatus
	Projected            *float64 // nil when not started
	Distance             float64 // signed margin toward success: >0 means on the winning side
	GameMinutesRemaining float64
}

// ClassifyLive classifies an in-progress (or finished) bet and projects its
// final PRA from the current per-minute pace. It is pure and safe for
// concurrent use.
func ClassifyLive(terms BetTerms, in LiveInput, th LiveThresholds) (LiveResult, error) {
	if err := terms.Validate(); err != nil {
		return LiveResult{}, fmt.Errorf("domain.ClassifyLive: %w", err)
	}
	if err := th.Validate(); err != nil {
		return LiveResult{}, fmt.Errorf("domain.ClassifyLive: %w", err)
	}
	if err := in.validate(); err != nil {
		return LiveResult{}, fmt.Errorf("domain.ClassifyLive: %w", err)
	}

	if in.Status == GameNotStarted || in.CurrentPRA == nil {
		return LiveResult{Status: LiveNotStarted}, nil
	}

	line := terms.BettingLine
	pra := *in.CurrentPRA
	res := LiveResult{Distance: margin(terms, pra)}

	if in.Status == GameFinished {
		res.Projected = Float(pra)
		if wins(terms, pra) {
			res.Status = LiveHit
		} else {
			res.Status = LiveMiss
		}
		return res, nil
	}

	remaining, elapsed := th.gameClock(in.Period, in.Clock)
	res.GameMinutesRemaining = remaining
	projected := th.project(pra, in.MinutesPlayed, remaining, elapsed)
	res.Projected = Float(projected)

	if terms.Direction == DirectionOver {
		switch {
		case pra > line:
			// PRA only grows within a game: a hit never reverts.
			res.Status = LiveHit
		case projected > line*th.OnTrackRatio:
			res.Status = LiveOnTrack
		case projected > line*th.NeedsMoreRatio:
			res.Status = LiveNeedsMore
		case remaining <= th.LateGameMinutes:
			res.Status = LiveDanger
		default:
			res.Status = LiveUnlikely
		}
		return res, nil
	}

	switch {
	case pra >= line:
		res.Status = LiveBusted
	case projected < line*th.SafeRatio:
		res.Status = LiveSafe
	case projected < line:
		res.Status = LiveClose
	default:
		res.Status = LiveDanger
	}
	return res, nil
}

func (in LiveInput) validate() error {
	if !in.Status.Valid() {
		return fmt.Errorf("%w: game status %q", ErrInputContract, in.Status)
	}
	if math.IsNaN(in.MinutesPlayed) || math.IsInf(in.MinutesPlayed, 0) || in.MinutesPlayed < 0 {
		return fmt.Errorf("%w: minutes played %v", ErrInputContract, in.MinutesPlayed)
	}
	if in.CurrentPRA != nil && (math.IsNaN(*in.CurrentPRA) || math.IsInf(*in.CurrentPRA, 0) || *in.CurrentPRA < 0) {
		return fmt.Errorf("%w: current pra %v", ErrInputContract, *in.CurrentPRA)
	}
	if in.Period < 0 || in.Clock < 0 {
		return fmt.Errorf("%w: period %d clock %s", ErrInputContract, in.Period, in.Clock)
	}
	return nil
}

// gameClock converts period + clock into game minutes remaining and elapsed.
// Overtime only counts the current period as remaining.
func (t LiveThresholds) gameClock(period int, clock time.Duration) (remaining, elapsed float64) {
	regulation := float64(t.RegulationPeriods) * t.PeriodMinutes
	if period <= 0 {
		return regulation, 0
	}

	clockMin := clock.Minutes()
	if period <= t.RegulationPeriods {
		clockMin = math.Min(clockMin, t.PeriodMinutes)
		remaining = clockMin + float64(t.RegulationPeriods-period)*t.PeriodMinutes
		return remaining, regulation - remaining
	}

	clockMin = math.Min(clockMin, t.OvertimeMinutes)
	overtimeElapsed := float64(period-t.RegulationPeriods)*t.OvertimeMinutes - clockMin
	return clockMin, regulation + overtimeElapsed
}

// project extrapolates the current pace over the player's expected remaining minutes.
func (t LiveThresholds) project(pra, minutes, gameRemaining, gameElapsed float64) float64 {
	participation := t.DefaultParticipation
	if gameElapsed > 0 {
		participation = math.Max(0, math.Min(1, minutes/gameElapsed))
	}

	playerRemaining := math.Min(gameRemaining*participation, math.Max(0, t.MinutesCeiling-minutes))
	rate := pra / math.Max(minutes, t.MinRateMinutes)
	return pra + rate*playerRemaining
}

// margin is the signed distance from the line toward the winning side.
func margin(terms BetTerms, pra float64) float64 {
	if terms.Direction == DirectionOver {
		return pra - terms.BettingLine
	}
	return terms.BettingLine - pra
}
