package domain

import "time"

// Transition is one bet that changed result during a sync.
type Transition struct {
	Key        BetKey
	PlayerName string
	Old        Result
	New        Result
	ActualPRA  *float64
	Minutes    *float64
}

// DeferredGame is a game whose data could not be fetched after retries.
// Its bets stay PENDING until a later sync.
type DeferredGame struct {
	Date   time.Time
	GameID string // empty when the whole scoreboard for Date failed
	Err    string
}

// SyncReport summarises one sync run.
type SyncReport struct {
	RunID       string
	From        time.Time
	To          time.Time
	Checked     int
	Transitions []Transition
	Deferred    []DeferredGame
	Ambiguous   []BetKey
	Bankroll    float64
	Duration    time.Duration
}

// Updated returns how many bets changed result.
func (r SyncReport) Updated() int {
	return len(r.Transitions)
}

// TrackingState is the overall state of today's live board.
type TrackingState string

const (
	TrackingNoBets   TrackingState = "no_bets"
	TrackingUpcoming TrackingState = "upcoming"
	TrackingLive     TrackingState = "live"
	TrackingComplete TrackingState = "complete"
	TrackingMixed    TrackingState = "mixed"
)

// LiveBet is a bet joined with its game and live classification.
type LiveBet struct {
	Bet        Bet
	Game       *Game // nil when the player's game was not found
	CurrentPRA *float64
	Minutes    float64
	Live       LiveResult
}

// TrackingStateOf derives the board state from per-bet game counts.
func TrackingStateOf(total, live, pending, finished int) TrackingState {
	switch {
	case total == 0:
		return TrackingNoBets
	case finished == total:
		return TrackingComplete
	case pending == total:
		return TrackingUpcoming
	case live > 0:
		return TrackingLive
	default:
		return TrackingMixed
	}
}

// LiveBoard is the live tracking view for one date.
type LiveBoard struct {
	Date     time.Time
	Games    []Game
	Bets     []LiveBet
	State    TrackingState
	Live     int
	Hits     int
	Pending  int
	Finished int
}

// PerformanceReport groups the ledger with its derived statistics.
type PerformanceReport struct {
	Ledger  Ledger
	Summary Summary
	ByTier  []WinLoss
	ByDate  []WinLoss
}
