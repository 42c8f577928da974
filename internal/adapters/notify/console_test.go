package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/pratracker/internal/adapters/notify"
	"github.com/alejandrodnm/pratracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gameDay = time.Date(2025, 12, 18, 0, 0, 0, 0, time.UTC)

func makeBet(name string, dir domain.Direction, line float64) domain.Bet {
	return domain.Bet{
		PlayerID:    1,
		PlayerName:  name,
		GameDate:    gameDay,
		BettingLine: line,
		Direction:   dir,
		Tier:        "GOLDEN",
		Units:       1,
		Result:      domain.ResultPending,
	}
}

func TestConsole_NotifySync_WithTransitions(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	report := domain.SyncReport{
		From:    gameDay.AddDate(0, 0, -3),
		To:      gameDay,
		Checked: 4,
		Transitions: []domain.Transition{
			{
				Key:        domain.BetKey{PlayerID: 203999, GameDate: gameDay},
				PlayerName: "Nikola Jokic",
				Old:        domain.ResultPending,
				New:        domain.ResultWon,
				ActualPRA:  domain.Float(51),
				Minutes:    domain.Float(36.4),
			},
		},
		Deferred: []domain.DeferredGame{{Date: gameDay, GameID: "0022500402", Err: "stats provider unavailable"}},
		Bankroll: 100.91,
	}

	require.NoError(t, n.NotifySync(context.Background(), report))

	out := buf.String()
	assert.Contains(t, out, "checked:4 updated:1 deferred:1")
	assert.Contains(t, out, "Nikola Jokic")
	assert.Contains(t, out, "PENDING → WON")
	assert.Contains(t, out, "0022500402")
	assert.Contains(t, out, "100.91")
}

func TestConsole_NotifySync_Compact(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	require.NoError(t, n.NotifySync(context.Background(), domain.SyncReport{Checked: 2}))
	assert.Contains(t, buf.String(), "checked:2 updated:0")
	assert.NotContains(t, buf.String(), "Player")
}

func TestConsole_NotifyLive(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	game := domain.Game{
		ID: "0022500402", Status: domain.GameLive, Period: 3, Clock: 5*time.Minute + 12*time.Second,
		HomeTeam: "GSW", AwayTeam: "PHX", HomeScore: 78, AwayScore: 81,
	}
	board := domain.LiveBoard{
		Date:  gameDay,
		State: domain.TrackingLive,
		Live:  1,
		Bets: []domain.LiveBet{
			{
				Bet:        makeBet("Stephen Curry", domain.DirectionOver, 30.5),
				Game:       &game,
				CurrentPRA: domain.Float(27),
				Minutes:    28,
				Live:       domain.LiveResult{Status: domain.LiveOnTrack, Projected: domain.Float(36.2)},
			},
			{
				Bet:  makeBet("Devin Booker", domain.DirectionUnder, 33.5),
				Live: domain.LiveResult{Status: domain.LiveNotStarted},
			},
		},
	}

	require.NoError(t, n.NotifyLive(context.Background(), board))

	out := buf.String()
	assert.Contains(t, out, "live:1")
	assert.Contains(t, out, "Stephen Curry")
	assert.Contains(t, out, "PHX @ GSW")
	assert.Contains(t, out, "Q3 5:12")
	assert.Contains(t, out, "ON TRACK")
	assert.Contains(t, out, "NOT STARTED")
}

func TestConsole_NotifyLive_NoBets(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	require.NoError(t, n.NotifyLive(context.Background(), domain.LiveBoard{Date: gameDay, State: domain.TrackingNoBets}))
	assert.Contains(t, buf.String(), "no bets for 2025-12-18")
}

func TestConsole_NotifyReport(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	report := domain.PerformanceReport{
		Ledger: domain.Ledger{
			Start: 100,
			Days:  []domain.DailySummary{{Date: gameDay, TotalBets: 3, Wins: 2, Losses: 1, DailyPnL: 0.82, Bankroll: 100.82}},
		},
		Summary: domain.Summary{Bankroll: 100.82, Profit: 0.82, Wins: 2, Losses: 1, TotalBets: 3, WinRate: 66.7, ROI: 27.3},
		ByTier:  []domain.WinLoss{{Tier: "GOLDEN", Wins: 2, Total: 3, WinRate: 66.7}},
	}

	require.NoError(t, n.NotifyReport(context.Background(), report))

	out := buf.String()
	assert.Contains(t, out, "BANKROLL 100.82u")
	assert.Contains(t, out, "win rate 66.7%")
	assert.Contains(t, out, "+0.82")
	assert.Contains(t, out, "GOLDEN")
}
