package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// liveAt builds a live snapshot in period 2 with 6:00 left: 30 game minutes
// remaining and 18 elapsed.
func liveAt(pra, minutes float64) LiveInput {
	return LiveInput{
		CurrentPRA:    Float(pra),
		MinutesPlayed: minutes,
		Status:        GameLive,
		Period:        2,
		Clock:         6 * time.Minute,
	}
}

func classify(t *testing.T, terms BetTerms, in LiveInput) LiveResult {
	t.Helper()
	res, err := ClassifyLive(terms, in, DefaultLiveThresholds())
	require.NoError(t, err)
	return res
}

// --- ClassifyLive: OVER ---

func TestClassifyLive_OverBuckets(t *testing.T) {
	tests := []struct {
		name string
		in   LiveInput
		want LiveStatus
	}{
		{"already over the line", liveAt(31, 20), LiveHit},
		{"pace well above", liveAt(15, 12), LiveOnTrack},
		{"pace slightly short", liveAt(10, 12), LiveNeedsMore},
		{"pace far short with time left", liveAt(5, 12), LiveUnlikely},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(t, over(30), tt.in).Status)
		})
	}
}

func TestClassifyLive_OverProjection(t *testing.T) {
	// participation 12/18, 20 player minutes left at 1.25 PRA/min
	res := classify(t, over(30), liveAt(15, 12))
	require.NotNil(t, res.Projected)
	assert.InDelta(t, 40.0, *res.Projected, 1e-9)
	assert.InDelta(t, 30.0, res.GameMinutesRemaining, 1e-9)
	assert.InDelta(t, -15.0, res.Distance, 1e-9)
}

func TestClassifyLive_OverLateShortfallIsDanger(t *testing.T) {
	in := LiveInput{
		CurrentPRA:    Float(20),
		MinutesPlayed: 30,
		Status:        GameLive,
		Period:        4,
		Clock:         3 * time.Minute,
	}
	res := classify(t, over(30), in)
	assert.Equal(t, LiveDanger, res.Status)
	assert.InDelta(t, 3.0, res.GameMinutesRemaining, 1e-9)
}

func TestClassifyLive_HitIsMonotonic(t *testing.T) {
	for period := 1; period <= 6; period++ {
		in := LiveInput{CurrentPRA: Float(30.5), MinutesPlayed: 5, Status: GameLive, Period: period, Clock: time.Minute}
		assert.Equal(t, LiveHit, classify(t, over(30), in).Status, "period %d", period)
	}
	in := LiveInput{CurrentPRA: Float(30.5), MinutesPlayed: 5, Status: GameFinished, Period: 4}
	assert.Equal(t, LiveHit, classify(t, over(30), in).Status)
}

func TestClassifyLive_BoundaryResolvesCautious(t *testing.T) {
	th := DefaultLiveThresholds()
	th.OnTrackRatio = 1.5

	// projected = 9 + 1.0 × 15 = 24 = 16 × 1.5 exactly
	res, err := ClassifyLive(over(16), liveAt(9, 9), th)
	require.NoError(t, err)
	require.NotNil(t, res.Projected)
	assert.Equal(t, 24.0, *res.Projected)
	assert.Equal(t, LiveNeedsMore, res.Status)
}

// --- ClassifyLive: UNDER ---

func TestClassifyLive_UnderBuckets(t *testing.T) {
	tests := []struct {
		name string
		in   LiveInput
		want LiveStatus
	}{
		{"line reached", liveAt(30, 25), LiveBusted},
		{"comfortably below", liveAt(10, 12), LiveSafe},
		{"just below", liveAt(11, 12), LiveClose},
		{"projected above", liveAt(15, 12), LiveDanger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(t, under(30), tt.in).Status)
		})
	}
}

// --- ClassifyLive: lifecycle ---

func TestClassifyLive_NotStarted(t *testing.T) {
	res := classify(t, over(30), LiveInput{Status: GameNotStarted})
	assert.Equal(t, LiveNotStarted, res.Status)
	assert.Nil(t, res.Projected)

	res = classify(t, over(30), LiveInput{Status: GameLive, Period: 1, Clock: 10 * time.Minute})
	assert.Equal(t, LiveNotStarted, res.Status)
}

func TestClassifyLive_Finished(t *testing.T) {
	fin := func(pra float64) LiveInput {
		return LiveInput{CurrentPRA: Float(pra), MinutesPlayed: 34, Status: GameFinished, Period: 4}
	}

	assert.Equal(t, LiveMiss, classify(t, over(30), fin(30)).Status)
	assert.Equal(t, LiveHit, classify(t, under(30), fin(29)).Status)
	assert.Equal(t, LiveMiss, classify(t, under(30), fin(30)).Status)

	res := classify(t, under(30), fin(29))
	require.NotNil(t, res.Projected)
	assert.Equal(t, 29.0, *res.Projected)
}

func TestClassifyLive_Overtime(t *testing.T) {
	in := LiveInput{CurrentPRA: Float(20), MinutesPlayed: 40, Status: GameLive, Period: 5, Clock: 2 * time.Minute}
	res := classify(t, over(30), in)
	assert.InDelta(t, 2.0, res.GameMinutesRemaining, 1e-9)
	// minutes ceiling reached: no more projected minutes
	assert.InDelta(t, 20.0, *res.Projected, 1e-9)
	assert.Equal(t, LiveDanger, res.Status)
}

func TestClassifyLive_ContractViolations(t *testing.T) {
	th := DefaultLiveThresholds()

	_, err := ClassifyLive(BetTerms{Direction: "X", BettingLine: 10}, liveAt(5, 5), th)
	assert.ErrorIs(t, err, ErrInputContract)

	_, err = ClassifyLive(over(10), liveAt(5, -1), th)
	assert.ErrorIs(t, err, ErrInputContract)

	bad := liveAt(5, 5)
	bad.Period = -1
	_, err = ClassifyLive(over(10), bad, th)
	assert.ErrorIs(t, err, ErrInputContract)

	th.NeedsMoreRatio = 2
	_, err = ClassifyLive(over(10), liveAt(5, 5), th)
	assert.ErrorIs(t, err, ErrInputContract)
}

// --- LiveStatus ---

func TestLiveStatus_Exhaustive(t *testing.T) {
	assert.Len(t, AllLiveStatuses, 10)
	for _, s := range AllLiveStatuses {
		assert.NotPanics(t, func() {
			assert.NotEmpty(t, s.Label())
			assert.NotEmpty(t, s.Color())
		}, string(s))
	}
	assert.Panics(t, func() { _ = LiveStatus("bogus").Label() })
}

func TestPeriodText(t *testing.T) {
	assert.Equal(t, "-", PeriodText(0))
	assert.Equal(t, "Q1", PeriodText(1))
	assert.Equal(t, "Q4", PeriodText(4))
	assert.Equal(t, "OT", PeriodText(5))
	assert.Equal(t, "2OT", PeriodText(6))
}

// --- TrackingStateOf ---

func TestTrackingStateOf(t *testing.T) {
	tests := []struct {
		name                           string
		total, live, pending, finished int
		want                           TrackingState
	}{
		{"no bets", 0, 0, 0, 0, TrackingNoBets},
		{"all finished", 3, 0, 0, 3, TrackingComplete},
		{"all pending", 3, 0, 3, 0, TrackingUpcoming},
		{"some live", 3, 1, 1, 1, TrackingLive},
		{"pending and finished", 3, 0, 2, 1, TrackingMixed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrackingStateOf(tt.total, tt.live, tt.pending, tt.finished))
		})
	}
}
