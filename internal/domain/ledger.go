package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// StartingBankroll is the bankroll before the first tracked day, in units.
const StartingBankroll = 100.0

// DailySummary aggregates one game date. Always derived from bets.
type DailySummary struct {
	Date      time.Time
	TotalBets int
	Wins      int
	Losses    int
	Pending   int
	Voided    int
	DailyPnL  float64
	Bankroll  float64 // after the day
}

// LedgerConfig holds the inputs a rebuild needs besides the bets.
type LedgerConfig struct {
	StartingBankroll float64
	Payout           PayoutModel
}

// DefaultLedgerConfig returns the house setup: 100u at -110.
func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{StartingBankroll: StartingBankroll, Payout: DefaultPayout()}
}

// Ledger is the ordered series of daily summaries.
type Ledger struct {
	Start float64
	Days  []DailySummary
}

// BankrollPoint is one point of the bankroll chart.
// The first point is the starting anchor and has no date.
type BankrollPoint struct {
	Date     *time.Time
	Bankroll float64
}

// Points returns the chart series, starting anchor first.
func (l Ledger) Points() []BankrollPoint {
	points := make([]BankrollPoint, 0, len(l.Days)+1)
	points = append(points, BankrollPoint{Bankroll: l.Start})
	for i := range l.Days {
		d := l.Days[i].Date
		points = append(points, BankrollPoint{Date: &d, Bankroll: l.Days[i].Bankroll})
	}
	return points
}

// Final returns the current bankroll.
func (l Ledger) Final() float64 {
	if len(l.Days) == 0 {
		return l.Start
	}
	return l.Days[len(l.Days)-1].Bankroll
}

// RebuildLedger recomputes every daily summary from scratch.
// Dates are processed ascending; within a date the sums are exact, so the
// order of bets does not change the result.
func RebuildLedger(bets []Bet, cfg LedgerConfig) (Ledger, error) {
	byDate := make(map[time.Time][]Bet)
	for _, b := range bets {
		if err := b.Validate(); err != nil {
			return Ledger{}, fmt.Errorf("domain.RebuildLedger: %w", err)
		}
		day := CivilDate(b.GameDate)
		byDate[day] = append(byDate[day], b)
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	running := decimal.NewFromFloat(cfg.StartingBankroll)
	days := make([]DailySummary, 0, len(dates))

	for _, date := range dates {
		s := DailySummary{Date: date}
		dayPnL := decimal.Zero

		for _, b := range byDate[date] {
			s.TotalBets++
			switch b.Result {
			case ResultPending:
				s.Pending++
				continue
			case ResultWon:
				s.Wins++
			case ResultLost:
				s.Losses++
			case ResultVoided:
				s.Voided++
			}

			pnl, err := cfg.Payout.PnL(b.Result, b.Units)
			if err != nil {
				return Ledger{}, fmt.Errorf("domain.RebuildLedger: bet %s: %w", b.Key(), err)
			}
			dayPnL = dayPnL.Add(decimal.NewFromFloat(pnl))
		}

		running = running.Add(dayPnL)
		s.DailyPnL = dayPnL.InexactFloat64()
		s.Bankroll = running.InexactFloat64()
		days = append(days, s)
	}

	return Ledger{Start: cfg.StartingBankroll, Days: days}, nil
}
