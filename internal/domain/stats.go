package domain

import (
	"sort"
	"time"
)

// DefaultByDateLimit is how many dates ByDate returns when no limit is given.
const DefaultByDateLimit = 14

// Summary is the headline performance of the tracked bets.
// Win rate and ROI are percentages and only count WON/LOST bets.
type Summary struct {
	Bankroll  float64
	Profit    float64
	WinRate   float64
	ROI       float64
	TotalBets int // settled WON + LOST
	Wins      int
	Losses    int
	Pending   int
	Voided    int
}

// WinLoss is a win-rate breakdown row, keyed by tier or by date.
type WinLoss struct {
	Tier    string
	Date    time.Time
	Wins    int
	Total   int
	WinRate float64
}

// Summarize computes the headline numbers from the bets and their ledger.
// ROI = profit / units wagered on settled bets × 100.
func Summarize(bets []Bet, ledger Ledger) Summary {
	s := Summary{Bankroll: ledger.Final()}
	s.Profit = s.Bankroll - ledger.Start

	var wagered float64
	for _, b := range bets {
		switch b.Result {
		case ResultWon:
			s.Wins++
			wagered += b.Units
		case ResultLost:
			s.Losses++
			wagered += b.Units
		case ResultPending:
			s.Pending++
		case ResultVoided:
			s.Voided++
		}
	}

	s.TotalBets = s.Wins + s.Losses
	if s.TotalBets > 0 {
		s.WinRate = float64(s.Wins) / float64(s.TotalBets) * 100
	}
	if wagered > 0 {
		s.ROI = s.Profit / wagered * 100
	}
	return s
}

// ByTier groups settled (WON/LOST) bets by tier, sorted by tier name.
func ByTier(bets []Bet) []WinLoss {
	idx := make(map[string]*WinLoss)
	for _, b := range bets {
		if b.Result != ResultWon && b.Result != ResultLost {
			continue
		}
		row, ok := idx[b.Tier]
		if !ok {
			row = &WinLoss{Tier: b.Tier}
			idx[b.Tier] = row
		}
		row.Total++
		if b.Result == ResultWon {
			row.Wins++
		}
	}

	rows := make([]WinLoss, 0, len(idx))
	for _, row := range idx {
		row.WinRate = float64(row.Wins) / float64(row.Total) * 100
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Tier < rows[j].Tier })
	return rows
}

// ByDate returns the win rate per game date, most recent first, at most limit rows.
// limit <= 0 uses DefaultByDateLimit.
func ByDate(bets []Bet, limit int) []WinLoss {
	if limit <= 0 {
		limit = DefaultByDateLimit
	}

	idx := make(map[time.Time]*WinLoss)
	for _, b := range bets {
		if b.Result != ResultWon && b.Result != ResultLost {
			continue
		}
		day := CivilDate(b.GameDate)
		row, ok := idx[day]
		if !ok {
			row = &WinLoss{Date: day}
			idx[day] = row
		}
		row.Total++
		if b.Result == ResultWon {
			row.Wins++
		}
	}

	rows := make([]WinLoss, 0, len(idx))
	for _, row := range idx {
		row.WinRate = float64(row.Wins) / float64(row.Total) * 100
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.After(rows[j].Date) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
