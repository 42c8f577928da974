package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/pratracker/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
// table=false imprime una sola línea por evento.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifySync imprime las transiciones de la sincronización.
func (c *Console) NotifySync(_ context.Context, r domain.SyncReport) error {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "[%s] sync %s → checked:%d updated:%d deferred:%d ambiguous:%d bankroll:%.2fu\n",
		now, windowLabel(r.From, r.To), r.Checked, r.Updated(), len(r.Deferred), len(r.Ambiguous), r.Bankroll)

	if !c.table || (len(r.Transitions) == 0 && len(r.Deferred) == 0) {
		return nil
	}

	if len(r.Transitions) > 0 {
		table := tablewriter.NewWriter(c.out)
		table.Header("Date", "Player", "PRA", "Min", "Result")
		for _, tr := range r.Transitions {
			table.Append(
				tr.Key.GameDate.Format(domain.DateLayout),
				tr.PlayerName,
				optFloat(tr.ActualPRA, "%.0f"),
				optFloat(tr.Minutes, "%.1f"),
				fmt.Sprintf("%s → %s", tr.Old, tr.New),
			)
		}
		table.Render()
	}

	for _, d := range r.Deferred {
		game := d.GameID
		if game == "" {
			game = "scoreboard"
		}
		fmt.Fprintf(c.out, "  ⚠ deferred %s %s: %s\n", d.Date.Format(domain.DateLayout), game, d.Err)
	}
	return nil
}

// NotifyLive imprime el tablero en vivo.
func (c *Console) NotifyLive(_ context.Context, b domain.LiveBoard) error {
	now := time.Now().Format("15:04:05")
	if len(b.Bets) == 0 {
		fmt.Fprintf(c.out, "[%s] no bets for %s\n", now, b.Date.Format(domain.DateLayout))
		return nil
	}

	fmt.Fprintf(c.out, "[%s] %s %s → live:%d hits:%d pending:%d finished:%d\n",
		now, b.Date.Format(domain.DateLayout), b.State, b.Live, b.Hits, b.Pending, b.Finished)

	if !c.table {
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Player", "Bet", "PRA", "Proj", "Min", "Game", "Clock", "Status")
	for _, lb := range b.Bets {
		game, clock := "-", "-"
		if lb.Game != nil {
			game = fmt.Sprintf("%s %s", lb.Game.Matchup(), lb.Game.Score())
			clock = clockLabel(*lb.Game)
		}
		table.Append(
			truncate(lb.Bet.PlayerName, 22),
			fmt.Sprintf("%s %.1f", lb.Bet.Direction, lb.Bet.BettingLine),
			optFloat(lb.CurrentPRA, "%.0f"),
			optFloat(lb.Live.Projected, "%.1f"),
			fmt.Sprintf("%.1f", lb.Minutes),
			game,
			clock,
			lb.Live.Status.Label(),
		)
	}
	table.Render()
	return nil
}

// NotifyReport imprime ledger, resumen y desgloses.
func (c *Console) NotifyReport(_ context.Context, r domain.PerformanceReport) error {
	s := r.Summary
	fmt.Fprintf(c.out, "\n=== BANKROLL %.2fu (profit %+.2fu) | %d-%d, win rate %.1f%%, ROI %.1f%% | pending:%d voided:%d ===\n",
		s.Bankroll, s.Profit, s.Wins, s.Losses, s.WinRate, s.ROI, s.Pending, s.Voided)

	if !c.table {
		return nil
	}

	if len(r.Ledger.Days) > 0 {
		table := tablewriter.NewWriter(c.out)
		table.Header("Date", "Bets", "W", "L", "P", "V", "P&L", "Bankroll")
		for _, d := range r.Ledger.Days {
			table.Append(
				d.Date.Format(domain.DateLayout),
				fmt.Sprintf("%d", d.TotalBets),
				fmt.Sprintf("%d", d.Wins),
				fmt.Sprintf("%d", d.Losses),
				fmt.Sprintf("%d", d.Pending),
				fmt.Sprintf("%d", d.Voided),
				fmt.Sprintf("%+.2f", d.DailyPnL),
				fmt.Sprintf("%.2f", d.Bankroll),
			)
		}
		table.Render()
	}

	if len(r.ByTier) > 0 {
		fmt.Fprintln(c.out, "\n  By tier:")
		for _, row := range r.ByTier {
			fmt.Fprintf(c.out, "  %-18s %3d/%-3d  %5.1f%%\n", row.Tier, row.Wins, row.Total, row.WinRate)
		}
	}

	if len(r.ByDate) > 0 {
		fmt.Fprintln(c.out, "\n  By date:")
		for _, row := range r.ByDate {
			fmt.Fprintf(c.out, "  %-18s %3d/%-3d  %5.1f%%\n", row.Date.Format(domain.DateLayout), row.Wins, row.Total, row.WinRate)
		}
	}
	fmt.Fprintln(c.out)
	return nil
}

// --- helpers ---

func windowLabel(from, to time.Time) string {
	if from.IsZero() {
		return "-"
	}
	return from.Format(domain.DateLayout) + ".." + to.Format(domain.DateLayout)
}

func clockLabel(g domain.Game) string {
	switch g.Status {
	case domain.GameLive:
		secs := int(g.Clock.Seconds())
		return fmt.Sprintf("%s %d:%02d", domain.PeriodText(g.Period), secs/60, secs%60)
	case domain.GameFinished:
		return "Final"
	default:
		return g.Status.Text()
	}
}

func optFloat(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
