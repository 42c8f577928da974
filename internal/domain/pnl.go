package domain

import (
	"fmt"
	"math"
)

// StandardAmericanOdds is the assumed price of every prop.
const StandardAmericanOdds = -110

// PayoutModel converts settled results into unit P&L using a fixed vig.
type PayoutModel struct {
	WinRatio float64 // profit per unit staked on a win
}

// DefaultPayout returns the -110 payout: risk 110 to win 100.
func DefaultPayout() PayoutModel {
	return PayoutModel{WinRatio: 100.0 / 110.0}
}

// PayoutFromAmericanOdds builds a PayoutModel from American odds.
// -110 → 0.9091, +150 → 1.5.
func PayoutFromAmericanOdds(odds float64) (PayoutModel, error) {
	switch {
	case math.IsNaN(odds) || math.IsInf(odds, 0):
		return PayoutModel{}, fmt.Errorf("%w: american odds %v", ErrInputContract, odds)
	case odds <= -100:
		return PayoutModel{WinRatio: 100.0 / -odds}, nil
	case odds >= 100:
		return PayoutModel{WinRatio: odds / 100.0}, nil
	default:
		return PayoutModel{}, fmt.Errorf("%w: american odds %v must be <= -100 or >= 100", ErrInputContract, odds)
	}
}

// PnL returns the signed unit delta for a settled bet.
// VOIDED returns the stake, so it has no P&L effect.
func (p PayoutModel) PnL(result Result, units float64) (float64, error) {
	if !(units > 0) || math.IsInf(units, 0) {
		return 0, fmt.Errorf("domain.PnL: %w: units %v", ErrInputContract, units)
	}
	if !(p.WinRatio > 0) {
		return 0, fmt.Errorf("domain.PnL: %w: win ratio %v", ErrInputContract, p.WinRatio)
	}

	switch result {
	case ResultWon:
		return units * p.WinRatio, nil
	case ResultLost:
		return -units, nil
	case ResultVoided:
		return 0, nil
	default:
		return 0, fmt.Errorf("domain.PnL: %w: result %q is not settled", ErrInputContract, result)
	}
}
