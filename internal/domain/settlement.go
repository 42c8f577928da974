package domain

import (
	"fmt"
	"math"
)

// minPlayedMinutes is the DNP threshold: below it the prop is un-gradable.
const minPlayedMinutes = 1.0

// PushPolicy decides what an exact hit of the line settles to.
type PushPolicy string

const (
	// PushLoses grades a push as LOST. This is the house convention.
	PushLoses PushPolicy = "loses"
	// PushVoids grades a push as VOIDED (stake returned).
	PushVoids PushPolicy = "voids"
)

// Valid reports whether p is a known policy.
func (p PushPolicy) Valid() bool {
	return p == PushLoses || p == PushVoids
}

// SettlementPolicy groups the configurable settlement conventions.
type SettlementPolicy struct {
	Push PushPolicy
}

// DefaultSettlementPolicy returns the house convention.
func DefaultSettlementPolicy() SettlementPolicy {
	return SettlementPolicy{Push: PushLoses}
}

// Observation is what the provider reported for a player in a game.
// Nil fields mean "not observed yet".
type Observation struct {
	PRA     *float64
	Minutes *float64
}

// Ambiguous reports an observation with minutes but no PRA, which cannot be settled.
func (o Observation) Ambiguous() bool {
	return o.PRA == nil && o.Minutes != nil
}

// Validate rejects observations that cannot come from a real box score.
func (o Observation) Validate() error {
	if o.PRA != nil && (math.IsNaN(*o.PRA) || math.IsInf(*o.PRA, 0) || *o.PRA < 0) {
		return fmt.Errorf("%w: actual pra %v", ErrInputContract, *o.PRA)
	}
	if o.Minutes != nil && (math.IsNaN(*o.Minutes) || math.IsInf(*o.Minutes, 0) || *o.Minutes < 0) {
		return fmt.Errorf("%w: actual minutes %v", ErrInputContract, *o.Minutes)
	}
	return nil
}

// Settle grades a bet from an observation. It is pure and deterministic.
//
// Rules, in order: no PRA → PENDING; under one minute played → VOIDED;
// OVER wins strictly above the line, UNDER strictly below. An exact push
// follows policy.Push.
func Settle(terms BetTerms, obs Observation, policy SettlementPolicy) (Result, error) {
	if err := terms.Validate(); err != nil {
		return "", fmt.Errorf("domain.Settle: %w", err)
	}
	if err := obs.Validate(); err != nil {
		return "", fmt.Errorf("domain.Settle: %w", err)
	}
	if !policy.Push.Valid() {
		return "", fmt.Errorf("domain.Settle: %w: push policy %q", ErrInputContract, policy.Push)
	}

	if obs.PRA == nil {
		return ResultPending, nil
	}

	minutes := 0.0
	if obs.Minutes != nil {
		minutes = *obs.Minutes
	}
	if minutes < minPlayedMinutes {
		return ResultVoided, nil
	}

	pra := *obs.PRA
	if pra == terms.BettingLine {
		if policy.Push == PushVoids {
			return ResultVoided, nil
		}
		return ResultLost, nil
	}

	if wins(terms, pra) {
		return ResultWon, nil
	}
	return ResultLost, nil
}

// wins applies the strict win condition for the direction.
func wins(terms BetTerms, pra float64) bool {
	if terms.Direction == DirectionOver {
		return pra > terms.BettingLine
	}
	return pra < terms.BettingLine
}
