// Package hunter implements the per-unit pursuit subsystem: scoring enemy
// stacks as prey, committing to a target, advancing along the path, and
// coordinating co-located missiles for the kill.
package hunter

import (
	"github.com/tmaynard/warcouncil/internal/game/rules"
	"github.com/tmaynard/warcouncil/internal/game/world"
)

// Flat threat bonuses for special stack members.
const (
	gameLossThreatBonus = 1000
	diplomatThreatBonus = 100
)

// attackWeight multiplies raw stack attack power into the threat total.
const attackWeight = 9

// Juiciness scores the stack on pos as prey: how valuable and how dangerous
// a kill it would be. Cost is the total shield-replacement cost of the
// stack; threat folds in attack power and the flat bonuses.
//
// Precondition: the stack on pos is enemy-owned (stacks never mix owners).
//
// Postcondition: threat >= cost; both are monotone in stack attack and
// stack cost.
func (m *Manager) Juiciness(pos world.Position) (threat, cost int) {
	bonus := 0
	attack := 0
	gameLoss := false
	for _, u := range m.state.UnitsAt(pos) {
		ut, ok := m.rules.UnitTypeByID(u.TypeID)
		if !ok {
			continue
		}
		attack += ut.AttackPower()
		cost += ut.BuildCost
		if ut.HasFlag(rules.FlagGameLoss) {
			gameLoss = true
			bonus += gameLossThreatBonus
		}
		if ut.HasFlag(rules.FlagDiplomat) {
			bonus += diplomatThreatBonus
		}
	}
	// The multiplier applies to the whole stack's cost, once, regardless of
	// where in the stack the game-loss unit sits.
	if gameLoss {
		cost *= m.rules.Constants().GameLossFactor
	}
	threat = cost + attackWeight*attack + bonus
	return threat, cost
}

// bestDefense returns the strongest defense value among units on pos.
func (m *Manager) bestDefense(pos world.Position) int {
	best := 0
	for _, u := range m.state.UnitsAt(pos) {
		if ut, ok := m.rules.UnitTypeByID(u.TypeID); ok && ut.Defense > best {
			best = ut.Defense
		}
	}
	return best
}

// winChance estimates the attacker's percentage chance against the given
// defense value.
//
// Postcondition: result in [0, 100].
func winChance(attacker *rules.UnitType, defense int) int {
	a := attacker.AttackPower()
	if a+defense == 0 {
		return 50
	}
	return a * 100 / (a + defense)
}
