// Package advisor implements the domestic decision engines: the per-city
// Building Desire Engine and the Domestic Build Chooser that merges building,
// settler, founder, wonder-assist, and trade-route desire into one Choice.
package advisor

// ScoreKind tags a raw score with how the final massage must treat it.
// Replaces the historical convention of overloading the sign bit.
type ScoreKind int

const (
	// KindScored is an ordinary raw score: netted against upkeep,
	// normalized by building value, clamped at zero.
	KindScored ScoreKind = iota
	// KindUnconditional is an absolute want used verbatim, bypassing the
	// massage. Spaceship parts use this.
	KindUnconditional
	// KindNeedsTransport signals "the desire is real but a transport is
	// required first"; the chooser substitutes a ferry request of equal
	// magnitude.
	KindNeedsTransport
)

// Score is a tagged raw scoring result.
type Score struct {
	Kind  ScoreKind
	Value int
}

// Scored wraps an ordinary raw score.
func Scored(n int) Score { return Score{Kind: KindScored, Value: n} }

// Unconditional wraps an absolute want.
func Unconditional(n int) Score { return Score{Kind: KindUnconditional, Value: n} }

// NeedsTransport wraps a desire blocked on transport availability.
func NeedsTransport(n int) Score { return Score{Kind: KindNeedsTransport, Value: n} }

// Amortize converts a future benefit and a delay in turns into a
// present-value comparable number. The same primitive weighs gold-buy
// costs, pollution, and wonder-assist lead time.
//
// Postcondition: result is non-negative when benefit is, and non-increasing
// in delay.
func Amortize(benefit, delay, base int) int {
	if base < 2 {
		base = 2
	}
	for ; delay > 0 && benefit != 0; delay-- {
		benefit = benefit * (base - 1) / base
	}
	return benefit
}

// Citizen-pacification values for the happiness scorer. A freed elvis
// specialist is worth the city's best workable tile; the rest use these
// flat per-citizen values.
const (
	unhappyCitizenValue = 16
	disorderSurcharge   = 8
	contentCitizenValue = 8
)
