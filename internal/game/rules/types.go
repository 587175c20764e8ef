// Package rules provides the read-only ruleset service: unit-type and
// building tables plus the numeric weighting constants the advisors score
// with. Rulesets are loaded from YAML and are immutable after Load.
package rules

// UnitClass describes the movement domain of a unit type.
type UnitClass string

const (
	ClassLand UnitClass = "land"
	ClassSea  UnitClass = "sea"
	ClassAir  UnitClass = "air"
)

// Unit-type flags. A flag marks an intrinsic property of the type.
const (
	FlagMissile  = "missile"  // one-shot ordnance, launched from a carrier or stack
	FlagDiplomat = "diplomat" // non-combat agent; high-value hunt target
	FlagGameLoss = "gameloss" // losing this unit eliminates its owner
	FlagCaravan  = "caravan"  // can assist wonder construction
	FlagFerry    = "ferry"    // can carry land units across water
	FlagNuclear  = "nuclear"  // nuclear ordnance; attack strength is clamped before scoring
	FlagField    = "field"    // causes unhappiness while deployed abroad
)

// Unit-type roles. A role marks what the AI may use the type for.
const (
	RoleHunter     = "hunter"
	RoleDefender   = "defender"
	RoleSettler    = "settler"
	RoleFounder    = "founder"
	RoleTradeRoute = "traderoute"
	RoleHelper     = "helper" // wonder-assist (caravan-equivalent)
)

// UnitType is one row of the ruleset's unit table.
//
// Invariant: ID is unique within a Registry; numeric stats are non-negative.
type UnitType struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Class     UnitClass `yaml:"class"`
	Attack    int       `yaml:"attack"`
	Defense   int       `yaml:"defense"`
	HP        int       `yaml:"hp"`
	Firepower int       `yaml:"firepower"`
	MoveRate  int       `yaml:"move_rate"`
	Fuel      int       `yaml:"fuel"`
	BuildCost int       `yaml:"build_cost"`
	Upkeep    int       `yaml:"upkeep"`    // food upkeep for civilian types
	Transport int       `yaml:"transport"` // carrying capacity; 0 = not a transporter
	ReqTech   string    `yaml:"req_tech"`
	Flags     []string  `yaml:"flags"`
	Roles     []string  `yaml:"roles"`
}

// HasFlag reports whether the type carries the given flag.
func (u *UnitType) HasFlag(flag string) bool {
	for _, f := range u.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// HasRole reports whether the type carries the given role.
func (u *UnitType) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AttackPower returns the scoring attack strength of the type.
// Nuclear attack is clamped so ordnance does not dominate every comparison.
func (u *UnitType) AttackPower() int {
	a := u.Attack
	if u.HasFlag(FlagNuclear) && a > NuclearAttackClamp {
		a = NuclearAttackClamp
	}
	return a * u.Firepower
}

// NuclearAttackClamp bounds the attack strength of nuclear ordnance in
// desirability formulas.
const NuclearAttackClamp = 20

// Genus partitions buildings into scoring families.
type Genus string

const (
	GenusNormal    Genus = "normal"
	GenusWonder    Genus = "wonder"
	GenusSpacePart Genus = "spacepart"
)

// Building categories. The Building Desire Engine maps each category to a
// registered scoring strategy; adding a building type means registering a
// strategy, not editing a switch.
const (
	CatGranary     = "granary"
	CatAqueduct    = "aqueduct"
	CatHarbor      = "harbor"
	CatSupermarket = "supermarket"
	CatScience     = "science"
	CatEconomy     = "economy"
	CatHappiness   = "happiness"
	CatCourthouse  = "courthouse"
	CatProduction  = "production"
	CatPollution   = "pollution"
	CatDefenseLand = "defense_land"
	CatDefenseSea  = "defense_sea"
	CatDefenseAir  = "defense_air"
	CatDefenseNuke = "defense_nuke"
	CatBarracks    = "barracks"
	CatSpacePart   = "spacepart"

	// Wonder categories, keyed by effect rather than by name so rulesets
	// can define their own wonders.
	CatWonderUpkeep     = "wonder_upkeep"     // halves unit upkeep
	CatWonderFreeTech   = "wonder_free_tech"  // grants a free technology
	CatWonderLeadership = "wonder_leadership" // free veteran upgrades
	CatWonderHappy      = "wonder_happy"      // content citizens everywhere
	CatWonderScience    = "wonder_science"    // science percentage boost
	CatWonderLab        = "wonder_lab"        // research-lab equivalent in city
	CatWonderTrade      = "wonder_trade"      // trade percentage boost
	CatWonderGrowth     = "wonder_growth"     // granary effect everywhere
)

// Building is one row of the ruleset's improvement table.
//
// Invariant: ID is unique within a Registry. Value defaults to BuildCost
// when the ruleset leaves it zero.
type Building struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Genus       Genus  `yaml:"genus"`
	Category    string `yaml:"category"`
	BuildCost   int    `yaml:"build_cost"`
	Upkeep      int    `yaml:"upkeep"`
	Value       int    `yaml:"value"`        // monetary-equivalent conversion divisor
	EffectValue int    `yaml:"effect_value"` // category-specific magnitude (percent, size threshold, ...)
	ReqTech     string `yaml:"req_tech"`
	ReqBuilding string `yaml:"req_building"`
	ReqGov      string `yaml:"req_gov"`
	Obsolete    bool   `yaml:"obsolete"`
	ScoreHook   string `yaml:"score_hook"` // Lua function name; empty = registered strategy only
}

// IsWonder reports whether the building is a wonder.
func (b *Building) IsWonder() bool { return b.Genus == GenusWonder }

// Constants holds the ruleset's global weighting knobs.
type Constants struct {
	ShieldWeight   int `yaml:"shield_weight"`   // value of one shield of output
	TradeWeight    int `yaml:"trade_weight"`    // value of one trade point
	FoodWeightBase int `yaml:"food_weight"`     // base value of one food point
	AmortizeBase   int `yaml:"amortize_base"`   // present-value decay base (benefit *= (base-1)/base per turn)
	GameLossFactor int `yaml:"gameloss_factor"` // stack-cost multiplier when a gameloss unit is present
	MaxCities      int `yaml:"max_cities"`      // 0 = unlimited
}

// FoodWeight returns the per-food-point value for a city of the given size.
// Small cities value food more; the curve flattens as the city grows.
func (c Constants) FoodWeight(size int) int {
	if size < 1 {
		size = 1
	}
	return c.FoodWeightBase * 30 / (size + 14)
}

func defaultConstants() Constants {
	return Constants{
		ShieldWeight:   17,
		TradeWeight:    12,
		FoodWeightBase: 19,
		AmortizeBase:   24,
		GameLossFactor: 1000,
		MaxCities:      0,
	}
}
