package world

// Happiness stages. Each stage records the citizen mood distribution after
// one more adjustment has been applied, in order.
const (
	StageRaw = iota // before any adjustment
	StageLuxury
	StageBuilding
	StageMartial
	StageWonder // final distribution; disorder is judged here
	numStages
)

// Mood is one citizen-mood bucket count per happiness stage.
type Mood [numStages]int

// ChoiceKind classifies what a build Choice refers to.
type ChoiceKind int

const (
	ChoiceNone ChoiceKind = iota
	ChoiceBuilding
	ChoiceCivilianUnit
	ChoiceAttacker
	ChoiceDefender
)

// Choice is the per-city build decision: what to build next and how badly.
// Produced fresh each evaluation; higher Want strictly dominates in merge,
// ties keep the existing choice.
type Choice struct {
	Kind ChoiceKind
	ID   string // building or unit-type id; empty for ChoiceNone
	Want int
}

// CopyIfBetter replaces c with other when other's want is strictly higher.
//
// Postcondition: c.Want never decreases; on a tie the original is kept.
func (c *Choice) CopyIfBetter(other Choice) {
	if other.Want > c.Want {
		*c = other
	}
}

// City is one city record. The advisors read everything and write only
// BuildingWant, the Choice cache, and the two want scalars fed back by the
// expansion subsystem.
//
// Invariant: BuildingWant values are non-negative; 0 means "no opinion".
type City struct {
	ID    string
	Name  string
	Owner string // player id
	Pos   Position
	Size  int

	// Output fields, computed by the external simulation before evaluation.
	FoodSurplus    int
	FoodToGrow     int // food points needed to add one citizen
	ShieldSurplus  int
	ShieldStock    int
	TradeTotal     int
	TaxTotal       int
	ScienceTotal   int
	PollutionTotal int
	Corruption     int

	// Specialists.
	Elvis     int
	Taxman    int
	Scientist int

	// Citizen mood distribution through the adjustment stages.
	Happy   Mood
	Content Mood
	Unhappy Mood

	Celebrating bool

	// Workable-tile summary, computed by the external simulation.
	BestTileValue    int
	WorkedOceanTiles int
	WorkedFarmTiles  int

	TradeRoutes int

	Buildings map[string]bool // improvement id -> present

	// Current production target.
	Producing Choice

	// Advisor output fields.
	BuildingWant map[string]int
	SettlerWant  int
	FounderWant  int // negative is the needs-transport sentinel fed by the expansion subsystem
	LastChoice   Choice

	// DistToWonderCity is the travel distance in move points to the nearest
	// city of ours building a wonder; 0 when none.
	DistToWonderCity int
}

// NewCity creates a city with initialized maps.
func NewCity(id, name, owner string, pos Position) *City {
	return &City{
		ID:           id,
		Name:         name,
		Owner:        owner,
		Pos:          pos,
		Size:         1,
		FoodToGrow:   20,
		Buildings:    make(map[string]bool),
		BuildingWant: make(map[string]int),
	}
}

// HasBuilding reports whether the improvement is present.
func (c *City) HasBuilding(id string) bool { return c.Buildings[id] }

// InDisorder reports whether final unhappiness outweighs final happiness.
func (c *City) InDisorder() bool {
	return c.Unhappy[StageWonder] > c.Happy[StageWonder]
}

// UnhappyCitizens returns the count of finally-unhappy citizens.
func (c *City) UnhappyCitizens() int { return c.Unhappy[StageWonder] }

// TurnsToSize estimates turns until the city reaches size target given the
// current food surplus. Returns a large horizon when the city cannot grow.
//
// Postcondition: result >= 1.
func (c *City) TurnsToSize(target int) int {
	if c.Size >= target {
		return 1
	}
	if c.FoodSurplus <= 0 {
		return 999
	}
	turns := (target - c.Size) * c.FoodToGrow / c.FoodSurplus
	if turns < 1 {
		turns = 1
	}
	return turns
}
