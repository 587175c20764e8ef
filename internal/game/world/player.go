package world

// DiplState is the formal diplomatic relation between two players.
type DiplState string

const (
	DiplNone      DiplState = "none"
	DiplWar       DiplState = "war"
	DiplCeasefire DiplState = "ceasefire"
	DiplPeace     DiplState = "peace"
	DiplAlliance  DiplState = "alliance"
)

// Threats is the precomputed per-player threat assessment, refreshed once
// per player per turn by the external threat subsystem. Read-only input to
// the Building Desire Engine.
type Threats struct {
	// Continent flags a land threat per continent id.
	Continent map[int]bool
	Sea       int
	Air       int
	Nuclear   int
	Missile   int
	Invasion  int
}

// Player is one player record.
type Player struct {
	ID         string
	Name       string
	Government string
	Alive      bool
	Barbarian  bool

	Techs map[string]bool

	// TechDesire accumulates research-priority bumps written back by the
	// advisors when a wanted unit is not yet buildable.
	TechDesire map[string]int

	// Diplomacy maps other player ids to the formal relation.
	Diplomacy map[string]DiplState

	Threats Threats

	// Trait multipliers in percent; 100 = neutral.
	ExpansionistTrait int
	TraderTrait       int

	// Handicaps.
	EasyMode      bool // flat defense-want override
	BlindTargets  bool // difficulty handicap: hunter cannot see targets
	GovCorruption int  // inherent corruption tolerance of the government; 0 enables courthouse scoring on corruption

	// BuildingWonder is set while the player has a wonder under
	// construction somewhere (used to damp settler diversion).
	BuildingWonder bool

	// ResearchCost is the remaining cost of the current research goal.
	ResearchCost int

	// SpacePartQuota is the number of spaceship parts still allowed;
	// 0 means the program is complete or unavailable.
	SpacePartQuota int
}

// NewPlayer creates a player with initialized maps.
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:                id,
		Name:              name,
		Government:        "despotism",
		Alive:             true,
		Techs:             make(map[string]bool),
		TechDesire:        make(map[string]int),
		Diplomacy:         make(map[string]DiplState),
		Threats:           Threats{Continent: make(map[int]bool)},
		ExpansionistTrait: 100,
		TraderTrait:       100,
	}
}

// DangerousTo reports whether other poses a danger to p. Broader than
// formal war: any relation short of peace or alliance qualifies, which
// allows preemptive targeting.
func (p *Player) DangerousTo(other string) bool {
	if other == p.ID {
		return false
	}
	switch p.Diplomacy[other] {
	case DiplPeace, DiplAlliance:
		return false
	default:
		return true
	}
}

// AlliedWith reports whether p and other are formally allied.
func (p *Player) AlliedWith(other string) bool {
	return other == p.ID || p.Diplomacy[other] == DiplAlliance
}

// BumpTechDesire raises the research priority for tech by amount.
func (p *Player) BumpTechDesire(tech string, amount int) {
	if tech == "" || amount <= 0 {
		return
	}
	p.TechDesire[tech] += amount
}
