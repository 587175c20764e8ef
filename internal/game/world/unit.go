package world

// Unit AI roles assigned by the advisors.
const (
	RoleNone   = ""
	RoleHunt   = "hunter"
	RoleDefend = "defender"
)

// Unit is one unit record. The hunter subsystem owns TargetID, Done,
// AIRole, and Dest; everything else belongs to the external simulation.
//
// TargetID is a weak reference: the referenced unit may have been destroyed
// since it was stored, so every use must re-resolve through State.UnitByID
// and tolerate not-found.
type Unit struct {
	ID     string
	Owner  string // player id
	TypeID string
	Pos    Position
	HP     int

	// MovesLeft is the remaining move budget this turn, in move fragments.
	MovesLeft int

	// TransportID is the id of the carrying transport; empty when unloaded.
	TransportID string

	// Hunter state.
	TargetID string
	Done     bool // this turn's hunting work is finished
	AIRole   string
	Dest     Position

	// CurPos and PrevPos are this unit's last two recorded positions; a
	// pursuer uses them only to judge whether the unit is approaching or
	// fleeing. Zero values mean "not yet recorded".
	CurPos  *Position
	PrevPos *Position

	// Virtual marks a scratch unit used for what-if evaluation. Virtual
	// units have no map presence and must never cause side effects.
	Virtual bool
}

// RecordPosition shifts the position history by one turn.
//
// Postcondition: u.PrevPos holds the previous CurPos; u.CurPos holds p.
func (u *Unit) RecordPosition(p Position) {
	u.PrevPos = u.CurPos
	cp := p
	u.CurPos = &cp
}
