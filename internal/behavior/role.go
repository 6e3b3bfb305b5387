package behavior

// Role is the duty assigned to one robot for a single tick. Exactly one
// robot per team plays BallWinner; the keeper never leaves its role.
type Role int

const (
	RoleKeeper Role = iota
	RoleBallWinner
	RoleSupporter
	RoleDefender
)

func (r Role) String() string {
	switch r {
	case RoleKeeper:
		return "keeper"
	case RoleBallWinner:
		return "ball_winner"
	case RoleSupporter:
		return "supporter"
	case RoleDefender:
		return "defender"
	}
	return "unknown"
}
