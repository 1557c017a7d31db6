package domain

// Role identifies which side of the room a token is bound to. It is
// resolved once per request and passed around as a value, never as a
// raw string compared in handlers.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Other returns the opposite role. Reads of the candidate ledger always
// target the other side: a peer never needs its own contributions back.
func (r Role) Other() Role {
	if r == RoleHost {
		return RoleGuest
	}
	return RoleHost
}

func (r Role) Valid() bool {
	return r == RoleHost || r == RoleGuest
}
