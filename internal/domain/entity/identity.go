package entity

// Identity is the authenticated caller of a request or realtime connection.
type Identity struct {
	UserID string
	Role   string
	Name   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
