package model

import "github.com/google/uuid"

const (
	RoleAdmin  = "ADMIN"
	RoleSeller = "SELLER"
)

// Principal is the already-authenticated caller identity supplied by the
// auth layer. The core trusts these values.
type Principal struct {
	UserID uuid.UUID
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsSeller() bool {
	return p.Role == RoleSeller
}
