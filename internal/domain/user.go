package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusClosed    UserStatus = "closed"
)

type Role string

const (
	RoleSuperAdmin      Role = "SUPER_ADMIN"
	RoleAdmin           Role = "ADMIN"
	RoleMinorista       Role = "MINORISTA"
	RoleTransferencista Role = "TRANSFERENCISTA"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleMinorista, RoleTransferencista:
		return true
	default:
		return false
	}
}

func (r Role) IsAdmin() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin:
		return true
	case RoleMinorista, RoleTransferencista:
		return false
	default:
		return false
	}
}

type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Role      Role
	Status    UserStatus
	CreatedAt time.Time
}
