package models

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleUser    Role = "USER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

type Membership struct {
	Model
	OrganizationID uuid.UUID `json:"organizationId" gorm:"type:uuid;not null;uniqueIndex:idx_org_user"`
	Organization   Org       `json:"-"`
	UserID         uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_org_user"`
	User           User      `json:"-"`
	Role           Role      `json:"role" gorm:"type:text;not null;default:'USER'"`
	// ManagerID references another membership in the same organization with
	// role MANAGER. Only meaningful while Role is USER.
	ManagerID *uuid.UUID  `json:"managerId" gorm:"type:uuid"`
	Manager   *Membership `json:"-" gorm:"foreignKey:ManagerID"`
}

func (m Membership) TableName() string {
	return "org_memberships"
}
