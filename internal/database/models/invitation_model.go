package models

import (
	"time"

	"github.com/google/uuid"
)

type InvitationState string

const (
	InvitationPending  InvitationState = "PENDING"
	InvitationConsumed InvitationState = "CONSUMED"
	InvitationExpired  InvitationState = "EXPIRED"
)

type Invitation struct {
	Model
	OrganizationID uuid.UUID `json:"organizationId" gorm:"type:uuid;not null"`
	Organization   Org       `json:"-"`
	// Email is the invited address, stored lowercase. Consumption is bound to
	// this address, not to whichever session clicks the link.
	Email     string     `json:"email" gorm:"type:text;not null;index"`
	Role      Role       `json:"role" gorm:"type:text;not null;default:'USER'"`
	ManagerID *uuid.UUID `json:"managerId" gorm:"type:uuid"`
	// Token is an opaque bearer credential, looked up by unique index.
	Token      string     `json:"-" gorm:"type:text;unique;not null;index"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	ConsumedAt *time.Time `json:"consumedAt"`
	ConsumedBy *uuid.UUID `json:"consumedBy" gorm:"type:uuid"`
}

func (i Invitation) TableName() string {
	return "org_invitations"
}

// State derives the lifecycle state at the given instant. REVOKED is not a
// stored state: revocation deletes the pending row.
func (i Invitation) State(now time.Time) InvitationState {
	if i.ConsumedAt != nil {
		return InvitationConsumed
	}
	if !now.Before(i.ExpiresAt) {
		return InvitationExpired
	}
	return InvitationPending
}
