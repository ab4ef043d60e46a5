package org

import (
	"time"

	"github.com/diarycardhq/diarycard/internal/calendarday"
	"github.com/diarycardhq/diarycard/internal/database/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type CreateRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

func (r CreateRequest) ToModel() models.Org {
	return models.Org{
		Name: r.Name,
		Slug: slug.Make(r.Name),
	}
}

type StateResponse struct {
	Organization *models.Org `json:"organization"`
	Role         models.Role `json:"role,omitempty"`
	MembershipID *uuid.UUID  `json:"membershipId,omitempty"`
}

type MemberDTO struct {
	MembershipID uuid.UUID   `json:"membershipId"`
	UserID       uuid.UUID   `json:"userId"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Role         models.Role `json:"role"`
	ManagerID    *uuid.UUID  `json:"managerId"`
}

func memberToDTO(m models.Membership) MemberDTO {
	return MemberDTO{
		MembershipID: m.ID,
		UserID:       m.UserID,
		Name:         m.User.DisplayName(),
		Email:        m.User.Email,
		Role:         m.Role,
		ManagerID:    m.ManagerID,
	}
}

type SetRoleRequest struct {
	Role models.Role `json:"role" validate:"required"`
}

type AssignManagerRequest struct {
	ManagerID *uuid.UUID `json:"managerId"`
}

type AssignByEmailRequest struct {
	Email     string      `json:"email" validate:"required,email"`
	Role      models.Role `json:"role" validate:"required"`
	ManagerID *uuid.UUID  `json:"managerId"`
}

const (
	StatusAssigned = "assigned"
	StatusInvited  = "invited"
)

type AssignByEmailResponse struct {
	Status string `json:"status"`
	// Membership is set when the email already belonged to a user.
	Membership *MemberDTO `json:"membership,omitempty"`
	// InviteID, ExpiresAt and Link are set when an invitation was created.
	// The link is returned so an admin can hand it over out-of-band when
	// mail delivery is unavailable.
	InviteID  *uuid.UUID `json:"inviteId,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Link      string     `json:"link,omitempty"`
}

type InviteDTO struct {
	ID        uuid.UUID              `json:"id"`
	Email     string                 `json:"email"`
	Role      models.Role            `json:"role"`
	ManagerID *uuid.UUID             `json:"managerId"`
	State     models.InvitationState `json:"state"`
	ExpiresAt time.Time              `json:"expiresAt"`
	CreatedAt time.Time              `json:"createdAt"`
}

func inviteToDTO(i models.Invitation, now time.Time) InviteDTO {
	return InviteDTO{
		ID:        i.ID,
		Email:     i.Email,
		Role:      i.Role,
		ManagerID: i.ManagerID,
		State:     i.State(now),
		ExpiresAt: i.ExpiresAt,
		CreatedAt: i.CreatedAt,
	}
}

type ConsumeInviteRequest struct {
	Token string `json:"token" validate:"required"`
}

// SummaryRow is the per-member rollup used by the manager and admin
// dashboards.
type SummaryRow struct {
	MembershipID uuid.UUID         `json:"membershipId"`
	UserID       uuid.UUID         `json:"userId"`
	Name         string            `json:"name"`
	EntryCount   int64             `json:"entryCount"`
	LastEntry    *calendarday.Date `json:"lastEntry"`
}

// ManagerSummaryRow aggregates a manager's team for the admin dashboard.
type ManagerSummaryRow struct {
	MembershipID uuid.UUID `json:"membershipId"`
	UserID       uuid.UUID `json:"userId"`
	Name         string    `json:"name"`
	TeamSize     int       `json:"teamSize"`
	EntryCount   int64     `json:"entryCount"`
}

type EntriesAndLastResponse struct {
	Entries   []models.DiaryEntry `json:"entries"`
	LastEntry *calendarday.Date   `json:"lastEntry"`
}
