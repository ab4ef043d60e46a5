package org

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const sessionValidity = 30 * 24 * time.Hour

// errAlreadyConsumed surfaces from the consume transaction when the
// conditional consumed-marking hit zero rows.
var errAlreadyConsumed = errors.New("invitation was consumed concurrently")

// effectiveManagerRef drops an invitation's manager reference when it no
// longer points at a MANAGER membership of the organization. Invitations can
// outlive a demotion or removal of the referenced manager.
func (s *Service) effectiveManagerRef(orgID uuid.UUID, managerID *uuid.UUID) *uuid.UUID {
	if managerID == nil {
		return nil
	}
	manager, err := s.membershipRepository.Read(*managerID)
	if err != nil || manager.OrganizationID != orgID || manager.Role != models.RoleManager {
		return nil
	}
	return managerID
}

func (s *Service) inviteLink(token string) string {
	return fmt.Sprintf("%s/api/invite/accept/%s", strings.TrimRight(s.publicURL, "/"), token)
}

// AssignByEmail either attaches an existing user to the organization or
// creates a pending invitation for an address nobody has signed in with yet.
// Calling it again for an existing member is an idempotent role/manager
// update.
func (s *Service) AssignByEmail(organization models.Org, req AssignByEmailRequest) (AssignByEmailResponse, error) {
	email := strings.ToLower(req.Email)
	role := req.Role
	managerID := req.ManagerID

	if !role.Valid() {
		return AssignByEmailResponse{}, echo.NewHTTPError(400, fmt.Sprintf("invalid role %q", role))
	}
	if role != models.RoleUser {
		managerID = nil
	}
	if managerID != nil {
		if err := s.validateManagerRef(organization, *managerID); err != nil {
			return AssignByEmailResponse{}, err
		}
	}

	user, err := s.userRepository.FindByEmail(email)
	if err == nil {
		membership, err := s.membershipRepository.Upsert(nil, organization.ID, user.ID, role, managerID)
		if err != nil {
			return AssignByEmailResponse{}, echo.NewHTTPError(500, "could not assign member").WithInternal(err)
		}
		if err := s.syncRBACRole(organization.ID, user.ID, role); err != nil {
			return AssignByEmailResponse{}, echo.NewHTTPError(500, "could not update member permissions").WithInternal(err)
		}
		membership.User = user
		dto := memberToDTO(membership)
		return AssignByEmailResponse{Status: StatusAssigned, Membership: &dto}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return AssignByEmailResponse{}, echo.NewHTTPError(500, "could not look up user").WithInternal(err)
	}

	token, err := newInviteToken()
	if err != nil {
		return AssignByEmailResponse{}, echo.NewHTTPError(500, "could not generate invitation token").WithInternal(err)
	}

	invitation := models.Invitation{
		OrganizationID: organization.ID,
		Email:          email,
		Role:           role,
		ManagerID:      managerID,
		Token:          token,
		ExpiresAt:      time.Now().Add(inviteValidity),
	}
	if err := s.invitationRepository.Create(nil, &invitation); err != nil {
		return AssignByEmailResponse{}, echo.NewHTTPError(500, "could not create invitation").WithInternal(err)
	}

	link := s.inviteLink(token)
	// delivery is best effort, the invitation exists either way and the link
	// is handed back to the admin
	if err := s.notifier.SendInvite(email, link); err != nil {
		slog.Warn("could not deliver invitation mail", "email", email, "err", err)
	}

	return AssignByEmailResponse{
		Status:    StatusInvited,
		InviteID:  &invitation.ID,
		ExpiresAt: &invitation.ExpiresAt,
		Link:      link,
	}, nil
}

func (s *Service) ListInvites(organization models.Org) ([]InviteDTO, error) {
	invitations, err := s.invitationRepository.ListByOrg(organization.ID)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not list invitations").WithInternal(err)
	}

	now := time.Now()
	dtos := make([]InviteDTO, 0, len(invitations))
	for _, invitation := range invitations {
		dtos = append(dtos, inviteToDTO(invitation, now))
	}
	return dtos, nil
}

func (s *Service) readOrgInvitation(organization models.Org, inviteID uuid.UUID) (models.Invitation, error) {
	invitation, err := s.invitationRepository.Read(inviteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Invitation{}, echo.NewHTTPError(404, "invitation not found").WithInternal(err)
		}
		return models.Invitation{}, echo.NewHTTPError(500, "could not read invitation").WithInternal(err)
	}
	if invitation.OrganizationID != organization.ID {
		return models.Invitation{}, echo.NewHTTPError(404, "invitation not found")
	}
	return invitation, nil
}

// ResendInvite re-triggers the notification for a still pending invitation.
// Token and expiry stay untouched.
func (s *Service) ResendInvite(organization models.Org, inviteID uuid.UUID) (AssignByEmailResponse, error) {
	invitation, err := s.readOrgInvitation(organization, inviteID)
	if err != nil {
		return AssignByEmailResponse{}, err
	}
	if invitation.State(time.Now()) != models.InvitationPending {
		return AssignByEmailResponse{}, echo.NewHTTPError(409, "invitation is no longer pending")
	}

	link := s.inviteLink(invitation.Token)
	if err := s.notifier.SendInvite(invitation.Email, link); err != nil {
		slog.Warn("could not deliver invitation mail", "email", invitation.Email, "err", err)
	}

	return AssignByEmailResponse{
		Status:    StatusInvited,
		InviteID:  &invitation.ID,
		ExpiresAt: &invitation.ExpiresAt,
		Link:      link,
	}, nil
}

// RevokeInvite deletes a pending invitation. Consumed and expired
// invitations are terminal and stay around as an audit trail.
func (s *Service) RevokeInvite(organization models.Org, inviteID uuid.UUID) error {
	invitation, err := s.readOrgInvitation(organization, inviteID)
	if err != nil {
		return err
	}
	if invitation.State(time.Now()) != models.InvitationPending {
		return echo.NewHTTPError(409, "only pending invitations can be revoked")
	}
	if err := s.invitationRepository.Delete(nil, invitation.ID); err != nil {
		return echo.NewHTTPError(500, "could not revoke invitation").WithInternal(err)
	}
	return nil
}

// ConsumeInvite redeems the token for an authenticated caller. The link is
// bound to the invited address, not to whichever session clicks it. The
// membership upsert and the consumed marking commit together.
func (s *Service) ConsumeInvite(token string, userID uuid.UUID, email string) (models.Membership, error) {
	invitation, err := s.invitationRepository.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Membership{}, echo.NewHTTPError(404, "invitation not found").WithInternal(err)
		}
		return models.Membership{}, echo.NewHTTPError(500, "could not read invitation").WithInternal(err)
	}

	now := time.Now()
	if invitation.ConsumedAt != nil {
		return models.Membership{}, echo.NewHTTPError(409, "invitation was already consumed")
	}
	if !now.Before(invitation.ExpiresAt) {
		return models.Membership{}, echo.NewHTTPError(400, "invitation is expired")
	}
	if strings.ToLower(email) != invitation.Email {
		return models.Membership{}, echo.NewHTTPError(403, "invitation was issued to a different email address")
	}

	managerID := s.effectiveManagerRef(invitation.OrganizationID, invitation.ManagerID)

	var membership models.Membership
	err = s.invitationRepository.Transaction(func(tx core.DB) error {
		consumed, err := s.invitationRepository.MarkConsumed(tx, invitation.ID, userID, now)
		if err != nil {
			return err
		}
		if !consumed {
			return errAlreadyConsumed
		}
		membership, err = s.membershipRepository.Upsert(tx, invitation.OrganizationID, userID, invitation.Role, managerID)
		return err
	})
	if errors.Is(err, errAlreadyConsumed) {
		return models.Membership{}, echo.NewHTTPError(409, "invitation was already consumed")
	}
	if err != nil {
		return models.Membership{}, echo.NewHTTPError(500, "could not consume invitation").WithInternal(err)
	}

	if err := s.syncRBACRole(invitation.OrganizationID, userID, invitation.Role); err != nil {
		return models.Membership{}, echo.NewHTTPError(500, "could not update member permissions").WithInternal(err)
	}

	return membership, nil
}

// AcceptResult tells the HTTP layer where to redirect and which session
// cookie to set. SessionToken stays empty when no session was issued.
type AcceptResult struct {
	RedirectTo    string
	SessionToken  string
	SessionExpiry time.Time
}

// AcceptInvite is the unauthenticated magic-link variant: it creates the
// user on the fly, runs the same membership-upsert + consume transaction and
// issues a session. It never errors destructively; every failure path turns
// into a neutral redirect that leaks nothing about the invitation.
func (s *Service) AcceptInvite(token string) AcceptResult {
	appRoot := strings.TrimRight(s.publicURL, "/") + "/"
	invalidLanding := appRoot + "invite/invalid"

	invitation, err := s.invitationRepository.FindByToken(token)
	if err != nil {
		return AcceptResult{RedirectTo: invalidLanding}
	}

	now := time.Now()
	switch invitation.State(now) {
	case models.InvitationConsumed:
		// the invitee probably clicked twice, send them to the app
		return AcceptResult{RedirectTo: appRoot}
	case models.InvitationExpired:
		return AcceptResult{RedirectTo: invalidLanding}
	}

	managerID := s.effectiveManagerRef(invitation.OrganizationID, invitation.ManagerID)

	var user models.User
	err = s.userRepository.Transaction(func(tx core.DB) error {
		var err error
		user, err = s.userRepository.EnsureByEmail(tx, invitation.Email)
		if err != nil {
			return err
		}
		consumed, err := s.invitationRepository.MarkConsumed(tx, invitation.ID, user.ID, now)
		if err != nil {
			return err
		}
		if !consumed {
			return errAlreadyConsumed
		}
		_, err = s.membershipRepository.Upsert(tx, invitation.OrganizationID, user.ID, invitation.Role, managerID)
		return err
	})
	if errors.Is(err, errAlreadyConsumed) {
		// a concurrent click consumed it first, the member exists
		return AcceptResult{RedirectTo: appRoot}
	}
	if err != nil {
		slog.Error("could not accept invitation", "err", err)
		return AcceptResult{RedirectTo: invalidLanding}
	}

	if err := s.syncRBACRole(invitation.OrganizationID, user.ID, invitation.Role); err != nil {
		slog.Error("could not sync permissions after invitation acceptance", "err", err)
	}

	session := models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(sessionValidity),
	}
	if err := s.sessionRepository.Create(nil, &session); err != nil {
		// membership exists, the invitee can still sign in the normal way
		slog.Error("could not create session after invitation acceptance", "err", err)
		return AcceptResult{RedirectTo: appRoot}
	}

	return AcceptResult{
		RedirectTo:    appRoot,
		SessionToken:  session.Token,
		SessionExpiry: session.ExpiresAt,
	}
}
