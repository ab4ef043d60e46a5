package org

import (
	"fmt"

	"github.com/diarycardhq/diarycard/internal/accesscontrol"
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Service struct {
	orgRepository        core.OrganizationRepository
	userRepository       core.UserRepository
	membershipRepository core.MembershipRepository
	invitationRepository core.InvitationRepository
	sessionRepository    core.SessionRepository
	diaryRepository      core.DiaryEntryRepository
	notifier             core.InviteNotifier
	rbacProvider         accesscontrol.RBACProvider
	// publicURL is the externally reachable base url; invite links are built
	// from it.
	publicURL string
}

func NewService(
	orgRepository core.OrganizationRepository,
	userRepository core.UserRepository,
	membershipRepository core.MembershipRepository,
	invitationRepository core.InvitationRepository,
	sessionRepository core.SessionRepository,
	diaryRepository core.DiaryEntryRepository,
	notifier core.InviteNotifier,
	rbacProvider accesscontrol.RBACProvider,
	publicURL string,
) *Service {
	return &Service{
		orgRepository:        orgRepository,
		userRepository:       userRepository,
		membershipRepository: membershipRepository,
		invitationRepository: invitationRepository,
		sessionRepository:    sessionRepository,
		diaryRepository:      diaryRepository,
		notifier:             notifier,
		rbacProvider:         rbacProvider,
		publicURL:            publicURL,
	}
}

// CreateOrganization bootstraps the tenant. The deployment is single-tenant
// by policy: a second create is rejected, the model itself stays multi-tenant.
func (s *Service) CreateOrganization(req CreateRequest, callerID uuid.UUID) (models.Org, models.Membership, error) {
	count, err := s.orgRepository.Count()
	if err != nil {
		return models.Org{}, models.Membership{}, echo.NewHTTPError(500, "could not read organizations").WithInternal(err)
	}
	if count > 0 {
		return models.Org{}, models.Membership{}, echo.NewHTTPError(409, "an organization already exists")
	}

	organization := req.ToModel()
	var membership models.Membership
	err = s.orgRepository.Transaction(func(tx core.DB) error {
		if err := s.orgRepository.Create(tx, &organization); err != nil {
			return err
		}
		membership, err = s.membershipRepository.Upsert(tx, organization.ID, callerID, models.RoleAdmin, nil)
		return err
	})
	if err != nil {
		return models.Org{}, models.Membership{}, echo.NewHTTPError(500, "could not create organization").WithInternal(err)
	}

	if err := s.bootstrapRBAC(organization, callerID); err != nil {
		return models.Org{}, models.Membership{}, echo.NewHTTPError(500, "could not bootstrap organization permissions").WithInternal(err)
	}

	return organization, membership, nil
}

func (s *Service) bootstrapRBAC(organization models.Org, adminID uuid.UUID) error {
	rbac := s.rbacProvider.GetDomainRBAC(organization.ID.String())

	if err := rbac.InheritRole(accesscontrol.RoleAdmin, accesscontrol.RoleManager); err != nil {
		return err
	}
	if err := rbac.InheritRole(accesscontrol.RoleManager, accesscontrol.RoleUser); err != nil {
		return err
	}

	if err := rbac.AllowRole(accesscontrol.RoleAdmin, accesscontrol.ObjectOrganization, []accesscontrol.Action{
		accesscontrol.ActionUpdate,
	}); err != nil {
		return err
	}
	if err := rbac.AllowRole(accesscontrol.RoleAdmin, accesscontrol.ObjectMembers, []accesscontrol.Action{
		accesscontrol.ActionCreate,
		accesscontrol.ActionRead,
		accesscontrol.ActionUpdate,
		accesscontrol.ActionDelete,
	}); err != nil {
		return err
	}
	if err := rbac.AllowRole(accesscontrol.RoleAdmin, accesscontrol.ObjectInvitation, []accesscontrol.Action{
		accesscontrol.ActionCreate,
		accesscontrol.ActionRead,
		accesscontrol.ActionUpdate,
		accesscontrol.ActionDelete,
	}); err != nil {
		return err
	}
	if err := rbac.AllowRole(accesscontrol.RoleManager, accesscontrol.ObjectReports, []accesscontrol.Action{
		accesscontrol.ActionRead,
	}); err != nil {
		return err
	}
	if err := rbac.AllowRole(accesscontrol.RoleUser, accesscontrol.ObjectOrganization, []accesscontrol.Action{
		accesscontrol.ActionRead,
	}); err != nil {
		return err
	}
	if err := rbac.AllowRole(accesscontrol.RoleUser, accesscontrol.ObjectDiary, []accesscontrol.Action{
		accesscontrol.ActionCreate,
		accesscontrol.ActionRead,
		accesscontrol.ActionUpdate,
		accesscontrol.ActionDelete,
	}); err != nil {
		return err
	}

	return rbac.GrantRole(adminID.String(), accesscontrol.RoleAdmin)
}

func casbinRole(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return accesscontrol.RoleAdmin
	case models.RoleManager:
		return accesscontrol.RoleManager
	default:
		return accesscontrol.RoleUser
	}
}

// syncRBACRole keeps the casbin domain roles aligned with the membership
// role after any membership mutation.
func (s *Service) syncRBACRole(orgID, userID uuid.UUID, role models.Role) error {
	rbac := s.rbacProvider.GetDomainRBAC(orgID.String())
	if err := rbac.RevokeAllRoles(userID.String()); err != nil {
		return err
	}
	return rbac.GrantRole(userID.String(), casbinRole(role))
}

func (s *Service) ListMembers(organization models.Org) ([]MemberDTO, error) {
	memberships, err := s.membershipRepository.ListByOrg(organization.ID)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not list members").WithInternal(err)
	}

	members := make([]MemberDTO, 0, len(memberships))
	for _, m := range memberships {
		members = append(members, memberToDTO(m))
	}
	return members, nil
}

func (s *Service) readOrgMembership(organization models.Org, membershipID uuid.UUID) (models.Membership, error) {
	membership, err := s.membershipRepository.Read(membershipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Membership{}, echo.NewHTTPError(404, "member not found").WithInternal(err)
		}
		return models.Membership{}, echo.NewHTTPError(500, "could not read member").WithInternal(err)
	}
	if membership.OrganizationID != organization.ID {
		return models.Membership{}, echo.NewHTTPError(404, "member not found")
	}
	return membership, nil
}

func (s *Service) SetRole(organization models.Org, membershipID uuid.UUID, role models.Role) (MemberDTO, error) {
	if !role.Valid() {
		return MemberDTO{}, echo.NewHTTPError(400, fmt.Sprintf("invalid role %q", role))
	}

	membership, err := s.readOrgMembership(organization, membershipID)
	if err != nil {
		return MemberDTO{}, err
	}

	wasManager := membership.Role == models.RoleManager
	membership.Role = role
	// manager assignment only means something for USER members
	if role != models.RoleUser {
		membership.ManagerID = nil
	}
	err = s.membershipRepository.Transaction(func(tx core.DB) error {
		if err := s.membershipRepository.Save(tx, &membership); err != nil {
			return err
		}
		if wasManager && role != models.RoleManager {
			// reports must never point at a non-MANAGER membership
			return s.membershipRepository.ClearManagerRefs(tx, organization.ID, membership.ID)
		}
		return nil
	})
	if err != nil {
		return MemberDTO{}, echo.NewHTTPError(500, "could not update member role").WithInternal(err)
	}

	if err := s.syncRBACRole(organization.ID, membership.UserID, role); err != nil {
		return MemberDTO{}, echo.NewHTTPError(500, "could not update member permissions").WithInternal(err)
	}

	return memberToDTO(membership), nil
}

// AssignManager links a USER membership to a MANAGER membership of the same
// organization, or clears the link when managerID is nil.
func (s *Service) AssignManager(organization models.Org, membershipID uuid.UUID, managerID *uuid.UUID) (MemberDTO, error) {
	membership, err := s.readOrgMembership(organization, membershipID)
	if err != nil {
		return MemberDTO{}, err
	}
	if membership.Role != models.RoleUser {
		return MemberDTO{}, echo.NewHTTPError(400, "only USER members can be assigned a manager")
	}

	if managerID != nil {
		if err := s.validateManagerRef(organization, *managerID); err != nil {
			return MemberDTO{}, err
		}
	}

	membership.ManagerID = managerID
	if err := s.membershipRepository.Save(nil, &membership); err != nil {
		return MemberDTO{}, echo.NewHTTPError(500, "could not assign manager").WithInternal(err)
	}
	return memberToDTO(membership), nil
}

func (s *Service) validateManagerRef(organization models.Org, managerID uuid.UUID) error {
	manager, err := s.membershipRepository.Read(managerID)
	if err != nil || manager.OrganizationID != organization.ID {
		return echo.NewHTTPError(400, "manager membership does not exist in this organization").WithInternal(err)
	}
	if manager.Role != models.RoleManager {
		return echo.NewHTTPError(400, "manager membership does not have the MANAGER role")
	}
	return nil
}
