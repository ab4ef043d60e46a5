package org

import (
	"github.com/diarycardhq/diarycard/internal/authz"
	"github.com/diarycardhq/diarycard/internal/calendarday"
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func userIDs(memberships []models.Membership) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.UserID)
	}
	return ids
}

func (s *Service) memberSummaries(memberships []models.Membership, start, end calendarday.Date) ([]SummaryRow, error) {
	counts, err := s.diaryRepository.CountByUserInRange(userIDs(memberships), start, end)
	if err != nil {
		return nil, err
	}

	rows := make([]SummaryRow, 0, len(memberships))
	for _, m := range memberships {
		last, err := s.diaryRepository.LastEntryDate(m.UserID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, SummaryRow{
			MembershipID: m.ID,
			UserID:       m.UserID,
			Name:         m.User.DisplayName(),
			EntryCount:   counts[m.UserID],
			LastEntry:    last,
		})
	}
	return rows, nil
}

// ManagerUsers returns the caller's direct reports. A manager without any
// assigned users gets an empty list, not an error.
func (s *Service) ManagerUsers(organization models.Org, caller models.Membership) ([]MemberDTO, error) {
	team, err := s.membershipRepository.ListByManager(organization.ID, caller.ID)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not list team").WithInternal(err)
	}
	members := make([]MemberDTO, 0, len(team))
	for _, m := range team {
		members = append(members, memberToDTO(m))
	}
	return members, nil
}

func (s *Service) ManagerSummary(organization models.Org, caller models.Membership, start, end calendarday.Date) ([]SummaryRow, error) {
	team, err := s.membershipRepository.ListByManager(organization.ID, caller.ID)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not list team").WithInternal(err)
	}
	rows, err := s.memberSummaries(team, start, end)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not build team summary").WithInternal(err)
	}
	return rows, nil
}

func (s *Service) AdminUserSummary(organization models.Org, start, end calendarday.Date) ([]SummaryRow, error) {
	users, err := s.membershipRepository.ListByRole(organization.ID, models.RoleUser)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not list users").WithInternal(err)
	}
	rows, err := s.memberSummaries(users, start, end)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not build user summary").WithInternal(err)
	}
	return rows, nil
}

func (s *Service) AdminManagerSummary(organization models.Org, start, end calendarday.Date) ([]ManagerSummaryRow, error) {
	managers, err := s.membershipRepository.ListByRole(organization.ID, models.RoleManager)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not list managers").WithInternal(err)
	}

	rows := make([]ManagerSummaryRow, 0, len(managers))
	for _, manager := range managers {
		team, err := s.membershipRepository.ListByManager(organization.ID, manager.ID)
		if err != nil {
			return nil, echo.NewHTTPError(500, "could not list team").WithInternal(err)
		}
		counts, err := s.diaryRepository.CountByUserInRange(userIDs(team), start, end)
		if err != nil {
			return nil, echo.NewHTTPError(500, "could not count entries").WithInternal(err)
		}
		var total int64
		for _, c := range counts {
			total += c
		}
		rows = append(rows, ManagerSummaryRow{
			MembershipID: manager.ID,
			UserID:       manager.UserID,
			Name:         manager.User.DisplayName(),
			TeamSize:     len(team),
			EntryCount:   total,
		})
	}
	return rows, nil
}

func (s *Service) AdminManagerUsers(organization models.Org, managerID uuid.UUID) ([]MemberDTO, error) {
	manager, err := s.readOrgMembership(organization, managerID)
	if err != nil {
		return nil, err
	}
	if manager.Role != models.RoleManager {
		return nil, echo.NewHTTPError(404, "member is not a manager")
	}
	return s.ManagerUsers(organization, manager)
}

func (s *Service) AdminManagerSummaryFor(organization models.Org, managerID uuid.UUID, start, end calendarday.Date) ([]SummaryRow, error) {
	manager, err := s.readOrgMembership(organization, managerID)
	if err != nil {
		return nil, err
	}
	if manager.Role != models.RoleManager {
		return nil, echo.NewHTTPError(404, "member is not a manager")
	}
	return s.ManagerSummary(organization, manager, start, end)
}

// resolveTarget gates a drill-down on a member's data. The lookup and the
// scope decision are separate steps; authz.Collapse keeps the distinction
// for admins only.
func (s *Service) resolveTarget(caller models.Membership, targetUserID uuid.UUID) (models.Membership, error) {
	var target *models.Membership
	membership, err := s.membershipRepository.FindByOrgAndUser(caller.OrganizationID, targetUserID)
	if err == nil {
		target = &membership
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Membership{}, echo.NewHTTPError(500, "could not read member").WithInternal(err)
	}

	if err := authz.CanViewMember(caller, target); err != nil {
		return models.Membership{}, authz.Collapse(err, caller)
	}
	return membership, nil
}

func (s *Service) UserEntriesAndLast(caller models.Membership, targetUserID uuid.UUID, start, end calendarday.Date) (EntriesAndLastResponse, error) {
	if _, err := s.resolveTarget(caller, targetUserID); err != nil {
		return EntriesAndLastResponse{}, err
	}

	entries, err := s.diaryRepository.FindRange(targetUserID, start, end)
	if err != nil {
		return EntriesAndLastResponse{}, echo.NewHTTPError(500, "could not read entries").WithInternal(err)
	}
	last, err := s.diaryRepository.LastEntryDate(targetUserID)
	if err != nil {
		return EntriesAndLastResponse{}, echo.NewHTTPError(500, "could not read entries").WithInternal(err)
	}
	return EntriesAndLastResponse{Entries: entries, LastEntry: last}, nil
}

func (s *Service) UserRecentEntries(caller models.Membership, targetUserID uuid.UUID, limit int) ([]models.DiaryEntry, error) {
	if _, err := s.resolveTarget(caller, targetUserID); err != nil {
		return nil, err
	}

	entries, err := s.diaryRepository.FindRecent(targetUserID, limit)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not read entries").WithInternal(err)
	}
	return entries, nil
}

// UserEntryByID loads a single entry with children after re-validating the
// caller's scope against the entry owner's membership.
func (s *Service) UserEntryByID(caller models.Membership, entryID uuid.UUID) (models.DiaryEntry, error) {
	entry, err := s.diaryRepository.ReadWithChildren(entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DiaryEntry{}, authz.Collapse(authz.ErrTargetNotFound, caller)
		}
		return models.DiaryEntry{}, echo.NewHTTPError(500, "could not read entry").WithInternal(err)
	}

	if _, err := s.resolveTarget(caller, entry.UserID); err != nil {
		return models.DiaryEntry{}, err
	}
	return entry, nil
}

func (s *Service) AdminTrendsEmotions(organization models.Org, start, end calendarday.Date) ([]core.EmotionAverage, error) {
	memberships, err := s.membershipRepository.ListByOrg(organization.ID)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not list members").WithInternal(err)
	}
	return s.emotionAverages(userIDs(memberships), start, end)
}

func (s *Service) AdminTrendsSkills(organization models.Org, start, end calendarday.Date) ([]core.SkillUsageCount, error) {
	memberships, err := s.membershipRepository.ListByOrg(organization.ID)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not list members").WithInternal(err)
	}
	return s.skillUsageCounts(userIDs(memberships), start, end)
}

func (s *Service) ManagerTrendsEmotions(organization models.Org, caller models.Membership, start, end calendarday.Date) ([]core.EmotionAverage, error) {
	team, err := s.membershipRepository.ListByManager(organization.ID, caller.ID)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not list team").WithInternal(err)
	}
	return s.emotionAverages(userIDs(team), start, end)
}

func (s *Service) ManagerTrendsSkills(organization models.Org, caller models.Membership, start, end calendarday.Date) ([]core.SkillUsageCount, error) {
	team, err := s.membershipRepository.ListByManager(organization.ID, caller.ID)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not list team").WithInternal(err)
	}
	return s.skillUsageCounts(userIDs(team), start, end)
}

func (s *Service) emotionAverages(ids []uuid.UUID, start, end calendarday.Date) ([]core.EmotionAverage, error) {
	if len(ids) == 0 {
		return []core.EmotionAverage{}, nil
	}
	averages, err := s.diaryRepository.EmotionAverages(ids, start, end)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not aggregate emotions").WithInternal(err)
	}
	return averages, nil
}

func (s *Service) skillUsageCounts(ids []uuid.UUID, start, end calendarday.Date) ([]core.SkillUsageCount, error) {
	if len(ids) == 0 {
		return []core.SkillUsageCount{}, nil
	}
	counts, err := s.diaryRepository.SkillUsageCounts(ids, start, end)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not aggregate skills").WithInternal(err)
	}
	return counts, nil
}
