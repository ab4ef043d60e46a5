package core

import (
	"time"

	"github.com/diarycardhq/diarycard/internal/calendarday"
	"github.com/diarycardhq/diarycard/internal/common"
	"github.com/diarycardhq/diarycard/internal/database/models"
	"github.com/google/uuid"
)

type OrganizationRepository interface {
	common.Repository[uuid.UUID, models.Org, DB]
	ReadBySlug(slug string) (models.Org, error)
	ReadAny() (models.Org, error)
	Count() (int64, error)
}

type UserRepository interface {
	common.Repository[uuid.UUID, models.User, DB]
	FindByEmail(email string) (models.User, error)
	EnsureByEmail(tx DB, email string) (models.User, error)
}

type MembershipRepository interface {
	common.Repository[uuid.UUID, models.Membership, DB]
	FindByOrgAndUser(orgID, userID uuid.UUID) (models.Membership, error)
	ListByOrg(orgID uuid.UUID) ([]models.Membership, error)
	ListByRole(orgID uuid.UUID, role models.Role) ([]models.Membership, error)
	ListByManager(orgID, managerMembershipID uuid.UUID) ([]models.Membership, error)
	Upsert(tx DB, orgID, userID uuid.UUID, role models.Role, managerID *uuid.UUID) (models.Membership, error)
	EnsureDefault(tx DB, orgID, userID uuid.UUID) (models.Membership, error)
	ClearManagerRefs(tx DB, orgID, managerMembershipID uuid.UUID) error
}

type InvitationRepository interface {
	common.Repository[uuid.UUID, models.Invitation, DB]
	FindByToken(token string) (models.Invitation, error)
	ListByOrg(orgID uuid.UUID) ([]models.Invitation, error)
	// MarkConsumed stamps the invitation if and only if it is still
	// unconsumed. The false return means another consume got there first.
	MarkConsumed(tx DB, id, userID uuid.UUID, now time.Time) (bool, error)
}

type SessionRepository interface {
	common.Repository[uuid.UUID, models.Session, DB]
	FindByToken(token string) (models.Session, error)
}

type LoginTokenRepository interface {
	common.Repository[uuid.UUID, models.LoginToken, DB]
	FindByToken(token string) (models.LoginToken, error)
}

// EmotionAverage is the per-emotion mean rating over a set of entries.
type EmotionAverage struct {
	Emotion models.Emotion `json:"emotion"`
	Avg     float64        `json:"avg"`
}

// SkillUsageCount counts how often a catalog skill was used.
type SkillUsageCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// EmotionTrendPoint is a single rating with the day it was recorded on.
type EmotionTrendPoint struct {
	Emotion models.Emotion   `json:"emotion"`
	Rating  int              `json:"rating"`
	Date    calendarday.Date `json:"date"`
}

// UrgePoint is a single urge occurrence with the day it was recorded on.
type UrgePoint struct {
	UrgeType  models.UrgeType  `json:"urgeType"`
	Intensity int              `json:"intensity"`
	ActedOn   bool             `json:"actedOn"`
	Date      calendarday.Date `json:"date"`
}

type DiaryEntryRepository interface {
	common.Repository[uuid.UUID, models.DiaryEntry, DB]
	FindByUserAndDate(userID uuid.UUID, date calendarday.Date) (models.DiaryEntry, error)
	FindForUpdate(tx DB, userID uuid.UUID, date calendarday.Date) (models.DiaryEntry, error)
	UpsertParent(tx DB, entry *models.DiaryEntry) error
	FindRange(userID uuid.UUID, start, end calendarday.Date) ([]models.DiaryEntry, error)
	FindRangeWithChildren(userID uuid.UUID, start, end calendarday.Date) ([]models.DiaryEntry, error)
	FindRecent(userID uuid.UUID, limit int) ([]models.DiaryEntry, error)
	ReadWithChildren(id uuid.UUID) (models.DiaryEntry, error)
	DeleteOwned(tx DB, id, userID uuid.UUID) error
	CountInRange(userID uuid.UUID, start, end calendarday.Date) (int64, error)
	CountByUserInRange(userIDs []uuid.UUID, start, end calendarday.Date) (map[uuid.UUID]int64, error)
	LastEntryDate(userID uuid.UUID) (*calendarday.Date, error)
	DeleteChildren(tx DB, entryID uuid.UUID) error
	CreateEmotionRatings(tx DB, ratings []models.EmotionRating) error
	CreateUrgeBehaviors(tx DB, urges []models.UrgeBehavior) error
	CreateSkillsUsed(tx DB, skills []models.SkillUsed) error
	EmotionAverages(userIDs []uuid.UUID, start, end calendarday.Date) ([]EmotionAverage, error)
	SkillUsageCounts(userIDs []uuid.UUID, start, end calendarday.Date) ([]SkillUsageCount, error)
	EmotionTrendPoints(userID uuid.UUID, start, end calendarday.Date, emotions []models.Emotion) ([]EmotionTrendPoint, error)
	UrgeOccurrences(userID uuid.UUID, start, end calendarday.Date) ([]UrgePoint, error)
}

type SkillRepository interface {
	common.Repository[uuid.UUID, models.DBTSkill, DB]
	ListByModule(module models.SkillModule) ([]models.DBTSkill, error)
	FindByNames(names []string) ([]models.DBTSkill, error)
	SeedCatalog(skills []models.DBTSkill) error
}

// InviteNotifier delivers the magic link to the invited address. Delivery is
// fire and forget: a failure is logged by the caller and never fails the
// inviting operation.
type InviteNotifier interface {
	SendInvite(email, link string) error
}

// SignInNotifier delivers the email sign-in link. Unlike invitations the link
// is the only way to complete the sign-in, so callers surface failures.
type SignInNotifier interface {
	SendSignInLink(email, link string) error
}
