package org_test

import (
	"fmt"
	"sort"
	"time"

	"github.com/diarycardhq/diarycard/internal/accesscontrol"
	"github.com/diarycardhq/diarycard/internal/calendarday"
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/core/org"
	"github.com/diarycardhq/diarycard/internal/database/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The fakes embed the repository interfaces so only the methods the service
// actually uses need an implementation; anything else panics loudly.

type fakeOrgRepo struct {
	core.OrganizationRepository
	orgs []models.Org
}

func (f *fakeOrgRepo) Count() (int64, error) { return int64(len(f.orgs)), nil }

func (f *fakeOrgRepo) Create(_ core.DB, o *models.Org) error {
	o.ID = uuid.New()
	f.orgs = append(f.orgs, *o)
	return nil
}

func (f *fakeOrgRepo) ReadAny() (models.Org, error) {
	if len(f.orgs) == 0 {
		return models.Org{}, gorm.ErrRecordNotFound
	}
	return f.orgs[0], nil
}

func (f *fakeOrgRepo) Transaction(fn func(tx core.DB) error) error { return fn(nil) }

type fakeUserRepo struct {
	core.UserRepository
	byEmail map[string]models.User

	// beforeTransaction runs right before the transaction body, standing in
	// for work another request commits first.
	beforeTransaction func()
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]models.User{}}
}

func (f *fakeUserRepo) addUser(email string) models.User {
	user := models.User{Email: email}
	user.ID = uuid.New()
	f.byEmail[email] = user
	return user
}

func (f *fakeUserRepo) FindByEmail(email string) (models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) EnsureByEmail(_ core.DB, email string) (models.User, error) {
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return f.addUser(email), nil
}

func (f *fakeUserRepo) Transaction(fn func(tx core.DB) error) error {
	if f.beforeTransaction != nil {
		f.beforeTransaction()
	}
	return fn(nil)
}

type fakeMembershipRepo struct {
	core.MembershipRepository
	rows map[uuid.UUID]*models.Membership
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{rows: map[uuid.UUID]*models.Membership{}}
}

func (f *fakeMembershipRepo) add(orgID, userID uuid.UUID, role models.Role, managerID *uuid.UUID) models.Membership {
	m := models.Membership{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		ManagerID:      managerID,
	}
	m.ID = uuid.New()
	f.rows[m.ID] = &m
	return m
}

func (f *fakeMembershipRepo) Read(id uuid.UUID) (models.Membership, error) {
	m, ok := f.rows[id]
	if !ok {
		return models.Membership{}, gorm.ErrRecordNotFound
	}
	return *m, nil
}

func (f *fakeMembershipRepo) Save(_ core.DB, m *models.Membership) error {
	copied := *m
	f.rows[m.ID] = &copied
	return nil
}

func (f *fakeMembershipRepo) FindByOrgAndUser(orgID, userID uuid.UUID) (models.Membership, error) {
	for _, m := range f.rows {
		if m.OrganizationID == orgID && m.UserID == userID {
			return *m, nil
		}
	}
	return models.Membership{}, gorm.ErrRecordNotFound
}

func (f *fakeMembershipRepo) Upsert(_ core.DB, orgID, userID uuid.UUID, role models.Role, managerID *uuid.UUID) (models.Membership, error) {
	for _, m := range f.rows {
		if m.OrganizationID == orgID && m.UserID == userID {
			m.Role = role
			m.ManagerID = managerID
			return *m, nil
		}
	}
	return f.add(orgID, userID, role, managerID), nil
}

func (f *fakeMembershipRepo) EnsureDefault(_ core.DB, orgID, userID uuid.UUID) (models.Membership, error) {
	if m, err := f.FindByOrgAndUser(orgID, userID); err == nil {
		return m, nil
	}
	return f.add(orgID, userID, models.RoleUser, nil), nil
}

func (f *fakeMembershipRepo) sorted(filter func(*models.Membership) bool) []models.Membership {
	var ms []models.Membership
	for _, m := range f.rows {
		if filter(m) {
			ms = append(ms, *m)
		}
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID.String() < ms[j].ID.String() })
	return ms
}

func (f *fakeMembershipRepo) ListByOrg(orgID uuid.UUID) ([]models.Membership, error) {
	return f.sorted(func(m *models.Membership) bool { return m.OrganizationID == orgID }), nil
}

func (f *fakeMembershipRepo) ListByRole(orgID uuid.UUID, role models.Role) ([]models.Membership, error) {
	return f.sorted(func(m *models.Membership) bool {
		return m.OrganizationID == orgID && m.Role == role
	}), nil
}

func (f *fakeMembershipRepo) ListByManager(orgID, managerID uuid.UUID) ([]models.Membership, error) {
	return f.sorted(func(m *models.Membership) bool {
		return m.OrganizationID == orgID && m.Role == models.RoleUser &&
			m.ManagerID != nil && *m.ManagerID == managerID
	}), nil
}

func (f *fakeMembershipRepo) ClearManagerRefs(_ core.DB, orgID, managerMembershipID uuid.UUID) error {
	for _, m := range f.rows {
		if m.OrganizationID == orgID && m.ManagerID != nil && *m.ManagerID == managerMembershipID {
			m.ManagerID = nil
		}
	}
	return nil
}

func (f *fakeMembershipRepo) Transaction(fn func(tx core.DB) error) error { return fn(nil) }

type fakeInvitationRepo struct {
	core.InvitationRepository
	rows map[uuid.UUID]*models.Invitation

	// beforeTransaction runs right before the transaction body, standing in
	// for work another request commits first.
	beforeTransaction func()
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{rows: map[uuid.UUID]*models.Invitation{}}
}

func (f *fakeInvitationRepo) Create(_ core.DB, i *models.Invitation) error {
	i.ID = uuid.New()
	copied := *i
	f.rows[i.ID] = &copied
	return nil
}

func (f *fakeInvitationRepo) Read(id uuid.UUID) (models.Invitation, error) {
	i, ok := f.rows[id]
	if !ok {
		return models.Invitation{}, gorm.ErrRecordNotFound
	}
	return *i, nil
}

func (f *fakeInvitationRepo) FindByToken(token string) (models.Invitation, error) {
	for _, i := range f.rows {
		if i.Token == token {
			return *i, nil
		}
	}
	return models.Invitation{}, gorm.ErrRecordNotFound
}

func (f *fakeInvitationRepo) Save(_ core.DB, i *models.Invitation) error {
	copied := *i
	f.rows[i.ID] = &copied
	return nil
}

func (f *fakeInvitationRepo) Delete(_ core.DB, id uuid.UUID) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeInvitationRepo) ListByOrg(orgID uuid.UUID) ([]models.Invitation, error) {
	var is []models.Invitation
	for _, i := range f.rows {
		if i.OrganizationID == orgID {
			is = append(is, *i)
		}
	}
	return is, nil
}

func (f *fakeInvitationRepo) MarkConsumed(_ core.DB, id, userID uuid.UUID, now time.Time) (bool, error) {
	i, ok := f.rows[id]
	if !ok || i.ConsumedAt != nil {
		return false, nil
	}
	at := now
	i.ConsumedAt = &at
	i.ConsumedBy = &userID
	return true, nil
}

func (f *fakeInvitationRepo) Transaction(fn func(tx core.DB) error) error {
	if f.beforeTransaction != nil {
		f.beforeTransaction()
	}
	return fn(nil)
}

type fakeSessionRepo struct {
	core.SessionRepository
	sessions []models.Session
}

func (f *fakeSessionRepo) Create(_ core.DB, s *models.Session) error {
	s.ID = uuid.New()
	f.sessions = append(f.sessions, *s)
	return nil
}

func (f *fakeSessionRepo) FindByToken(token string) (models.Session, error) {
	for _, s := range f.sessions {
		if s.Token == token {
			return s, nil
		}
	}
	return models.Session{}, gorm.ErrRecordNotFound
}

type fakeDiaryRepo struct {
	core.DiaryEntryRepository
	entries map[uuid.UUID][]models.DiaryEntry // keyed by user id
}

func newFakeDiaryRepo() *fakeDiaryRepo {
	return &fakeDiaryRepo{entries: map[uuid.UUID][]models.DiaryEntry{}}
}

func (f *fakeDiaryRepo) addEntry(userID uuid.UUID, day calendarday.Date) models.DiaryEntry {
	entry := models.DiaryEntry{UserID: userID, EntryDate: day}
	entry.ID = uuid.New()
	f.entries[userID] = append(f.entries[userID], entry)
	return entry
}

func (f *fakeDiaryRepo) inRange(userID uuid.UUID, start, end calendarday.Date) []models.DiaryEntry {
	result := []models.DiaryEntry{}
	for _, e := range f.entries[userID] {
		if !e.EntryDate.Before(start) && !e.EntryDate.After(end) {
			result = append(result, e)
		}
	}
	return result
}

func (f *fakeDiaryRepo) FindRange(userID uuid.UUID, start, end calendarday.Date) ([]models.DiaryEntry, error) {
	return f.inRange(userID, start, end), nil
}

func (f *fakeDiaryRepo) FindRecent(userID uuid.UUID, limit int) ([]models.DiaryEntry, error) {
	entries := f.entries[userID]
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func (f *fakeDiaryRepo) ReadWithChildren(id uuid.UUID) (models.DiaryEntry, error) {
	for _, entries := range f.entries {
		for _, e := range entries {
			if e.ID == id {
				return e, nil
			}
		}
	}
	return models.DiaryEntry{}, gorm.ErrRecordNotFound
}

func (f *fakeDiaryRepo) CountByUserInRange(userIDs []uuid.UUID, start, end calendarday.Date) (map[uuid.UUID]int64, error) {
	counts := map[uuid.UUID]int64{}
	for _, id := range userIDs {
		counts[id] = int64(len(f.inRange(id, start, end)))
	}
	return counts, nil
}

func (f *fakeDiaryRepo) LastEntryDate(userID uuid.UUID) (*calendarday.Date, error) {
	entries := f.entries[userID]
	if len(entries) == 0 {
		return nil, nil
	}
	last := entries[0].EntryDate
	for _, e := range entries {
		if e.EntryDate.After(last) {
			last = e.EntryDate
		}
	}
	return &last, nil
}

func (f *fakeDiaryRepo) EmotionAverages(_ []uuid.UUID, _, _ calendarday.Date) ([]core.EmotionAverage, error) {
	return []core.EmotionAverage{}, nil
}

func (f *fakeDiaryRepo) SkillUsageCounts(_ []uuid.UUID, _, _ calendarday.Date) ([]core.SkillUsageCount, error) {
	return []core.SkillUsageCount{}, nil
}

type fakeNotifier struct {
	sent []string // invited addresses
	err  error
}

func (f *fakeNotifier) SendInvite(email, link string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

type fakeRBAC struct {
	roles    map[string]string // subject -> role
	policies []string
}

func newFakeRBAC() *fakeRBAC { return &fakeRBAC{roles: map[string]string{}} }

func (f *fakeRBAC) HasAccess(subject string) bool {
	_, ok := f.roles[subject]
	return ok
}

func (f *fakeRBAC) GrantRole(subject, role string) error {
	f.roles[subject] = role
	return nil
}

func (f *fakeRBAC) RevokeRole(subject, role string) error {
	if f.roles[subject] == role {
		delete(f.roles, subject)
	}
	return nil
}

func (f *fakeRBAC) RevokeAllRoles(subject string) error {
	delete(f.roles, subject)
	return nil
}

func (f *fakeRBAC) InheritRole(child, parent string) error {
	f.policies = append(f.policies, fmt.Sprintf("g:%s->%s", child, parent))
	return nil
}

func (f *fakeRBAC) AllowRole(role string, object accesscontrol.Object, actions []accesscontrol.Action) error {
	for _, action := range actions {
		f.policies = append(f.policies, fmt.Sprintf("p:%s:%s:%s", role, object, action))
	}
	return nil
}

func (f *fakeRBAC) IsAllowed(subject string, object accesscontrol.Object, action accesscontrol.Action) (bool, error) {
	return f.HasAccess(subject), nil
}

type fakeRBACProvider struct {
	rbac *fakeRBAC
}

func (f *fakeRBACProvider) GetDomainRBAC(domain string) accesscontrol.AccessControl { return f.rbac }

func (f *fakeRBACProvider) DomainsOfUser(user string) ([]string, error) { return nil, nil }

// testEnv bundles the service with every fake it talks to.
type testEnv struct {
	service     *org.Service
	orgs        *fakeOrgRepo
	users       *fakeUserRepo
	memberships *fakeMembershipRepo
	invitations *fakeInvitationRepo
	sessions    *fakeSessionRepo
	diary       *fakeDiaryRepo
	notifier    *fakeNotifier
	rbac        *fakeRBAC

	organization models.Org
}

func newTestEnv() *testEnv {
	env := &testEnv{
		orgs:        &fakeOrgRepo{},
		users:       newFakeUserRepo(),
		memberships: newFakeMembershipRepo(),
		invitations: newFakeInvitationRepo(),
		sessions:    &fakeSessionRepo{},
		diary:       newFakeDiaryRepo(),
		notifier:    &fakeNotifier{},
		rbac:        newFakeRBAC(),
	}
	env.service = org.NewService(
		env.orgs,
		env.users,
		env.memberships,
		env.invitations,
		env.sessions,
		env.diary,
		env.notifier,
		&fakeRBACProvider{rbac: env.rbac},
		"http://localhost:3000",
	)

	env.organization = models.Org{Name: "Acme Clinic", Slug: "acme-clinic"}
	env.organization.ID = uuid.New()
	env.orgs.orgs = append(env.orgs.orgs, env.organization)
	return env
}
