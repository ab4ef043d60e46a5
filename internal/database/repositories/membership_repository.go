package repositories

import (
	"os"

	"github.com/diarycardhq/diarycard/internal/common"
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MembershipRepository struct {
	db core.DB
	common.Repository[uuid.UUID, models.Membership, core.DB]
}

func NewMembershipRepository(db core.DB) *MembershipRepository {
	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		if err := db.AutoMigrate(&models.Membership{}); err != nil {
			panic(err)
		}
	}
	return &MembershipRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.Membership](db),
	}
}

func (g *MembershipRepository) FindByOrgAndUser(orgID, userID uuid.UUID) (models.Membership, error) {
	var t models.Membership
	err := g.db.Where("organization_id = ? AND user_id = ?", orgID, userID).First(&t).Error
	return t, err
}

func (g *MembershipRepository) ListByOrg(orgID uuid.UUID) ([]models.Membership, error) {
	var ts []models.Membership
	err := g.db.Preload("User").Preload("Manager.User").
		Where("organization_id = ?", orgID).
		Order("created_at asc").
		Find(&ts).Error
	return ts, err
}

func (g *MembershipRepository) ListByRole(orgID uuid.UUID, role models.Role) ([]models.Membership, error) {
	var ts []models.Membership
	err := g.db.Preload("User").
		Where("organization_id = ? AND role = ?", orgID, role).
		Order("created_at asc").
		Find(&ts).Error
	return ts, err
}

// ListByManager returns the USER memberships assigned to the given manager
// membership.
func (g *MembershipRepository) ListByManager(orgID, managerMembershipID uuid.UUID) ([]models.Membership, error) {
	var ts []models.Membership
	err := g.db.Preload("User").
		Where("organization_id = ? AND manager_id = ? AND role = ?", orgID, managerMembershipID, models.RoleUser).
		Order("created_at asc").
		Find(&ts).Error
	return ts, err
}

// Upsert creates or updates the membership keyed by (organization, user).
// Insert and take-over of a row a concurrent create won are one statement; a
// constraint error raised here would abort the surrounding transaction on
// postgres.
func (g *MembershipRepository) Upsert(tx core.DB, orgID, userID uuid.UUID, role models.Role, managerID *uuid.UUID) (models.Membership, error) {
	membership := models.Membership{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		ManagerID:      managerID,
	}
	err := g.GetDB(tx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "organization_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "manager_id", "updated_at"}),
	}, clause.Returning{}).Create(&membership).Error
	if err != nil {
		return models.Membership{}, err
	}
	return membership, nil
}

// EnsureDefault creates a USER membership on first sign-in. Unlike Upsert it
// never touches an existing row.
func (g *MembershipRepository) EnsureDefault(tx core.DB, orgID, userID uuid.UUID) (models.Membership, error) {
	db := g.GetDB(tx)

	var membership models.Membership
	err := db.Where("organization_id = ? AND user_id = ?", orgID, userID).First(&membership).Error
	if err == nil {
		return membership, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Membership{}, err
	}

	membership = models.Membership{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           models.RoleUser,
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&membership).Error; err != nil {
		return models.Membership{}, err
	}
	if membership.ID == uuid.Nil {
		// a concurrent request created the row between the read and the
		// insert; do-nothing left it untouched and raised no error
		err = db.Where("organization_id = ? AND user_id = ?", orgID, userID).First(&membership).Error
	}
	return membership, err
}

// ClearManagerRefs detaches every report pointing at the given manager
// membership. Runs when that membership loses the MANAGER role.
func (g *MembershipRepository) ClearManagerRefs(tx core.DB, orgID, managerMembershipID uuid.UUID) error {
	return g.GetDB(tx).Model(&models.Membership{}).
		Where("organization_id = ? AND manager_id = ?", orgID, managerMembershipID).
		Update("manager_id", nil).Error
}
