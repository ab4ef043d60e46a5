package repositories

import (
	"os"
	"time"

	"github.com/diarycardhq/diarycard/internal/common"
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

type InvitationRepository struct {
	db core.DB
	common.Repository[uuid.UUID, models.Invitation, core.DB]
}

func NewInvitationRepository(db core.DB) *InvitationRepository {
	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		if err := db.AutoMigrate(&models.Invitation{}); err != nil {
			panic(err)
		}
	}
	return &InvitationRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.Invitation](db),
	}
}

func (g *InvitationRepository) FindByToken(token string) (models.Invitation, error) {
	var t models.Invitation
	err := g.db.Preload("Organization").Where("token = ?", token).First(&t).Error
	return t, err
}

func (g *InvitationRepository) ListByOrg(orgID uuid.UUID) ([]models.Invitation, error) {
	var ts []models.Invitation
	err := g.db.Where("organization_id = ?", orgID).Order("created_at desc").Find(&ts).Error
	return ts, err
}

func (g *InvitationRepository) Save(tx core.DB, invitation *models.Invitation) error {
	return g.GetDB(tx).Omit(clause.Associations).Save(invitation).Error
}

// MarkConsumed stamps the invitation if and only if it is still unconsumed.
// The guard runs in the update itself, so two concurrent consumes cannot
// both succeed.
func (g *InvitationRepository) MarkConsumed(tx core.DB, id, userID uuid.UUID, now time.Time) (bool, error) {
	res := g.GetDB(tx).Model(&models.Invitation{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Updates(map[string]any{"consumed_at": now, "consumed_by": userID})
	return res.RowsAffected == 1, res.Error
}
