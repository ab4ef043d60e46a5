package repositories

import (
	"fmt"
	"os"

	"github.com/diarycardhq/diarycard/internal/common"
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"
	"github.com/google/uuid"
)

type OrgRepository struct {
	db core.DB
	common.Repository[uuid.UUID, models.Org, core.DB]
}

func NewOrgRepository(db core.DB) *OrgRepository {
	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		if err := db.AutoMigrate(&models.Org{}); err != nil {
			panic(err)
		}
	}
	return &OrgRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.Org](db),
	}
}

func (g *OrgRepository) Create(tx core.DB, org *models.Org) error {
	firstFreeSlug, err := g.firstFreeSlug(org.Slug)
	if err != nil {
		return fmt.Errorf("could not generate next slug: %w", err)
	}
	org.Slug = firstFreeSlug

	return g.GetDB(tx).Create(org).Error
}

func (g *OrgRepository) ReadBySlug(slug string) (models.Org, error) {
	var t models.Org
	err := g.db.Where("slug = ?", slug).First(&t).Error
	return t, err
}

// ReadAny returns the single organization of the deployment. The bootstrap
// endpoint rejects a second create, so at most one row exists.
func (g *OrgRepository) ReadAny() (models.Org, error) {
	var t models.Org
	err := g.db.Order("created_at asc").First(&t).Error
	return t, err
}

func (g *OrgRepository) Count() (int64, error) {
	var count int64
	err := g.db.Model(&models.Org{}).Count(&count).Error
	return count, err
}

func (g *OrgRepository) firstFreeSlug(organizationSlug string) (string, error) {
	var slugs []string
	err := g.db.Model(&models.Org{}).
		Where("slug LIKE ?", organizationSlug+"%").
		Pluck("slug", &slugs).Error
	if err != nil {
		return "", err
	}

	baseTaken := false
	existing := make(map[string]bool)
	for _, s := range slugs {
		existing[s] = true
		if s == organizationSlug {
			baseTaken = true
		}
	}

	if !baseTaken {
		return organizationSlug, nil
	}

	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", organizationSlug, i)
		if !existing[candidate] {
			return candidate, nil
		}
	}
}
