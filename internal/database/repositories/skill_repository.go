package repositories

import (
	"os"

	"github.com/diarycardhq/diarycard/internal/common"
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

type SkillRepository struct {
	db core.DB
	common.Repository[uuid.UUID, models.DBTSkill, core.DB]
}

func NewSkillRepository(db core.DB) *SkillRepository {
	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		if err := db.AutoMigrate(&models.DBTSkill{}); err != nil {
			panic(err)
		}
	}
	return &SkillRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.DBTSkill](db),
	}
}

func (g *SkillRepository) ListByModule(module models.SkillModule) ([]models.DBTSkill, error) {
	var ts []models.DBTSkill
	err := g.db.Where("module = ?", module).Order("name asc").Find(&ts).Error
	return ts, err
}

// FindByNames resolves skill names to catalog rows. Names without a catalog
// entry are simply absent from the result.
func (g *SkillRepository) FindByNames(names []string) ([]models.DBTSkill, error) {
	if len(names) == 0 {
		return []models.DBTSkill{}, nil
	}
	var ts []models.DBTSkill
	err := g.db.Where("name IN ?", names).Find(&ts).Error
	return ts, err
}

// SeedCatalog inserts the fixed skill catalog, skipping rows that already
// exist.
func (g *SkillRepository) SeedCatalog(skills []models.DBTSkill) error {
	if len(skills) == 0 {
		return nil
	}
	return g.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&skills).Error
}
