package repositories

import (
	"os"

	"github.com/diarycardhq/diarycard/internal/common"
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"
	"github.com/google/uuid"
)

type SessionRepository struct {
	db core.DB
	common.Repository[uuid.UUID, models.Session, core.DB]
}

func NewSessionRepository(db core.DB) *SessionRepository {
	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		if err := db.AutoMigrate(&models.Session{}); err != nil {
			panic(err)
		}
	}
	return &SessionRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.Session](db),
	}
}

func (g *SessionRepository) FindByToken(token string) (models.Session, error) {
	var t models.Session
	err := g.db.Preload("User").Where("token = ?", token).First(&t).Error
	return t, err
}
