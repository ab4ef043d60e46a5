package repositories

import (
	"os"

	"github.com/diarycardhq/diarycard/internal/common"
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"
	"github.com/google/uuid"
)

type LoginTokenRepository struct {
	db core.DB
	common.Repository[uuid.UUID, models.LoginToken, core.DB]
}

func NewLoginTokenRepository(db core.DB) *LoginTokenRepository {
	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		if err := db.AutoMigrate(&models.LoginToken{}); err != nil {
			panic(err)
		}
	}
	return &LoginTokenRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.LoginToken](db),
	}
}

func (g *LoginTokenRepository) FindByToken(token string) (models.LoginToken, error) {
	var t models.LoginToken
	err := g.db.Where("token = ?", token).First(&t).Error
	return t, err
}
