package repositories

import (
	"os"
	"strings"

	"github.com/diarycardhq/diarycard/internal/common"
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db core.DB
	common.Repository[uuid.UUID, models.User, core.DB]
}

func NewUserRepository(db core.DB) *UserRepository {
	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		if err := db.AutoMigrate(&models.User{}); err != nil {
			panic(err)
		}
	}
	return &UserRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.User](db),
	}
}

func (g *UserRepository) FindByEmail(email string) (models.User, error) {
	var t models.User
	err := g.db.Where("email = ?", strings.ToLower(email)).First(&t).Error
	return t, err
}

// EnsureByEmail returns the user with the given email, creating it if absent.
// Two requests racing on the same brand-new email both end up with the one
// row that won the unique index. The conflict is absorbed by the insert
// itself; a constraint error raised here would abort the surrounding
// transaction on postgres.
func (g *UserRepository) EnsureByEmail(tx core.DB, email string) (models.User, error) {
	email = strings.ToLower(email)
	db := g.GetDB(tx)

	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, err
	}

	user = models.User{Email: email}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
		return models.User{}, err
	}
	if user.ID == uuid.Nil {
		// the unique index was won by a concurrent sign-in
		err = db.Where("email = ?", email).First(&user).Error
	}
	return user, err
}
