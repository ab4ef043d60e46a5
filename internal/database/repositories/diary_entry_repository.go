package repositories

import (
	"os"

	"github.com/diarycardhq/diarycard/internal/calendarday"
	"github.com/diarycardhq/diarycard/internal/common"
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DiaryEntryRepository struct {
	db core.DB
	common.Repository[uuid.UUID, models.DiaryEntry, core.DB]
}

func NewDiaryEntryRepository(db core.DB) *DiaryEntryRepository {
	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		if err := db.AutoMigrate(&models.DiaryEntry{}, &models.EmotionRating{}, &models.UrgeBehavior{}, &models.SkillUsed{}); err != nil {
			panic(err)
		}
	}
	return &DiaryEntryRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.DiaryEntry](db),
	}
}

func (g *DiaryEntryRepository) FindByUserAndDate(userID uuid.UUID, date calendarday.Date) (models.DiaryEntry, error) {
	var t models.DiaryEntry
	err := g.db.Preload("EmotionRatings").Preload("UrgeBehaviors").Preload("SkillsUsed.Skill").
		Where("user_id = ? AND entry_date = ?", userID, date).
		First(&t).Error
	return t, err
}

// UpsertParent inserts the entry or, when a concurrent request already won
// the (user, day) unique index, takes over the winning row. Insert and
// take-over are one statement; a constraint error raised here would abort
// the surrounding transaction on postgres.
func (g *DiaryEntryRepository) UpsertParent(tx core.DB, entry *models.DiaryEntry) error {
	return g.GetDB(tx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "entry_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"notes", "updated_at"}),
	}, clause.Returning{}).Create(entry).Error
}

func (g *DiaryEntryRepository) FindRange(userID uuid.UUID, start, end calendarday.Date) ([]models.DiaryEntry, error) {
	var ts []models.DiaryEntry
	err := g.db.Where("user_id = ? AND entry_date >= ? AND entry_date <= ?", userID, start, end).
		Order("entry_date asc").
		Find(&ts).Error
	return ts, err
}

func (g *DiaryEntryRepository) FindRangeWithChildren(userID uuid.UUID, start, end calendarday.Date) ([]models.DiaryEntry, error) {
	var ts []models.DiaryEntry
	err := g.db.Preload("EmotionRatings").Preload("UrgeBehaviors").Preload("SkillsUsed.Skill").
		Where("user_id = ? AND entry_date >= ? AND entry_date <= ?", userID, start, end).
		Order("entry_date asc").
		Find(&ts).Error
	return ts, err
}

func (g *DiaryEntryRepository) FindRecent(userID uuid.UUID, limit int) ([]models.DiaryEntry, error) {
	var ts []models.DiaryEntry
	err := g.db.Where("user_id = ?", userID).
		Order("entry_date desc").
		Limit(limit).
		Find(&ts).Error
	return ts, err
}

func (g *DiaryEntryRepository) ReadWithChildren(id uuid.UUID) (models.DiaryEntry, error) {
	var t models.DiaryEntry
	err := g.db.Preload("EmotionRatings").Preload("UrgeBehaviors").Preload("SkillsUsed.Skill").
		Where("id = ?", id).
		First(&t).Error
	return t, err
}

// FindForUpdate loads the bare entry row inside tx with a row lock, so two
// upserts for the same day serialize instead of interleaving their
// delete-then-insert phases.
func (g *DiaryEntryRepository) FindForUpdate(tx core.DB, userID uuid.UUID, date calendarday.Date) (models.DiaryEntry, error) {
	var t models.DiaryEntry
	err := g.GetDB(tx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND entry_date = ?", userID, date).
		First(&t).Error
	return t, err
}

func (g *DiaryEntryRepository) DeleteOwned(tx core.DB, id, userID uuid.UUID) error {
	return g.GetDB(tx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.DiaryEntry{}).Error
}

func (g *DiaryEntryRepository) CountInRange(userID uuid.UUID, start, end calendarday.Date) (int64, error) {
	var count int64
	err := g.db.Model(&models.DiaryEntry{}).
		Where("user_id = ? AND entry_date >= ? AND entry_date <= ?", userID, start, end).
		Count(&count).Error
	return count, err
}

func (g *DiaryEntryRepository) CountByUserInRange(userIDs []uuid.UUID, start, end calendarday.Date) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		UserID uuid.UUID
		Count  int64
	}
	err := g.db.Model(&models.DiaryEntry{}).
		Select("user_id, count(*) as count").
		Where("user_id IN ? AND entry_date >= ? AND entry_date <= ?", userIDs, start, end).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.UserID] = row.Count
	}
	return counts, nil
}

// LastEntryDate returns the most recent entry day, or nil when the user has
// no entries at all.
func (g *DiaryEntryRepository) LastEntryDate(userID uuid.UUID) (*calendarday.Date, error) {
	var t models.DiaryEntry
	err := g.db.Where("user_id = ?", userID).Order("entry_date desc").First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t.EntryDate, nil
}

// DeleteChildren removes every child row of an entry. Callers run this inside
// the same transaction as the bulk insert that follows, so a concurrent
// reader sees either the old set or the new set, never a mix.
func (g *DiaryEntryRepository) DeleteChildren(tx core.DB, entryID uuid.UUID) error {
	db := g.GetDB(tx)
	if err := db.Where("entry_id = ?", entryID).Delete(&models.EmotionRating{}).Error; err != nil {
		return err
	}
	if err := db.Where("entry_id = ?", entryID).Delete(&models.UrgeBehavior{}).Error; err != nil {
		return err
	}
	return db.Where("entry_id = ?", entryID).Delete(&models.SkillUsed{}).Error
}

func (g *DiaryEntryRepository) CreateEmotionRatings(tx core.DB, ratings []models.EmotionRating) error {
	if len(ratings) == 0 {
		return nil
	}
	return g.GetDB(tx).Create(&ratings).Error
}

func (g *DiaryEntryRepository) CreateUrgeBehaviors(tx core.DB, urges []models.UrgeBehavior) error {
	if len(urges) == 0 {
		return nil
	}
	return g.GetDB(tx).Create(&urges).Error
}

func (g *DiaryEntryRepository) CreateSkillsUsed(tx core.DB, skills []models.SkillUsed) error {
	if len(skills) == 0 {
		return nil
	}
	return g.GetDB(tx).Create(&skills).Error
}

func (g *DiaryEntryRepository) EmotionAverages(userIDs []uuid.UUID, start, end calendarday.Date) ([]core.EmotionAverage, error) {
	if len(userIDs) == 0 {
		return []core.EmotionAverage{}, nil
	}
	var rows []core.EmotionAverage
	err := g.db.Model(&models.EmotionRating{}).
		Select("emotion_ratings.emotion, avg(emotion_ratings.rating) as avg").
		Joins("JOIN diary_entries ON diary_entries.id = emotion_ratings.entry_id").
		Where("diary_entries.user_id IN ? AND diary_entries.entry_date >= ? AND diary_entries.entry_date <= ?", userIDs, start, end).
		Group("emotion_ratings.emotion").
		Order("avg desc").
		Scan(&rows).Error
	return rows, err
}

func (g *DiaryEntryRepository) SkillUsageCounts(userIDs []uuid.UUID, start, end calendarday.Date) ([]core.SkillUsageCount, error) {
	if len(userIDs) == 0 {
		return []core.SkillUsageCount{}, nil
	}
	var rows []core.SkillUsageCount
	err := g.db.Model(&models.SkillUsed{}).
		Select("dbt_skills.name, count(*) as count").
		Joins("JOIN dbt_skills ON dbt_skills.id = skills_used.skill_id").
		Joins("JOIN diary_entries ON diary_entries.id = skills_used.entry_id").
		Where("diary_entries.user_id IN ? AND diary_entries.entry_date >= ? AND diary_entries.entry_date <= ?", userIDs, start, end).
		Group("dbt_skills.name").
		Order("count desc").
		Scan(&rows).Error
	return rows, err
}

// EmotionTrendPoints returns the raw ratings of one user in the range, in
// day order. An empty emotions slice means no filter.
func (g *DiaryEntryRepository) EmotionTrendPoints(userID uuid.UUID, start, end calendarday.Date, emotions []models.Emotion) ([]core.EmotionTrendPoint, error) {
	var rows []core.EmotionTrendPoint
	q := g.db.Model(&models.EmotionRating{}).
		Select("emotion_ratings.emotion, emotion_ratings.rating, diary_entries.entry_date as date").
		Joins("JOIN diary_entries ON diary_entries.id = emotion_ratings.entry_id").
		Where("diary_entries.user_id = ? AND diary_entries.entry_date >= ? AND diary_entries.entry_date <= ?", userID, start, end)
	if len(emotions) > 0 {
		q = q.Where("emotion_ratings.emotion IN ?", emotions)
	}
	err := q.Order("diary_entries.entry_date asc").Scan(&rows).Error
	return rows, err
}

func (g *DiaryEntryRepository) UrgeOccurrences(userID uuid.UUID, start, end calendarday.Date) ([]core.UrgePoint, error) {
	var rows []core.UrgePoint
	err := g.db.Model(&models.UrgeBehavior{}).
		Select("urge_behaviors.urge_type, urge_behaviors.intensity, urge_behaviors.acted_on, diary_entries.entry_date as date").
		Joins("JOIN diary_entries ON diary_entries.id = urge_behaviors.entry_id").
		Where("diary_entries.user_id = ? AND diary_entries.entry_date >= ? AND diary_entries.entry_date <= ?", userID, start, end).
		Order("diary_entries.entry_date asc").
		Scan(&rows).Error
	return rows, err
}
