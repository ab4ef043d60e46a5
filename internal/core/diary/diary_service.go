package diary

import (
	"fmt"
	"time"

	"github.com/diarycardhq/diarycard/internal/calendarday"
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Service struct {
	diaryRepository core.DiaryEntryRepository
	skillRepository core.SkillRepository
	// now is swapped out in tests to pin the write window.
	now func() time.Time
}

func NewService(diaryRepository core.DiaryEntryRepository, skillRepository core.SkillRepository) *Service {
	return &Service{
		diaryRepository: diaryRepository,
		skillRepository: skillRepository,
		now:             time.Now,
	}
}

func (s *Service) validatePayload(req UpsertRequest) error {
	for _, e := range req.Emotions {
		if !e.Emotion.Valid() {
			return echo.NewHTTPError(400, fmt.Sprintf("unknown emotion %q", e.Emotion))
		}
		if e.Rating < 0 || e.Rating > 10 {
			return echo.NewHTTPError(400, "emotion rating must be between 0 and 10")
		}
	}
	for _, u := range req.Urges {
		if !u.UrgeType.Valid() {
			return echo.NewHTTPError(400, fmt.Sprintf("unknown urge type %q", u.UrgeType))
		}
		if u.Intensity < 0 || u.Intensity > 5 {
			return echo.NewHTTPError(400, "urge intensity must be between 0 and 5")
		}
	}
	return nil
}

// Upsert creates or replaces the caller's entry for the given day. Only the
// current calendar day is writable; history is append-only from the owner's
// perspective. Parent upsert and child replacement run in one transaction.
func (s *Service) Upsert(userID uuid.UUID, req UpsertRequest) (models.DiaryEntry, error) {
	date, err := calendarday.Parse(req.Date)
	if err != nil {
		return models.DiaryEntry{}, echo.NewHTTPError(400, "date must be a calendar day of the form 2006-01-02").WithInternal(err)
	}
	if err := s.validatePayload(req); err != nil {
		return models.DiaryEntry{}, err
	}

	today := calendarday.FromTime(s.now())
	if !date.Equal(today) {
		return models.DiaryEntry{}, echo.NewHTTPError(403, "entries can only be written for the current day")
	}

	// unknown names are dropped here, not rejected
	skills, err := s.skillRepository.FindByNames(req.Skills)
	if err != nil {
		return models.DiaryEntry{}, echo.NewHTTPError(500, "could not resolve skills").WithInternal(err)
	}

	var entry models.DiaryEntry
	err = s.diaryRepository.Transaction(func(tx core.DB) error {
		var err error
		entry, err = s.upsertParent(tx, userID, date, req.Notes)
		if err != nil {
			return err
		}

		if err := s.diaryRepository.DeleteChildren(tx, entry.ID); err != nil {
			return err
		}

		ratings := make([]models.EmotionRating, 0, len(req.Emotions))
		for _, e := range req.Emotions {
			ratings = append(ratings, models.EmotionRating{EntryID: entry.ID, Emotion: e.Emotion, Rating: e.Rating})
		}
		if err := s.diaryRepository.CreateEmotionRatings(tx, ratings); err != nil {
			return err
		}

		urges := make([]models.UrgeBehavior, 0, len(req.Urges))
		for _, u := range req.Urges {
			urges = append(urges, models.UrgeBehavior{EntryID: entry.ID, UrgeType: u.UrgeType, Intensity: u.Intensity, ActedOn: u.ActedOn})
		}
		if err := s.diaryRepository.CreateUrgeBehaviors(tx, urges); err != nil {
			return err
		}

		used := make([]models.SkillUsed, 0, len(skills))
		for _, skill := range skills {
			used = append(used, models.SkillUsed{EntryID: entry.ID, SkillID: skill.ID})
		}
		return s.diaryRepository.CreateSkillsUsed(tx, used)
	})
	if err != nil {
		return models.DiaryEntry{}, echo.NewHTTPError(500, "could not save entry").WithInternal(err)
	}

	saved, err := s.diaryRepository.FindByUserAndDate(userID, date)
	if err != nil {
		return models.DiaryEntry{}, echo.NewHTTPError(500, "could not read entry").WithInternal(err)
	}
	return saved, nil
}

// upsertParent creates the entry row or updates its notes. When the locking
// read misses, the insert itself absorbs a concurrent create racing on the
// (user, day) unique index and takes over the winning row.
func (s *Service) upsertParent(tx core.DB, userID uuid.UUID, date calendarday.Date, notes *string) (models.DiaryEntry, error) {
	entry, err := s.diaryRepository.FindForUpdate(tx, userID, date)
	if err == nil {
		entry.Notes = notes
		return entry, s.diaryRepository.Save(tx, &entry)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DiaryEntry{}, err
	}

	entry = models.DiaryEntry{UserID: userID, EntryDate: date, Notes: notes}
	if err := s.diaryRepository.UpsertParent(tx, &entry); err != nil {
		return models.DiaryEntry{}, err
	}
	return entry, nil
}

// GetByDate returns the caller's entry for the day, or nil when none exists.
func (s *Service) GetByDate(userID uuid.UUID, date calendarday.Date) (*models.DiaryEntry, error) {
	entry, err := s.diaryRepository.FindByUserAndDate(userID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, echo.NewHTTPError(500, "could not read entry").WithInternal(err)
	}
	return &entry, nil
}

func (s *Service) GetRange(userID uuid.UUID, start, end calendarday.Date) ([]models.DiaryEntry, error) {
	entries, err := s.diaryRepository.FindRange(userID, start, end)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not read entries").WithInternal(err)
	}
	return entries, nil
}

func (s *Service) GetRecent(userID uuid.UUID, limit int) ([]models.DiaryEntry, error) {
	entries, err := s.diaryRepository.FindRecent(userID, limit)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not read entries").WithInternal(err)
	}
	return entries, nil
}

// EmotionTrends returns the caller's raw per-day emotion ratings in the
// range, optionally filtered to a subset of emotions.
func (s *Service) EmotionTrends(userID uuid.UUID, start, end calendarday.Date, emotions []models.Emotion) ([]core.EmotionTrendPoint, error) {
	for _, e := range emotions {
		if !e.Valid() {
			return nil, echo.NewHTTPError(400, fmt.Sprintf("unknown emotion %q", e))
		}
	}
	points, err := s.diaryRepository.EmotionTrendPoints(userID, start, end, emotions)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not read emotion trends").WithInternal(err)
	}
	return points, nil
}

// SkillsUsage counts how often the caller used each catalog skill in the
// range.
func (s *Service) SkillsUsage(userID uuid.UUID, start, end calendarday.Date) ([]core.SkillUsageCount, error) {
	counts, err := s.diaryRepository.SkillUsageCounts([]uuid.UUID{userID}, start, end)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not read skill usage").WithInternal(err)
	}
	return counts, nil
}

// UrgePatterns returns the caller's raw urge occurrences in the range.
func (s *Service) UrgePatterns(userID uuid.UUID, start, end calendarday.Date) ([]core.UrgePoint, error) {
	points, err := s.diaryRepository.UrgeOccurrences(userID, start, end)
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not read urge patterns").WithInternal(err)
	}
	return points, nil
}

// WeeklySummary returns the seven days starting at weekStart with every
// child collection loaded.
func (s *Service) WeeklySummary(userID uuid.UUID, weekStart calendarday.Date) ([]models.DiaryEntry, error) {
	entries, err := s.diaryRepository.FindRangeWithChildren(userID, weekStart, weekStart.AddDays(6))
	if err != nil {
		return nil, echo.NewHTTPError(500, "could not read entries").WithInternal(err)
	}
	return entries, nil
}

// Delete removes one of the caller's own entries. Whether the entry is
// missing or owned by someone else, the caller sees the same not found.
func (s *Service) Delete(userID, entryID uuid.UUID) error {
	entry, err := s.diaryRepository.Read(entryID)
	if err != nil || entry.UserID != userID {
		return echo.NewHTTPError(404, "entry not found")
	}
	if err := s.diaryRepository.DeleteOwned(nil, entryID, userID); err != nil {
		return echo.NewHTTPError(500, "could not delete entry").WithInternal(err)
	}
	return nil
}
