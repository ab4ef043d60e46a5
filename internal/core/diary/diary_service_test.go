package diary

import (
	"net/http"
	"testing"
	"time"

	"github.com/diarycardhq/diarycard/internal/calendarday"
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeDiaryRepo struct {
	core.DiaryEntryRepository
	entries map[uuid.UUID]*models.DiaryEntry
	ratings map[uuid.UUID][]models.EmotionRating
	urges   map[uuid.UUID][]models.UrgeBehavior
	skills  map[uuid.UUID][]models.SkillUsed

	// skillNames resolves skill ids for the usage counts.
	skillNames map[uuid.UUID]string

	// hiddenEntry simulates a row a concurrent request committed after the
	// locking read already missed: FindForUpdate does not see it, the
	// insert conflicts with it on the (user, day) unique index.
	hiddenEntry *models.DiaryEntry
}

func newFakeDiaryRepo() *fakeDiaryRepo {
	return &fakeDiaryRepo{
		entries: map[uuid.UUID]*models.DiaryEntry{},
		ratings: map[uuid.UUID][]models.EmotionRating{},
		urges:   map[uuid.UUID][]models.UrgeBehavior{},
		skills:  map[uuid.UUID][]models.SkillUsed{},
	}
}

func (f *fakeDiaryRepo) Transaction(fn func(tx core.DB) error) error { return fn(nil) }

func (f *fakeDiaryRepo) find(userID uuid.UUID, date calendarday.Date) *models.DiaryEntry {
	for _, e := range f.entries {
		if e.UserID == userID && e.EntryDate.Equal(date) {
			return e
		}
	}
	return nil
}

func (f *fakeDiaryRepo) FindForUpdate(_ core.DB, userID uuid.UUID, date calendarday.Date) (models.DiaryEntry, error) {
	if e := f.find(userID, date); e != nil {
		return *e, nil
	}
	return models.DiaryEntry{}, gorm.ErrRecordNotFound
}

func (f *fakeDiaryRepo) UpsertParent(_ core.DB, e *models.DiaryEntry) error {
	if h := f.hiddenEntry; h != nil && h.UserID == e.UserID && h.EntryDate.Equal(e.EntryDate) {
		f.hiddenEntry = nil
		f.entries[h.ID] = h
		h.Notes = e.Notes
		*e = *h
		return nil
	}
	if existing := f.find(e.UserID, e.EntryDate); existing != nil {
		existing.Notes = e.Notes
		*e = *existing
		return nil
	}
	e.ID = uuid.New()
	copied := *e
	f.entries[e.ID] = &copied
	return nil
}

func (f *fakeDiaryRepo) Save(_ core.DB, e *models.DiaryEntry) error {
	copied := *e
	f.entries[e.ID] = &copied
	return nil
}

func (f *fakeDiaryRepo) Read(id uuid.UUID) (models.DiaryEntry, error) {
	e, ok := f.entries[id]
	if !ok {
		return models.DiaryEntry{}, gorm.ErrRecordNotFound
	}
	return *e, nil
}

func (f *fakeDiaryRepo) DeleteOwned(_ core.DB, id, userID uuid.UUID) error {
	if e, ok := f.entries[id]; ok && e.UserID == userID {
		delete(f.entries, id)
	}
	return nil
}

func (f *fakeDiaryRepo) DeleteChildren(_ core.DB, entryID uuid.UUID) error {
	delete(f.ratings, entryID)
	delete(f.urges, entryID)
	delete(f.skills, entryID)
	return nil
}

func (f *fakeDiaryRepo) CreateEmotionRatings(_ core.DB, ratings []models.EmotionRating) error {
	for _, r := range ratings {
		f.ratings[r.EntryID] = append(f.ratings[r.EntryID], r)
	}
	return nil
}

func (f *fakeDiaryRepo) CreateUrgeBehaviors(_ core.DB, urges []models.UrgeBehavior) error {
	for _, u := range urges {
		f.urges[u.EntryID] = append(f.urges[u.EntryID], u)
	}
	return nil
}

func (f *fakeDiaryRepo) CreateSkillsUsed(_ core.DB, used []models.SkillUsed) error {
	for _, s := range used {
		f.skills[s.EntryID] = append(f.skills[s.EntryID], s)
	}
	return nil
}

func (f *fakeDiaryRepo) FindByUserAndDate(userID uuid.UUID, date calendarday.Date) (models.DiaryEntry, error) {
	e := f.find(userID, date)
	if e == nil {
		return models.DiaryEntry{}, gorm.ErrRecordNotFound
	}
	full := *e
	full.EmotionRatings = f.ratings[e.ID]
	full.UrgeBehaviors = f.urges[e.ID]
	full.SkillsUsed = f.skills[e.ID]
	return full, nil
}

func (f *fakeDiaryRepo) FindRange(userID uuid.UUID, start, end calendarday.Date) ([]models.DiaryEntry, error) {
	result := []models.DiaryEntry{}
	for _, e := range f.entries {
		if e.UserID == userID && !e.EntryDate.Before(start) && !e.EntryDate.After(end) {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (f *fakeDiaryRepo) FindRecent(userID uuid.UUID, limit int) ([]models.DiaryEntry, error) {
	result := []models.DiaryEntry{}
	for _, e := range f.entries {
		if e.UserID == userID && len(result) < limit {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (f *fakeDiaryRepo) FindRangeWithChildren(userID uuid.UUID, start, end calendarday.Date) ([]models.DiaryEntry, error) {
	result := []models.DiaryEntry{}
	for _, e := range f.entries {
		if e.UserID == userID && !e.EntryDate.Before(start) && !e.EntryDate.After(end) {
			full := *e
			full.EmotionRatings = f.ratings[e.ID]
			full.UrgeBehaviors = f.urges[e.ID]
			full.SkillsUsed = f.skills[e.ID]
			result = append(result, full)
		}
	}
	return result, nil
}

func (f *fakeDiaryRepo) EmotionTrendPoints(userID uuid.UUID, start, end calendarday.Date, emotions []models.Emotion) ([]core.EmotionTrendPoint, error) {
	points := []core.EmotionTrendPoint{}
	for _, e := range f.entries {
		if e.UserID != userID || e.EntryDate.Before(start) || e.EntryDate.After(end) {
			continue
		}
		for _, r := range f.ratings[e.ID] {
			match := len(emotions) == 0
			for _, want := range emotions {
				if want == r.Emotion {
					match = true
				}
			}
			if match {
				points = append(points, core.EmotionTrendPoint{Emotion: r.Emotion, Rating: r.Rating, Date: e.EntryDate})
			}
		}
	}
	return points, nil
}

func (f *fakeDiaryRepo) UrgeOccurrences(userID uuid.UUID, start, end calendarday.Date) ([]core.UrgePoint, error) {
	points := []core.UrgePoint{}
	for _, e := range f.entries {
		if e.UserID != userID || e.EntryDate.Before(start) || e.EntryDate.After(end) {
			continue
		}
		for _, u := range f.urges[e.ID] {
			points = append(points, core.UrgePoint{UrgeType: u.UrgeType, Intensity: u.Intensity, ActedOn: u.ActedOn, Date: e.EntryDate})
		}
	}
	return points, nil
}

func (f *fakeDiaryRepo) SkillUsageCounts(userIDs []uuid.UUID, start, end calendarday.Date) ([]core.SkillUsageCount, error) {
	counts := map[string]int64{}
	for _, e := range f.entries {
		inScope := false
		for _, id := range userIDs {
			if e.UserID == id {
				inScope = true
			}
		}
		if !inScope || e.EntryDate.Before(start) || e.EntryDate.After(end) {
			continue
		}
		for _, s := range f.skills[e.ID] {
			counts[f.skillNames[s.SkillID]]++
		}
	}
	result := []core.SkillUsageCount{}
	for name, count := range counts {
		result = append(result, core.SkillUsageCount{Name: name, Count: count})
	}
	return result, nil
}

type fakeSkillRepo struct {
	core.SkillRepository
	catalog map[string]models.DBTSkill
}

func newFakeSkillRepo(names ...string) *fakeSkillRepo {
	f := &fakeSkillRepo{catalog: map[string]models.DBTSkill{}}
	for _, name := range names {
		skill := models.DBTSkill{Name: name, Module: models.ModuleEmotionRegulation}
		skill.ID = uuid.New()
		f.catalog[name] = skill
	}
	return f
}

func (f *fakeSkillRepo) FindByNames(names []string) ([]models.DBTSkill, error) {
	found := []models.DBTSkill{}
	for _, name := range names {
		if skill, ok := f.catalog[name]; ok {
			found = append(found, skill)
		}
	}
	return found, nil
}

var testClock = time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

const today = "2024-06-15"

func newTestService(repo *fakeDiaryRepo, skills *fakeSkillRepo) *Service {
	svc := NewService(repo, skills)
	svc.now = func() time.Time { return testClock }
	return svc
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T: %v", err, err)
	return httpErr.Code
}

func TestUpsertWriteWindow(t *testing.T) {
	userID := uuid.New()

	t.Run("yesterday is rejected", func(t *testing.T) {
		svc := newTestService(newFakeDiaryRepo(), newFakeSkillRepo())
		_, err := svc.Upsert(userID, UpsertRequest{Date: "2024-06-14"})
		assert.Equal(t, http.StatusForbidden, httpCode(t, err))
	})

	t.Run("tomorrow is rejected", func(t *testing.T) {
		svc := newTestService(newFakeDiaryRepo(), newFakeSkillRepo())
		_, err := svc.Upsert(userID, UpsertRequest{Date: "2024-06-16"})
		assert.Equal(t, http.StatusForbidden, httpCode(t, err))
	})

	t.Run("today succeeds", func(t *testing.T) {
		svc := newTestService(newFakeDiaryRepo(), newFakeSkillRepo())
		entry, err := svc.Upsert(userID, UpsertRequest{Date: today, Notes: core.Ptr("ok")})
		require.NoError(t, err)
		assert.Equal(t, today, entry.EntryDate.String())
		require.NotNil(t, entry.Notes)
		assert.Equal(t, "ok", *entry.Notes)
	})

	t.Run("a date with a time component is a validation error", func(t *testing.T) {
		svc := newTestService(newFakeDiaryRepo(), newFakeSkillRepo())
		_, err := svc.Upsert(userID, UpsertRequest{Date: "2024-06-15T00:00:00Z"})
		assert.Equal(t, 400, httpCode(t, err))
	})
}

func TestUpsertValidation(t *testing.T) {
	userID := uuid.New()

	cases := []struct {
		name string
		req  UpsertRequest
	}{
		{"unknown emotion", UpsertRequest{Date: today, Emotions: []EmotionRatingInput{{Emotion: "BOREDOM", Rating: 5}}}},
		{"rating above 10", UpsertRequest{Date: today, Emotions: []EmotionRatingInput{{Emotion: models.EmotionJoy, Rating: 11}}}},
		{"unknown urge", UpsertRequest{Date: today, Urges: []UrgeBehaviorInput{{UrgeType: "SHOPPING", Intensity: 2}}}},
		{"intensity above 5", UpsertRequest{Date: today, Urges: []UrgeBehaviorInput{{UrgeType: models.UrgeIsolating, Intensity: 6}}}},
		{"malformed date", UpsertRequest{Date: "15.06.2024"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(newFakeDiaryRepo(), newFakeSkillRepo())
			_, err := svc.Upsert(userID, tc.req)
			assert.Equal(t, 400, httpCode(t, err))
		})
	}
}

func TestUpsertReplaceSemantics(t *testing.T) {
	userID := uuid.New()

	payload := UpsertRequest{
		Date:  today,
		Notes: core.Ptr("rough day"),
		Emotions: []EmotionRatingInput{
			{Emotion: models.EmotionJoy, Rating: 7},
			{Emotion: models.EmotionAnxiety, Rating: 4},
		},
		Urges:  []UrgeBehaviorInput{},
		Skills: []string{"Opposite Action"},
	}

	t.Run("the stored children equal exactly the payload", func(t *testing.T) {
		repo := newFakeDiaryRepo()
		svc := newTestService(repo, newFakeSkillRepo("Opposite Action"))

		entry, err := svc.Upsert(userID, payload)
		require.NoError(t, err)

		require.Len(t, entry.EmotionRatings, 2)
		assert.Equal(t, models.EmotionJoy, entry.EmotionRatings[0].Emotion)
		assert.Equal(t, 7, entry.EmotionRatings[0].Rating)
		assert.Equal(t, models.EmotionAnxiety, entry.EmotionRatings[1].Emotion)
		assert.Equal(t, 4, entry.EmotionRatings[1].Rating)
		assert.Empty(t, entry.UrgeBehaviors)
		require.Len(t, entry.SkillsUsed, 1)
	})

	t.Run("upserting twice with the same payload is idempotent", func(t *testing.T) {
		repo := newFakeDiaryRepo()
		svc := newTestService(repo, newFakeSkillRepo("Opposite Action"))

		first, err := svc.Upsert(userID, payload)
		require.NoError(t, err)
		second, err := svc.Upsert(userID, payload)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID, "same entry row")
		assert.Len(t, second.EmotionRatings, 2, "no duplicated children")
		assert.Len(t, second.SkillsUsed, 1)
	})

	t.Run("an omitted collection clears the stored one", func(t *testing.T) {
		repo := newFakeDiaryRepo()
		svc := newTestService(repo, newFakeSkillRepo("Opposite Action"))

		_, err := svc.Upsert(userID, payload)
		require.NoError(t, err)

		entry, err := svc.Upsert(userID, UpsertRequest{Date: today})
		require.NoError(t, err)
		assert.Empty(t, entry.EmotionRatings)
		assert.Empty(t, entry.SkillsUsed)
	})

	t.Run("unknown skill names are dropped, not an error", func(t *testing.T) {
		repo := newFakeDiaryRepo()
		svc := newTestService(repo, newFakeSkillRepo("Opposite Action"))

		req := payload
		req.Skills = []string{"Opposite Action", "Mistyped Skill"}
		entry, err := svc.Upsert(userID, req)
		require.NoError(t, err)
		assert.Len(t, entry.SkillsUsed, 1)
	})
}

func TestUpsertRace(t *testing.T) {
	t.Run("a row committed after the locking read missed is taken over", func(t *testing.T) {
		userID := uuid.New()
		day, err := calendarday.Parse(today)
		require.NoError(t, err)

		repo := newFakeDiaryRepo()
		winner := &models.DiaryEntry{UserID: userID, EntryDate: day, Notes: core.Ptr("first writer")}
		winner.ID = uuid.New()
		repo.hiddenEntry = winner
		svc := newTestService(repo, newFakeSkillRepo())

		entry, err := svc.Upsert(userID, UpsertRequest{Date: today, Notes: core.Ptr("second writer")})
		require.NoError(t, err, "the unique index conflict never reaches the caller")
		assert.Equal(t, winner.ID, entry.ID, "the winning row is reused")
		require.NotNil(t, entry.Notes)
		assert.Equal(t, "second writer", *entry.Notes)
		assert.Len(t, repo.entries, 1, "one row for the day")
	})
}

func TestReads(t *testing.T) {
	userID := uuid.New()

	t.Run("getByDate returns nil for a day without an entry", func(t *testing.T) {
		svc := newTestService(newFakeDiaryRepo(), newFakeSkillRepo())
		day, _ := calendarday.Parse(today)

		entry, err := svc.GetByDate(userID, day)
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("getByDate returns the full entry", func(t *testing.T) {
		repo := newFakeDiaryRepo()
		svc := newTestService(repo, newFakeSkillRepo())
		_, err := svc.Upsert(userID, UpsertRequest{
			Date:     today,
			Emotions: []EmotionRatingInput{{Emotion: models.EmotionPride, Rating: 6}},
		})
		require.NoError(t, err)

		day, _ := calendarday.Parse(today)
		entry, err := svc.GetByDate(userID, day)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Len(t, entry.EmotionRatings, 1)
	})
}

func TestSelfAnalytics(t *testing.T) {
	userID := uuid.New()
	day, _ := calendarday.Parse(today)

	seed := func(t *testing.T) (*fakeDiaryRepo, *Service) {
		t.Helper()
		repo := newFakeDiaryRepo()
		skillsRepo := newFakeSkillRepo("Opposite Action")
		repo.skillNames = map[uuid.UUID]string{}
		for name, skill := range skillsRepo.catalog {
			repo.skillNames[skill.ID] = name
		}
		svc := newTestService(repo, skillsRepo)

		_, err := svc.Upsert(userID, UpsertRequest{
			Date: today,
			Emotions: []EmotionRatingInput{
				{Emotion: models.EmotionJoy, Rating: 7},
				{Emotion: models.EmotionAnxiety, Rating: 3},
			},
			Urges:  []UrgeBehaviorInput{{UrgeType: models.UrgeIsolating, Intensity: 4, ActedOn: true}},
			Skills: []string{"Opposite Action"},
		})
		require.NoError(t, err)
		return repo, svc
	}

	t.Run("emotion trends return the raw ratings with their day", func(t *testing.T) {
		_, svc := seed(t)

		points, err := svc.EmotionTrends(userID, day.AddDays(-7), day, nil)
		require.NoError(t, err)
		require.Len(t, points, 2)
		for _, p := range points {
			assert.Equal(t, day, p.Date)
		}
	})

	t.Run("an emotion filter narrows the points", func(t *testing.T) {
		_, svc := seed(t)

		points, err := svc.EmotionTrends(userID, day.AddDays(-7), day, []models.Emotion{models.EmotionJoy})
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.Equal(t, models.EmotionJoy, points[0].Emotion)
		assert.Equal(t, 7, points[0].Rating)
	})

	t.Run("an unknown emotion in the filter is a validation error", func(t *testing.T) {
		_, svc := seed(t)

		_, err := svc.EmotionTrends(userID, day.AddDays(-7), day, []models.Emotion{"BOREDOM"})
		assert.Equal(t, 400, httpCode(t, err))
	})

	t.Run("skills usage counts by catalog name", func(t *testing.T) {
		_, svc := seed(t)

		counts, err := svc.SkillsUsage(userID, day.AddDays(-7), day)
		require.NoError(t, err)
		require.Len(t, counts, 1)
		assert.Equal(t, "Opposite Action", counts[0].Name)
		assert.Equal(t, int64(1), counts[0].Count)
	})

	t.Run("urge patterns carry intensity and acted-on", func(t *testing.T) {
		_, svc := seed(t)

		points, err := svc.UrgePatterns(userID, day.AddDays(-7), day)
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.Equal(t, models.UrgeIsolating, points[0].UrgeType)
		assert.Equal(t, 4, points[0].Intensity)
		assert.True(t, points[0].ActedOn)
		assert.Equal(t, day, points[0].Date)
	})

	t.Run("the weekly summary loads every child collection", func(t *testing.T) {
		_, svc := seed(t)

		entries, err := svc.WeeklySummary(userID, day.AddDays(-3))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Len(t, entries[0].EmotionRatings, 2)
		assert.Len(t, entries[0].UrgeBehaviors, 1)
		assert.Len(t, entries[0].SkillsUsed, 1)
	})

	t.Run("a week without entries is empty, not an error", func(t *testing.T) {
		_, svc := seed(t)

		entries, err := svc.WeeklySummary(userID, day.AddDays(-30))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestDelete(t *testing.T) {
	t.Run("the owner can delete their entry", func(t *testing.T) {
		userID := uuid.New()
		repo := newFakeDiaryRepo()
		svc := newTestService(repo, newFakeSkillRepo())
		entry, err := svc.Upsert(userID, UpsertRequest{Date: today})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(userID, entry.ID))
		_, err = repo.Read(entry.ID)
		assert.Error(t, err)
	})

	t.Run("someone else's entry is just not found", func(t *testing.T) {
		userID := uuid.New()
		repo := newFakeDiaryRepo()
		svc := newTestService(repo, newFakeSkillRepo())
		entry, err := svc.Upsert(userID, UpsertRequest{Date: today})
		require.NoError(t, err)

		err = svc.Delete(uuid.New(), entry.ID)
		assert.Equal(t, http.StatusNotFound, httpCode(t, err))

		_, err = repo.Read(entry.ID)
		assert.NoError(t, err, "the entry still exists")
	})
}
