package models

import (
	"github.com/diarycardhq/diarycard/internal/calendarday"
	"github.com/google/uuid"
)

type Emotion string

const (
	EmotionSadness Emotion = "SADNESS"
	EmotionAnger   Emotion = "ANGER"
	EmotionFear    Emotion = "FEAR"
	EmotionShame   Emotion = "SHAME"
	EmotionJoy     Emotion = "JOY"
	EmotionPride   Emotion = "PRIDE"
	EmotionLove    Emotion = "LOVE"
	EmotionGuilt   Emotion = "GUILT"
	EmotionAnxiety Emotion = "ANXIETY"
	EmotionDisgust Emotion = "DISGUST"
)

func (e Emotion) Valid() bool {
	switch e {
	case EmotionSadness, EmotionAnger, EmotionFear, EmotionShame, EmotionJoy,
		EmotionPride, EmotionLove, EmotionGuilt, EmotionAnxiety, EmotionDisgust:
		return true
	}
	return false
}

type UrgeType string

const (
	UrgeSelfHarm     UrgeType = "SELF_HARM"
	UrgeSubstanceUse UrgeType = "SUBSTANCE_USE"
	UrgeBingeEating  UrgeType = "BINGE_EATING"
	UrgeRestricting  UrgeType = "RESTRICTING"
	UrgeIsolating    UrgeType = "ISOLATING"
	UrgeLashingOut   UrgeType = "LASHING_OUT"
	UrgeRuminating   UrgeType = "RUMINATING"
)

func (u UrgeType) Valid() bool {
	switch u {
	case UrgeSelfHarm, UrgeSubstanceUse, UrgeBingeEating, UrgeRestricting,
		UrgeIsolating, UrgeLashingOut, UrgeRuminating:
		return true
	}
	return false
}

type DiaryEntry struct {
	Model
	UserID uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_user_entry_date"`
	User   User      `json:"-"`
	// EntryDate is a calendar day. Together with UserID it identifies the
	// entry; there is at most one entry per user per day.
	EntryDate calendarday.Date `json:"entryDate" gorm:"type:date;not null;uniqueIndex:idx_user_entry_date"`
	Notes     *string          `json:"notes" gorm:"type:text"`

	EmotionRatings []EmotionRating `json:"emotionRatings" gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE;"`
	UrgeBehaviors  []UrgeBehavior  `json:"urgeBehaviors" gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE;"`
	SkillsUsed     []SkillUsed     `json:"skillsUsed" gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE;"`
}

func (d DiaryEntry) TableName() string {
	return "diary_entries"
}

type EmotionRating struct {
	ID      uuid.UUID `json:"id" gorm:"primarykey;type:uuid;default:gen_random_uuid()"`
	EntryID uuid.UUID `json:"entryId" gorm:"type:uuid;not null;index"`
	Emotion Emotion   `json:"emotion" gorm:"type:text;not null"`
	// Rating is 0 (none) to 10 (extreme).
	Rating int `json:"rating" gorm:"not null"`
}

func (e EmotionRating) TableName() string {
	return "emotion_ratings"
}

type UrgeBehavior struct {
	ID       uuid.UUID `json:"id" gorm:"primarykey;type:uuid;default:gen_random_uuid()"`
	EntryID  uuid.UUID `json:"entryId" gorm:"type:uuid;not null;index"`
	UrgeType UrgeType  `json:"urgeType" gorm:"type:text;not null"`
	// Intensity is 0 to 5.
	Intensity int  `json:"intensity" gorm:"not null"`
	ActedOn   bool `json:"actedOn" gorm:"not null;default:false"`
}

func (u UrgeBehavior) TableName() string {
	return "urge_behaviors"
}

type SkillUsed struct {
	ID      uuid.UUID `json:"id" gorm:"primarykey;type:uuid;default:gen_random_uuid()"`
	EntryID uuid.UUID `json:"entryId" gorm:"type:uuid;not null;index"`
	SkillID uuid.UUID `json:"skillId" gorm:"type:uuid;not null"`
	Skill   DBTSkill  `json:"skill"`
}

func (s SkillUsed) TableName() string {
	return "skills_used"
}
