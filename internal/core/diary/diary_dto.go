package diary

import (
	"github.com/diarycardhq/diarycard/internal/database/models"
)

type EmotionRatingInput struct {
	Emotion models.Emotion `json:"emotion" validate:"required"`
	Rating  int            `json:"rating" validate:"min=0,max=10"`
}

type UrgeBehaviorInput struct {
	UrgeType  models.UrgeType `json:"urgeType" validate:"required"`
	Intensity int             `json:"intensity" validate:"min=0,max=5"`
	ActedOn   bool            `json:"actedOn"`
}

// UpsertRequest carries the complete desired state of a day: the child sets
// replace whatever is stored, they are not merged. A client omitting a field
// clears it.
type UpsertRequest struct {
	Date     string               `json:"date" validate:"required"`
	Notes    *string              `json:"notes"`
	Emotions []EmotionRatingInput `json:"emotions" validate:"dive"`
	Urges    []UrgeBehaviorInput  `json:"urges" validate:"dive"`
	// Skills are catalog skill names. Names not present in the catalog are
	// dropped without error.
	Skills []string `json:"skills"`
}
