package models

type SkillModule string

const (
	ModuleMindfulness                SkillModule = "MINDFULNESS"
	ModuleDistressTolerance          SkillModule = "DISTRESS_TOLERANCE"
	ModuleEmotionRegulation          SkillModule = "EMOTION_REGULATION"
	ModuleInterpersonalEffectiveness SkillModule = "INTERPERSONAL_EFFECTIVENESS"
)

func (m SkillModule) Valid() bool {
	switch m {
	case ModuleMindfulness, ModuleDistressTolerance, ModuleEmotionRegulation, ModuleInterpersonalEffectiveness:
		return true
	}
	return false
}

// DBTSkill is static reference data. The catalog is seeded once and not
// mutated by the application.
type DBTSkill struct {
	Model
	Module      SkillModule `json:"module" gorm:"type:text;not null;uniqueIndex:idx_skill_name_module"`
	Name        string      `json:"name" gorm:"type:text;not null;uniqueIndex:idx_skill_name_module"`
	Description *string     `json:"description" gorm:"type:text"`
}

func (s DBTSkill) TableName() string {
	return "dbt_skills"
}
