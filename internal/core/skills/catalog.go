package skills

import (
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"
)

// Catalog is the fixed DBT skill set. It is reference data: seeded once,
// never mutated by the application.
func Catalog() []models.DBTSkill {
	return []models.DBTSkill{
		{Module: models.ModuleMindfulness, Name: "Observe", Description: core.Ptr("Notice experiences without judgment")},
		{Module: models.ModuleMindfulness, Name: "Describe", Description: core.Ptr("Put words to experience")},
		{Module: models.ModuleMindfulness, Name: "Participate", Description: core.Ptr("Engage fully in the moment")},
		{Module: models.ModuleMindfulness, Name: "Non-judgmental Stance", Description: core.Ptr("See without evaluating as good/bad")},
		{Module: models.ModuleMindfulness, Name: "One-Mindfully", Description: core.Ptr("Do one thing at a time")},
		{Module: models.ModuleMindfulness, Name: "Effectively", Description: core.Ptr("Focus on what works")},

		{Module: models.ModuleDistressTolerance, Name: "STOP", Description: core.Ptr("Stop, Take a step back, Observe, Proceed mindfully")},
		{Module: models.ModuleDistressTolerance, Name: "TIPP", Description: core.Ptr("Temperature, Intense exercise, Paced breathing, Paired muscle relaxation")},
		{Module: models.ModuleDistressTolerance, Name: "Pros & Cons", Description: core.Ptr("Weigh acting on urges vs. not")},
		{Module: models.ModuleDistressTolerance, Name: "Self-Soothe", Description: core.Ptr("Soothe the five senses")},
		{Module: models.ModuleDistressTolerance, Name: "IMPROVE", Description: core.Ptr("Imagery, Meaning, Prayer, Relaxation, One thing, Vacation, Encouragement")},
		{Module: models.ModuleDistressTolerance, Name: "Radical Acceptance", Description: core.Ptr("Accept reality as it is")},

		{Module: models.ModuleEmotionRegulation, Name: "Check the Facts", Description: core.Ptr("Evaluate whether emotions fit the facts")},
		{Module: models.ModuleEmotionRegulation, Name: "Opposite Action", Description: core.Ptr("Do the opposite of the emotion urge")},
		{Module: models.ModuleEmotionRegulation, Name: "PLEASE", Description: core.Ptr("PhysicaL illness, Eating, Avoid mood-altering drugs, Sleep, Exercise")},
		{Module: models.ModuleEmotionRegulation, Name: "Build Mastery", Description: core.Ptr("Do things that make you feel competent")},
		{Module: models.ModuleEmotionRegulation, Name: "Accumulate Positives", Description: core.Ptr("Short and long-term positive events")},

		{Module: models.ModuleInterpersonalEffectiveness, Name: "DEAR MAN", Description: core.Ptr("Describe, Express, Assert, Reinforce; Mindful, Appear confident, Negotiate")},
		{Module: models.ModuleInterpersonalEffectiveness, Name: "GIVE", Description: core.Ptr("Gentle, Interested, Validate, Easy manner")},
		{Module: models.ModuleInterpersonalEffectiveness, Name: "FAST", Description: core.Ptr("Fair, no Apologies, Stick to values, Truthful")},
		{Module: models.ModuleInterpersonalEffectiveness, Name: "Set Boundaries", Description: core.Ptr("Define limits and enforce them")},
	}
}
