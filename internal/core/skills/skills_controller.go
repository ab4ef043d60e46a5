package skills

import (
	"fmt"

	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"

	"github.com/labstack/echo/v4"
)

type HTTPController struct {
	skillRepository core.SkillRepository
}

func NewHTTPController(skillRepository core.SkillRepository) *HTTPController {
	return &HTTPController{skillRepository: skillRepository}
}

// GetAll returns the full catalog grouped by module.
func (s *HTTPController) GetAll(ctx core.Context) error {
	skills, err := s.skillRepository.All()
	if err != nil {
		return echo.NewHTTPError(500, "could not read skill catalog").WithInternal(err)
	}

	grouped := make(map[models.SkillModule][]models.DBTSkill, 4)
	for _, skill := range skills {
		grouped[skill.Module] = append(grouped[skill.Module], skill)
	}
	return ctx.JSON(200, grouped)
}

func (s *HTTPController) GetByModule(ctx core.Context) error {
	module := models.SkillModule(core.GetParam(ctx, "module"))
	if !module.Valid() {
		return echo.NewHTTPError(400, fmt.Sprintf("unknown skill module %q", module))
	}

	skills, err := s.skillRepository.ListByModule(module)
	if err != nil {
		return echo.NewHTTPError(500, "could not read skill catalog").WithInternal(err)
	}
	return ctx.JSON(200, skills)
}
