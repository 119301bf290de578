package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hupe1980/lyceum"
)

type personaController struct {
	lyc *lyceum.Lyceum
}

func newPersonaController(lyc *lyceum.Lyceum) *personaController {
	return &personaController{lyc: lyc}
}

func (p *personaController) RegisterRoutes(r fiber.Router) {
	r.Get("/personas", p.List)
}

func (p *personaController) List(c *fiber.Ctx) error {
	reg := p.lyc.Registry()

	res := PersonasResponse{ModesEnabled: reg.ModesEnabled()}
	for _, contract := range reg.Contracts() {
		res.Personas = append(res.Personas, PersonaView{
			ID:      contract.ID,
			Name:    contract.DisplayName,
			Icon:    contract.Icon,
			Summary: contract.Summary,
		})
	}
	for _, m := range reg.Modes() {
		res.Modes = append(res.Modes, ModeView{Mode: m.Mode, Description: m.Description})
	}

	return c.JSON(SuccessResponse("Success list personas", res))
}
