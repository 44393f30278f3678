package proxy

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/azrelay/pkg/llm"
)

// handleModels lists the configured models in mapping order, pretty printed
// the way OpenAI clients expect to be able to read it.
func (p *Proxy) handleModels(c *fiber.Ctx) error {
	list := llm.NewModelList(p.config.Deployments.Models())

	body, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding model list: %w", err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}
