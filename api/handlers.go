package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/azrelay/pkg/azure"
)

// StatusResponse describes the relay's effective upstream configuration.
// Credentials are never part of it: the relay holds none.
type StatusResponse struct {
	Upstream    string            `json:"upstream"`
	APIVersion  string            `json:"api_version"`
	Deployments azure.Deployments `json:"deployments"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleStatus returns the upstream endpoint and the model mapping in
// mapping order.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	deployments := s.config.Deployments
	if deployments == nil {
		deployments = azure.Deployments{}
	}

	return c.JSON(StatusResponse{
		Upstream:    s.config.Upstream,
		APIVersion:  s.config.APIVersion,
		Deployments: deployments,
	})
}
