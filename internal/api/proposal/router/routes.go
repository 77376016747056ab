// Package router đăng ký các route thuộc domain Proposal.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	proposalhdl "bid_flow/internal/api/proposal/handler"
	apirouter "bid_flow/internal/api/router"
)

// Register đăng ký tất cả route proposal lên v1.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	proposalHandler, err := proposalhdl.NewProposalHandler()
	if err != nil {
		return fmt.Errorf("create proposal handler: %w", err)
	}

	r.RegisterCRUDRoutes(v1, "/proposals", proposalHandler, apirouter.ReadWriteConfig, "Proposal")

	return nil
}
