// Package router đăng ký các route thuộc domain Portal.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	portalhdl "bid_flow/internal/api/portal/handler"
	apirouter "bid_flow/internal/api/router"
)

// Register đăng ký tất cả route portal lên v1.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	portalHandler, err := portalhdl.NewPortalHandler()
	if err != nil {
		return fmt.Errorf("create portal handler: %w", err)
	}

	r.RegisterCRUDRoutes(v1, "/portals", portalHandler, apirouter.ReadWriteConfig, "Portal")

	return nil
}
