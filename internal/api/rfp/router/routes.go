// Package router đăng ký các route thuộc domain RFP.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	rfphdl "bid_flow/internal/api/rfp/handler"
	apirouter "bid_flow/internal/api/router"
)

// Register đăng ký tất cả route rfp opportunity lên v1.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	rfpHandler, err := rfphdl.NewRfpOpportunityHandler()
	if err != nil {
		return fmt.Errorf("create rfp opportunity handler: %w", err)
	}

	r.RegisterCRUDRoutes(v1, "/opportunities", rfpHandler, apirouter.ReadWriteConfig, "RfpOpportunity")

	return nil
}
