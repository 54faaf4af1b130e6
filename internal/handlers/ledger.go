package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pixiu/internal/database"
	"pixiu/internal/services"
)

// LedgerHandler serves the debt and property views plus schema
// provisioning.
type LedgerHandler struct {
	funds *services.FundService
	db    *database.DB
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(funds *services.FundService, db *database.DB) *LedgerHandler {
	return &LedgerHandler{funds: funds, db: db}
}

// Init handles POST /init: idempotent schema provisioning.
func (h *LedgerHandler) Init(c *fiber.Ctx) error {
	if err := h.db.Initialize(); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusOK)
}

// Debts handles GET /debt
func (h *LedgerHandler) Debts(c *fiber.Ctx) error {
	debts, err := h.funds.Debts(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(debts)
}

// Properties handles GET /property
func (h *LedgerHandler) Properties(c *fiber.Ctx) error {
	properties, err := h.funds.Properties(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(properties)
}
