package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"pixiu/internal/models"
	"pixiu/internal/services"
)

const maxPageSize = 500

// FundHandler serves the ledger API.
type FundHandler struct {
	funds *services.FundService
	redis *services.RedisService // optional response cache
}

// NewFundHandler creates a new fund handler
func NewFundHandler(funds *services.FundService, redis *services.RedisService) *FundHandler {
	return &FundHandler{funds: funds, redis: redis}
}

// Create handles POST /fund
func (h *FundHandler) Create(c *fiber.Ctx) error {
	var info models.FundInfo
	if err := c.BodyParser(&info); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if info.Name == "" || info.Class == "" || info.Source == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name, class and source are required")
	}

	if err := h.funds.Insert(c.Context(), info); err != nil {
		return err
	}
	h.invalidateCache(c)

	return c.SendStatus(fiber.StatusCreated)
}

// List handles GET /fund: one page of entries plus the aggregates for the
// same filter (total count, per-class expense sums, income and expense
// totals).
func (h *FundHandler) List(c *fiber.Ctx) error {
	filter, page, size, err := parseFundQuery(c)
	if err != nil {
		return err
	}

	queryKey := string(c.Request().URI().QueryString())
	if h.redis != nil {
		if cached := h.redis.GetFundPage(c.Context(), queryKey); cached != nil {
			return c.JSON(cached)
		}
	}

	ctx := c.Context()

	total, err := h.funds.Count(ctx, filter)
	if err != nil {
		return err
	}
	entries, err := h.funds.List(ctx, filter, page, size)
	if err != nil {
		return err
	}
	sums, err := h.funds.GroupedExpenseSums(ctx, filter)
	if err != nil {
		return err
	}
	income, err := h.funds.IncomeTotal(ctx, filter)
	if err != nil {
		return err
	}
	expenses, err := h.funds.ExpenseTotal(ctx, filter)
	if err != nil {
		return err
	}

	response := models.PageResponse{
		Total:    total,
		Data:     entries,
		Sum:      sums,
		Income:   income,
		Expenses: expenses,
	}

	if h.redis != nil {
		h.redis.SetFundPage(c.Context(), queryKey, &response)
	}

	return c.JSON(response)
}

// Update handles PUT /fund/:id
func (h *FundHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var info models.FundInfo
	if err := c.BodyParser(&info); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.funds.Update(c.Context(), uint32(id), info); err != nil {
		return err
	}
	h.invalidateCache(c)

	return c.SendStatus(fiber.StatusNoContent)
}

// Delete handles DELETE /fund/:id
func (h *FundHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.funds.Delete(c.Context(), uint32(id)); err != nil {
		return err
	}
	h.invalidateCache(c)

	return c.SendStatus(fiber.StatusNoContent)
}

// Sources handles GET /fund/sources
func (h *FundHandler) Sources(c *fiber.Ctx) error {
	sources, err := h.funds.Sources(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(sources)
}

// Classes handles GET /fund/classes
func (h *FundHandler) Classes(c *fiber.Ctx) error {
	classes, err := h.funds.Classes(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(classes)
}

func (h *FundHandler) invalidateCache(c *fiber.Ctx) {
	if h.redis != nil {
		h.redis.InvalidateFund(c.Context())
	}
}

// parseFundQuery validates the shared listing query parameters:
// from/to (inclusive epoch milliseconds), page (1-based), size,
// source (optional exact match), class (optional comma-separated set).
// Malformed values are client errors, never a query against storage.
func parseFundQuery(c *fiber.Ctx) (models.FundFilter, int, int, error) {
	from, err := strconv.ParseInt(c.Query("from"), 10, 64)
	if err != nil {
		return models.FundFilter{}, 0, 0, fiber.NewError(fiber.StatusBadRequest, "from must be epoch milliseconds")
	}
	to, err := strconv.ParseInt(c.Query("to"), 10, 64)
	if err != nil {
		return models.FundFilter{}, 0, 0, fiber.NewError(fiber.StatusBadRequest, "to must be epoch milliseconds")
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		return models.FundFilter{}, 0, 0, fiber.NewError(fiber.StatusBadRequest, "page must be >= 1")
	}
	size := c.QueryInt("size", 20)
	if size < 1 || size > maxPageSize {
		return models.FundFilter{}, 0, 0, fiber.NewError(fiber.StatusBadRequest, "size out of range")
	}

	filter := models.FundFilter{
		From:    from,
		To:      to,
		Source:  c.Query("source"),
		Classes: splitClasses(c.Query("class")),
	}
	if err := filter.Validate(); err != nil {
		return models.FundFilter{}, 0, 0, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return filter, page, size, nil
}

func splitClasses(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	classes := parts[:0]
	for _, p := range parts {
		if p != "" {
			classes = append(classes, p)
		}
	}
	if len(classes) == 0 {
		return nil
	}
	return classes
}
