package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kaspit-backend/internal/calendar"
	"kaspit-backend/internal/middleware"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/services/budget"
)

type BudgetHandler struct {
	service *budget.BudgetService
}

func NewBudgetHandler(s *budget.BudgetService) *BudgetHandler {
	return &BudgetHandler{service: s}
}

// yearMonth reads ?year and ?month, defaulting to the current month.
func yearMonth(c *gin.Context) (int, int, error) {
	today := calendar.Today()
	year, err := queryInt(c, "year", today.Year())
	if err != nil {
		return 0, 0, err
	}
	month, err := queryInt(c, "month", int(today.Month()))
	if err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

type budgetRequest struct {
	CategoryID string              `json:"category_id" binding:"required"`
	Period     models.BudgetPeriod `json:"period" binding:"required"`
	Year       int                 `json:"year" binding:"required"`
	Month      int                 `json:"month"`
	Amount     decimal.Decimal     `json:"amount"`
	Notes      string              `json:"notes"`
}

func (r budgetRequest) input() (budget.BudgetInput, bool) {
	categoryID, err := uuid.Parse(r.CategoryID)
	if err != nil {
		return budget.BudgetInput{}, false
	}
	return budget.BudgetInput{
		CategoryID: categoryID,
		Period:     r.Period,
		Year:       r.Year,
		Month:      r.Month,
		Amount:     r.Amount,
		Notes:      r.Notes,
	}, true
}

func (h *BudgetHandler) List(c *gin.Context) {
	year, month, err := yearMonth(c)
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := h.service.List(c.Request.Context(), middleware.CompanyID(c), year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *BudgetHandler) Create(c *gin.Context) {
	var payload budgetRequest
	if !bindJSON(c, &payload) {
		return
	}
	in, ok := payload.input()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category ID"})
		return
	}
	b, err := h.service.Create(c.Request.Context(), middleware.CompanyID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BudgetHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "budget")
	if !ok {
		return
	}
	var payload budgetRequest
	if !bindJSON(c, &payload) {
		return
	}
	in, ok := payload.input()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category ID"})
		return
	}
	b, err := h.service.Update(c.Request.Context(), middleware.CompanyID(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BudgetHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "budget")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.CompanyID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Status compares the month's budgets with actual spending.
func (h *BudgetHandler) Status(c *gin.Context) {
	year, month, err := yearMonth(c)
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := h.service.StatusFor(c.Request.Context(), middleware.CompanyID(c), year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "month": month, "items": items})
}
