package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"kaspit-backend/internal/middleware"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/repository"
	"kaspit-backend/internal/services/ledger"
)

type LedgerHandler struct {
	service    *ledger.LedgerService
	categories *ledger.CategoryService
}

func NewLedgerHandler(s *ledger.LedgerService, categories *ledger.CategoryService) *LedgerHandler {
	return &LedgerHandler{service: s, categories: categories}
}

// Categories

func (h *LedgerHandler) ListCategories(c *gin.Context) {
	items, err := h.categories.List(c.Request.Context(), middleware.CompanyID(c), models.EntryKind(c.Query("kind")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *LedgerHandler) CreateCategory(c *gin.Context) {
	var payload struct {
		Kind  models.EntryKind `json:"kind" binding:"required"`
		Name  string           `json:"name" binding:"required"`
		Color string           `json:"color"`
	}
	if !bindJSON(c, &payload) {
		return
	}
	cat, err := h.categories.Create(c.Request.Context(), middleware.CompanyID(c), payload.Kind, payload.Name, payload.Color)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *LedgerHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id", "category")
	if !ok {
		return
	}
	var payload struct {
		Name  string `json:"name" binding:"required"`
		Color string `json:"color"`
	}
	if !bindJSON(c, &payload) {
		return
	}
	cat, err := h.categories.Rename(c.Request.Context(), middleware.CompanyID(c), id, payload.Name, payload.Color)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *LedgerHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id", "category")
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), middleware.CompanyID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Entries

type entryRequest struct {
	Date          string               `json:"date" binding:"required"`
	Description   string               `json:"description"`
	Amount        decimal.Decimal      `json:"amount"`
	VATAmount     *decimal.Decimal     `json:"vat_amount"`
	VATExempt     bool                 `json:"vat_exempt"`
	CategoryID    string               `json:"category_id"`
	PaymentMethod string               `json:"payment_method"`
	Status        models.PaymentStatus `json:"status"`
	Notes         string               `json:"notes"`
}

func (r entryRequest) input(counterparty, document string) (ledger.EntryInput, error) {
	date, err := parseDay(r.Date)
	if err != nil {
		return ledger.EntryInput{}, err
	}
	categoryID, err := optionalUUID(r.CategoryID, "category_id")
	if err != nil {
		return ledger.EntryInput{}, err
	}
	return ledger.EntryInput{
		Date:          date,
		Description:   r.Description,
		Counterparty:  counterparty,
		Document:      document,
		Amount:        r.Amount,
		VATAmount:     r.VATAmount,
		VATExempt:     r.VATExempt,
		CategoryID:    categoryID,
		PaymentMethod: r.PaymentMethod,
		Status:        r.Status,
		Notes:         r.Notes,
	}, nil
}

type incomeRequest struct {
	entryRequest
	CustomerName  string `json:"customer_name"`
	InvoiceNumber string `json:"invoice_number"`
}

type expenseRequest struct {
	entryRequest
	SupplierName  string `json:"supplier_name"`
	ReceiptNumber string `json:"receipt_number"`
	VATDeductible *bool  `json:"vat_deductible"`
}

func ledgerFilter(c *gin.Context) (repository.LedgerFilter, error) {
	var (
		f   repository.LedgerFilter
		err error
	)
	if f.DateFrom, err = optionalDay(c.Query("date_from")); err != nil {
		return f, err
	}
	if f.DateTo, err = optionalDay(c.Query("date_to")); err != nil {
		return f, err
	}
	if f.CategoryID, err = optionalUUID(c.Query("category_id"), "category_id"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(c, "limit", repository.DefaultPageSize); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(c, "offset", 0); err != nil {
		return f, err
	}
	f.Status = c.Query("status")
	f.Search = c.Query("search")
	f.Unlinked = c.Query("unlinked") == "true"
	return f, nil
}

func (h *LedgerHandler) ListIncomes(c *gin.Context) {
	f, err := ledgerFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	items, total, err := h.service.ListIncomes(c.Request.Context(), middleware.CompanyID(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "limit": f.Limit, "offset": f.Offset})
}

func (h *LedgerHandler) GetIncome(c *gin.Context) {
	id, ok := parseID(c, "id", "income")
	if !ok {
		return
	}
	inc, err := h.service.GetIncome(c.Request.Context(), middleware.CompanyID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inc)
}

func (h *LedgerHandler) CreateIncome(c *gin.Context) {
	var payload incomeRequest
	if !bindJSON(c, &payload) {
		return
	}
	in, err := payload.input(payload.CustomerName, payload.InvoiceNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	inc, err := h.service.CreateIncome(c.Request.Context(), middleware.CompanyID(c), middleware.UserID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inc)
}

func (h *LedgerHandler) UpdateIncome(c *gin.Context) {
	id, ok := parseID(c, "id", "income")
	if !ok {
		return
	}
	var payload incomeRequest
	if !bindJSON(c, &payload) {
		return
	}
	in, err := payload.input(payload.CustomerName, payload.InvoiceNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	inc, err := h.service.UpdateIncome(c.Request.Context(), middleware.CompanyID(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inc)
}

func (h *LedgerHandler) DeleteIncome(c *gin.Context) {
	id, ok := parseID(c, "id", "income")
	if !ok {
		return
	}
	if err := h.service.DeleteIncome(c.Request.Context(), middleware.CompanyID(c), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LedgerHandler) ListExpenses(c *gin.Context) {
	f, err := ledgerFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	items, total, err := h.service.ListExpenses(c.Request.Context(), middleware.CompanyID(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "limit": f.Limit, "offset": f.Offset})
}

func (h *LedgerHandler) GetExpense(c *gin.Context) {
	id, ok := parseID(c, "id", "expense")
	if !ok {
		return
	}
	exp, err := h.service.GetExpense(c.Request.Context(), middleware.CompanyID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exp)
}

func (r expenseRequest) entry() (ledger.EntryInput, error) {
	in, err := r.entryRequest.input(r.SupplierName, r.ReceiptNumber)
	in.VATDeductible = r.VATDeductible
	return in, err
}

func (h *LedgerHandler) CreateExpense(c *gin.Context) {
	var payload expenseRequest
	if !bindJSON(c, &payload) {
		return
	}
	in, err := payload.entry()
	if err != nil {
		respondError(c, err)
		return
	}
	exp, err := h.service.CreateExpense(c.Request.Context(), middleware.CompanyID(c), middleware.UserID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exp)
}

func (h *LedgerHandler) UpdateExpense(c *gin.Context) {
	id, ok := parseID(c, "id", "expense")
	if !ok {
		return
	}
	var payload expenseRequest
	if !bindJSON(c, &payload) {
		return
	}
	in, err := payload.entry()
	if err != nil {
		respondError(c, err)
		return
	}
	exp, err := h.service.UpdateExpense(c.Request.Context(), middleware.CompanyID(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exp)
}

func (h *LedgerHandler) DeleteExpense(c *gin.Context) {
	id, ok := parseID(c, "id", "expense")
	if !ok {
		return
	}
	if err := h.service.DeleteExpense(c.Request.Context(), middleware.CompanyID(c), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
