package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"kaspit-backend/internal/calendar"
	"kaspit-backend/internal/middleware"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/services/recurring"
)

type RecurringHandler struct {
	service *recurring.RecurringService
}

func NewRecurringHandler(s *recurring.RecurringService) *RecurringHandler {
	return &RecurringHandler{service: s}
}

type templateRequest struct {
	SupplierName  string           `json:"supplier_name" binding:"required"`
	Description   string           `json:"description"`
	Amount        decimal.Decimal  `json:"amount"`
	VATAmount     *decimal.Decimal `json:"vat_amount"`
	VATExempt     bool             `json:"vat_exempt"`
	CategoryID    string           `json:"category_id"`
	PaymentMethod string           `json:"payment_method"`
	Frequency     models.Frequency `json:"frequency" binding:"required"`
	StartDate     string           `json:"start_date" binding:"required"`
	EndDate       string           `json:"end_date"`
	Active        *bool            `json:"active"`
}

func (r templateRequest) input() (recurring.TemplateInput, error) {
	start, err := parseDay(r.StartDate)
	if err != nil {
		return recurring.TemplateInput{}, err
	}
	end, err := optionalDay(r.EndDate)
	if err != nil {
		return recurring.TemplateInput{}, err
	}
	categoryID, err := optionalUUID(r.CategoryID, "category_id")
	if err != nil {
		return recurring.TemplateInput{}, err
	}
	return recurring.TemplateInput{
		SupplierName:  r.SupplierName,
		Description:   r.Description,
		Amount:        r.Amount,
		VATAmount:     r.VATAmount,
		VATExempt:     r.VATExempt,
		CategoryID:    categoryID,
		PaymentMethod: r.PaymentMethod,
		Frequency:     r.Frequency,
		StartDate:     start,
		EndDate:       end,
		Active:        r.Active,
	}, nil
}

func (h *RecurringHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), middleware.CompanyID(c), c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *RecurringHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "recurring expense")
	if !ok {
		return
	}
	t, err := h.service.Get(c.Request.Context(), middleware.CompanyID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *RecurringHandler) Create(c *gin.Context) {
	var payload templateRequest
	if !bindJSON(c, &payload) {
		return
	}
	in, err := payload.input()
	if err != nil {
		respondError(c, err)
		return
	}
	t, err := h.service.Create(c.Request.Context(), middleware.CompanyID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *RecurringHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "recurring expense")
	if !ok {
		return
	}
	var payload templateRequest
	if !bindJSON(c, &payload) {
		return
	}
	in, err := payload.input()
	if err != nil {
		respondError(c, err)
		return
	}
	t, err := h.service.Update(c.Request.Context(), middleware.CompanyID(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *RecurringHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "recurring expense")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.CompanyID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Occurrences lists the template's dates between from and to (default: the
// next twelve months).
func (h *RecurringHandler) Occurrences(c *gin.Context) {
	id, ok := parseID(c, "id", "recurring expense")
	if !ok {
		return
	}
	from, to := calendar.Today(), calendar.Today().AddDate(1, 0, 0)
	if s := c.Query("from"); s != "" {
		d, err := parseDay(s)
		if err != nil {
			respondError(c, err)
			return
		}
		from = d
	}
	if s := c.Query("to"); s != "" {
		d, err := parseDay(s)
		if err != nil {
			respondError(c, err)
			return
		}
		to = d
	}

	dates, err := h.service.Preview(c.Request.Context(), middleware.CompanyID(c), id, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(calendar.DayLayout)
	}
	c.JSON(http.StatusOK, gin.H{"dates": out})
}

// Generate creates the company's due expenses up to as_of (default today).
func (h *RecurringHandler) Generate(c *gin.Context) {
	asOf := calendar.Today()
	if s := c.Query("as_of"); s != "" {
		d, err := parseDay(s)
		if err != nil {
			respondError(c, err)
			return
		}
		asOf = d
	}

	companyID := middleware.CompanyID(c)
	res, err := h.service.GenerateDue(c.Request.Context(), &companyID, asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"as_of": asOf.Format(calendar.DayLayout), "result": res})
}
