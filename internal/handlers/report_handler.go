package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kaspit-backend/internal/calendar"
	"kaspit-backend/internal/middleware"
	"kaspit-backend/internal/services/reports"
	"kaspit-backend/internal/services/vat"
)

type ReportHandler struct {
	reports *reports.ReportService
	vat     *vat.VATService
}

func NewReportHandler(r *reports.ReportService, v *vat.VATService) *ReportHandler {
	return &ReportHandler{reports: r, vat: v}
}

// VAT returns the report of ?year&period (1-based period index), or of the
// period containing ?date (default today).
func (h *ReportHandler) VAT(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := middleware.CompanyID(c)

	if c.Query("period") != "" {
		year, err := queryInt(c, "year", calendar.Today().Year())
		if err != nil {
			respondError(c, err)
			return
		}
		n, err := queryInt(c, "period", 0)
		if err != nil {
			respondError(c, err)
			return
		}
		r, err := h.vat.ReportByIndex(ctx, companyID, year, n)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
		return
	}

	date := calendar.Today()
	if s := c.Query("date"); s != "" {
		d, err := parseDay(s)
		if err != nil {
			respondError(c, err)
			return
		}
		date = d
	}
	r, err := h.vat.ReportFor(ctx, companyID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *ReportHandler) CashFlow(c *gin.Context) {
	months, err := queryInt(c, "months", 0)
	if err != nil {
		respondError(c, err)
		return
	}
	asOf := calendar.Today()
	if s := c.Query("as_of"); s != "" {
		d, err := parseDay(s)
		if err != nil {
			respondError(c, err)
			return
		}
		asOf = d
	}

	f, err := h.reports.Forecast(c.Request.Context(), middleware.CompanyID(c), months, asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *ReportHandler) Dashboard(c *gin.Context) {
	year, month, err := yearMonth(c)
	if err != nil {
		respondError(c, err)
		return
	}
	d, err := h.reports.Dashboard(c.Request.Context(), middleware.CompanyID(c), year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
