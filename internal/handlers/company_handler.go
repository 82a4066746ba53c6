package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kaspit-backend/internal/middleware"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/services/company"
)

type CompanyHandler struct {
	service *company.CompanyService
}

func NewCompanyHandler(s *company.CompanyService) *CompanyHandler {
	return &CompanyHandler{service: s}
}

type companyRequest struct {
	Name      *string           `json:"name"`
	TaxID     *string           `json:"tax_id"`
	VATRate   *decimal.Decimal  `json:"vat_rate"`
	VATPeriod *models.VATPeriod `json:"vat_period"`
	Currency  *string           `json:"currency"`
}

func (r companyRequest) settings() company.Settings {
	return company.Settings{
		Name:      r.Name,
		TaxID:     r.TaxID,
		VATRate:   r.VATRate,
		VATPeriod: r.VATPeriod,
		Currency:  r.Currency,
	}
}

func (h *CompanyHandler) Create(c *gin.Context) {
	var payload companyRequest
	if !bindJSON(c, &payload) {
		return
	}
	co, err := h.service.Create(c.Request.Context(), middleware.UserID(c), middleware.Email(c), payload.settings())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, co)
}

func (h *CompanyHandler) List(c *gin.Context) {
	items, err := h.service.ListForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *CompanyHandler) Get(c *gin.Context) {
	co, err := h.service.Get(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"company": co, "role": middleware.Role(c)})
}

func (h *CompanyHandler) Update(c *gin.Context) {
	var payload companyRequest
	if !bindJSON(c, &payload) {
		return
	}
	co, err := h.service.Update(c.Request.Context(), middleware.CompanyID(c), payload.settings())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, co)
}

func (h *CompanyHandler) ListMembers(c *gin.Context) {
	items, err := h.service.ListMembers(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *CompanyHandler) AddMember(c *gin.Context) {
	var payload struct {
		UserID string      `json:"user_id" binding:"required"`
		Email  string      `json:"email"`
		Role   models.Role `json:"role" binding:"required"`
	}
	if !bindJSON(c, &payload) {
		return
	}
	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	m, err := h.service.AddMember(c.Request.Context(), middleware.CompanyID(c), userID, payload.Email, payload.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}
