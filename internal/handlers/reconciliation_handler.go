package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kaspit-backend/internal/middleware"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/repository"
	service "kaspit-backend/internal/services/reconciliation"
)

type ReconciliationHandler struct {
	service *service.ReconciliationService
}

func NewReconciliationHandler(s *service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{service: s}
}

func (h *ReconciliationHandler) ListTransactions(c *gin.Context) {
	batchID, err := optionalUUID(c.Query("batch_id"), "batch_id")
	if err != nil {
		respondError(c, err)
		return
	}
	limit, err := queryInt(c, "limit", repository.DefaultPageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	companyID := middleware.CompanyID(c)
	items, nextCursor, hasMore, err := h.service.ListTransactions(c.Request.Context(), companyID, repository.TransactionFilter{
		BatchID: batchID,
		Status:  c.Query("status"),
		Search:  c.Query("search"),
		Cursor:  c.Query("cursor"),
		Limit:   limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	stats, err := h.service.GetBatchStats(c.Request.Context(), companyID, batchID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"next_cursor": nextCursor,
		"has_more":    hasMore,
		"stats":       stats,
	})
}

func (h *ReconciliationHandler) Stats(c *gin.Context) {
	batchID, err := optionalUUID(c.Query("batch_id"), "batch_id")
	if err != nil {
		respondError(c, err)
		return
	}
	stats, err := h.service.GetBatchStats(c.Request.Context(), middleware.CompanyID(c), batchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ReconciliationHandler) GetTransaction(c *gin.Context) {
	id, ok := parseID(c, "id", "transaction")
	if !ok {
		return
	}
	tx, err := h.service.GetTransaction(c.Request.Context(), middleware.CompanyID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *ReconciliationHandler) Suggestions(c *gin.Context) {
	id, ok := parseID(c, "id", "transaction")
	if !ok {
		return
	}
	items, err := h.service.Suggestions(c.Request.Context(), middleware.CompanyID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ReconciliationHandler) Link(c *gin.Context) {
	id, ok := parseID(c, "id", "transaction")
	if !ok {
		return
	}
	var payload struct {
		Kind    models.EntryKind `json:"kind" binding:"required"`
		EntryID string           `json:"entry_id" binding:"required"`
	}
	if !bindJSON(c, &payload) {
		return
	}
	entryID, err := uuid.Parse(payload.EntryID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry ID"})
		return
	}

	tx, err := h.service.Link(c.Request.Context(), middleware.CompanyID(c), middleware.UserID(c), id,
		service.LinkParams{Kind: payload.Kind, EntryID: entryID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction linked", "transaction": tx})
}

func (h *ReconciliationHandler) Unlink(c *gin.Context) {
	id, ok := parseID(c, "id", "transaction")
	if !ok {
		return
	}
	tx, err := h.service.Unlink(c.Request.Context(), middleware.CompanyID(c), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction unlinked", "transaction": tx})
}

func (h *ReconciliationHandler) MarkTransactionExternal(c *gin.Context) {
	id, ok := parseID(c, "id", "transaction")
	if !ok {
		return
	}
	tx, err := h.service.MarkTransactionExternal(c.Request.Context(), middleware.CompanyID(c), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction marked as external", "transaction": tx})
}

func (h *ReconciliationHandler) RestoreTransaction(c *gin.Context) {
	id, ok := parseID(c, "id", "transaction")
	if !ok {
		return
	}
	tx, err := h.service.RestoreTransaction(c.Request.Context(), middleware.CompanyID(c), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction restored", "transaction": tx})
}

// CreateEntry books the bank row as a new income or expense and links them.
func (h *ReconciliationHandler) CreateEntry(c *gin.Context) {
	id, ok := parseID(c, "id", "transaction")
	if !ok {
		return
	}
	var payload struct {
		CategoryID   string           `json:"category_id"`
		Counterparty string           `json:"counterparty"`
		Description  string           `json:"description"`
		VATAmount    *decimal.Decimal `json:"vat_amount"`
		VATExempt    bool             `json:"vat_exempt"`
		Notes        string           `json:"notes"`
	}
	if !bindJSON(c, &payload) {
		return
	}
	categoryID, err := optionalUUID(payload.CategoryID, "category_id")
	if err != nil {
		respondError(c, err)
		return
	}

	tx, err := h.service.CreateEntryFromTransaction(c.Request.Context(), middleware.CompanyID(c), middleware.UserID(c), id,
		service.CreateEntryParams{
			CategoryID:   categoryID,
			Counterparty: payload.Counterparty,
			Description:  payload.Description,
			VATAmount:    payload.VATAmount,
			VATExempt:    payload.VATExempt,
			Notes:        payload.Notes,
		})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "entry created", "transaction": tx})
}

func (h *ReconciliationHandler) History(c *gin.Context) {
	id, ok := parseID(c, "id", "transaction")
	if !ok {
		return
	}
	items, err := h.service.History(c.Request.Context(), middleware.CompanyID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// BulkAccept links every suggested row whose top suggestion is unambiguous.
func (h *ReconciliationHandler) BulkAccept(c *gin.Context) {
	var payload struct {
		MinScore float64 `json:"min_score"`
	}
	if c.Request.ContentLength > 0 && !bindJSON(c, &payload) {
		return
	}

	count, err := h.service.BulkAccept(c.Request.Context(), middleware.CompanyID(c), middleware.UserID(c), payload.MinScore)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":              "bulk accept completed",
		"transactions_updated": count,
	})
}

func (h *ReconciliationHandler) Rescore(c *gin.Context) {
	count, err := h.service.RescoreUnmatched(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions_rescored": count})
}
