package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kaspit-backend/internal/middleware"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/services/importer"
)

// maxUploadBytes caps a statement upload.
const maxUploadBytes = 20 << 20

type ImportHandler struct {
	service *importer.ImportService
}

func NewImportHandler(s *importer.ImportService) *ImportHandler {
	return &ImportHandler{service: s}
}

// readUpload returns the multipart "file" field.
func readUpload(c *gin.Context) (string, []byte, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return "", nil, false
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file larger than %d MB", maxUploadBytes>>20)})
		return "", nil, false
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return "", nil, false
	}
	return header.Filename, data, true
}

func headerRow(c *gin.Context) (int, bool) {
	s := c.PostForm("header_row")
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "header_row must be a positive number"})
		return 0, false
	}
	return n, true
}

// Preview shows the first rows, the headers and a suggested mapping.
func (h *ImportHandler) Preview(c *gin.Context) {
	filename, data, ok := readUpload(c)
	if !ok {
		return
	}
	row, ok := headerRow(c)
	if !ok {
		return
	}
	p, err := h.service.Preview(filename, data, c.PostForm("sheet"), row)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Upload starts an import. The mapping comes from a saved profile
// (profile_id) or an inline JSON "mapping" field.
func (h *ImportHandler) Upload(c *gin.Context) {
	filename, data, ok := readUpload(c)
	if !ok {
		return
	}
	companyID := middleware.CompanyID(c)

	var m models.ColumnMapping
	switch {
	case c.PostForm("profile_id") != "":
		id, err := uuid.Parse(c.PostForm("profile_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile ID"})
			return
		}
		p, err := h.service.GetProfile(c.Request.Context(), companyID, id)
		if err != nil {
			respondError(c, err)
			return
		}
		m = p.Mapping.Data()
	case c.PostForm("mapping") != "":
		if err := json.Unmarshal([]byte(c.PostForm("mapping")), &m); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mapping"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mapping or profile_id required"})
		return
	}

	if s := c.PostForm("sheet"); s != "" {
		m.Sheet = s
	}
	if c.PostForm("header_row") != "" {
		row, ok := headerRow(c)
		if !ok {
			return
		}
		m.HeaderRow = row
	}

	batch, err := h.service.Start(c.Request.Context(), companyID, middleware.UserID(c), filename, data, m)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"batch_id": batch.ID.String(),
		"status":   batch.Status,
		"total":    batch.TotalRows,
	})
}

func (h *ImportHandler) ListBatches(c *gin.Context) {
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := h.service.ListBatches(c.Request.Context(), middleware.CompanyID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetBatch reports the progress and outcome of one import.
func (h *ImportHandler) GetBatch(c *gin.Context) {
	id, ok := parseID(c, "batchId", "batch")
	if !ok {
		return
	}
	batch, err := h.service.GetBatch(c.Request.Context(), middleware.CompanyID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *ImportHandler) ListProfiles(c *gin.Context) {
	items, err := h.service.ListProfiles(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type profileRequest struct {
	Name    string               `json:"name" binding:"required"`
	Mapping models.ColumnMapping `json:"mapping"`
}

func (h *ImportHandler) CreateProfile(c *gin.Context) {
	var payload profileRequest
	if !bindJSON(c, &payload) {
		return
	}
	p, err := h.service.SaveProfile(c.Request.Context(), middleware.CompanyID(c), nil, payload.Name, payload.Mapping)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ImportHandler) UpdateProfile(c *gin.Context) {
	id, ok := parseID(c, "id", "profile")
	if !ok {
		return
	}
	var payload profileRequest
	if !bindJSON(c, &payload) {
		return
	}
	p, err := h.service.SaveProfile(c.Request.Context(), middleware.CompanyID(c), &id, payload.Name, payload.Mapping)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ImportHandler) DeleteProfile(c *gin.Context) {
	id, ok := parseID(c, "id", "profile")
	if !ok {
		return
	}
	if err := h.service.DeleteProfile(c.Request.Context(), middleware.CompanyID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
