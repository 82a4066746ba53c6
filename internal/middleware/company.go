package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"kaspit-backend/internal/models"
	"kaspit-backend/internal/repository"
	"kaspit-backend/internal/services/company"
)

// CompanyAccess resolves :companyId and the caller's membership in it.
// Companies the caller does not belong to are reported as not found.
func CompanyAccess(companies *company.CompanyService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID, err := uuid.Parse(c.Param("companyId"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid company ID"})
			return
		}

		m, err := companies.Membership(c.Request.Context(), companyID, UserID(c))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "company not found"})
				return
			}
			log.Error("membership lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set(keyCompanyID, companyID)
		c.Set(keyRole, m.Role)
		c.Next()
	}
}

// RequireWrite rejects viewers.
func RequireWrite() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Role(c).CanWrite() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "read-only membership"})
			return
		}
		c.Next()
	}
}

func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Role(c) != models.RoleOwner {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "owner role required"})
			return
		}
		c.Next()
	}
}

func CompanyID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(keyCompanyID)
	v, _ := id.(uuid.UUID)
	return v
}

func Role(c *gin.Context) models.Role {
	r, _ := c.Get(keyRole)
	v, _ := r.(models.Role)
	return v
}
