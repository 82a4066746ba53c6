package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kaspit-backend/internal/apperr"
)

// ErrNotFound is returned when a row does not exist or belongs to another company.
var ErrNotFound = errors.New("not found")

// translate maps gorm errors onto the sentinels handlers understand. It
// relies on gorm.Config.TranslateError for duplicate keys.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("already exists: %w", apperr.ErrConflict)
	}
	return err
}

// company restricts a query to one tenant. Every tenant query goes through it.
func company(db *gorm.DB, companyID uuid.UUID) *gorm.DB {
	return db.Where("company_id = ?", companyID)
}

// scoped is the get/save/delete core shared by the tenant repositories.
type scoped[T any] struct {
	db *gorm.DB
}

func (s scoped[T]) get(db *gorm.DB, companyID, id uuid.UUID) (*T, error) {
	var row T
	if err := company(db, companyID).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (s scoped[T]) delete(db *gorm.DB, companyID, id uuid.UUID) error {
	var row T
	res := company(db, companyID).Where("id = ?", id).Delete(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern builds a substring pattern for use with likeEscape. Wildcards
// typed by the user match literally.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

const likeEscape = ` ESCAPE '\'`
