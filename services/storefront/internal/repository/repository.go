// Package repository holds the gorm-backed stores of the storefront.
// Lookups that miss return apperr NotFound and unique violations return apperr Conflict.
package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/services/storefront/internal/domain"
)

// Migrate creates or updates every storefront table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(domain.Models()...)
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(what + " not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict(what + " already exists")
	default:
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return err
		}
		return apperr.Wrap(apperr.KindInternal, what, err)
	}
}

// Page is a 1-based page request.
type Page struct {
	Page int
	Size int
}

// Normalize clamps the page to 1 or more and the size to 1..100, default 20.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size <= 0 {
		p.Size = 20
	}
	if p.Size > 100 {
		p.Size = 100
	}
	return p
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	p = p.Normalize()
	return q.Limit(p.Size).Offset((p.Page - 1) * p.Size)
}

func conflictf(format string, args ...any) error {
	return apperr.Conflict(fmt.Sprintf(format, args...))
}
