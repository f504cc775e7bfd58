// Package handlers exposes the storefront and back office over HTTP.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/services/storefront/internal/repository"
	"github.com/you/curtain-store/services/storefront/internal/service"
)

// fail writes err as {"error": msg} with its mapped status.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		fail(c, apperr.Validation("invalid request body: "+err.Error()))
		return false
	}
	return true
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		fail(c, apperr.NotFound("not found"))
		return 0, false
	}
	return uint(id), true
}

// deleteByID runs del with the :id path parameter and answers 204.
func deleteByID(c *gin.Context, del func(ctx context.Context, id uint) error) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := del(c, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pageQuery(c *gin.Context) repository.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return repository.Page{Page: page, Size: size}.Normalize()
}

type paged[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// formFile opens an optional multipart file. The returned func closes it.
func formFile(c *gin.Context, field string) (*service.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, apperr.Validation("multipart form expected")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, apperr.Validation("unreadable file " + fh.Filename)
	}
	return &service.Upload{Name: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}

func formFiles(c *gin.Context, field string) ([]service.Upload, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, apperr.Validation("multipart form expected")
	}
	var (
		out    []service.Upload
		closer []func() error
	)
	done := func() {
		for _, cl := range closer {
			_ = cl()
		}
	}
	for _, fh := range form.File[field] {
		f, err := fh.Open()
		if err != nil {
			done()
			return nil, func() {}, apperr.Validation("unreadable file " + fh.Filename)
		}
		closer = append(closer, f.Close)
		out = append(out, service.Upload{Name: fh.Filename, Body: f})
	}
	return out, done, nil
}

// Cookies writes the session and guest cart cookies.
type Cookies struct {
	Secure     bool
	SessionTTL time.Duration
	GuestTTL   time.Duration
}

func (k Cookies) set(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(ttl.Seconds()), "/", "", k.Secure, true)
}

func (k Cookies) clear(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", k.Secure, true)
}
