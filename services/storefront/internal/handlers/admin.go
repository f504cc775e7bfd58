package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/middlewares"
	"github.com/you/curtain-store/services/storefront/internal/service"
)

type AdminHandler struct {
	users   *service.UserAdminService
	mail    *service.MailService
	uploads *service.UploadService
}

func NewAdminHandler(users *service.UserAdminService, mail *service.MailService, uploads *service.UploadService) *AdminHandler {
	return &AdminHandler{users: users, mail: mail, uploads: uploads}
}

// GET /users?page=&page_size=&q=&role=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	p := pageQuery(c)
	users, total, err := h.users.List(c, p, c.Query("q"), domain.Role(c.Query("role")))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, paged[domain.User]{Items: users, Total: total, Page: p.Page, PageSize: p.Size})
}

// PATCH /users/:id/role
func (h *AdminHandler) SetRole(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in struct {
		Role string `json:"role" binding:"required"`
	}
	if !bindJSON(c, &in) {
		return
	}
	if err := h.users.SetRole(c, middlewares.UserID(c), id, domain.Role(in.Role)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c, middlewares.UserID(c), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /upload (multipart field "file")
func (h *AdminHandler) Upload(c *gin.Context) {
	f, done, err := formFile(c, "file")
	if err != nil {
		fail(c, err)
		return
	}
	defer done()
	if f == nil {
		fail(c, apperr.Validation("file is required"))
		return
	}
	url, err := h.uploads.Save(c, *f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// POST /send-mail
func (h *AdminHandler) SendMail(c *gin.Context) {
	var in struct {
		Recipients []string `json:"recipients"`
		Subject    string   `json:"subject"`
		Message    string   `json:"message"`
	}
	if !bindJSON(c, &in) {
		return
	}
	if err := h.mail.Send(c, in.Recipients, in.Subject, in.Message); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": len(in.Recipients)})
}
