package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/you/curtain-store/services/storefront/internal/middlewares"
	"github.com/you/curtain-store/services/storefront/internal/service"
)

type AccountHandler struct {
	auth    *service.AuthService
	carts   *service.CartService
	cookies Cookies
	log     zerolog.Logger
}

func NewAccountHandler(auth *service.AuthService, carts *service.CartService, cookies Cookies, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{auth: auth, carts: carts, cookies: cookies, log: log}
}

// POST /account/register
func (h *AccountHandler) Register(c *gin.Context) {
	var in struct {
		Name     string `json:"name"`
		Surname  string `json:"surname"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.auth.Register(c, service.RegisterInput{Name: in.Name, Surname: in.Surname, Email: in.Email, Password: in.Password})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

// POST /account/login
// Sets the session cookie and folds a guest cart into the user's cart.
func (h *AccountHandler) Login(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &in) {
		return
	}
	u, tok, err := h.auth.Login(c, in.Email, in.Password)
	if err != nil {
		fail(c, err)
		return
	}
	h.cookies.set(c, middlewares.SessionCookie, tok, h.auth.SessionTTL())

	if gid := guestID(c); gid != "" {
		n, err := h.carts.MergeGuest(c, gid, u.ID)
		if err != nil {
			h.log.Warn().Err(err).Uint("user_id", u.ID).Msg("merge guest cart")
		} else {
			h.log.Debug().Int("lines", n).Uint("user_id", u.ID).Msg("guest cart merged")
			h.cookies.clear(c, GuestCookie)
		}
	}
	c.JSON(http.StatusOK, gin.H{"token": tok, "user": u})
}

// POST /account/logout
func (h *AccountHandler) Logout(c *gin.Context) {
	h.cookies.clear(c, middlewares.SessionCookie)
	c.Status(http.StatusNoContent)
}

// POST /account/forgot_password
// The response is the same whether or not the email is registered.
func (h *AccountHandler) ForgotPassword(c *gin.Context) {
	var in struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &in) {
		return
	}
	if err := h.auth.RequestPasswordReset(c, in.Email); err != nil {
		h.log.Error().Err(err).Msg("request password reset")
	}
	c.JSON(http.StatusOK, gin.H{"message": service.ResetRequestedMessage})
}

// POST /account/reset_password
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var in struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &in) {
		return
	}
	if err := h.auth.ResetPassword(c, in.Token, in.Password); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// GET /account/me
func (h *AccountHandler) Me(c *gin.Context) {
	u, err := h.auth.Me(c, middlewares.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// PATCH /account/me
func (h *AccountHandler) UpdateMe(c *gin.Context) {
	var in struct {
		Name    string `json:"name"`
		Surname string `json:"surname"`
		Email   string `json:"email"`
	}
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.auth.UpdateProfile(c, middlewares.UserID(c), service.ProfileInput{Name: in.Name, Surname: in.Surname, Email: in.Email})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// PATCH /account/password
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	var in struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if !bindJSON(c, &in) {
		return
	}
	if err := h.auth.ChangePassword(c, middlewares.UserID(c), in.Current, in.New); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
