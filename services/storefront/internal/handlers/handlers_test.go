package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/you/curtain-store/pkg/auth"
	"github.com/you/curtain-store/pkg/config"
	"github.com/you/curtain-store/pkg/db"
	"github.com/you/curtain-store/pkg/mailer"
	"github.com/you/curtain-store/services/storefront/internal/cartstore"
	"github.com/you/curtain-store/services/storefront/internal/middlewares"
	"github.com/you/curtain-store/services/storefront/internal/payment"
	"github.com/you/curtain-store/services/storefront/internal/repository"
	"github.com/you/curtain-store/services/storefront/internal/service"
)

// okGateway answers every charge with status, successful when empty.
type okGateway struct {
	n      int
	status payment.ChargeStatus
}

func (g *okGateway) charge(id string) *payment.Charge {
	ch := &payment.Charge{ID: id, Status: payment.ChargeSuccessful}
	if g.status != "" {
		ch.Status = g.status
	}
	if ch.Status == payment.ChargePending {
		ch.AuthorizeURI = "https://pay.test/3ds/" + id
	}
	return ch
}

func (g *okGateway) CreateCharge(context.Context, payment.ChargeRequest) (*payment.Charge, error) {
	g.n++
	return g.charge(fmt.Sprintf("chrg_%d", g.n)), nil
}

func (g *okGateway) RetrieveCharge(_ context.Context, id string) (*payment.Charge, error) {
	return g.charge(id), nil
}

func (g *okGateway) VerifyEvent(context.Context, string) (*payment.Event, error) {
	return nil, errors.New("unknown event")
}

type nopMailer struct{ sent int }

func (m *nopMailer) Send(context.Context, mailer.Message) error { m.sent++; return nil }

type memStore struct{ files map[string]bool }

func (s *memStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	url := fmt.Sprintf("mem://%d/%s", len(s.files), name)
	s.files[url] = true
	return url, nil
}

func (s *memStore) Delete(_ context.Context, url string) error {
	delete(s.files, url)
	return nil
}

type RouterTestSuite struct {
	suite.Suite
	router  http.Handler
	mail    *nopMailer
	files   *memStore
	users   *service.UserAdminService
	gateway *okGateway
}

func TestRouterTestSuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) SetupTest() {
	t := s.T()
	gdb, err := db.Open("sqlite", ":memory:", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := zerolog.Nop()
	s.mail = &nopMailer{}
	s.files = &memStore{files: map[string]bool{}}
	s.gateway = &okGateway{}
	signer := auth.NewSigner("test-secret", time.Hour)
	users := repository.NewUserRepo(gdb)
	catalog := repository.NewCatalogRepo(gdb)
	carts := service.NewCartService(cartstore.NewDBStore(repository.NewCartRepo(gdb)), cartstore.NewGuestStore(rdb, time.Hour), catalog, log)
	s.users = service.NewUserAdminService(users)

	s.router = NewRouter(Deps{
		Log:             log,
		Signer:          signer,
		Cookies:         Cookies{SessionTTL: time.Hour, GuestTTL: time.Hour},
		Redis:           rdb,
		RateLimitPerMin: 100,
		Auth:            service.NewAuthService(users, signer, s.mail, "http://shop.test", log),
		Carts:           carts,
		Orders: service.NewOrderService(service.OrderDeps{
			Orders:    repository.NewOrderRepo(gdb),
			Addresses: repository.NewAddressRepo(gdb),
			Users:     users,
			Carts:     carts,
			Gateway:   s.gateway,
			Cargo:     []config.CargoOption{{Code: "standard", Fee: decimal.Zero}},
			Currency:  "thb",
			Log:       log,
		}),
		Addresses:   service.NewAddressService(repository.NewAddressRepo(gdb)),
		Favorites:   service.NewFavoriteService(repository.NewFavoriteRepo(gdb)),
		Reviews:     service.NewReviewService(repository.NewReviewRepo(gdb)),
		Catalog:     service.NewCatalogService(catalog, s.files, log),
		Banners:     service.NewBannerService(repository.NewBannerRepo(gdb), s.files, log),
		Blogs:       service.NewBlogService(repository.NewBlogRepo(gdb), s.files, log),
		Subscribers: service.NewSubscriberService(repository.NewSubscriberRepo(gdb)),
		Users:       s.users,
		Mail:        service.NewMailService(s.mail),
		Uploads:     service.NewUploadService(s.files),
	})
}

type call struct {
	method  string
	path    string
	body    any
	form    *multipart.Writer
	formBuf *bytes.Buffer
	cookies []*http.Cookie
}

func (s *RouterTestSuite) do(c call) *httptest.ResponseRecorder {
	var req *http.Request
	switch {
	case c.form != nil:
		req = httptest.NewRequest(c.method, c.path, c.formBuf)
		req.Header.Set("Content-Type", c.form.FormDataContentType())
	case c.body != nil:
		b, err := json.Marshal(c.body)
		s.Require().NoError(err)
		req = httptest.NewRequest(c.method, c.path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	default:
		req = httptest.NewRequest(c.method, c.path, nil)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func cookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decode[T any](s *RouterTestSuite, w *httptest.ResponseRecorder) T {
	var v T
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// login registers the user when needed and returns the session cookie.
func (s *RouterTestSuite) login(email string, extra ...*http.Cookie) *http.Cookie {
	s.do(call{method: http.MethodPost, path: "/account/register", body: gin.H{
		"name": "Ada", "surname": "Lovelace", "email": email, "password": "password1",
	}})
	w := s.do(call{method: http.MethodPost, path: "/account/login", body: gin.H{"email": email, "password": "password1"}, cookies: extra})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	ck := cookie(w, middlewares.SessionCookie)
	s.Require().NotNil(ck)
	s.True(ck.HttpOnly)
	return ck
}

func (s *RouterTestSuite) adminSession() *http.Cookie {
	_, _, err := s.users.CreateAdmin(context.Background(), service.RegisterInput{Name: "Root", Email: "root@x.io", Password: "password1"})
	s.Require().NoError(err)
	w := s.do(call{method: http.MethodPost, path: "/account/login", body: gin.H{"email": "root@x.io", "password": "password1"}})
	s.Require().Equal(http.StatusOK, w.Code)
	return cookie(w, middlewares.SessionCookie)
}

func multipartBody(fields map[string]string, files map[string]string) (*multipart.Writer, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	for field, name := range files {
		fw, _ := mw.CreateFormFile(field, name)
		_, _ = fw.Write([]byte("image-bytes"))
	}
	_ = mw.Close()
	return mw, buf
}

// seedProduct creates a product through the admin API and returns its id.
func (s *RouterTestSuite) seedProduct(admin *http.Cookie) uint {
	w := s.do(call{method: http.MethodPost, path: "/categories", body: gin.H{"name": "Curtains"}, cookies: []*http.Cookie{admin}})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	mw, buf := multipartBody(map[string]string{"name": "Linen", "category": "Curtains", "price": "100"}, map[string]string{"main_image": "linen.jpg"})
	w = s.do(call{method: http.MethodPost, path: "/products", form: mw, formBuf: buf, cookies: []*http.Cookie{admin}})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		ID uint `json:"id"`
	}](s, w).ID
}

func (s *RouterTestSuite) TestSessionCookieAuthenticates() {
	w := s.do(call{method: http.MethodGet, path: "/account/me"})
	s.Equal(http.StatusUnauthorized, w.Code)

	ck := s.login("ada@x.io")
	w = s.do(call{method: http.MethodGet, path: "/account/me", cookies: []*http.Cookie{ck}})
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"email":"ada@x.io"`)
	s.NotContains(w.Body.String(), "password")

	w = s.do(call{method: http.MethodPost, path: "/account/logout", cookies: []*http.Cookie{ck}})
	s.Equal(http.StatusNoContent, w.Code)
	s.Equal(-1, cookie(w, middlewares.SessionCookie).MaxAge)
}

func (s *RouterTestSuite) TestLoginFailuresAreGeneric() {
	s.login("ada@x.io")
	wrong := s.do(call{method: http.MethodPost, path: "/account/login", body: gin.H{"email": "ada@x.io", "password": "nope-nope"}})
	unknown := s.do(call{method: http.MethodPost, path: "/account/login", body: gin.H{"email": "who@x.io", "password": "nope-nope"}})
	s.Equal(http.StatusUnauthorized, wrong.Code)
	s.Equal(wrong.Body.String(), unknown.Body.String())
}

func (s *RouterTestSuite) TestForgotPasswordIsIndistinguishable() {
	s.login("ada@x.io")
	known := s.do(call{method: http.MethodPost, path: "/account/forgot_password", body: gin.H{"email": "ada@x.io"}})
	unknown := s.do(call{method: http.MethodPost, path: "/account/forgot_password", body: gin.H{"email": "ghost@x.io"}})
	s.Equal(http.StatusOK, known.Code)
	s.Equal(known.Code, unknown.Code)
	s.Equal(known.Body.String(), unknown.Body.String())
	s.Equal(1, s.mail.sent)
}

func (s *RouterTestSuite) TestRegisterDuplicateIsConflict() {
	s.login("dup@x.io")
	w := s.do(call{method: http.MethodPost, path: "/account/register", body: gin.H{
		"name": "A", "surname": "B", "email": "dup@x.io", "password": "password1",
	}})
	s.Equal(http.StatusConflict, w.Code)
	s.JSONEq(`{"error":"email already registered"}`, w.Body.String())
}

func (s *RouterTestSuite) TestGuestCartMergedAtLogin() {
	pid := s.seedProduct(s.adminSession())

	w := s.do(call{method: http.MethodGet, path: "/cart"})
	s.Equal(http.StatusOK, w.Code)
	s.Nil(cookie(w, GuestCookie), "reading an empty cart mints no cookie")

	w = s.do(call{method: http.MethodPost, path: "/cart", body: gin.H{"product_id": pid, "quantity": 2, "width": 100, "height": 150}})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	guest := cookie(w, GuestCookie)
	s.Require().NotNil(guest)

	w = s.do(call{method: http.MethodGet, path: "/cart", cookies: []*http.Cookie{guest}})
	cart := decode[service.Cart](s, w)
	s.Require().Len(cart.Items, 1)
	s.Equal("300", cart.Subtotal.String())

	session := s.login("shopper@x.io", guest)
	w = s.do(call{method: http.MethodGet, path: "/cart", cookies: []*http.Cookie{session}})
	cart = decode[service.Cart](s, w)
	s.Require().Len(cart.Items, 1)
	s.Equal(2, cart.Items[0].Quantity)
	s.Equal(1.5, cart.Items[0].M2)

	w = s.do(call{method: http.MethodGet, path: "/cart", cookies: []*http.Cookie{guest}})
	s.Empty(decode[service.Cart](s, w).Items, "guest cart is emptied by the merge")
}

func (s *RouterTestSuite) TestCartValidation() {
	w := s.do(call{method: http.MethodPost, path: "/cart", body: gin.H{"quantity": 1}})
	s.Equal(http.StatusBadRequest, w.Code)
	s.JSONEq(`{"error":"product_id is required"}`, w.Body.String())

	w = s.do(call{method: http.MethodPost, path: "/cart", body: gin.H{"product_id": 404}})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterTestSuite) TestCheckoutAndCancel() {
	pid := s.seedProduct(s.adminSession())
	ck := s.login("buyer@x.io")
	auth := []*http.Cookie{ck}

	w := s.do(call{method: http.MethodPost, path: "/addresses", cookies: auth, body: gin.H{
		"full_name": "Ada Lovelace", "phone": "0800000000", "city": "Bangkok", "line": "1 Sukhumvit",
	}})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	addr := decode[struct {
		ID uint `json:"id"`
	}](s, w).ID

	w = s.do(call{method: http.MethodPost, path: "/cart", cookies: auth, body: gin.H{"product_id": pid}})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.do(call{method: http.MethodPost, path: "/checkout", cookies: auth, body: gin.H{
		"shipping_address_id": addr, "cargo_option": "standard", "card_token": "tokn_test",
	}})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	res := decode[struct {
		Order struct {
			ID     uint   `json:"id"`
			Status string `json:"status"`
		} `json:"order"`
	}](s, w)
	s.Equal("paid", res.Order.Status)

	w = s.do(call{method: http.MethodPatch, path: "/order/user", cookies: auth, body: gin.H{"order_id": res.Order.ID}})
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"status":"cancelled"`)

	w = s.do(call{method: http.MethodPatch, path: "/order/user", cookies: auth, body: gin.H{"order_id": res.Order.ID}})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterTestSuite) TestSecondCheckoutWhilePendingIsConflict() {
	pid := s.seedProduct(s.adminSession())
	auth := []*http.Cookie{s.login("3ds@x.io")}
	s.gateway.status = payment.ChargePending

	w := s.do(call{method: http.MethodPost, path: "/addresses", cookies: auth, body: gin.H{
		"full_name": "Ada Lovelace", "phone": "0800000000", "city": "Bangkok", "line": "1 Sukhumvit",
	}})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	addr := decode[struct {
		ID uint `json:"id"`
	}](s, w).ID
	w = s.do(call{method: http.MethodPost, path: "/cart", cookies: auth, body: gin.H{"product_id": pid}})
	s.Require().Equal(http.StatusCreated, w.Code)

	body := gin.H{"shipping_address_id": addr, "cargo_option": "standard", "card_token": "tokn_test"}
	w = s.do(call{method: http.MethodPost, path: "/checkout", cookies: auth, body: body})
	s.Require().Equal(http.StatusAccepted, w.Code, w.Body.String())

	w = s.do(call{method: http.MethodPost, path: "/checkout", cookies: auth, body: body})
	s.Equal(http.StatusConflict, w.Code)
	res := decode[map[string]string](s, w)
	s.Equal("chrg_1", res["charge_id"])
	s.Equal("https://pay.test/3ds/chrg_1", res["authorize_uri"])
	s.Equal(1, s.gateway.n)
}

func (s *RouterTestSuite) TestAdminRoutesRequireAdmin() {
	user := s.login("plain@x.io")
	w := s.do(call{method: http.MethodGet, path: "/users", cookies: []*http.Cookie{user}})
	s.Equal(http.StatusUnauthorized, w.Code)
	w = s.do(call{method: http.MethodGet, path: "/users"})
	s.Equal(http.StatusUnauthorized, w.Code)

	admin := s.adminSession()
	w = s.do(call{method: http.MethodGet, path: "/users", cookies: []*http.Cookie{admin}})
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"total":2`)
}

func (s *RouterTestSuite) TestSecondBannerIsRejected() {
	admin := []*http.Cookie{s.adminSession()}
	mw, buf := multipartBody(map[string]string{"title": "Sale"}, map[string]string{"image": "hero.jpg"})
	w := s.do(call{method: http.MethodPost, path: "/banner", form: mw, formBuf: buf, cookies: admin})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	mw, buf = multipartBody(map[string]string{"title": "Other"}, map[string]string{"image": "other.jpg"})
	w = s.do(call{method: http.MethodPost, path: "/banner", form: mw, formBuf: buf, cookies: admin})
	s.Equal(http.StatusBadRequest, w.Code)
	s.JSONEq(`{"error":"a banner already exists"}`, w.Body.String())

	w = s.do(call{method: http.MethodGet, path: "/banner"})
	s.Contains(w.Body.String(), `"title":"Sale"`)
}

func (s *RouterTestSuite) TestProductDeleteRemovesFiles() {
	admin := s.adminSession()
	pid := s.seedProduct(admin)
	s.Len(s.files.files, 1)

	w := s.do(call{method: http.MethodDelete, path: fmt.Sprintf("/products/%d", pid), cookies: []*http.Cookie{admin}})
	s.Equal(http.StatusNoContent, w.Code)
	s.Empty(s.files.files)

	w = s.do(call{method: http.MethodGet, path: fmt.Sprintf("/products/%d", pid)})
	s.Equal(http.StatusNotFound, w.Code)
	s.JSONEq(`{"error":"product not found"}`, w.Body.String())
}

func (s *RouterTestSuite) TestUploadRejectsActiveContent() {
	admin := []*http.Cookie{s.adminSession()}
	for _, name := range []string{"page.html", "logo.svg"} {
		mw, buf := multipartBody(nil, map[string]string{"file": name})
		w := s.do(call{method: http.MethodPost, path: "/upload", form: mw, formBuf: buf, cookies: admin})
		s.Equal(http.StatusBadRequest, w.Code, name)
	}
	s.Empty(s.files.files)

	mw, buf := multipartBody(nil, map[string]string{"file": "swatch.jpg"})
	w := s.do(call{method: http.MethodPost, path: "/upload", form: mw, formBuf: buf, cookies: admin})
	s.Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Len(s.files.files, 1)
}

func (s *RouterTestSuite) TestListPageIsNormalized() {
	admin := []*http.Cookie{s.adminSession()}
	w := s.do(call{method: http.MethodGet, path: "/users?page=-3&page_size=500", cookies: admin})
	s.Require().Equal(http.StatusOK, w.Code)
	res := decode[struct {
		Page     int `json:"page"`
		PageSize int `json:"page_size"`
	}](s, w)
	s.Equal(1, res.Page)
	s.Equal(100, res.PageSize)
}

func (s *RouterTestSuite) TestWebhookRejectsUnverifiedEvents() {
	w := s.do(call{method: http.MethodPost, path: "/webhooks/omise", body: gin.H{"id": "evnt_forged", "key": "charge.complete"}})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func TestFailHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", func(c *gin.Context) { fail(c, errors.New("pq: connection refused")) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestUploadsAreServedInert(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "swatch.png"), []byte("png-bytes"), 0o644))
	r := NewRouter(Deps{Log: zerolog.Nop(), Signer: auth.NewSigner("test-secret", time.Hour), UploadDir: dir})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/swatch.png", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "sandbox")
}
