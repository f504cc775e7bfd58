package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/you/curtain-store/pkg/auth"
	"github.com/you/curtain-store/pkg/config"
	"github.com/you/curtain-store/pkg/db"
	"github.com/you/curtain-store/pkg/mailer"
	"github.com/you/curtain-store/services/storefront/internal/cartstore"
	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/payment"
	"github.com/you/curtain-store/services/storefront/internal/repository"
)

type fakeGateway struct {
	next    payment.Charge
	charges map[string]*payment.Charge
	events  map[string]*payment.Event
	n       int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		next:    payment.Charge{Status: payment.ChargeSuccessful},
		charges: map[string]*payment.Charge{},
		events:  map[string]*payment.Event{},
	}
}

func (g *fakeGateway) CreateCharge(_ context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	g.n++
	ch := g.next
	ch.ID = fmt.Sprintf("chrg_test_%d", g.n)
	g.charges[ch.ID] = &ch
	return &ch, nil
}

func (g *fakeGateway) RetrieveCharge(_ context.Context, id string) (*payment.Charge, error) {
	ch, ok := g.charges[id]
	if !ok {
		return nil, errors.New("charge not found")
	}
	return ch, nil
}

func (g *fakeGateway) VerifyEvent(_ context.Context, id string) (*payment.Event, error) {
	ev, ok := g.events[id]
	if !ok {
		return nil, errors.New("event not found")
	}
	return ev, nil
}

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type memStorage struct {
	files map[string][]byte
	n     int
}

func newMemStorage() *memStorage { return &memStorage{files: map[string][]byte{}} }

func (s *memStorage) Save(_ context.Context, name string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.n++
	url := fmt.Sprintf("mem://%d/%s", s.n, name)
	s.files[url] = b
	return url, nil
}

func (s *memStorage) Delete(_ context.Context, url string) error {
	delete(s.files, url)
	return nil
}

type recNotifier struct {
	placed    []uint
	cancelled []uint
}

func (n *recNotifier) OrderPlaced(_ context.Context, o *domain.Order, _ *domain.User) error {
	n.placed = append(n.placed, o.ID)
	return nil
}

func (n *recNotifier) OrderCancelled(_ context.Context, o *domain.Order, _ *domain.User) error {
	n.cancelled = append(n.cancelled, o.ID)
	return nil
}

// env wires every service against an in-memory database and fakes.
type env struct {
	db       *gorm.DB
	gateway  *fakeGateway
	mail     *fakeMailer
	store    *memStorage
	notify   *recNotifier
	auth     *AuthService
	carts    *CartService
	orders   *OrderService
	catalog  *CatalogService
	banners  *BannerService
	blogs    *BlogService
	subs     *SubscriberService
	admins   *UserAdminService
	mailSvc  *MailService
	reviews  *ReviewService
	favs     *FavoriteService
	addrs    *AddressService
	guestsMR *miniredis.Miniredis
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb, err := db.Open("sqlite", ":memory:", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := zerolog.Nop()
	e := &env{db: gdb, gateway: newFakeGateway(), mail: &fakeMailer{}, store: newMemStorage(), notify: &recNotifier{}, guestsMR: mr}
	users := repository.NewUserRepo(gdb)
	catalogRepo := repository.NewCatalogRepo(gdb)

	e.auth = NewAuthService(users, auth.NewSigner("test-secret", time.Hour), e.mail, "http://shop.test/", log)
	e.carts = NewCartService(cartstore.NewDBStore(repository.NewCartRepo(gdb)), cartstore.NewGuestStore(rdb, time.Hour), catalogRepo, log)
	e.orders = NewOrderService(OrderDeps{
		Orders:    repository.NewOrderRepo(gdb),
		Addresses: repository.NewAddressRepo(gdb),
		Users:     users,
		Carts:     e.carts,
		Gateway:   e.gateway,
		Notifier:  e.notify,
		Cargo:     []config.CargoOption{{Code: "standard", Fee: decimal.NewFromInt(50)}},
		Currency:  "THB",
		ReturnURI: "http://shop.test/checkout/complete",
		Log:       log,
	})
	e.catalog = NewCatalogService(catalogRepo, e.store, log)
	e.banners = NewBannerService(repository.NewBannerRepo(gdb), e.store, log)
	e.blogs = NewBlogService(repository.NewBlogRepo(gdb), e.store, log)
	e.subs = NewSubscriberService(repository.NewSubscriberRepo(gdb))
	e.admins = NewUserAdminService(users)
	e.mailSvc = NewMailService(e.mail)
	e.reviews = NewReviewService(repository.NewReviewRepo(gdb))
	e.favs = NewFavoriteService(repository.NewFavoriteRepo(gdb))
	e.addrs = NewAddressService(repository.NewAddressRepo(gdb))
	return e
}

func (e *env) user(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterInput{Name: "Ada", Surname: "Lovelace", Email: email, Password: "password1"})
	require.NoError(t, err)
	return u
}

func (e *env) product(t *testing.T, name, price string) *domain.ProductView {
	t.Helper()
	ctx := context.Background()
	cat, err := e.catalog.CreateCategory(ctx, "cat-"+name)
	require.NoError(t, err)
	p, err := e.catalog.CreateProduct(ctx, ProductInput{Name: name, Category: cat.Name, Price: price},
		ProductImages{Main: &Upload{Name: name + ".jpg", Body: strings.NewReader("img")}})
	require.NoError(t, err)
	return p
}

func (e *env) address(t *testing.T, userID uint) *domain.Address {
	t.Helper()
	a, err := e.addrs.Create(context.Background(), userID, AddressInput{FullName: "Ada Lovelace", Phone: "0800000000", City: "Bangkok", Line: "1 Sukhumvit"})
	require.NoError(t, err)
	return a
}

func ptr(v float64) *float64 { return &v }
