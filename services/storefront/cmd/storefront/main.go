package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/you/curtain-store/pkg/auth"
	"github.com/you/curtain-store/pkg/config"
	"github.com/you/curtain-store/pkg/db"
	"github.com/you/curtain-store/pkg/logx"
	"github.com/you/curtain-store/pkg/mailer"
	"github.com/you/curtain-store/pkg/mq"
	"github.com/you/curtain-store/pkg/obs"
	"github.com/you/curtain-store/services/storefront/internal/cartstore"
	"github.com/you/curtain-store/services/storefront/internal/handlers"
	"github.com/you/curtain-store/services/storefront/internal/notifier"
	"github.com/you/curtain-store/services/storefront/internal/payment"
	"github.com/you/curtain-store/services/storefront/internal/repository"
	"github.com/you/curtain-store/services/storefront/internal/service"
	"github.com/you/curtain-store/services/storefront/internal/storage"
)

var log zerolog.Logger

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}
	return v
}

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		l := logx.New("storefront", "dev")
		l.Fatal().Err(err).Msg("config")
	}
	log = logx.New("storefront", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer := must(obs.InitTracer(ctx, "storefront", cfg.OTLPEndpoint, cfg.Env))
	defer func() { _ = shutdownTracer(context.Background()) }()

	// DB
	gdb := must(db.Open(cfg.DBDriver, cfg.DBDSN, log))
	defer func() { _ = db.Close(gdb) }()
	must(0, repository.Migrate(gdb))

	// Redis is optional: without it guest carts and rate limiting are off.
	var rdb redis.UniversalClient
	if cfg.RedisAddr != "" {
		c := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		must(c.Ping(ctx).Result())
		defer c.Close()
		rdb = c
	}

	gateway := must(payment.NewOmiseGateway(cfg.OmisePub, cfg.OmiseSec))
	mail := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	var (
		store     storage.Storage
		uploadDir string
	)
	if cfg.CDNEndpoint != "" {
		store = storage.NewCDNStorage(cfg.CDNEndpoint, cfg.CDNAPIKey, cfg.CDNPublicBase)
	} else {
		store = must(storage.NewDiskStorage(cfg.UploadDir, strings.TrimRight(cfg.PublicBaseURL, "/")+"/uploads"))
		uploadDir = cfg.UploadDir
	}

	var notify notifier.Notifier
	switch cfg.NotifyVia {
	case "mq":
		pub := must(mq.NewPublisher(cfg.RabbitURL, cfg.OrderExchange))
		defer pub.Close()
		notify = notifier.NewEventNotifier(pub)
	default:
		notify = notifier.NewMailNotifier(mail, cfg.AdminEmail)
	}

	users := repository.NewUserRepo(gdb)
	catalog := repository.NewCatalogRepo(gdb)
	addresses := repository.NewAddressRepo(gdb)

	var guests cartstore.Store
	if rdb != nil {
		guests = cartstore.NewGuestStore(rdb, cfg.GuestCartTTL())
	}
	carts := service.NewCartService(cartstore.NewDBStore(repository.NewCartRepo(gdb)), guests, catalog, log)
	signer := auth.NewSigner(cfg.JWTSecret, cfg.SessionTTL())

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.Deps{
		Log:    log,
		Signer: signer,
		Cookies: handlers.Cookies{
			Secure:     cfg.IsProd(),
			SessionTTL: cfg.SessionTTL(),
			GuestTTL:   cfg.GuestCartTTL(),
		},
		Redis:           rdb,
		RateLimitPerMin: cfg.RateLimitPerMin,
		UploadDir:       uploadDir,

		Auth:  service.NewAuthService(users, signer, mail, cfg.PublicBaseURL, log),
		Carts: carts,
		Orders: service.NewOrderService(service.OrderDeps{
			Orders:    repository.NewOrderRepo(gdb),
			Addresses: addresses,
			Users:     users,
			Carts:     carts,
			Gateway:   gateway,
			Notifier:  notify,
			Cargo:     must(cfg.CargoOptions()),
			Currency:  cfg.PaymentCurrency,
			ReturnURI: strings.TrimRight(cfg.PublicBaseURL, "/") + "/checkout/complete",
			Log:       log,
		}),
		Addresses:   service.NewAddressService(addresses),
		Favorites:   service.NewFavoriteService(repository.NewFavoriteRepo(gdb)),
		Reviews:     service.NewReviewService(repository.NewReviewRepo(gdb)),
		Catalog:     service.NewCatalogService(catalog, store, log),
		Banners:     service.NewBannerService(repository.NewBannerRepo(gdb), store, log),
		Blogs:       service.NewBlogService(repository.NewBlogRepo(gdb), store, log),
		Subscribers: service.NewSubscriberService(repository.NewSubscriberRepo(gdb)),
		Users:       service.NewUserAdminService(users),
		Mail:        service.NewMailService(mail),
		Uploads:     service.NewUploadService(store),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(router, "storefront"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("notify_via", cfg.NotifyVia).Msg("storefront listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("storefront stopped")
}
