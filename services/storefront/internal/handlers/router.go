package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/you/curtain-store/pkg/auth"
	"github.com/you/curtain-store/services/storefront/internal/middlewares"
	"github.com/you/curtain-store/services/storefront/internal/service"
)

type Deps struct {
	Log     zerolog.Logger
	Signer  *auth.Signer
	Cookies Cookies
	// Redis backs the rate limiter; nil disables it.
	Redis           redis.UniversalClient
	RateLimitPerMin int
	// UploadDir is served at /uploads when set.
	UploadDir string

	Auth        *service.AuthService
	Carts       *service.CartService
	Orders      *service.OrderService
	Addresses   *service.AddressService
	Favorites   *service.FavoriteService
	Reviews     *service.ReviewService
	Catalog     *service.CatalogService
	Banners     *service.BannerService
	Blogs       *service.BlogService
	Subscribers *service.SubscriberService
	Users       *service.UserAdminService
	Mail        *service.MailService
	Uploads     *service.UploadService
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.ContextWithFallback = true
	r.Use(gin.Recovery(), middlewares.RequestID(), middlewares.Logger(d.Log))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if d.UploadDir != "" {
		uploads := r.Group("/uploads", func(c *gin.Context) {
			c.Header("X-Content-Type-Options", "nosniff")
			c.Header("Content-Security-Policy", "default-src 'none'; sandbox")
		})
		uploads.Static("/", d.UploadDir)
	}

	authed := middlewares.JWTAuth(d.Signer)
	limit := func(name string) gin.HandlerFunc {
		return middlewares.RateLimit(d.Redis, name, d.RateLimitPerMin, time.Minute, d.Log)
	}

	ah := NewAccountHandler(d.Auth, d.Carts, d.Cookies, d.Log)
	account := r.Group("/account")
	{
		account.POST("/register", limit("register"), ah.Register)
		account.POST("/login", limit("login"), ah.Login)
		account.POST("/logout", ah.Logout)
		account.POST("/forgot_password", limit("forgot"), ah.ForgotPassword)
		account.POST("/reset_password", limit("reset"), ah.ResetPassword)

		me := account.Group("")
		me.Use(authed)
		me.GET("/me", ah.Me)
		me.PATCH("/me", ah.UpdateMe)
		me.PATCH("/password", ah.ChangePassword)
	}

	ch := NewCartHandler(d.Carts, d.Cookies)
	cart := r.Group("/cart")
	cart.Use(middlewares.OptionalAuth(d.Signer))
	{
		cart.GET("", ch.List)
		cart.POST("", ch.Add)
		cart.DELETE("", ch.Clear)
		cart.PATCH("/:id", ch.SetQuantity)
		cart.DELETE("/:id", ch.Remove)
	}

	oh := NewOrderHandler(d.Orders, d.Log)
	r.GET("/checkout/cargo", oh.Cargo)
	r.POST("/webhooks/omise", oh.Webhook)

	cat := NewCatalogHandler(d.Catalog)
	eh := NewEngagementHandler(d.Favorites, d.Reviews)
	content := NewContentHandler(d.Banners, d.Blogs, d.Subscribers)

	r.GET("/products", cat.ListProducts)
	r.GET("/products/:id", cat.GetProduct)
	r.GET("/products/:id/reviews", eh.ListReviews)
	r.GET("/categories", cat.ListCategories)
	r.GET("/rooms", cat.ListRooms)
	r.GET("/banner", content.GetBanner)
	r.GET("/blogs", content.ListBlogs)
	r.GET("/blogs/:id", content.GetBlog)
	r.POST("/subscribers", limit("subscribe"), content.Subscribe)

	secured := r.Group("")
	secured.Use(authed)
	{
		secured.POST("/checkout", oh.Checkout)
		secured.GET("/checkout/complete", oh.Complete)
		secured.GET("/order/user", oh.ListMine)
		secured.PATCH("/order/user", oh.CancelMine)

		adh := NewAddressHandler(d.Addresses)
		secured.GET("/addresses", adh.List)
		secured.POST("/addresses", adh.Create)
		secured.PUT("/addresses/:id", adh.Update)
		secured.DELETE("/addresses/:id", adh.Delete)

		secured.GET("/favorites", eh.ListFavorites)
		secured.POST("/favorites", eh.AddFavorite)
		secured.DELETE("/favorites/:product_id", eh.RemoveFavorite)
		secured.POST("/products/:id/reviews", eh.CreateReview)
		secured.DELETE("/reviews/:id", eh.DeleteReview)
	}

	admin := r.Group("")
	admin.Use(authed, middlewares.RequireRole("ADMIN"))
	{
		admin.POST("/products", cat.CreateProduct)
		admin.PUT("/products/:id", cat.UpdateProduct)
		admin.DELETE("/products/:id", cat.DeleteProduct)
		admin.POST("/categories", cat.CreateCategory)
		admin.DELETE("/categories/:id", cat.DeleteCategory)
		admin.POST("/subcategories", cat.CreateSubCategory)
		admin.DELETE("/subcategories/:id", cat.DeleteSubCategory)
		admin.POST("/rooms", cat.CreateRoom)
		admin.DELETE("/rooms/:id", cat.DeleteRoom)

		admin.POST("/banner", content.CreateBanner)
		admin.PUT("/banner/:id", content.UpdateBanner)
		admin.DELETE("/banner/:id", content.DeleteBanner)
		admin.POST("/blogs", content.CreateBlog)
		admin.PUT("/blogs/:id", content.UpdateBlog)
		admin.DELETE("/blogs/:id", content.DeleteBlog)
		admin.GET("/subscribers", content.ListSubscribers)
		admin.DELETE("/subscribers/:id", content.DeleteSubscriber)

		oa := NewAdminHandler(d.Users, d.Mail, d.Uploads)
		admin.GET("/users", oa.ListUsers)
		admin.PATCH("/users/:id/role", oa.SetRole)
		admin.DELETE("/users/:id", oa.DeleteUser)
		admin.GET("/orders", oh.AdminList)
		admin.PATCH("/orders/:id/status", oh.AdminUpdateStatus)
		admin.POST("/upload", oa.Upload)
		admin.POST("/send-mail", oa.SendMail)
	}
	return r
}
