package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/service"
)

type ContentHandler struct {
	banners     *service.BannerService
	blogs       *service.BlogService
	subscribers *service.SubscriberService
}

func NewContentHandler(banners *service.BannerService, blogs *service.BlogService, subscribers *service.SubscriberService) *ContentHandler {
	return &ContentHandler{banners: banners, blogs: blogs, subscribers: subscribers}
}

// GET /banner
func (h *ContentHandler) GetBanner(c *gin.Context) {
	b, err := h.banners.Get(c)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func bannerForm(c *gin.Context) service.BannerInput {
	return service.BannerInput{Title: c.PostForm("title"), Subtitle: c.PostForm("subtitle"), Link: c.PostForm("link")}
}

// POST /banner (multipart)
func (h *ContentHandler) CreateBanner(c *gin.Context) {
	img, done, err := formFile(c, "image")
	if err != nil {
		fail(c, err)
		return
	}
	defer done()
	b, err := h.banners.Create(c, bannerForm(c), img)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// PUT /banner/:id (multipart)
func (h *ContentHandler) UpdateBanner(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	img, done, err := formFile(c, "image")
	if err != nil {
		fail(c, err)
		return
	}
	defer done()
	b, err := h.banners.Update(c, id, bannerForm(c), img)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DELETE /banner/:id
func (h *ContentHandler) DeleteBanner(c *gin.Context) {
	deleteByID(c, h.banners.Delete)
}

// GET /blogs?category=
func (h *ContentHandler) ListBlogs(c *gin.Context) {
	blogs, err := h.blogs.List(c, c.Query("category"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, blogs)
}

// GET /blogs/:id
func (h *ContentHandler) GetBlog(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	b, err := h.blogs.Get(c, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func blogForm(c *gin.Context) service.BlogInput {
	return service.BlogInput{Title: c.PostForm("title"), Content: c.PostForm("content"), Category: c.PostForm("category")}
}

// POST /blogs (multipart)
func (h *ContentHandler) CreateBlog(c *gin.Context) {
	img, done, err := formFile(c, "image")
	if err != nil {
		fail(c, err)
		return
	}
	defer done()
	b, err := h.blogs.Create(c, blogForm(c), img)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// PUT /blogs/:id (multipart)
func (h *ContentHandler) UpdateBlog(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	img, done, err := formFile(c, "image")
	if err != nil {
		fail(c, err)
		return
	}
	defer done()
	b, err := h.blogs.Update(c, id, blogForm(c), img)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DELETE /blogs/:id
func (h *ContentHandler) DeleteBlog(c *gin.Context) {
	deleteByID(c, h.blogs.Delete)
}

// POST /subscribers
func (h *ContentHandler) Subscribe(c *gin.Context) {
	var in struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &in) {
		return
	}
	s, err := h.subscribers.Subscribe(c, in.Email)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// GET /subscribers?page=&page_size=
func (h *ContentHandler) ListSubscribers(c *gin.Context) {
	p := pageQuery(c)
	subs, total, err := h.subscribers.List(c, p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, paged[domain.Subscriber]{Items: subs, Total: total, Page: p.Page, PageSize: p.Size})
}

// DELETE /subscribers/:id
func (h *ContentHandler) DeleteSubscriber(c *gin.Context) {
	deleteByID(c, h.subscribers.Delete)
}
