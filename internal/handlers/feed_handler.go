package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-feed/backend/internal/apperror"
	"github.com/anonto42/nano-feed/backend/internal/assets"
	"github.com/anonto42/nano-feed/backend/internal/middleware"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles the authenticated /feed routes.
type FeedHandler struct {
	posts  *services.PostService
	status *services.StatusService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(posts *services.PostService, status *services.StatusService) *FeedHandler {
	return &FeedHandler{posts: posts, status: status}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/status", h.GetStatus)
	g.POST("/status", h.SetStatus)
	g.GET("/posts", h.GetPosts)
	g.GET("/post/:id", h.GetPost)
	g.POST("/post", h.CreatePost)
	g.PUT("/post/:id", h.UpdatePost)
	g.DELETE("/post/:id", h.DeletePost)
}

func (h *FeedHandler) GetStatus(c echo.Context) error {
	status, err := h.status.GetStatus(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Retrieved User Status",
		"status":  status,
	})
}

func (h *FeedHandler) SetStatus(c echo.Context) error {
	var req models.StatusRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Wrap(apperror.ValidationFailed, "Invalid request payload", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	status, err := h.status.SetStatus(c.Request().Context(), middleware.UserID(c), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Status updated successfully",
		"status":  status,
	})
}

// GetPosts returns one page of the feed. A missing or malformed page
// parameter means page 1.
func (h *FeedHandler) GetPosts(c echo.Context) error {
	page, err := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.posts.ListPosts(c.Request().Context(), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":    "All posts fetched",
		"posts":      result.Posts,
		"totalItems": result.TotalItems,
	})
}

func (h *FeedHandler) GetPost(c echo.Context) error {
	post, err := h.posts.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Post fetched",
		"post":    post,
	})
}

func (h *FeedHandler) CreatePost(c echo.Context) error {
	req, err := bindPost(c)
	if err != nil {
		return err
	}

	image, closeImage, err := formImage(c)
	if err != nil {
		return err
	}
	defer closeImage()

	post, err := h.posts.CreatePost(c.Request().Context(), middleware.UserID(c), services.CreatePostInput{
		Title:   req.Title,
		Content: req.Content,
		Image:   image,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Created a new post!",
		"post":    post,
		"creator": post.Creator,
	})
}

func (h *FeedHandler) UpdatePost(c echo.Context) error {
	req, err := bindPost(c)
	if err != nil {
		return err
	}

	image, closeImage, err := formImage(c)
	if err != nil {
		return err
	}
	defer closeImage()

	post, err := h.posts.UpdatePost(c.Request().Context(), middleware.UserID(c), c.Param("id"), services.UpdatePostInput{
		Title:    req.Title,
		Content:  req.Content,
		Image:    image,
		ImageRef: req.Image,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Post updated!",
		"post":    post,
	})
}

func (h *FeedHandler) DeletePost(c echo.Context) error {
	if err := h.posts.DeletePost(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Post deleted!"})
}

func bindPost(c echo.Context) (*models.PostRequest, error) {
	var req models.PostRequest
	if err := c.Bind(&req); err != nil {
		return nil, apperror.Wrap(apperror.ValidationFailed, "Invalid request payload", err)
	}
	req.Normalize()
	if err := c.Validate(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// formImage opens the "image" part of a multipart request. It returns a nil
// upload when the request carries no file.
func formImage(c echo.Context) (*assets.Upload, func(), error) {
	noop := func() {}

	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, apperror.Wrap(apperror.ValidationFailed, "Could not read uploaded image.", err)
	}

	var f multipart.File
	if f, err = fh.Open(); err != nil {
		return nil, noop, apperror.Wrap(apperror.Internal, "Could not open uploaded image.", err)
	}
	return &assets.Upload{
		Name:     fh.Filename,
		MimeType: fh.Header.Get(echo.HeaderContentType),
		Body:     f,
	}, func() { f.Close() }, nil
}
