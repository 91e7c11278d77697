package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/nano-feed/backend/internal/apperror"
	"github.com/anonto42/nano-feed/backend/internal/assets"
	"github.com/labstack/echo/v4"
)

// ImageHandler serves stored post images read-only under their reference.
type ImageHandler struct {
	assets assets.Store
}

func NewImageHandler(store assets.Store) *ImageHandler {
	return &ImageHandler{assets: store}
}

// RegisterImageRoutes mounts the image path so that "/"+ref resolves to the
// stored asset.
func (h *ImageHandler) RegisterImageRoutes(e *echo.Echo) {
	e.GET("/"+assets.RefPrefix+"/:name", h.GetImage)
}

func (h *ImageHandler) GetImage(c echo.Context) error {
	obj, err := h.assets.Open(c.Request().Context(), assets.Ref(c.Param("name")))
	if err != nil {
		if errors.Is(err, assets.ErrNotFound) || errors.Is(err, assets.ErrInvalidRef) {
			return apperror.New(apperror.NotFound, "Image not found!")
		}
		return apperror.Wrap(apperror.Internal, "Could not read image.", err)
	}
	defer obj.Close()

	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Stream(http.StatusOK, obj.ContentType, obj)
}
