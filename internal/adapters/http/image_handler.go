package http

import (
	"bytes"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/restoreview/core/internal/application/services"
	"github.com/restoreview/core/internal/infrastructure/logger"
	"github.com/restoreview/core/internal/ports"
)

// ImageHandler handles restaurant image uploads
type ImageHandler struct {
	imageService *services.ImageService
	logger       *logger.Logger
}

// NewImageHandler creates a new image handler
func NewImageHandler(imageService *services.ImageService, logger *logger.Logger) *ImageHandler {
	return &ImageHandler{
		imageService: imageService,
		logger:       logger,
	}
}

// UploadImage godoc
// @Summary Upload a restaurant image
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Restaurant ID"
// @Param file formData file true "Image file"
// @Success 201 {object} entities.Image
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /restaurants/{id}/images [post]
func (h *ImageHandler) UploadImage(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing file")
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable file")
	}
	defer func() {
		_ = f.Close()
	}()

	contentType := fh.Header.Get(echo.HeaderContentType)
	var body io.Reader = f
	if contentType == "" || contentType == echo.MIMEOctetStream {
		head := make([]byte, 512)
		n, err := io.ReadFull(f, head)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return echo.NewHTTPError(http.StatusBadRequest, "Unreadable file")
		}
		contentType = http.DetectContentType(head[:n])
		body = io.MultiReader(bytes.NewReader(head[:n]), f)
	}

	image, err := h.imageService.UploadImage(c.Request().Context(), ports.UploadImageRequest{
		RestaurantID: id,
		OriginalName: fh.Filename,
		ContentType:  contentType,
		Body:         body,
	})
	if err != nil {
		h.logger.Warnw("Image upload rejected", "error", err, "restaurant_id", id)
		return apiError(c, err)
	}

	return c.JSON(http.StatusCreated, image)
}

// ListImages godoc
// @Summary List images of a restaurant
// @Tags images
// @Produce json
// @Param id path int true "Restaurant ID"
// @Success 200 {array} entities.Image
// @Failure 404 {object} ErrorResponse
// @Router /restaurants/{id}/images [get]
func (h *ImageHandler) ListImages(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	images, err := h.imageService.ListImagesFor(c.Request().Context(), id)
	if err != nil {
		return apiError(c, err)
	}

	return c.JSON(http.StatusOK, images)
}
