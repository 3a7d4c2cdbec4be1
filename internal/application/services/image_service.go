package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/restoreview/core/internal/domain/entities"
	"github.com/restoreview/core/internal/infrastructure/logger"
	"github.com/restoreview/core/internal/ports"
)

// ImageService stores uploaded restaurant pictures on disk and records them
type ImageService struct {
	imageRepo      ports.ImageRepository
	restaurantRepo ports.RestaurantRepository
	uploadDir      string
	maxBytes       int64
	logger         *logger.Logger
	now            func() time.Time
}

var _ ports.ImageService = (*ImageService)(nil)

// NewImageService creates a new image service
func NewImageService(imageRepo ports.ImageRepository, restaurantRepo ports.RestaurantRepository, uploadDir string, maxBytes int64, logger *logger.Logger) *ImageService {
	return &ImageService{
		imageRepo:      imageRepo,
		restaurantRepo: restaurantRepo,
		uploadDir:      uploadDir,
		maxBytes:       maxBytes,
		logger:         logger,
		now:            time.Now,
	}
}

// UploadDir returns the directory uploaded files are written to
func (s *ImageService) UploadDir() string {
	return s.uploadDir
}

// UploadImage writes the body under a random file name and appends an Image record
func (s *ImageService) UploadImage(ctx context.Context, req ports.UploadImageRequest) (*entities.Image, error) {
	if _, ok := s.restaurantRepo.FindRestaurantByID(req.RestaurantID); !ok {
		return nil, entities.ErrRestaurantNotFound
	}

	mediaType, _, err := mime.ParseMediaType(req.ContentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("%w: content type %q", entities.ErrInvalidImage, req.ContentType)
	}

	ext := strings.ToLower(filepath.Ext(req.OriginalName))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			ext = exts[0]
		}
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	filename := uuid.New().String() + ext
	path := filepath.Join(s.uploadDir, filename)

	size, err := s.writeFile(path, req.Body)
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	image, err := s.imageRepo.AddImage(entities.Image{
		RestaurantID: req.RestaurantID,
		Filename:     filename,
		OriginalName: filepath.Base(req.OriginalName),
		ContentType:  mediaType,
		Size:         size,
		UploadedAt:   s.now().UTC().Truncate(time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record image: %w", err)
	}

	s.logger.Infow("Image uploaded",
		"image_id", image.ID,
		"restaurant_id", image.RestaurantID,
		"filename", image.Filename,
		"size", image.Size,
	)

	return &image, nil
}

func (s *ImageService) writeFile(path string, body io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create image file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	n, err := io.Copy(f, io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return 0, fmt.Errorf("failed to write image file: %w", err)
	}
	if n > s.maxBytes {
		return 0, fmt.Errorf("%w: limit is %d bytes", entities.ErrImageTooLarge, s.maxBytes)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: empty file", entities.ErrInvalidImage)
	}
	return n, nil
}

// ListImagesFor returns the images of one restaurant
func (s *ImageService) ListImagesFor(ctx context.Context, restaurantID int) ([]entities.Image, error) {
	if _, ok := s.restaurantRepo.FindRestaurantByID(restaurantID); !ok {
		return nil, entities.ErrRestaurantNotFound
	}
	return s.imageRepo.ListImagesFor(restaurantID), nil
}
