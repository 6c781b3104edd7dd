package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/kendall-kelly/atelier-api/utils"
)

// ImageService stores design reference images for bespoke orders.
type ImageService interface {
	// UploadDesignImage validates and stores an image, returning its storage key
	UploadDesignImage(ctx context.Context, orderNumber string, fileHeader *multipart.FileHeader) (string, error)

	// GetImageURL returns a URL the client can fetch the image from
	GetImageURL(ctx context.Context, imageKey string) (string, error)

	// DeleteImage removes an image from storage
	DeleteImage(ctx context.Context, imageKey string) error
}

// ObjectStore is the blob storage behind the image service (S3 or local disk).
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// DesignImageService implements ImageService on top of an ObjectStore
type DesignImageService struct {
	store ObjectStore
}

var imageServiceInstance ImageService

// NewDesignImageService creates an image service backed by store
func NewDesignImageService(store ObjectStore) *DesignImageService {
	return &DesignImageService{store: store}
}

// GetImageService returns the process-wide image service
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService sets the image service instance
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// DesignImageKey builds the storage key for an order's design image.
func DesignImageKey(orderNumber, filename string) string {
	return fmt.Sprintf("designs/%s/%d_%s", orderNumber, timeNow().Unix(), utils.SanitizeFilename(filename))
}

// UploadDesignImage validates the upload and stores it under the order's prefix
func (s *DesignImageService) UploadDesignImage(ctx context.Context, orderNumber string, fileHeader *multipart.FileHeader) (string, error) {
	content, err := utils.ReadImageFile(fileHeader)
	if err != nil {
		return "", err
	}

	key := DesignImageKey(orderNumber, fileHeader.Filename)
	if err := s.store.Put(ctx, key, utils.ImageContentType, content); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return key, nil
}

// GetImageURL resolves a key into a fetchable URL
func (s *DesignImageService) GetImageURL(ctx context.Context, imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}

	url, err := s.store.URL(ctx, imageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}
	return url, nil
}

// DeleteImage deletes an image from storage
func (s *DesignImageService) DeleteImage(ctx context.Context, imageKey string) error {
	if imageKey == "" {
		return nil
	}

	if err := s.store.Delete(ctx, imageKey); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
