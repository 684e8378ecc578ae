package service

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"stockroom/internal/auth"
	"stockroom/internal/models"
	"stockroom/internal/observability"
	"stockroom/internal/repository"
	"stockroom/internal/storage"

	"github.com/google/uuid"
)

const (
	DefaultImageMaxUploadSizeMB = 10
	maxFileNameLength           = 100
)

var unsafeFileNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// UploadImageInput is one multipart file part.
type UploadImageInput struct {
	FileName    string
	ContentType string
	Content     []byte
}

type ImageService struct {
	store              repository.Store
	objects            storage.ObjectStore
	maxUploadSizeBytes int64
	now                Clock
}

func NewImageService(store repository.Store, objects storage.ObjectStore, maxUploadSizeMB int) *ImageService {
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = DefaultImageMaxUploadSizeMB
	}
	return &ImageService{
		store:              store,
		objects:            objects,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
		now:                utcNow,
	}
}

// MaxUploadBytes is the largest accepted file.
func (s *ImageService) MaxUploadBytes() int64 {
	return s.maxUploadSizeBytes
}

// Upload writes the metadata row, then the object. If the object write fails
// the row is removed again.
func (s *ImageService) Upload(ctx context.Context, principal *auth.Principal, productID uuid.UUID, in UploadImageInput) (*models.Image, error) {
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("file is required")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}
	contentType, err := detectImageType(in.ContentType, in.Content)
	if err != nil {
		return nil, err
	}

	product, err := ownedProduct(ctx, s.store.Products(), principal, productID)
	if err != nil {
		return nil, err
	}

	fileName := sanitizeFileName(in.FileName)
	img := &models.Image{
		ID:           uuid.New(),
		ProductID:    product.ID,
		OwnerUserID:  product.OwnerUserID,
		FileName:     fileName,
		ContentType:  contentType,
		S3BucketPath: objectKey(product, s.now().UnixMilli(), fileName),
	}
	if err := s.store.Images().Create(ctx, img); err != nil {
		return nil, err
	}

	meta := map[string]string{
		"owner":   product.OwnerUserID.String(),
		"product": product.ID.String(),
		"imageid": img.ID.String(),
	}
	if err := s.objects.Put(ctx, img.S3BucketPath, contentType, in.Content, meta); err != nil {
		if delErr := s.store.Images().Delete(context.WithoutCancel(ctx), img.ID); delErr != nil {
			observability.Logger().ErrorContext(ctx, "failed to remove image row after upload error",
				"image_id", img.ID, "error", delErr)
		}
		return nil, models.NewInternalError(err)
	}
	return img, nil
}

func (s *ImageService) List(ctx context.Context, principal *auth.Principal, productID uuid.UUID) ([]models.Image, error) {
	if _, err := ownedProduct(ctx, s.store.Products(), principal, productID); err != nil {
		return nil, err
	}
	return s.store.Images().ListByProduct(ctx, productID)
}

func (s *ImageService) Get(ctx context.Context, principal *auth.Principal, productID, imageID uuid.UUID) (*models.Image, error) {
	if _, err := ownedProduct(ctx, s.store.Products(), principal, productID); err != nil {
		return nil, err
	}
	return s.store.Images().GetByID(ctx, productID, imageID)
}

// Delete removes the object, then the metadata row.
func (s *ImageService) Delete(ctx context.Context, principal *auth.Principal, productID, imageID uuid.UUID) error {
	img, err := s.Get(ctx, principal, productID, imageID)
	if err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, img.S3BucketPath); err != nil {
		return models.NewInternalError(err)
	}
	return s.store.Images().Delete(ctx, img.ID)
}

// objectKey is <owner>/<product>/<unixmillis>-<uuid>-<name>.
func objectKey(product *models.Product, unixMillis int64, fileName string) string {
	return fmt.Sprintf("%s/%s/%d-%s-%s", product.OwnerUserID, product.ID, unixMillis, uuid.NewString(), fileName)
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeFileNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if len(name) > maxFileNameLength {
		name = name[len(name)-maxFileNameLength:]
	}
	if name == "" {
		return "upload"
	}
	return name
}

// detectImageType requires both the declared and the sniffed type to be JPEG or PNG.
func detectImageType(declared string, content []byte) (string, error) {
	provided := normalizeContentType(declared)
	if provided == "image/jpg" {
		provided = "image/jpeg"
	}
	if provided != "image/jpeg" && provided != "image/png" {
		return "", models.NewValidationError("unsupported file type")
	}

	detected := normalizeContentType(http.DetectContentType(content))
	if detected != "image/jpeg" && detected != "image/png" {
		return "", models.NewValidationError("Invalid image file")
	}
	if provided != detected {
		return "", models.NewValidationError("Image content type mismatch")
	}
	return detected, nil
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
