package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
	"gorm.io/gorm"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

const (
	DefaultImageUploadDir       = "/tmp/inkwell/uploads/images"
	DefaultImageMaxUploadSizeMB = 10

	// Cover images are stored as a single WebP, capped on the long edge.
	imageMaxSize = 2048
	webpQuality  = 75
)

type UploadImageInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

// ImageService stores uploaded images re-encoded as WebP, deduplicated by
// content hash. The same bytes uploaded twice by the same user return the
// existing record.
type ImageService struct {
	repo               repository.ImageRepository
	uploadDir          string
	maxUploadSizeBytes int64
}

func NewImageService(repo repository.ImageRepository, cfg *config.Config) *ImageService {
	uploadDir := DefaultImageUploadDir
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB

	if cfg != nil {
		if cfg.ImageUploadDir != "" {
			uploadDir = cfg.ImageUploadDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}

	return &ImageService{
		repo:               repo,
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (*models.Image, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return nil, models.NewValidationError("Invalid image type")
	}
	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	resized := resizeToFit(decoded, imageMaxSize, imageMaxSize)
	encoded, err := encodeWebP(resized, webpQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	hash := imageContentHash(in.UserID, encoded)
	existing, err := s.repo.GetByHash(ctx, hash)
	if err == nil {
		_ = s.repo.TouchAccessed(ctx, existing.ID)
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	rel := filepath.ToSlash(filepath.Join(hash[:2], hash+".webp"))
	abs := filepath.Join(s.uploadDir, rel)
	if err := writeBytesToFile(abs, encoded); err != nil {
		return nil, models.NewInternalError(err)
	}

	bounds := resized.Bounds()
	record := &models.Image{
		UserID:    in.UserID,
		Hash:      hash,
		Filename:  in.Filename,
		Path:      rel,
		URL:       fmt.Sprintf("/media/i/%s.webp", hash),
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		SizeBytes: int64(len(encoded)),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		_ = os.Remove(abs)
		return nil, models.NewInternalError(err)
	}
	return record, nil
}

// ResolveForServing maps a hash to the image record and its on-disk path.
func (s *ImageService) ResolveForServing(ctx context.Context, hash string) (*models.Image, string, error) {
	if !isValidImageHash(hash) {
		return nil, "", models.NewValidationError("Invalid image hash")
	}
	img, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", models.NewNotFoundMessageError("Image not found")
		}
		return nil, "", models.NewInternalError(err)
	}
	full := filepath.Join(s.uploadDir, filepath.FromSlash(img.Path))
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return nil, "", models.NewNotFoundMessageError("Image not found")
		}
		return nil, "", models.NewInternalError(err)
	}
	_ = s.repo.TouchAccessed(ctx, img.ID)
	return img, full, nil
}

// isValidImageHash checks that the hash is strictly lowercase hex. This
// prevents path traversal via crafted hash parameters.
func isValidImageHash(hash string) bool {
	if len(hash) == 0 || len(hash) > 128 {
		return false
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func imageContentHash(userID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", userID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
