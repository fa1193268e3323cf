package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/testutil"
)

func newTestImageService(t *testing.T) *ImageService {
	t.Helper()
	return NewImageService(testutil.NewImageRepoStub(), &config.Config{
		ImageUploadDir:       t.TempDir(),
		ImageMaxUploadSizeMB: 1,
	})
}

func TestImageUpload(t *testing.T) {
	t.Parallel()
	svc := newTestImageService(t)
	ctx := context.Background()

	t.Run("valid png is stored as webp", func(t *testing.T) {
		img, err := svc.Upload(ctx, UploadImageInput{
			UserID:   1,
			Filename: "avatar.png",
			Content:  testutil.TinyPNG(t, 32, 24),
		})
		require.NoError(t, err)
		assert.Equal(t, 32, img.Width)
		assert.Equal(t, 24, img.Height)
		assert.Contains(t, img.URL, "/media/i/")
		assert.Contains(t, img.URL, ".webp")
		assert.NotEmpty(t, img.Hash)
	})

	t.Run("same bytes deduplicate", func(t *testing.T) {
		content := testutil.TinyPNG(t, 16, 16)
		first, err := svc.Upload(ctx, UploadImageInput{UserID: 2, Filename: "a.png", Content: content})
		require.NoError(t, err)
		second, err := svc.Upload(ctx, UploadImageInput{UserID: 2, Filename: "b.png", Content: content})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		// A different user uploading the same bytes gets their own record.
		third, err := svc.Upload(ctx, UploadImageInput{UserID: 3, Filename: "c.png", Content: content})
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, third.ID)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := svc.Upload(ctx, UploadImageInput{UserID: 1, Filename: "x.png", Content: []byte("not an image")})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeValidation, appErr.Code)
	})

	t.Run("empty upload rejected", func(t *testing.T) {
		_, err := svc.Upload(ctx, UploadImageInput{UserID: 1, Filename: "x.png"})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeValidation, appErr.Code)
	})
}

func TestResolveForServing(t *testing.T) {
	t.Parallel()
	svc := newTestImageService(t)
	ctx := context.Background()

	uploaded, err := svc.Upload(ctx, UploadImageInput{
		UserID:   1,
		Filename: "pic.png",
		Content:  testutil.TinyPNG(t, 8, 8),
	})
	require.NoError(t, err)

	t.Run("known hash resolves to a file", func(t *testing.T) {
		img, path, err := svc.ResolveForServing(ctx, uploaded.Hash)
		require.NoError(t, err)
		assert.Equal(t, uploaded.ID, img.ID)
		assert.NotEmpty(t, path)
	})

	t.Run("traversal attempts rejected", func(t *testing.T) {
		for _, hash := range []string{"../../etc/passwd", "ABCDEF", "zz..zz", ""} {
			_, _, err := svc.ResolveForServing(ctx, hash)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr, "hash %q", hash)
			assert.Equal(t, models.CodeValidation, appErr.Code)
		}
	})

	t.Run("unknown hash not found", func(t *testing.T) {
		_, _, err := svc.ResolveForServing(ctx, "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeNotFound, appErr.Code)
	})
}
