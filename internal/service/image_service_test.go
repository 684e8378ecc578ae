package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"stockroom/internal/models"
	"stockroom/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupImages(t *testing.T) (*ImageService, *testutil.MemStore, *testutil.ObjectStoreStub, *models.Product) {
	t.Helper()
	store := testutil.NewMemStore()
	objects := testutil.NewObjectStoreStub()
	owner := newPrincipal()
	p, err := NewProductService(store, objects).Create(context.Background(), owner, productInput("W-1", 1))
	require.NoError(t, err)
	return NewImageService(store, objects, 1), store, objects, p
}

func ownerOf(p *models.Product) *authPrincipal {
	return &authPrincipal{ID: p.OwnerUserID}
}

func TestImageService_Upload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, objects, p := setupImages(t)

	img, err := svc.Upload(ctx, ownerOf(p), p.ID, UploadImageInput{
		FileName:    "../../etc/My Photo.png",
		ContentType: "image/png",
		Content:     testutil.PNG,
	})
	require.NoError(t, err)

	assert.Equal(t, "My_Photo.png", img.FileName)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, p.OwnerUserID, img.OwnerUserID)
	prefix := fmt.Sprintf("%s/%s/", p.OwnerUserID, p.ID)
	assert.True(t, strings.HasPrefix(img.S3BucketPath, prefix), img.S3BucketPath)
	assert.True(t, strings.HasSuffix(img.S3BucketPath, "-My_Photo.png"), img.S3BucketPath)

	obj, err := objects.Get(img.S3BucketPath)
	require.NoError(t, err)
	assert.Equal(t, testutil.PNG, obj.Data)
	assert.Equal(t, img.ID.String(), obj.Metadata["imageid"])
}

func TestImageService_UploadRejects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _, p := setupImages(t)

	tests := []struct {
		name      string
		principal *authPrincipal
		productID uuid.UUID
		in        UploadImageInput
		wantCode  string
	}{
		{"empty file", ownerOf(p), p.ID, UploadImageInput{ContentType: "image/png"}, models.CodeValidation},
		{"declared gif", ownerOf(p), p.ID, UploadImageInput{ContentType: "image/gif", Content: testutil.PNG}, models.CodeValidation},
		{"text posing as png", ownerOf(p), p.ID, UploadImageInput{ContentType: "image/png", Content: []byte("hello world")}, models.CodeValidation},
		{"declared jpeg but png bytes", ownerOf(p), p.ID, UploadImageInput{ContentType: "image/jpg", Content: testutil.PNG}, models.CodeValidation},
		{"too large", ownerOf(p), p.ID, UploadImageInput{ContentType: "image/png", Content: append(append([]byte{}, testutil.PNG...), make([]byte, 1024*1024)...)}, models.CodeValidation},
		{"missing product", ownerOf(p), uuid.New(), UploadImageInput{ContentType: "image/png", Content: testutil.PNG}, models.CodeNotFound},
		{"not the owner", &authPrincipal{ID: uuid.New()}, p.ID, UploadImageInput{ContentType: "image/png", Content: testutil.PNG}, models.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.principal, tt.productID, tt.in)
			assertCode(t, err, tt.wantCode)
		})
	}
}

func TestImageService_UploadCompensatesOnPutFailure(t *testing.T) {
	t.Parallel()
	svc, store, objects, p := setupImages(t)
	objects.PutErr = errors.New("bucket gone")

	_, err := svc.Upload(context.Background(), ownerOf(p), p.ID, UploadImageInput{ContentType: "image/png", Content: testutil.PNG})
	assertCode(t, err, models.CodeInternal)
	assert.Equal(t, 0, store.ImageCount())
}

func TestImageService_ListGetDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, store, objects, p := setupImages(t)
	owner := ownerOf(p)
	stranger := &authPrincipal{ID: uuid.New()}

	img, err := svc.Upload(ctx, owner, p.ID, UploadImageInput{FileName: "a.png", ContentType: "image/png", Content: testutil.PNG})
	require.NoError(t, err)

	list, err := svc.List(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.List(ctx, stranger, p.ID)
	assertCode(t, err, models.CodeForbidden)

	got, err := svc.Get(ctx, owner, p.ID, img.ID)
	require.NoError(t, err)
	assert.Equal(t, img.S3BucketPath, got.S3BucketPath)

	_, err = svc.Get(ctx, owner, p.ID, uuid.New())
	assertCode(t, err, models.CodeNotFound)

	assertCode(t, svc.Delete(ctx, stranger, p.ID, img.ID), models.CodeForbidden)
	require.NoError(t, svc.Delete(ctx, owner, p.ID, img.ID))
	assert.Equal(t, 0, objects.Len())
	assert.Equal(t, 0, store.ImageCount())
	assertCode(t, svc.Delete(ctx, owner, p.ID, img.ID), models.CodeNotFound)
}

func TestSanitizeFileName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"photo.jpg":              "photo.jpg",
		`C:\Users\me\pic 1.PNG`:  "pic_1.PNG",
		"../../secret":           "secret",
		"...":                    "upload",
		"":                       "upload",
		"ünïcode name!.png":      "n_code_name_.png",
		strings.Repeat("a", 150): strings.Repeat("a", 100),
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFileName(in), in)
	}
}
