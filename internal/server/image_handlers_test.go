package server

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"stockroom/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) upload(t *testing.T, productID, authorization, fileName, contentType string, data []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if data != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
		h.Set("Content-Type", contentType)
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, writer.WriteField("note", "no file here"))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/product/"+productID+"/image", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return e.do(t, req)
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t)
	product := env.createProduct(t, alice)
	productID := product["id"].(string)

	resp := env.upload(t, productID, alice.Auth, "../My Photo!.png", "image/png", testutil.PNG)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	img := decodeMap(t, resp)
	assert.Equal(t, productID, img["product_id"])
	assert.Equal(t, "image/png", img["content_type"])
	assert.Equal(t, "My_Photo_.png", img["file_name"])

	key := img["s3_bucket_path"].(string)
	assert.True(t, strings.HasPrefix(key, alice.ID+"/"+productID+"/"), key)
	assert.True(t, strings.HasSuffix(key, "-My_Photo_.png"), key)

	obj, err := env.objects.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, testutil.PNG, obj.Data)
	assert.Equal(t, alice.ID, obj.Metadata["owner"])
	assert.Equal(t, productID, obj.Metadata["product"])
	assert.Equal(t, img["image_id"], obj.Metadata["imageid"])
}

func TestUploadImage_Rejected(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t)
	bob := env.createUser(t)
	productID := env.createProduct(t, alice)["id"].(string)

	tests := []struct {
		name        string
		productID   string
		auth        string
		contentType string
		data        []byte
		status      int
		message     string
	}{
		{"missing file", productID, alice.Auth, "", nil, http.StatusBadRequest, "file is required"},
		{"declared text", productID, alice.Auth, "text/plain", []byte("hello"), http.StatusBadRequest, "unsupported file type"},
		{"not an image", productID, alice.Auth, "image/png", []byte("definitely not a png"), http.StatusBadRequest, "Invalid image file"},
		{"declared jpeg got png", productID, alice.Auth, "image/jpeg", testutil.PNG, http.StatusBadRequest, "Image content type mismatch"},
		{"non owner", productID, bob.Auth, "image/png", testutil.PNG, http.StatusForbidden, ""},
		{"missing product", uuid.NewString(), alice.Auth, "image/png", testutil.PNG, http.StatusNotFound, ""},
		{"no credentials", productID, "", "image/png", testutil.PNG, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.upload(t, tt.productID, tt.auth, "a.png", tt.contentType, tt.data)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.message != "" {
				assert.Equal(t, tt.message, errorMessage(t, resp))
			}
		})
	}

	assert.Equal(t, 0, env.store.ImageCount())
	assert.Equal(t, 0, env.objects.Len())
}

func TestUploadImage_TooLarge(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t)
	productID := env.createProduct(t, alice)["id"].(string)

	big := append(append([]byte{}, testutil.PNG...), make([]byte, 1024*1024)...)
	resp := env.upload(t, productID, alice.Auth, "big.png", "image/png", big)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "File too large (max 1MB)", errorMessage(t, resp))
}

func TestUploadImage_ObjectStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t)
	productID := env.createProduct(t, alice)["id"].(string)
	env.objects.PutErr = errors.New("s3: access denied")

	resp := env.upload(t, productID, alice.Auth, "a.png", "image/png", testutil.PNG)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeMap(t, resp)
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotContains(t, body, "details")
	assert.Equal(t, 0, env.store.ImageCount(), "metadata row is removed when the object write fails")
}

func TestImageReadAndDelete(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t)
	bob := env.createUser(t)
	productID := env.createProduct(t, alice)["id"].(string)
	base := "/v1/product/" + productID + "/image"

	resp := env.sendJSON(t, http.MethodGet, base, alice.Auth, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeList(t, resp))

	resp = env.upload(t, productID, alice.Auth, "a.png", "image/png", testutil.PNG)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	imageID := decodeMap(t, resp)["image_id"].(string)

	resp = env.sendJSON(t, http.MethodGet, base, alice.Auth, nil)
	assert.Len(t, decodeList(t, resp), 1)

	resp = env.sendJSON(t, http.MethodGet, base+"/"+imageID, alice.Auth, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, imageID, decodeMap(t, resp)["image_id"])

	resp = env.sendJSON(t, http.MethodGet, base, bob.Auth, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.sendJSON(t, http.MethodGet, base+"/"+imageID, bob.Auth, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.sendJSON(t, http.MethodDelete, base+"/"+imageID, bob.Auth, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.sendJSON(t, http.MethodGet, base+"/"+uuid.NewString(), alice.Auth, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.sendJSON(t, http.MethodDelete, base+"/"+imageID, alice.Auth, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, env.objects.Len())
	assert.Equal(t, 0, env.store.ImageCount())

	resp = env.sendJSON(t, http.MethodDelete, base+"/"+imageID, alice.Auth, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteProduct_RemovesImages(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t)
	productID := env.createProduct(t, alice)["id"].(string)

	for i := 0; i < 2; i++ {
		resp := env.upload(t, productID, alice.Auth, fmt.Sprintf("%d.png", i), "image/png", testutil.PNG)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	require.Equal(t, 2, env.objects.Len())

	t.Run("object delete failure keeps the product", func(t *testing.T) {
		env.objects.DeleteErr = errors.New("s3: unavailable")
		defer func() { env.objects.DeleteErr = nil }()

		resp := env.sendJSON(t, http.MethodDelete, "/v1/product/"+productID, alice.Auth, nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		resp = env.sendJSON(t, http.MethodGet, "/v1/product/"+productID, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	resp := env.sendJSON(t, http.MethodDelete, "/v1/product/"+productID, alice.Auth, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, env.objects.Len())
	assert.Equal(t, 0, env.store.ImageCount())
}
