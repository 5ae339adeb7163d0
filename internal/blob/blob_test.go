package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estateguard/estate/internal/credential"
	"github.com/estateguard/estate/internal/rbac"
	"github.com/estateguard/estate/internal/shared"
)

type fakeAPI struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	getErr  error
	putErr  error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeAPI) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	out := &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if ct := f.types[aws.ToString(in.Key)]; ct != "" {
		out.ContentType = aws.String(ct)
	}
	return out, nil
}

func (f *fakeAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestS3StoreRoundTrip(t *testing.T) {
	api := newFakeAPI()
	store := NewS3StoreWithAPI(api, "estate")

	require.NoError(t, store.Put(context.Background(), "receipts/a.png", strings.NewReader("png"), 3, "image/png"))
	obj, err := store.Get(context.Background(), "receipts/a.png")
	require.NoError(t, err)
	defer obj.Body.Close()

	data, _ := io.ReadAll(obj.Body)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, int64(3), obj.Size)
}

func TestS3StoreDefaultsContentType(t *testing.T) {
	api := newFakeAPI()
	store := NewS3StoreWithAPI(api, "estate")

	require.NoError(t, store.Put(context.Background(), "k", strings.NewReader("x"), 1, ""))
	assert.Equal(t, DefaultContentType, api.types["k"])

	api.types["k"] = ""
	obj, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	obj.Body.Close()
	assert.Equal(t, DefaultContentType, obj.ContentType)
}

func TestS3StoreNotFound(t *testing.T) {
	api := newFakeAPI()
	store := NewS3StoreWithAPI(api, "estate")

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	api.getErr = &smithy.GenericAPIError{Code: "NotFound", Message: "head"}
	_, err = store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	api.getErr = &smithy.GenericAPIError{Code: "AccessDenied"}
	_, err = store.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrNotFound)
}

func TestS3StorePutFailure(t *testing.T) {
	api := newFakeAPI()
	api.putErr = errors.New("boom")
	store := NewS3StoreWithAPI(api, "estate")

	err := store.Put(context.Background(), "k", strings.NewReader("x"), 1, "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blob: put k")
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Options{Region: "auto"})
	assert.Error(t, err)
}

func newTestRouter(store Store) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := rbac.NewGate(credential.NewParser(credential.Options{AllowSentinel: true}), nil, logger, nil)
	r := chi.NewRouter()
	r.Route("/api/blobs", NewHandler(logger, store, rbac.Middleware{Gate: gate, Logger: logger}).MountRoutes)
	return r
}

func upload(router http.Handler, key, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/api/blobs/"+key, body)
	req.Header.Set("Authorization", "Bearer "+credential.DefaultSentinelToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerPutThenGet(t *testing.T) {
	router := newTestRouter(NewS3StoreWithAPI(newFakeAPI(), "estate"))

	rec := upload(router, "qr/house-12.png", "image/png", strings.NewReader("qr-bytes"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/blobs/qr/house-12.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "qr-bytes", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "immutable")
}

func TestHandlerGetMissing(t *testing.T) {
	router := newTestRouter(NewS3StoreWithAPI(newFakeAPI(), "estate"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/blobs/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not found")
}

func TestHandlerPutStoreFailure(t *testing.T) {
	api := newFakeAPI()
	api.putErr = errors.New("bucket offline")
	router := newTestRouter(NewS3StoreWithAPI(api, "estate"))

	rec := upload(router, "k", "", strings.NewReader("x"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "bucket offline")
}

func TestHandlerPutTooLarge(t *testing.T) {
	router := newTestRouter(NewS3StoreWithAPI(newFakeAPI(), "estate"))

	body := bytes.Repeat([]byte("a"), MaxUploadBytes+1)
	rec := upload(router, "big", "", bytes.NewReader(body))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandlerPutRequiresCredential(t *testing.T) {
	router := newTestRouter(NewS3StoreWithAPI(newFakeAPI(), "estate"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/blobs/k", strings.NewReader("x")))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
