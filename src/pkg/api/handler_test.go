package api_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frame-vault/framevault/src/pkg/api"
	"github.com/frame-vault/framevault/src/pkg/history"
	"github.com/frame-vault/framevault/src/pkg/normalize"
	"github.com/frame-vault/framevault/src/pkg/store"
)

const (
	testWidth  = 64
	testHeight = 36
	maxUpload  = 1 << 20
)

func newTestServer(t *testing.T, recorder *history.Recorder) (*httptest.Server, *store.Store) {
	t.Helper()
	normalizer := normalize.New(normalize.Config{
		Width:    testWidth,
		Height:   testHeight,
		MaxBytes: maxUpload,
	})
	s, err := store.New(t.TempDir(), 3, normalizer)
	require.NoError(t, err)
	if recorder != nil {
		s.Subscribe(recorder)
	}

	mux := http.NewServeMux()
	api.NewHandler(s, nil, recorder, maxUpload).Register(mux)
	server := httptest.NewServer(api.RequestLogger(mux))
	t.Cleanup(server.Close)
	return server, s
}

func imageBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 80, G: 80, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func upload(t *testing.T, server *httptest.Server, payload []byte, name string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp, err := http.Post(server.URL+"/api/v1/images", writer.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func TestUploadAndServe(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp := upload(t, server, imageBytes(t, testWidth, testHeight), "shot.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decodeBody(t, resp)

	imageInfo, ok := payload["image"].(map[string]any)
	require.True(t, ok, "response must carry the stored item projection")
	assert.Equal(t, float64(1), imageInfo["sequence"])
	assert.Equal(t, "/api/v1/images/1", imageInfo["url"])
	assert.NotContains(t, imageInfo, "document_url")

	get, err := http.Get(server.URL + "/api/v1/images/1")
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusOK, get.StatusCode)
	assert.Equal(t, "image/png", get.Header.Get("Content-Type"))
	assert.Contains(t, get.Header.Get("Cache-Control"), "max-age=3600")
}

func TestUploadRejections(t *testing.T) {
	server, s := newTestServer(t, nil)

	cases := []struct {
		name    string
		payload []byte
		reason  string
	}{
		{"wrong dimensions", imageBytes(t, testWidth+4, testHeight), "invalid_dimensions"},
		{"unsupported format", []byte("definitely not an image"), "unsupported_format"},
		{"corrupt pdf", []byte("%PDF-1.4\nbroken"), "conversion_failed"},
		{"body too large", make([]byte, maxUpload+4096), "file_too_large"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := upload(t, server, tc.payload, "bad.bin")
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			payload := decodeBody(t, resp)
			assert.Equal(t, tc.reason, payload["error"])
		})
	}

	items, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, items, "rejected uploads must not create items")
}

func TestStatus(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp := upload(t, server, imageBytes(t, testWidth, testHeight), "one.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	status, err := http.Get(server.URL + "/api/v1/status")
	require.NoError(t, err)
	payload := decodeBody(t, status)

	assert.Equal(t, float64(1), payload["count"])
	assert.Equal(t, float64(3), payload["max_images"])
	images, ok := payload["images"].([]any)
	require.True(t, ok)
	require.Len(t, images, 1)
}

func TestDeleteEndpoints(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp := upload(t, server, imageBytes(t, testWidth, testHeight), "one.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	del, err := http.Post(server.URL+"/api/v1/images/delete", "application/json", strings.NewReader(`{"sequence": 1}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, del.StatusCode)
	del.Body.Close()

	// Second delete of the same sequence is not found.
	del, err = http.Post(server.URL+"/api/v1/images/delete", "application/json", strings.NewReader(`{"sequence": 1}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, del.StatusCode)
	del.Body.Close()

	del, err = http.Post(server.URL+"/api/v1/images/delete", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, del.StatusCode)
	del.Body.Close()

	cleared, err := http.Post(server.URL+"/api/v1/images/clear_all", "application/json", nil)
	require.NoError(t, err)
	payload := decodeBody(t, cleared)
	assert.Equal(t, true, payload["success"])
}

func TestServeUnknownSequence(t *testing.T) {
	server, _ := newTestServer(t, nil)

	for _, path := range []string{
		"/api/v1/images/99",
		"/api/v1/images/99/document",
		"/api/v1/images/notanumber",
	} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		resp.Body.Close()
	}
}

func TestHistoryEndpoint(t *testing.T) {
	recorder, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = recorder.Close() })

	server, _ := newTestServer(t, recorder)

	resp := upload(t, server, imageBytes(t, testWidth, testHeight), "one.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	hist, err := http.Get(server.URL + "/api/v1/history?limit=10")
	require.NoError(t, err)
	payload := decodeBody(t, hist)

	entries, ok := payload["events"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, "stored", entry["type"])
}

func TestHistoryDisabled(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/api/v1/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRequestIDHeader(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
