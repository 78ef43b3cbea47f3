package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/soyeahso/scambot/internal/line"
	"github.com/soyeahso/scambot/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	body []byte
	err  error
}

func (f fakeSource) Content(context.Context, string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(bytes.NewReader(f.body)), nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

type brokenSource struct{}

func (brokenSource) Content(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(io.MultiReader(bytes.NewReader([]byte("partial")), failingReader{})), nil
}

func testRetriever(t *testing.T, src ContentSource) (*Retriever, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "scam_images")
	r := NewRetriever(src, dir, logging.New(nil, "silent"))
	r.Now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	return r, dir
}

func entries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	es, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	return es
}

func TestFetchWritesFile(t *testing.T) {
	r, dir := testRetriever(t, fakeSource{body: []byte("jpeg-data")})

	path, err := r.Fetch(context.Background(), "m-1", "U123")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Regexp(t, regexp.MustCompile(`^U123_20240309_140507_[0-9a-f]{8}\.jpg$`), filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-data", string(data))
}

func TestFetchUniqueNames(t *testing.T) {
	r, _ := testRetriever(t, fakeSource{body: []byte("x")})
	a, err := r.Fetch(context.Background(), "m-1", "U1")
	require.NoError(t, err)
	b, err := r.Fetch(context.Background(), "m-1", "U1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestFetchSanitizesUserID(t *testing.T) {
	r, dir := testRetriever(t, fakeSource{body: []byte("x")})
	path, err := r.Fetch(context.Background(), "m-1", "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.NotContains(t, filepath.Base(path), "/")
}

func TestFetchAPIErrorCreatesNoFile(t *testing.T) {
	r, dir := testRetriever(t, fakeSource{err: &line.APIError{StatusCode: 404}})

	path, err := r.Fetch(context.Background(), "m-1", "U1")
	assert.Empty(t, path)
	var apiErr *line.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Empty(t, entries(t, dir))
}

func TestFetchEmptyBody(t *testing.T) {
	r, dir := testRetriever(t, fakeSource{body: nil})

	path, err := r.Fetch(context.Background(), "m-1", "U1")
	assert.Empty(t, path)
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Empty(t, entries(t, dir))
}

func TestFetchReadErrorRemovesPartialFile(t *testing.T) {
	r, dir := testRetriever(t, brokenSource{})

	path, err := r.Fetch(context.Background(), "m-1", "U1")
	assert.Empty(t, path)
	assert.Error(t, err)
	assert.Empty(t, entries(t, dir))
}

func TestFetchThroughLineClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/bot/message/ok/content" {
			w.Write([]byte("image"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := line.New(line.Options{AccessToken: "tok", APIBase: srv.URL})
	r, dir := testRetriever(t, client)

	path, err := r.Fetch(context.Background(), "ok", "U1")
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = r.Fetch(context.Background(), "missing", "U1")
	assert.Error(t, err)
	assert.Len(t, entries(t, dir), 1)
}

func TestCleanup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	require.NoError(t, Cleanup(path))
	assert.NoFileExists(t, path)

	// second removal is fine
	assert.NoError(t, Cleanup(path))
	assert.NoError(t, Cleanup(""))
}
