package wikipedia

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"playerdata/internal/telemetry"

	"github.com/stretchr/testify/require"
)

var jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x42}, 2048)...)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Options{
		BaseUrl:   server.URL + "/w/api.php",
		UserAgent: "playerdata-test",
	}, telemetry.NewSlogAPI(io.Discard, slog.LevelDebug))
	return client, server
}

func TestThumbnail(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/w/api.php", r.URL.Path)
		query := r.URL.Query()
		require.Equal(t, "query", query.Get("action"))
		require.Equal(t, "pageimages", query.Get("prop"))
		require.Equal(t, "json", query.Get("format"))
		require.Equal(t, "500", query.Get("pithumbsize"))
		require.Equal(t, "B_O'Connor", query.Get("titles"))
		require.Equal(t, "playerdata-test", r.Header.Get("User-Agent"))

		fmt.Fprint(w, `{"query":{"pages":{
			"-1":{"title":"Other"},
			"900":{"title":"B O'Connor (second)","thumbnail":{"source":"https://upload.example/second.jpg"}},
			"42":{"title":"B O'Connor","thumbnail":{"source":"https://upload.example/first.jpg"}}
		}}}`)
	}))

	link, err := client.Thumbnail(context.Background(), "B O'Connor")
	require.NoError(t, err)
	require.Equal(t, "https://upload.example/first.jpg", link)
}

func TestThumbnailMissing(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"query":{"pages":{"-1":{"title":"Nobody","missing":""}}}}`)
	}))

	_, err := client.Thumbnail(context.Background(), "Nobody")
	require.ErrorIs(t, err, ErrNoThumbnail)
}

func TestThumbnailBadStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.Thumbnail(context.Background(), "Harry Kane")
	require.ErrorContains(t, err, "503")
}

func TestDownloadImage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/image.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write(jpegBytes)
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>not an image</body></html>")
	})
	mux.HandleFunc("/gone.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	client, server := newTestClient(t, mux)

	dir := t.TempDir()
	dest := filepath.Join(dir, "Harry_Kane.jpg")

	size, err := client.DownloadImage(context.Background(), server.URL+"/image.jpg", dest)
	require.NoError(t, err)
	require.Equal(t, int64(len(jpegBytes)), size)
	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, jpegBytes, written)

	other := filepath.Join(dir, "Other.jpg")
	_, err = client.DownloadImage(context.Background(), server.URL+"/page.html", other)
	require.ErrorContains(t, err, "not an image")
	require.NoFileExists(t, other)

	_, err = client.DownloadImage(context.Background(), server.URL+"/gone.jpg", other)
	require.ErrorContains(t, err, "404")
	require.NoFileExists(t, other)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRequestRateIsCapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"query":{"pages":{"7":{"title":"Harry Kane","thumbnail":{"source":"https://upload.example/kane.jpg"}}}}}`)
	}))
	t.Cleanup(server.Close)

	client := NewClient(Options{
		BaseUrl:           server.URL,
		RequestsPerSecond: 0.5,
	}, telemetry.NewSlogAPI(io.Discard, slog.LevelDebug))

	_, err := client.Thumbnail(context.Background(), "Harry Kane")
	require.NoError(t, err)

	// the next token is two seconds away
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Thumbnail(ctx, "Harry Kane")
	require.Error(t, err)
}
