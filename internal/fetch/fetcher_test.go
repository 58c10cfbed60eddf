package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-ocr-service/internal/fetch"
)

func TestFetch_DownloadsRemotePDF(t *testing.T) {
	body := []byte("%PDF-1.4 fake content")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	f := fetch.NewFetcher(zerolog.Nop())
	dir := t.TempDir()

	path, err := f.Fetch(context.Background(), srv.URL+"/doc.pdf", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "input.pdf"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := fetch.NewFetcher(zerolog.Nop())

	_, err := f.Fetch(context.Background(), srv.URL+"/doc.pdf", t.TempDir())
	var fetchErr *fetch.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Status, "404")
}

func TestFetch_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := fetch.NewFetcher(zerolog.Nop())

	_, err := f.Fetch(context.Background(), url+"/doc.pdf", t.TempDir())
	var fetchErr *fetch.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Error(t, fetchErr.Err)
}

func TestFetch_LocalPathPassThrough(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(local, []byte("%PDF-1.4"), 0o644))

	f := fetch.NewFetcher(zerolog.Nop())

	path, err := f.Fetch(context.Background(), local, dir)
	require.NoError(t, err)
	assert.Equal(t, local, path)
}

func TestFetch_LocalPathMissing(t *testing.T) {
	f := fetch.NewFetcher(zerolog.Nop())

	_, err := f.Fetch(context.Background(), "/nonexistent/doc.pdf", t.TempDir())
	var fetchErr *fetch.FetchError
	require.ErrorAs(t, err, &fetchErr)
}
