package ingest

import (
	"archive/zip"
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/server/config"
)

func countyArchive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for member, content := range map[string]string{
		archiveParcelsPath: "ACCOUNT,LOCZIP\n7002,34236\n",
		archiveSalesPath:   "Account,SaleDate,SalePrice,DeedType\n7002,2025-08-12,250000,WD\n",
	} {
		f, err := w.Create(member)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func testDownloader(t *testing.T, url string) *Downloader {
	t.Helper()

	cfg := &config.Config{DataDir: t.TempDir()}
	cfg.Download.URL = url
	cfg.Download.MaxRetries = 3
	cfg.Download.RetryDelay = 0
	cfg.Download.MaxAgeHours = 144

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewDownloader(cfg, config.Sarasota, logger)
}

func TestDownloaderRefreshExtractsCountyFiles(t *testing.T) {
	archive := countyArchive(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	d := testDownloader(t, srv.URL)
	require.NoError(t, d.Refresh())

	parcels, err := os.ReadFile(filepath.Join(d.dataDir, config.Sarasota.ParcelFile))
	require.NoError(t, err)
	assert.Contains(t, string(parcels), "7002,34236")

	sales, err := os.ReadFile(filepath.Join(d.dataDir, config.Sarasota.SalesFile))
	require.NoError(t, err)
	assert.Contains(t, string(sales), "250000,WD")
}

func TestDownloaderRetriesThenSucceeds(t *testing.T) {
	archive := countyArchive(t)
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(archive)
	}))
	defer srv.Close()

	d := testDownloader(t, srv.URL)
	require.NoError(t, d.Refresh())
	assert.Equal(t, 3, calls)
}

func TestDownloaderGivesUpAfterMaxRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := testDownloader(t, srv.URL)
	err := d.Refresh()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestDownloaderSkipsWhenSnapshotFresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("fresh snapshot must not trigger a download")
	}))
	defer srv.Close()

	d := testDownloader(t, srv.URL)
	for _, file := range []string{config.Sarasota.ParcelFile, config.Sarasota.SalesFile} {
		require.NoError(t, os.WriteFile(filepath.Join(d.dataDir, file), []byte("x"), 0o644))
	}

	require.NoError(t, d.Refresh())
}

func TestDownloaderStaleSnapshotRefreshes(t *testing.T) {
	archive := countyArchive(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	d := testDownloader(t, srv.URL)
	stale := time.Now().Add(-200 * time.Hour)
	for _, file := range []string{config.Sarasota.ParcelFile, config.Sarasota.SalesFile} {
		path := filepath.Join(d.dataDir, file)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		require.NoError(t, os.Chtimes(path, stale, stale))
	}

	require.NoError(t, d.Refresh())
	parcels, err := os.ReadFile(filepath.Join(d.dataDir, config.Sarasota.ParcelFile))
	require.NoError(t, err)
	assert.Contains(t, string(parcels), "7002")
}
