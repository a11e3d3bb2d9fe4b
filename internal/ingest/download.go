package ingest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"marketpulse/server/config"
)

// Archive member paths inside the county appraiser ZIP.
const (
	archiveParcelsPath = "Parcel_Sales_CSV/Sarasota.csv"
	archiveSalesPath   = "Parcel_Sales_CSV/ParcelSales.csv"
)

// Downloader refreshes the county parcel and sales snapshot from the
// appraiser's public ZIP. The extraction happens in memory; only the two
// CSVs of interest land in the data directory, under the file names the
// loader expects.
type Downloader struct {
	url        string
	dataDir    string
	market     config.Market
	maxRetries int
	retryDelay time.Duration
	maxAge     time.Duration
	client     *http.Client
	logger     *logrus.Logger
}

// NewDownloader creates a downloader from the county download configuration
func NewDownloader(cfg *config.Config, market config.Market, logger *logrus.Logger) *Downloader {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Downloader{
		url:        cfg.Download.URL,
		dataDir:    cfg.DataDir,
		market:     market,
		maxRetries: cfg.Download.MaxRetries,
		retryDelay: time.Duration(cfg.Download.RetryDelay) * time.Second,
		maxAge:     time.Duration(cfg.Download.MaxAgeHours) * time.Hour,
		client:     &http.Client{Timeout: 2 * time.Minute},
		logger:     logger,
	}
}

// Refresh downloads and extracts the county snapshot unless a fresh local
// copy already exists. A manually dropped file newer than the max age is
// respected and left alone.
func (d *Downloader) Refresh() error {
	if d.isFresh() {
		d.logger.WithField("max_age", d.maxAge.String()).Info("Local county snapshot is fresh, skipping download")
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < d.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff between attempts
			delay := d.retryDelay * time.Duration(1<<(attempt-1))
			d.logger.WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"delay":   delay.String(),
			}).Info("Retrying county download")
			time.Sleep(delay)
		}

		if err := d.download(); err != nil {
			lastErr = err
			d.logger.WithError(err).WithField("attempt", attempt+1).Warn("County download failed")
			continue
		}
		return nil
	}
	return fmt.Errorf("county download failed after %d attempts: %w", d.maxRetries, lastErr)
}

func (d *Downloader) download() error {
	d.logger.WithField("url", d.url).Info("Downloading county snapshot")

	resp, err := d.client.Get(d.url)
	if err != nil {
		return fmt.Errorf("failed to fetch archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read archive body: %w", err)
	}
	d.logger.WithField("bytes", len(body)).Info("County archive downloaded")

	archive, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}

	if err := os.MkdirAll(d.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := d.extract(archive, archiveParcelsPath, d.market.ParcelFile); err != nil {
		return err
	}
	return d.extract(archive, archiveSalesPath, d.market.SalesFile)
}

func (d *Downloader) extract(archive *zip.Reader, member, dest string) error {
	src, err := archive.Open(member)
	if err != nil {
		return fmt.Errorf("failed to open archive member %s: %w", member, err)
	}
	defer src.Close()

	path := filepath.Join(d.dataDir, dest)
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()

	n, err := io.Copy(out, src)
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", member, err)
	}

	d.logger.WithFields(logrus.Fields{
		"member": member,
		"dest":   path,
		"bytes":  n,
	}).Info("Extracted archive member")
	return nil
}

// isFresh reports whether both county files exist and the oldest is newer
// than the configured max age.
func (d *Downloader) isFresh() bool {
	for _, file := range []string{d.market.ParcelFile, d.market.SalesFile} {
		info, err := os.Stat(filepath.Join(d.dataDir, file))
		if err != nil {
			return false
		}
		if time.Since(info.ModTime()) > d.maxAge {
			return false
		}
	}
	return true
}
