// Package download fetches remote media files into local storage so they
// can go through the same registration path as local files.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Options configures the download behavior
type Options struct {
	DestDir      string        // Directory downloaded files land in
	MaxSize      int64         // Maximum file size in bytes (0 = no limit)
	Timeout      time.Duration // Download timeout
	ProgressFunc ProgressFunc  // Optional progress callback
	UserAgent    string        // User agent string
	ValidateType bool          // Validate content-type is audio or video
}

// ProgressFunc is called during download to report progress
type ProgressFunc func(downloaded, total int64)

// DefaultOptions returns default download options
func DefaultOptions() Options {
	return Options{
		DestDir:      os.TempDir(),
		MaxSize:      2 * 1024 * 1024 * 1024, // 2GB, video files are large
		Timeout:      15 * time.Minute,
		UserAgent:    "ezclip-api/1.0",
		ValidateType: true,
	}
}

// Result contains information about a successful download
type Result struct {
	FilePath      string // Path to downloaded file
	ContentType   string // Content-Type from response
	ContentLength int64  // Size in bytes
}

// Downloader fetches media files over HTTP
type Downloader struct {
	client  *http.Client
	options Options
}

// NewDownloader creates a new downloader with the given options
func NewDownloader(options Options) *Downloader {
	if options.DestDir == "" {
		options.DestDir = os.TempDir()
	}
	return &Downloader{
		client: &http.Client{
			Timeout: options.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableCompression:  true, // Don't recompress media
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		options: options,
	}
}

// Fetch downloads a URL into the destination directory and returns the
// local file path.
func (d *Downloader) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	log.Debug().Str("url", rawURL).Msg("Starting media download")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.options.UserAgent)
	req.Header.Set("Accept", "video/*,audio/*,*/*")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if d.options.ValidateType && !isMediaContentType(contentType) {
		return nil, fmt.Errorf("invalid content type: %s", contentType)
	}

	contentLength := resp.ContentLength
	if d.options.MaxSize > 0 && contentLength > d.options.MaxSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", contentLength, d.options.MaxSize)
	}

	dest, err := d.createDestFile(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}

	written, err := d.copyToFile(resp.Body, dest, contentLength)
	destPath := dest.Name()
	dest.Close()

	if err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("failed to download: %w", err)
	}

	log.Debug().Int64("bytes", written).Str("path", destPath).Msg("Download complete")

	return &Result{
		FilePath:      destPath,
		ContentType:   contentType,
		ContentLength: written,
	}, nil
}

// createDestFile creates the destination file, keeping the URL's base name
// and extension where possible so exports stay recognizable.
func (d *Downloader) createDestFile(rawURL string) (*os.File, error) {
	if err := os.MkdirAll(d.options.DestDir, 0o755); err != nil {
		return nil, err
	}

	base := "media"
	ext := ".mp4"
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		name := path.Base(u.Path)
		if e := strings.ToLower(path.Ext(name)); isMediaExtension(e) {
			ext = e
			base = strings.TrimSuffix(name, path.Ext(name))
		}
	}

	pattern := fmt.Sprintf("%s_*%s", sanitizeBase(base), ext)
	return os.CreateTemp(d.options.DestDir, pattern)
}

// copyToFile copies the response body with optional progress tracking.
// Chunked responses carry no length; progress still reports the byte count
// with total -1.
func (d *Downloader) copyToFile(src io.Reader, dst *os.File, totalSize int64) (int64, error) {
	reader := src
	if d.options.ProgressFunc != nil {
		reader = &progressReader{
			reader:   src,
			total:    totalSize,
			callback: d.options.ProgressFunc,
		}
	}

	if d.options.MaxSize > 0 {
		reader = &io.LimitedReader{R: reader, N: d.options.MaxSize}
	}

	return io.Copy(dst, reader)
}

// IsURL reports whether the path is a fetchable HTTP location rather than
// a local file path.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// isMediaContentType checks if the content type is audio or video
func isMediaContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.HasPrefix(contentType, "audio/") ||
		strings.HasPrefix(contentType, "video/") ||
		contentType == "application/octet-stream" // Some servers use this for media
}

// isMediaExtension checks if the extension looks like a media file
func isMediaExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".mp4", ".mkv", ".mov", ".avi", ".webm",
		".mp3", ".m4a", ".aac", ".ogg", ".wav", ".flac", ".opus":
		return true
	}
	return false
}

// sanitizeBase strips characters CreateTemp patterns cannot contain
func sanitizeBase(base string) string {
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		base = "media"
	}
	return base
}

// progressReader wraps a reader to report progress
type progressReader struct {
	reader     io.Reader
	total      int64
	downloaded int64
	callback   ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.downloaded += int64(n)
		if pr.callback != nil {
			pr.callback(pr.downloaded, pr.total)
		}
	}
	return n, err
}
