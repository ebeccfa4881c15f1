package download

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"cgcookie-dl/internal/config"
)

// Outcome reports what Download actually did.
type Outcome int

const (
	// Downloaded means the file was fetched and written.
	Downloaded Outcome = iota
	// Skipped means a file already existed at the destination and no network
	// request was made.
	Skipped
)

// Downloader streams URLs to disk in fixed-size chunks.
type Downloader struct {
	client    *http.Client
	chunkSize int
	log       zerolog.Logger
}

// New creates a Downloader. chunkSize is the read/write granularity in bytes.
func New(client *http.Client, chunkSize int, log zerolog.Logger) *Downloader {
	return &Downloader{
		client:    client,
		chunkSize: chunkSize,
		log:       log,
	}
}

// Exists reports whether a file is already present at dest.
func (d *Downloader) Exists(dest string) bool {
	info, err := os.Stat(dest)
	return err == nil && !info.IsDir()
}

// Download streams url to dest. With skipIfExists set, an existing file
// short-circuits before any network I/O. The body is written to a temporary
// file and renamed into place so an interrupted run never leaves a truncated
// file under the final name.
func (d *Downloader) Download(url, dest string, skipIfExists bool) (Outcome, error) {
	if skipIfExists && d.Exists(dest) {
		d.log.Info().Str("file", filepath.Base(dest)).Msg("Already exists, skipping")
		return Skipped, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return Downloaded, fmt.Errorf("failed to create output directory: %w", err)
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return Downloaded, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range config.DefaultHeaders {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return Downloaded, fmt.Errorf("failed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Downloaded, fmt.Errorf("download failed with status %d for %s", resp.StatusCode, url)
	}

	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return Downloaded, fmt.Errorf("failed to create output file: %w", err)
	}

	if err := d.stream(resp, out, filepath.Base(dest)); err != nil {
		out.Close()
		os.Remove(tmp)
		return Downloaded, err
	}

	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return Downloaded, fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return Downloaded, fmt.Errorf("failed to move file into place: %w", err)
	}

	return Downloaded, nil
}

func (d *Downloader) stream(resp *http.Response, out *os.File, name string) error {
	var writer io.Writer = out
	if resp.ContentLength > 0 {
		bar := progressbar.NewOptions64(
			resp.ContentLength,
			progressbar.OptionSetDescription(name),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
		writer = io.MultiWriter(out, bar)
	}

	buf := make([]byte, d.chunkSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := writer.Write(buf[:n]); werr != nil {
				return fmt.Errorf("failed to write chunk: %w", werr)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read body: %w", err)
		}
	}
}
