// Package snapshot downloads the current frame of a camera as a local file.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jengzang/trafficcams/internal/client"
	"github.com/jengzang/trafficcams/internal/models"
)

// Fetcher downloads a fresh camera image
type Fetcher interface {
	GetImage(ctx context.Context, imageURL string) (*client.Image, error)
}

// FetchError means the image could not be downloaded. DirectURL is the raw
// camera URL the caller should open instead.
type FetchError struct {
	DirectURL string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("snapshot failed, open %s directly: %v", e.DirectURL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Snapshot is a downloaded frame ready to be saved
type Snapshot struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Take fetches the current image of cam, bypassing caches
func Take(ctx context.Context, fetcher Fetcher, cam models.Camera, now time.Time) (*Snapshot, error) {
	img, err := fetcher.GetImage(ctx, cam.URL)
	if err != nil {
		return nil, &FetchError{DirectURL: cam.URL, Err: err}
	}

	return &Snapshot{
		Filename:    Filename(cam.Name, now),
		ContentType: img.ContentType,
		Data:        img.Data,
	}, nil
}

// Filename builds "<name>_<timestamp>.jpg". Characters other than letters,
// digits, '-', '_' and space become '_'; ':' and '.' in the UTC timestamp
// become '-'.
func Filename(name string, at time.Time) string {
	if name == "" {
		name = "camera"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	ts := at.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)

	return fmt.Sprintf("%s_%s.jpg", b.String(), ts)
}

// Save writes the snapshot to path, or to dir/Filename when path is a
// directory or empty. It returns the written path.
func Save(s *Snapshot, path string) (string, error) {
	if path == "" {
		path = s.Filename
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, s.Filename)
	}

	if err := os.WriteFile(path, s.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	return path, nil
}
