package client

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Image is one downloaded camera frame
type Image struct {
	Data        []byte
	ContentType string
	FetchedAt   time.Time
}

// ErrEmptyImage is returned when the camera host answers with no bytes
var ErrEmptyImage = errors.New("response body is empty")

// GetImage downloads the current frame of a camera, cache-busted and
// bypassing intermediate caches.
func (c *FeedClient) GetImage(ctx context.Context, imageURL string) (*Image, error) {
	now := time.Now()

	resp, err := noStore(c.HTTP.R().SetContext(ctx)).
		Get(Bust(imageURL, now))

	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch image: %s", resp.Status())
	}

	if len(resp.Body()) == 0 {
		return nil, ErrEmptyImage
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return &Image{
		Data:        resp.Body(),
		ContentType: contentType,
		FetchedAt:   now,
	}, nil
}
