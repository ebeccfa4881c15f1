package wistia

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog"

	"cgcookie-dl/internal/apperrors"
	"cgcookie-dl/internal/config"
)

// DefaultBaseURL is the Wistia embed-medias endpoint host.
const DefaultBaseURL = "https://fast.wistia.net"

// Client resolves an embedded-video identifier to a direct asset URL via the
// Wistia medias API.
type Client struct {
	httpClient *http.Client
	// BaseURL can be overridden in tests.
	BaseURL string
	retry   retrypolicy.RetryPolicy[*mediaResponse]
	log     zerolog.Logger
}

// NewClient creates a Wistia API client. Transport errors and 5xx responses
// are retried with backoff; 4xx responses are not, since they will not get
// better on their own.
func NewClient(httpClient *http.Client, log zerolog.Logger) *Client {
	retry := retrypolicy.Builder[*mediaResponse]().
		HandleIf(func(_ *mediaResponse, err error) bool {
			var apiErr *apperrors.ErrAPI
			if errors.As(err, &apiErr) {
				return apiErr.Status >= 500
			}
			return err != nil
		}).
		WithBackoff(500*time.Millisecond, 5*time.Second).
		WithMaxRetries(2).
		Build()

	return &Client{
		httpClient: httpClient,
		BaseURL:    DefaultBaseURL,
		retry:      retry,
		log:        log,
	}
}

// ResolveVideoURL fetches the asset list for a video identifier and selects
// the asset with the largest reported size. Ties go to the first maximum
// encountered.
func (c *Client) ResolveVideoURL(videoID string) (VideoAsset, error) {
	mediaURL := fmt.Sprintf("%s/embed/medias/%s.json", c.BaseURL, videoID)

	media, err := failsafe.Get(func() (*mediaResponse, error) {
		return c.fetchMedia(mediaURL)
	}, c.retry)
	if err != nil {
		return VideoAsset{}, err
	}

	assets := media.Media.Assets
	if len(assets) == 0 {
		return VideoAsset{}, apperrors.NewAPIError(mediaURL, "no assets in response")
	}

	best := assets[0]
	for _, asset := range assets[1:] {
		if asset.Size > best.Size {
			best = asset
		}
	}

	c.log.Debug().Str("video_id", videoID).Int64("size", best.Size).
		Int("assets", len(assets)).Msg("Selected largest asset")

	return VideoAsset{ID: videoID, URL: best.URL, Size: best.Size}, nil
}

func (c *Client) fetchMedia(mediaURL string) (*mediaResponse, error) {
	req, err := http.NewRequest(http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", config.DefaultHeaders["User-Agent"])
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewAPIStatusError(mediaURL, resp.StatusCode)
	}

	var media mediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return nil, apperrors.NewAPIError(mediaURL, fmt.Sprintf("malformed JSON: %v", err))
	}

	return &media, nil
}
