package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // DecodeConfig for final images
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/michimani/gotwi"
	"github.com/michimani/gotwi/media/upload"
	uploadtypes "github.com/michimani/gotwi/media/upload/types"
	"github.com/michimani/gotwi/resources"
	"github.com/michimani/gotwi/tweet/managetweet"
	managetweettypes "github.com/michimani/gotwi/tweet/managetweet/types"

	"github.com/blacktop/postcraft/internal/compose"
	"github.com/blacktop/postcraft/internal/logutil"
	"github.com/blacktop/postcraft/internal/xpost"
)

const (
	envAPIKey       = "POSTCRAFT_TWITTER_CONSUMER_KEY"
	envAPISecret    = "POSTCRAFT_TWITTER_CONSUMER_SECRET"
	envAccessToken  = "POSTCRAFT_TWITTER_ACCESS_TOKEN"
	envAccessSecret = "POSTCRAFT_TWITTER_ACCESS_TOKEN_SECRET"
	envDebug        = "POSTCRAFT_TWITTER_DEBUG"

	providerName = "twitter"

	altTextEndpoint = "https://upload.twitter.com/1.1/media/metadata/create.json"

	maxTweetRunes = 280
)

var httpTimeout = 30 * time.Second

// Config captures the OAuth 1.0a user-context credentials.
type Config struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// backend is the part of the X API a post needs.
type backend interface {
	uploadJPEG(ctx context.Context, data []byte) (mediaID string, err error)
	setAltText(ctx context.Context, mediaID, alt string) error
	createTweet(ctx context.Context, text string, mediaIDs []string) error
}

// Client posts finished posts to X.
type Client struct {
	api backend
}

// New logs in with credentials from the environment.
func New(ctx context.Context) (xpost.Poster, error) {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	client, err := gotwi.NewClient(&gotwi.NewClientInput{
		HTTPClient:           &http.Client{Timeout: httpTimeout},
		AuthenticationMethod: gotwi.AuthenMethodOAuth1UserContext,
		OAuthToken:           cfg.AccessToken,
		OAuthTokenSecret:     cfg.AccessSecret,
		APIKey:               cfg.APIKey,
		APIKeySecret:         cfg.APISecret,
		Debug:                os.Getenv(envDebug) == "1" || logutil.Verbose(),
	})
	if err != nil {
		return nil, fmt.Errorf("create X client: %w", err)
	}
	if !client.IsReady() {
		return nil, errors.New("twitter client not ready")
	}

	return &Client{api: gotwiBackend{client: client}}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string { return providerName }

// Post sends the caption with its hashtags. The image, when present, is the
// JPEG written by the final-image store.
func (c *Client) Post(ctx context.Context, req xpost.Request) error {
	text := xpost.FormatStatus(req)
	if err := validateLength(text); err != nil {
		return err
	}

	var mediaIDs []string
	if req.ImagePath != "" {
		data, err := readJPEG(req.ImagePath)
		if err != nil {
			return err
		}
		mediaID, err := c.api.uploadJPEG(ctx, data)
		if err != nil {
			return err
		}
		logutil.Debugf("twitter media uploaded: media_id=%s bytes=%d", mediaID, len(data))

		if alt := strings.TrimSpace(req.ImageAlt); alt != "" {
			if err := c.api.setAltText(ctx, mediaID, alt); err != nil {
				return err
			}
		}
		mediaIDs = append(mediaIDs, mediaID)
	}

	if err := c.api.createTweet(ctx, text, mediaIDs); err != nil {
		return err
	}
	logutil.Debugf("tweet posted: media_count=%d", len(mediaIDs))
	return nil
}

// readJPEG loads a final post image and makes sure X will accept it as
// image/jpeg.
func readJPEG(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, compose.ValidationError{Provider: providerName, Reason: fmt.Sprintf("image %q not found", path)}
		}
		return nil, fmt.Errorf("read image: %w", err)
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err != nil || format != "jpeg" {
		return nil, compose.ValidationError{Provider: providerName, Reason: fmt.Sprintf("image %q is not a JPEG", path)}
	}
	return data, nil
}

// validateLength rejects posts X would refuse. Rune count approximates X's
// weighted length, which counts some CJK characters twice.
func validateLength(text string) error {
	if n := utf8.RuneCountInString(text); n > maxTweetRunes {
		return compose.ValidationError{Provider: providerName, Reason: fmt.Sprintf("post is %d characters, limit is %d", n, maxTweetRunes)}
	}
	return nil
}

func loadConfigFromEnv() (Config, error) {
	cfg := Config{
		APIKey:       strings.TrimSpace(os.Getenv(envAPIKey)),
		APISecret:    strings.TrimSpace(os.Getenv(envAPISecret)),
		AccessToken:  strings.TrimSpace(os.Getenv(envAccessToken)),
		AccessSecret: strings.TrimSpace(os.Getenv(envAccessSecret)),
	}

	var missing []string
	for _, v := range []struct{ key, value string }{
		{envAPIKey, cfg.APIKey},
		{envAPISecret, cfg.APISecret},
		{envAccessToken, cfg.AccessToken},
		{envAccessSecret, cfg.AccessSecret},
	} {
		if v.value == "" {
			missing = append(missing, v.key)
		}
	}
	if len(missing) > 0 {
		return Config{}, compose.MissingEnvError{Provider: providerName, Variables: missing}
	}
	return cfg, nil
}

// gotwiBackend talks to the real API.
type gotwiBackend struct {
	client *gotwi.Client
}

// uploadJPEG runs the chunked media upload in a single segment; final
// images are small enough for one APPEND.
func (b gotwiBackend) uploadJPEG(ctx context.Context, data []byte) (string, error) {
	initRes, err := upload.Initialize(ctx, b.client, &uploadtypes.InitializeInput{
		MediaType:     uploadtypes.MediaTypeJPEG,
		TotalBytes:    len(data),
		MediaCategory: uploadtypes.MediaCategoryTweetImage,
	})
	if err != nil {
		return "", callError("initialize upload", err)
	}
	if err := partialError("initialize upload", initRes.Errors); err != nil {
		return "", err
	}
	mediaID := initRes.Data.MediaID

	appendIn := &uploadtypes.AppendInput{MediaID: mediaID, Media: bytes.NewReader(data)}
	appendIn.GenerateBoundary()
	appendRes, err := upload.Append(ctx, b.client, appendIn)
	if err != nil {
		return "", callError("append upload", err)
	}
	if err := partialError("append upload", appendRes.Errors); err != nil {
		return "", err
	}

	finalizeRes, err := upload.Finalize(ctx, b.client, &uploadtypes.FinalizeInput{MediaID: mediaID})
	if err != nil {
		return "", callError("finalize upload", err)
	}
	if err := partialError("finalize upload", finalizeRes.Errors); err != nil {
		return "", err
	}

	info := finalizeRes.Data.ProcessingInfo
	switch info.State {
	case "", resources.ProcessingInfoStateSucceeded:
	case resources.ProcessingInfoStateInProgress, resources.ProcessingInfoStatePending:
		// Still images finish within the advertised delay.
		timer := time.NewTimer(time.Duration(info.CheckAfterSecs) * time.Second)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	default:
		return "", fmt.Errorf("media processing failed: state=%s", info.State)
	}
	return mediaID, nil
}

func (b gotwiBackend) setAltText(ctx context.Context, mediaID, alt string) error {
	ctx = context.WithValue(ctx, "Content-Type", "application/json;charset=UTF-8")
	err := b.client.CallAPI(ctx, altTextEndpoint, http.MethodPost, &altTextParams{mediaID: mediaID, text: alt}, &altTextResponse{})
	return callError("set alt text", err)
}

func (b gotwiBackend) createTweet(ctx context.Context, text string, mediaIDs []string) error {
	input := &managetweettypes.CreateInput{Text: gotwi.String(text)}
	if len(mediaIDs) > 0 {
		input.Media = &managetweettypes.CreateInputMedia{MediaIDs: mediaIDs}
	}
	_, err := managetweet.Create(ctx, b.client, input)
	return callError("post tweet", err)
}

// callError names the failed step and flattens gotwi's API error details.
func callError(step string, err error) error {
	if err == nil {
		return nil
	}
	var gwErr *gotwi.GotwiError
	if errors.As(err, &gwErr) && gwErr != nil {
		return fmt.Errorf("%s: %s", step, describeGotwiError(gwErr))
	}
	return fmt.Errorf("%s: %w", step, err)
}

// partialError fails a step whose response carries errors next to data.
func partialError(step string, partials []resources.PartialError) error {
	if len(partials) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(partials))
	for _, pe := range partials {
		switch {
		case pe.Detail != nil && *pe.Detail != "":
			msgs = append(msgs, *pe.Detail)
		case pe.Title != nil && *pe.Title != "":
			msgs = append(msgs, *pe.Title)
		}
	}
	if len(msgs) == 0 {
		msgs = append(msgs, "unknown error")
	}
	return fmt.Errorf("%s: %s", step, strings.Join(msgs, "; "))
}

func describeGotwiError(err *gotwi.GotwiError) string {
	parts := make([]string, 0, 2+len(err.APIErrors))
	for _, s := range []string{err.Title, err.Detail} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	for _, apiErr := range err.APIErrors {
		if apiErr.Message != "" {
			parts = append(parts, apiErr.Message)
		}
	}
	if len(parts) == 0 {
		return "X API request failed"
	}
	return strings.Join(parts, "; ")
}

// altTextParams satisfies gotwi's request parameter interface for the v1.1
// media metadata endpoint, which gotwi does not wrap.
type altTextParams struct {
	mediaID     string
	text        string
	accessToken string
}

func (p *altTextParams) SetAccessToken(token string) { p.accessToken = token }

func (p *altTextParams) AccessToken() string { return p.accessToken }

func (p *altTextParams) ResolveEndpoint(endpoint string) string { return endpoint }

func (p *altTextParams) ParameterMap() map[string]string { return map[string]string{} }

func (p *altTextParams) Body() (io.Reader, error) {
	return altTextBody(p.mediaID, p.text)
}

func altTextBody(mediaID, text string) (io.Reader, error) {
	type altText struct {
		Text string `json:"text"`
	}
	buf, err := json.Marshal(struct {
		MediaID string  `json:"media_id"`
		AltText altText `json:"alt_text"`
	}{MediaID: mediaID, AltText: altText{Text: text}})
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buf), nil
}

type altTextResponse struct{}

func (altTextResponse) HasPartialError() bool { return false }
