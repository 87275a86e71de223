package mastodon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	mastodonapi "github.com/mattn/go-mastodon"

	"github.com/blacktop/postcraft/internal/compose"
	"github.com/blacktop/postcraft/internal/logutil"
	"github.com/blacktop/postcraft/internal/xpost"
)

const (
	envServer       = "POSTCRAFT_MASTODON_SERVER"
	envAccessToken  = "POSTCRAFT_MASTODON_ACCESS_TOKEN"
	envClientID     = "POSTCRAFT_MASTODON_CLIENT_ID"
	envClientSecret = "POSTCRAFT_MASTODON_CLIENT_SECRET"
	envLanguage     = "POSTCRAFT_MASTODON_LANGUAGE"

	providerName   = "mastodon"
	requestTimeout = 30 * time.Second
)

// Config contains the settings needed to reach a Mastodon server.
type Config struct {
	Server       string
	AccessToken  string
	ClientID     string
	ClientSecret string
	Language     string
}

// Client wraps the Mastodon API client.
type Client struct {
	client   *mastodonapi.Client
	language string
}

// New constructs a Mastodon poster based on environment configuration.
func New(ctx context.Context) (xpost.Poster, error) {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	mastodonClient := mastodonapi.NewClient(&mastodonapi.Config{
		Server:       cfg.Server,
		AccessToken:  cfg.AccessToken,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	})
	mastodonClient.Timeout = requestTimeout

	return &Client{client: mastodonClient, language: cfg.Language}, nil
}

// Name identifies the provider.
func (c *Client) Name() string { return providerName }

// Post publishes the caption and hashtags as a new status.
func (c *Client) Post(ctx context.Context, req xpost.Request) error {
	var mediaIDs []mastodonapi.ID
	if req.ImagePath != "" {
		attachment, err := c.uploadMedia(ctx, req.ImagePath, req.ImageAlt)
		if err != nil {
			return err
		}
		mediaIDs = append(mediaIDs, attachment.ID)
	}

	status, err := c.client.PostStatus(ctx, &mastodonapi.Toot{
		Status:   xpost.FormatStatus(req),
		MediaIDs: mediaIDs,
		Language: c.language,
	})
	if err != nil {
		return fmt.Errorf("post status: %w", err)
	}
	logutil.Debugf("mastodon status created: id=%s url=%s", status.ID, status.URL)

	return nil
}

func (c *Client) uploadMedia(ctx context.Context, path, alt string) (*mastodonapi.Attachment, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, compose.ValidationError{Provider: providerName, Reason: fmt.Sprintf("image %q not found", path)}
		}
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	attachment, err := c.client.UploadMediaFromMedia(ctx, &mastodonapi.Media{
		File:        file,
		Description: alt,
	})
	if err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}

	return attachment, nil
}

func loadConfigFromEnv() (Config, error) {
	cfg := Config{
		Server:       strings.TrimSpace(os.Getenv(envServer)),
		AccessToken:  strings.TrimSpace(os.Getenv(envAccessToken)),
		ClientID:     strings.TrimSpace(os.Getenv(envClientID)),
		ClientSecret: strings.TrimSpace(os.Getenv(envClientSecret)),
		Language:     strings.TrimSpace(os.Getenv(envLanguage)),
	}

	var missing []string
	if cfg.Server == "" {
		missing = append(missing, envServer)
	}
	if cfg.AccessToken == "" {
		missing = append(missing, envAccessToken)
	}

	if len(missing) > 0 {
		return Config{}, compose.MissingEnvError{Provider: providerName, Variables: missing}
	}

	return cfg, nil
}
