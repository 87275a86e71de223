package bluesky

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"

	"github.com/blacktop/postcraft/internal/compose"
	"github.com/blacktop/postcraft/internal/logutil"
	"github.com/blacktop/postcraft/internal/xpost"
)

const (
	envHandle      = "POSTCRAFT_BLUESKY_HANDLE"
	envAppPassword = "POSTCRAFT_BLUESKY_APP_PASSWORD"
	envPDSURL      = "POSTCRAFT_BLUESKY_PDS_URL"

	providerName   = "bluesky"
	requestTimeout = 30 * time.Second
	maxPostRunes   = 300
)

// Config allows the caller to supply defaults prior to reading environment variables.
type Config struct {
	PDSURL string
}

// Client posts to a Bluesky PDS over XRPC.
type Client struct {
	client *xrpc.Client
}

// New constructs a Bluesky poster.
func New(ctx context.Context, base Config) (xpost.Poster, error) {
	cfg, err := loadConfig(base)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: requestTimeout}
	userAgent := "postcraft/1"
	xrpcClient := &xrpc.Client{
		Client:    httpClient,
		Host:      cfg.PDSURL,
		UserAgent: &userAgent,
	}

	session, err := atproto.ServerCreateSession(ctx, xrpcClient, &atproto.ServerCreateSession_Input{
		Identifier: cfg.Handle,
		Password:   cfg.AppPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	xrpcClient.Auth = &xrpc.AuthInfo{
		AccessJwt:  session.AccessJwt,
		RefreshJwt: session.RefreshJwt,
		Handle:     session.Handle,
		Did:        session.Did,
	}

	return &Client{client: xrpcClient}, nil
}

// Name identifies the provider.
func (c *Client) Name() string { return providerName }

// Post creates a new Bluesky post with clickable hashtags and an optional
// image embed.
func (c *Client) Post(ctx context.Context, req xpost.Request) error {
	text, facets := statusWithFacets(req)
	if n := utf8.RuneCountInString(text); n > maxPostRunes {
		return compose.ValidationError{Provider: providerName, Reason: fmt.Sprintf("post is %d characters, limit is %d", n, maxPostRunes)}
	}

	post := &bsky.FeedPost{
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Text:      text,
		Facets:    facets,
	}

	if req.ImagePath != "" {
		blob, err := c.uploadImage(ctx, req.ImagePath)
		if err != nil {
			return err
		}
		post.Embed = &bsky.FeedPost_Embed{
			EmbedImages: &bsky.EmbedImages{
				Images: []*bsky.EmbedImages_Image{
					{
						Alt:   req.ImageAlt,
						Image: blob,
					},
				},
			},
		}
	}

	out, err := atproto.RepoCreateRecord(ctx, c.client, &atproto.RepoCreateRecord_Input{
		Collection: "app.bsky.feed.post",
		Repo:       c.client.Auth.Did,
		Record: &util.LexiconTypeDecoder{
			Val: post,
		},
	})
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	logutil.Debugf("bluesky record created: uri=%s", out.Uri)

	return nil
}

// statusWithFacets formats the post text and marks every trailing hashtag
// with a tag facet. Facet offsets are UTF-8 byte offsets.
func statusWithFacets(req xpost.Request) (string, []*bsky.RichtextFacet) {
	text := xpost.FormatStatus(req)
	hashtags := xpost.Hashtags(req.Tags)
	if hashtags == "" {
		return text, nil
	}

	offset := len(text) - len(hashtags)
	tokens := strings.Split(hashtags, " ")
	facets := make([]*bsky.RichtextFacet, 0, len(tokens))
	for _, token := range tokens {
		end := offset + len(token)
		facets = append(facets, &bsky.RichtextFacet{
			Index: &bsky.RichtextFacet_ByteSlice{ByteStart: int64(offset), ByteEnd: int64(end)},
			Features: []*bsky.RichtextFacet_Features_Elem{
				{RichtextFacet_Tag: &bsky.RichtextFacet_Tag{Tag: strings.TrimPrefix(token, "#")}},
			},
		})
		offset = end + 1
	}
	return text, facets
}

func (c *Client) uploadImage(ctx context.Context, path string) (*util.LexBlob, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, compose.ValidationError{Provider: providerName, Reason: fmt.Sprintf("image %q not found", path)}
		}
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, file); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	resp, err := atproto.RepoUploadBlob(ctx, c.client, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}

	if resp.Blob == nil {
		return nil, fmt.Errorf("upload blob: empty response")
	}

	return resp.Blob, nil
}

// ProviderConfig merges defaults with environment-defined values.
type ProviderConfig struct {
	Handle      string
	AppPassword string
	PDSURL      string
}

func loadConfig(base Config) (ProviderConfig, error) {
	cfg := ProviderConfig{
		Handle:      strings.TrimSpace(os.Getenv(envHandle)),
		AppPassword: strings.TrimSpace(os.Getenv(envAppPassword)),
		PDSURL:      strings.TrimSpace(os.Getenv(envPDSURL)),
	}

	if cfg.PDSURL == "" {
		cfg.PDSURL = strings.TrimSpace(base.PDSURL)
	}
	if cfg.PDSURL == "" {
		cfg.PDSURL = "https://bsky.social"
	}

	var missing []string
	if cfg.Handle == "" {
		missing = append(missing, envHandle)
	}
	if cfg.AppPassword == "" {
		missing = append(missing, envAppPassword)
	}
	if cfg.PDSURL == "" {
		missing = append(missing, envPDSURL)
	}

	if len(missing) > 0 {
		return ProviderConfig{}, compose.MissingEnvError{Provider: providerName, Variables: missing}
	}

	return cfg, nil
}
