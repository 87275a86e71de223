package s3archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/blacktop/postcraft/internal/compose"
	"github.com/blacktop/postcraft/internal/logutil"
	"github.com/blacktop/postcraft/internal/xpost"
)

const (
	envBucket    = "POSTCRAFT_S3_BUCKET"
	envRegion    = "POSTCRAFT_S3_REGION"
	envProfile   = "POSTCRAFT_S3_PROFILE"
	envPrefix    = "POSTCRAFT_S3_PREFIX"
	envPathStyle = "POSTCRAFT_S3_PATH_STYLE"

	providerName  = "s3"
	defaultPrefix = "posts"
)

// Config selects the bucket and how to reach it. Empty region and profile
// fall back to the default AWS chain.
type Config struct {
	Bucket       string
	Region       string
	Profile      string
	Prefix       string
	UsePathStyle bool
}

// objectPutter is the slice of the S3 client the archive needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client archives every post as an image object plus a JSON sidecar.
type Client struct {
	api    objectPutter
	bucket string
	prefix string
	now    func() time.Time
}

type sidecar struct {
	Message   string    `json:"message"`
	Tags      []string  `json:"tags"`
	Status    string    `json:"status"`
	ImageKey  string    `json:"image_key,omitempty"`
	ImageAlt  string    `json:"image_alt,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// New builds an archive poster from environment configuration.
func New(ctx context.Context) (xpost.Poster, error) {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newClient(api, cfg), nil
}

func newClient(api objectPutter, cfg Config) *Client {
	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Client{api: api, bucket: cfg.Bucket, prefix: prefix, now: time.Now}
}

// Name identifies the provider.
func (c *Client) Name() string { return providerName }

// Post uploads the image (if any) and then the sidecar describing the post.
func (c *Client) Post(ctx context.Context, req xpost.Request) error {
	now := c.now().UTC()
	base := path.Join(c.prefix, now.Format("2006/01/02"), uuid.NewString())

	meta := sidecar{
		Message:   req.Message,
		Tags:      append([]string{}, req.Tags...),
		Status:    xpost.FormatStatus(req),
		ImageAlt:  req.ImageAlt,
		CreatedAt: now,
	}

	if req.ImagePath != "" {
		data, err := os.ReadFile(req.ImagePath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return compose.ValidationError{Provider: providerName, Reason: fmt.Sprintf("image %q not found", req.ImagePath)}
			}
			return fmt.Errorf("read image: %w", err)
		}
		meta.ImageKey = base + path.Ext(req.ImagePath)
		if err := c.put(ctx, meta.ImageKey, data, "image/jpeg"); err != nil {
			return err
		}
	}

	body, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}
	return c.put(ctx, base+".json", body, "application/json")
}

func (c *Client) put(ctx context.Context, key string, data []byte, contentType string) error {
	logutil.Debugf("s3 put: bucket=%s key=%s bytes=%d", c.bucket, key, len(data))
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func loadConfigFromEnv() (Config, error) {
	cfg := Config{
		Bucket:  strings.TrimSpace(os.Getenv(envBucket)),
		Region:  strings.TrimSpace(os.Getenv(envRegion)),
		Profile: strings.TrimSpace(os.Getenv(envProfile)),
		Prefix:  strings.TrimSpace(os.Getenv(envPrefix)),
	}
	if raw := strings.TrimSpace(os.Getenv(envPathStyle)); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, compose.ValidationError{Provider: providerName, Reason: fmt.Sprintf("%s must be a boolean", envPathStyle)}
		}
		cfg.UsePathStyle = v
	}

	if cfg.Bucket == "" {
		return Config{}, compose.MissingEnvError{Provider: providerName, Variables: []string{envBucket}}
	}
	return cfg, nil
}
