package s3archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktop/postcraft/internal/compose"
	"github.com/blacktop/postcraft/internal/xpost"
)

type putCall struct {
	bucket      string
	key         string
	contentType string
	body        []byte
}

type fakePutter struct {
	calls []putCall
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.calls = append(f.calls, putCall{
		bucket:      aws.ToString(in.Bucket),
		key:         aws.ToString(in.Key),
		contentType: aws.ToString(in.ContentType),
		body:        body,
	})
	return &s3.PutObjectOutput{}, nil
}

func fixedClient(api objectPutter, prefix string) *Client {
	c := newClient(api, Config{Bucket: "archive", Prefix: prefix})
	c.now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestPostUploadsImageAndSidecar(t *testing.T) {
	img := filepath.Join(t.TempDir(), "final.jpg")
	require.NoError(t, os.WriteFile(img, []byte("jpeg-bytes"), 0o600))

	api := &fakePutter{}
	c := fixedClient(api, "/social/")
	err := c.Post(context.Background(), xpost.Request{
		Message:   "hello",
		Tags:      []string{"go"},
		ImagePath: img,
		ImageAlt:  "alt",
	})
	require.NoError(t, err)
	require.Len(t, api.calls, 2)

	image, meta := api.calls[0], api.calls[1]
	assert.Equal(t, "archive", image.bucket)
	assert.True(t, strings.HasPrefix(image.key, "social/2024/03/09/"), image.key)
	assert.True(t, strings.HasSuffix(image.key, ".jpg"))
	assert.Equal(t, "image/jpeg", image.contentType)
	assert.Equal(t, []byte("jpeg-bytes"), image.body)

	assert.Equal(t, strings.TrimSuffix(image.key, ".jpg")+".json", meta.key)
	assert.Equal(t, "application/json", meta.contentType)

	var got sidecar
	require.NoError(t, json.Unmarshal(meta.body, &got))
	assert.Equal(t, "hello", got.Message)
	assert.Equal(t, []string{"go"}, got.Tags)
	assert.Equal(t, "hello\n\n#go", got.Status)
	assert.Equal(t, image.key, got.ImageKey)
	assert.Equal(t, "alt", got.ImageAlt)
}

func TestPostWithoutImage(t *testing.T) {
	api := &fakePutter{}
	c := fixedClient(api, "")
	require.NoError(t, c.Post(context.Background(), xpost.Request{Message: "text"}))

	require.Len(t, api.calls, 1)
	assert.True(t, strings.HasPrefix(api.calls[0].key, defaultPrefix+"/2024/03/09/"))
	assert.True(t, strings.HasSuffix(api.calls[0].key, ".json"))
}

func TestPostMissingImage(t *testing.T) {
	api := &fakePutter{}
	err := fixedClient(api, "").Post(context.Background(), xpost.Request{ImagePath: filepath.Join(t.TempDir(), "nope.jpg")})

	var verr compose.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, api.calls)
}

func TestPostPutError(t *testing.T) {
	api := &fakePutter{err: errors.New("denied")}
	err := fixedClient(api, "").Post(context.Background(), xpost.Request{Message: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv(envRegion, "")
	t.Setenv(envProfile, "")
	t.Setenv(envPathStyle, "")
	t.Setenv(envBucket, "")
	_, err := loadConfigFromEnv()
	var missing compose.MissingEnvError
	require.ErrorAs(t, err, &missing)

	t.Setenv(envBucket, "b")
	t.Setenv(envPathStyle, "maybe")
	_, err = loadConfigFromEnv()
	var verr compose.ValidationError
	require.ErrorAs(t, err, &verr)

	t.Setenv(envPathStyle, "true")
	t.Setenv(envPrefix, "p")
	cfg, err := loadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{Bucket: "b", Prefix: "p", UsePathStyle: true}, cfg)
}
