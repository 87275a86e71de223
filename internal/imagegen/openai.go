package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/blacktop/postcraft/internal/compose"
	"github.com/blacktop/postcraft/internal/logutil"
)

const (
	envOpenAIKey     = "OPENAI_API_KEY"
	envImageModel    = "POSTCRAFT_OPENAI_IMAGE_MODEL"
	envOpenAIBaseURL = "POSTCRAFT_OPENAI_BASE_URL"

	providerName = "openai-images"
)

// OpenAIConfig configures image generation.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Candidates int
}

// OpenAI generates candidate images with the Images API.
type OpenAI struct {
	client     openai.Client
	model      openai.ImageModel
	candidates int
}

// LoadOpenAIConfig reads credentials from the environment.
func LoadOpenAIConfig(candidates int) (OpenAIConfig, error) {
	cfg := OpenAIConfig{
		APIKey:     strings.TrimSpace(os.Getenv(envOpenAIKey)),
		Model:      strings.TrimSpace(os.Getenv(envImageModel)),
		BaseURL:    strings.TrimSpace(os.Getenv(envOpenAIBaseURL)),
		Candidates: candidates,
	}
	if cfg.APIKey == "" {
		return OpenAIConfig{}, compose.MissingEnvError{Provider: providerName, Variables: []string{envOpenAIKey}}
	}
	return cfg, nil
}

// NewOpenAI builds an image generator from cfg.
func NewOpenAI(cfg OpenAIConfig, extra ...option.RequestOption) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, compose.MissingEnvError{Provider: providerName, Variables: []string{envOpenAIKey}}
	}
	if cfg.Candidates < 1 {
		return nil, compose.ValidationError{Provider: providerName, Reason: "candidates must be at least 1"}
	}
	model := openai.ImageModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.ImageModelDallE2
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)

	return &OpenAI{
		client:     openai.NewClient(opts...),
		model:      model,
		candidates: cfg.Candidates,
	}, nil
}

// Generate asks for a batch of base64 encoded images and decodes them.
func (o *OpenAI) Generate(ctx context.Context, prompt string) ([]image.Image, error) {
	logutil.Debugf("openai images: model=%s n=%d", o.model, o.candidates)
	resp, err := o.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          o.model,
		N:              openai.Int(int64(o.candidates)),
		Size:           openai.ImageGenerateParamsSize1024x1024,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("generate images: %w", err)
	}

	images := make([]image.Image, 0, len(resp.Data))
	for i, item := range resp.Data {
		img, err := decodeBase64Image(item.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("decode image %d: %w", i+1, err)
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, errors.New("openai: no images returned")
	}
	return images, nil
}

func decodeBase64Image(data string) (image.Image, error) {
	if data == "" {
		return nil, errors.New("empty image payload")
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	return img, err
}
