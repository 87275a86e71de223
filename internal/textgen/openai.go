package textgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/blacktop/postcraft/internal/compose"
	"github.com/blacktop/postcraft/internal/logutil"
)

const (
	envOpenAIKey     = "OPENAI_API_KEY"
	envOpenAIModel   = "POSTCRAFT_OPENAI_MODEL"
	envOpenAIBaseURL = "POSTCRAFT_OPENAI_BASE_URL"

	defaultOpenAIModel = "gpt-4o-mini"
	providerOpenAI     = "openai"
)

// OpenAIConfig configures chat-completion text generation.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Candidates int
}

// OpenAI asks a chat model for several completions of the same prompt.
type OpenAI struct {
	client     openai.Client
	model      string
	candidates int
}

// LoadOpenAIConfig reads credentials and model overrides from the environment.
func LoadOpenAIConfig(candidates int) (OpenAIConfig, error) {
	cfg := OpenAIConfig{
		APIKey:     strings.TrimSpace(os.Getenv(envOpenAIKey)),
		Model:      strings.TrimSpace(os.Getenv(envOpenAIModel)),
		BaseURL:    strings.TrimSpace(os.Getenv(envOpenAIBaseURL)),
		Candidates: candidates,
	}
	if cfg.APIKey == "" {
		return OpenAIConfig{}, compose.MissingEnvError{Provider: providerOpenAI, Variables: []string{envOpenAIKey}}
	}
	return cfg, nil
}

// NewOpenAI builds a text generator from cfg.
func NewOpenAI(cfg OpenAIConfig, extra ...option.RequestOption) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, compose.MissingEnvError{Provider: providerOpenAI, Variables: []string{envOpenAIKey}}
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.Candidates < 1 {
		return nil, compose.ValidationError{Provider: providerOpenAI, Reason: "candidates must be at least 1"}
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)

	return &OpenAI{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		candidates: cfg.Candidates,
	}, nil
}

// Generate returns one candidate per completion choice.
func (o *OpenAI) Generate(ctx context.Context, prompt string) ([]string, error) {
	logutil.Debugf("openai completion: model=%s n=%d", o.model, o.candidates)
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		N: openai.Int(int64(o.candidates)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}

	texts := make([]string, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		return nil, errors.New("openai: empty choices")
	}
	return texts, nil
}
