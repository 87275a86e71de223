package textgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/blacktop/postcraft/internal/compose"
	"github.com/blacktop/postcraft/internal/logutil"
)

const (
	envGeminiKey   = "GEMINI_API_KEY"
	envGeminiModel = "POSTCRAFT_GEMINI_MODEL"

	defaultGeminiModel = "gemini-2.5-flash"
	providerGemini     = "gemini"
)

// GeminiConfig configures Gemini text generation.
type GeminiConfig struct {
	APIKey     string
	Model      string
	Candidates int
}

// Gemini requests several candidates from one GenerateContent call.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// LoadGeminiConfig reads credentials from the environment.
func LoadGeminiConfig(candidates int) (GeminiConfig, error) {
	cfg := GeminiConfig{
		APIKey:     strings.TrimSpace(os.Getenv(envGeminiKey)),
		Model:      strings.TrimSpace(os.Getenv(envGeminiModel)),
		Candidates: candidates,
	}
	if cfg.APIKey == "" {
		return GeminiConfig{}, compose.MissingEnvError{Provider: providerGemini, Variables: []string{envGeminiKey}}
	}
	return cfg, nil
}

// NewGemini opens a Gemini client. Close it when the session ends.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.Candidates < 1 {
		return nil, compose.ValidationError{Provider: providerGemini, Reason: "candidates must be at least 1"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetCandidateCount(int32(cfg.Candidates))

	return &Gemini{client: client, model: model, name: cfg.Model}, nil
}

// Generate returns the text of every candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) ([]string, error) {
	logutil.Debugf("gemini generate: model=%s", g.name)
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	texts := candidateTexts(resp)
	if len(texts) == 0 {
		return nil, errors.New("gemini: empty candidates")
	}
	return texts, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func candidateTexts(resp *genai.GenerateContentResponse) []string {
	if resp == nil {
		return nil
	}
	texts := make([]string, 0, len(resp.Candidates))
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range candidate.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}
