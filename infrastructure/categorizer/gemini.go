// Package categorizer implements the Categorizer port on the Gemini
// generateContent API. Failures of any kind (transport, HTTP status,
// malformed or schema-violating responses, open circuit) surface as a
// nil result, never an error: the caller decides whether nil means
// fallback composition or a hard regeneration failure. The only error
// returned is the caller's own context cancellation.
package categorizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"stuffmd/domain/note"
)

const systemInstruction = "You are an organizational assistant. Your task is to analyze the user's input and generate a title, a detailed summary, a category path, and tags."

// GeminiConfig configures the Gemini client
type GeminiConfig struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// GeminiCategorizer calls the Gemini API through a circuit breaker so a
// dead AI service degrades to instant nil results instead of piling up
// slow failing calls.
type GeminiCategorizer struct {
	config  GeminiConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewGeminiCategorizer creates a Gemini-backed categorizer
func NewGeminiCategorizer(config GeminiConfig, logger *zap.Logger) *GeminiCategorizer {
	if config.Timeout <= 0 {
		config.Timeout = 20 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini-categorizer",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &GeminiCategorizer{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		breaker: breaker,
		logger:  logger,
	}
}

// Request/response shapes for the generateContent endpoint

type generateContentRequest struct {
	SystemInstruction *contentBlock    `json:"system_instruction,omitempty"`
	Contents          []contentBlock   `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type contentBlock struct {
	Parts []contentPart `json:"parts"`
}

type contentPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content contentBlock `json:"content"`
	} `json:"candidates"`
}

// responseSchema constrains the model to the classification shape
var responseSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "title": {"type": "STRING", "description": "A very concise, single-line title for the note, under 100 characters."},
    "summary": {"type": "STRING", "description": "A detailed summary of the note's content, up to a few sentences long."},
    "categories": {"type": "ARRAY", "items": {"type": "STRING"}, "description": "An array of strings representing a hierarchical path. Keep it concise."},
    "tags": {"type": "ARRAY", "items": {"type": "STRING"}, "description": "An array of up to 5 concise, 1-2 word, context-aware, non-redundant, lowercase organizational tags."},
    "rationale": {"type": "STRING", "description": "A brief, one-sentence explanation for the chosen category."}
  },
  "required": ["title", "summary", "categories", "tags", "rationale"]
}`)

// Classify sends the content for classification. A nil, nil return is
// the failure sentinel.
func (g *GeminiCategorizer) Classify(ctx context.Context, content, instructions string) (*note.Classification, error) {
	if g.config.APIKey == "" {
		g.logger.Warn("Gemini API key not configured, skipping classification")
		return nil, nil
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.classify(ctx, content, instructions)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		g.logger.Warn("Classification failed", zap.Error(err))
		return nil, nil
	}
	return result.(*note.Classification), nil
}

func (g *GeminiCategorizer) classify(ctx context.Context, content, instructions string) (*note.Classification, error) {
	prompt := ""
	if instructions != "" {
		prompt += fmt.Sprintf("USER'S INSTRUCTION: %s\n\n", instructions)
	}
	prompt += fmt.Sprintf("CONTENT TO ORGANIZE:\n---\n%s", content)

	reqBody := generateContentRequest{
		SystemInstruction: &contentBlock{Parts: []contentPart{{Text: systemInstruction}}},
		Contents:          []contentBlock{{Parts: []contentPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.config.Endpoint, g.config.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.config.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var gcResp generateContentResponse
	if err := json.Unmarshal(body, &gcResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(gcResp.Candidates) == 0 || len(gcResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var result note.Classification
	if err := json.Unmarshal([]byte(gcResp.Candidates[0].Content.Parts[0].Text), &result); err != nil {
		return nil, fmt.Errorf("failed to parse classification: %w", err)
	}
	if result.Categories == nil || result.Tags == nil {
		return nil, fmt.Errorf("classification missing required fields")
	}

	return &result, nil
}
