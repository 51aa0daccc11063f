package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"stockcast/forecast"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.5-flash"

var (
	// ErrEmptyResponse means the model returned no text.
	ErrEmptyResponse = errors.New("no content received from AI")
	// ErrMalformedAdvice means no usable JSON object was found in the reply.
	ErrMalformedAdvice = errors.New("malformed advisory response")
)

var adviceObject = regexp.MustCompile(`\{[^}]+\}`)

// GeminiAdvisor asks a Gemini model to validate an ensemble forecast.
type GeminiAdvisor struct {
	client *genai.Client
	model  string
}

// NewGeminiAdvisor creates a client for the given API key. An empty model selects DefaultModel.
func NewGeminiAdvisor(ctx context.Context, apiKey, model string) (*GeminiAdvisor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiAdvisor{client: client, model: model}, nil
}

// Close releases the underlying client.
func (g *GeminiAdvisor) Close() error {
	return g.client.Close()
}

// Suggest implements forecast.Advisor.
func (g *GeminiAdvisor) Suggest(ctx context.Context, req forecast.AdvisoryRequest) (forecast.Advice, error) {
	model := g.client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.2)

	resp, err := model.GenerateContent(ctx, genai.Text(BuildPrompt(req)))
	if err != nil {
		return forecast.Advice{}, fmt.Errorf("failed to generate advice: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return forecast.Advice{}, err
	}
	return ParseAdvice(text)
}

// BuildPrompt renders the advisory request as a JSON-only instruction.
func BuildPrompt(req forecast.AdvisoryRequest) string {
	recent := make([]string, len(req.RecentDaily))
	for i, q := range req.RecentDaily {
		recent[i] = fmt.Sprint(q)
	}

	return fmt.Sprintf(`Analyze sales pattern and validate ML forecast:
Product: "%s"
Recent %d-day sales: %s
ML Prediction (30-day): %d units
Confidence: %.0f%%

Analyze trends, seasonality, anomalies. Return JSON only: {"prediction": number, "reasoning": "brief"}`,
		req.ProductName, len(req.RecentDaily), strings.Join(recent, ", "), req.Prediction, req.Confidence*100)
}

// ParseAdvice extracts the first flat JSON object from raw model output. A
// missing or non-numeric prediction is an error; range checks are left to the caller.
func ParseAdvice(raw string) (forecast.Advice, error) {
	match := adviceObject.FindString(raw)
	if match == "" {
		return forecast.Advice{}, fmt.Errorf("%w: no JSON object in %q", ErrMalformedAdvice, truncate(raw, 120))
	}

	var payload struct {
		Prediction *json.Number `json:"prediction"`
		Reasoning  string       `json:"reasoning"`
	}
	dec := json.NewDecoder(strings.NewReader(match))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return forecast.Advice{}, fmt.Errorf("%w: %v", ErrMalformedAdvice, err)
	}
	if payload.Prediction == nil {
		return forecast.Advice{}, fmt.Errorf("%w: missing prediction", ErrMalformedAdvice)
	}
	value, err := payload.Prediction.Float64()
	if err != nil {
		return forecast.Advice{}, fmt.Errorf("%w: prediction %q: %v", ErrMalformedAdvice, payload.Prediction.String(), err)
	}

	return forecast.Advice{Prediction: value, Reasoning: strings.TrimSpace(payload.Reasoning)}, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
