package advisory

import (
	"context"
	"strings"
	"testing"

	"stockcast/forecast"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAdvice(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		want      float64
		reasoning string
	}{
		{"plain", `{"prediction": 240, "reasoning": "steady"}`, 240, "steady"},
		{"fenced", "```json\n{\"prediction\": 12.5, \"reasoning\": \" weekend spike \"}\n```", 12.5, "weekend spike"},
		{"chatty", `Sure! Here is my answer: {"prediction": 90} hope it helps`, 90, ""},
		{"numeric string", `{"prediction": "75", "reasoning": "x"}`, 75, "x"},
		{"negative passes parsing", `{"prediction": -3}`, -3, ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			advice, err := ParseAdvice(c.raw)
			require.NoError(t, err)
			assert.Equal(t, c.want, advice.Prediction)
			assert.Equal(t, c.reasoning, advice.Reasoning)
		})
	}
}

func TestParseAdvice_Malformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"I cannot forecast this product.",
		`{"reasoning": "no number"}`,
		`{"prediction": "lots"}`,
		`{"prediction": true}`,
		`{"prediction": 12,}`,
	} {
		_, err := ParseAdvice(raw)
		assert.ErrorIs(t, err, ErrMalformedAdvice, "raw=%q", raw)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(forecast.AdvisoryRequest{
		ProductName: "Green Tea 500ml",
		RecentDaily: []int{4, 0, 6},
		Prediction:  150,
		Confidence:  0.66,
	})

	assert.Contains(t, prompt, `Product: "Green Tea 500ml"`)
	assert.Contains(t, prompt, "Recent 3-day sales: 4, 0, 6")
	assert.Contains(t, prompt, "ML Prediction (30-day): 150 units")
	assert.Contains(t, prompt, "Confidence: 66%")
	assert.True(t, strings.HasSuffix(prompt, `{"prediction": number, "reasoning": "brief"}`))
}

func TestResponseText(t *testing.T) {
	_, err := responseText(nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"prediction":`), genai.Text(` 10}`)}},
		}},
	}
	text, err := responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"prediction": 10}`, text)
}

func TestNewGeminiAdvisor_RequiresKey(t *testing.T) {
	_, err := NewGeminiAdvisor(context.Background(), "", "")
	assert.Error(t, err)
}

var _ forecast.Advisor = (*GeminiAdvisor)(nil)
