package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/subscription-sentinel/internal/common"
)

const anthropicVersion = "2023-06-01"

// provider describes one vendor's completion endpoint and wire format.
type provider struct {
	headers        func(apiKey string) map[string]string
	request        func(p requestParams, prompt string) any
	text           func(body []byte) (string, error)
	name           string
	defaultModel   string
	defaultBaseURL string
	path           string
}

type requestParams struct {
	model       string
	temperature float64
	maxTokens   int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

var providers = map[string]provider{
	"openai": {
		name:           "OpenAI",
		defaultModel:   "gpt-4o-mini",
		defaultBaseURL: "https://api.openai.com/v1",
		path:           "/chat/completions",
		headers: func(apiKey string) map[string]string {
			return map[string]string{"Authorization": "Bearer " + apiKey}
		},
		request: openAIRequest,
		text:    openAIText,
	},
	"anthropic": {
		name:           "Anthropic",
		defaultModel:   "claude-3-5-haiku-latest",
		defaultBaseURL: "https://api.anthropic.com/v1",
		path:           "/messages",
		headers: func(apiKey string) map[string]string {
			return map[string]string{"x-api-key": apiKey, "anthropic-version": anthropicVersion}
		},
		request: anthropicRequest,
		text:    anthropicText,
	},
}

func openAIRequest(p requestParams, prompt string) any {
	return struct {
		Model       string        `json:"model"`
		Messages    []chatMessage `json:"messages"`
		Temperature float64       `json:"temperature"`
		MaxTokens   int           `json:"max_tokens"`
	}{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}
}

func openAIText(body []byte) (string, error) {
	var resp struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrMalformedOutput, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion choices returned", common.ErrMalformedOutput)
	}
	return resp.Choices[0].Message.Content, nil
}

func anthropicRequest(p requestParams, prompt string) any {
	return struct {
		Model       string        `json:"model"`
		System      string        `json:"system"`
		Messages    []chatMessage `json:"messages"`
		Temperature float64       `json:"temperature"`
		MaxTokens   int           `json:"max_tokens"`
	}{
		Model:       p.model,
		System:      systemPrompt,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}
}

// anthropicText joins the text blocks of a messages response.
func anthropicText(body []byte) (string, error) {
	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrMalformedOutput, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("%w: no content in response", common.ErrMalformedOutput)
	}
	return text.String(), nil
}
