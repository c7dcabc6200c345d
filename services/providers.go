package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"roast-battle/domain"
	"strings"
	"time"
)

const (
	systemPrompt = `You are a Kill Tony style roast comedian, sharp, quick-witted and ruthless but clever. ` +
		`Demolish the given topic with precision and dark humor in 3 to 5 sentences. ` +
		`Use modern references and relatable comparisons. Do not use em dashes. ` +
		`Do not repeat previous roasts. Previous roasts: %s`
	userPrompt   = "Absolutely destroy this topic with a savage roast: %s"
	maxTokens    = 300
	temperature  = 0.9
	defaultModel = "gpt-3.5-turbo"
)

var cannedRoasts = []string{
	"This topic is so painfully boring, it makes watching paint dry seem like a Marvel movie marathon. I've seen more excitement at a tax seminar, and at least those people are getting paid to suffer through it.",
	"I've seen more depth in a puddle after a light drizzle and more personality in a Windows 95 error message. This topic is technically present but actively making everything worse.",
	"This topic has the same energy as a grocery store self-checkout that never works, except the self-checkout eventually calls for help. This thing just sits there being aggressively mediocre.",
	"If this topic was a person, it would still use Internet Explorer, think NFTs are coming back and unironically say 'that's what she said'. It's not just outdated, it's embarrassing to be associated with.",
	"This topic is like a participation trophy nobody bothered to engrave. It's technically an achievement, the kind that makes your parents lie to their friends about what you do. Even Wikipedia would mark it 'citation needed'.",
}

// CannedGenerator picks one of a few prewritten roasts. It never fails.
type CannedGenerator struct {
	pick func(n int) int
}

func NewCannedGenerator() *CannedGenerator {
	return &CannedGenerator{pick: rand.IntN}
}

func (g *CannedGenerator) Generate(_ context.Context, _ domain.RoastPrompt) (string, error) {
	return cannedRoasts[g.pick(len(cannedRoasts))], nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// OpenAIGenerator calls an OpenAI compatible chat completion endpoint.
type OpenAIGenerator struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewOpenAIGenerator(baseURL, apiKey string, timeout time.Duration) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt domain.RoastPrompt) (string, error) {
	model := prompt.Model
	if !strings.HasPrefix(model, "gpt") {
		model = defaultModel
	}
	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(systemPrompt, strings.Join(prompt.PreviousRoasts, ", "))},
			{Role: "user", Content: fmt.Sprintf(userPrompt, prompt.Topic)},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	var resp chatResponse
	if err := doJSON(g.client, req, &resp); err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("chat completion: empty answer")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type ttsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// ElevenLabsSynthesizer calls the ElevenLabs text-to-speech endpoint.
type ElevenLabsSynthesizer struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewElevenLabsSynthesizer(baseURL, apiKey string, timeout time.Duration) *ElevenLabsSynthesizer {
	return &ElevenLabsSynthesizer{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   "eleven_monolingual_v1",
	}
}

func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	body, err := json.Marshal(ttsRequest{Text: text, ModelID: s.model})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/text-to-speech/"+voiceID, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", s.apiKey)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("text to speech: status %d", res.StatusCode)
	}
	return io.ReadAll(res.Body)
}

// SilentSynthesizer is used when no speech provider is configured.
type SilentSynthesizer struct{}

func (SilentSynthesizer) Synthesize(context.Context, string, string) ([]byte, error) {
	return nil, nil
}

func doJSON(client *http.Client, req *http.Request, out any) error {
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
