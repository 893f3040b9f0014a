package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chunkreading/internal/models"

	"golang.org/x/oauth2"
)

// GeminiConfig configures a GeminiClient
type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	BearerToken string
	Timeout     time.Duration
	// Language the learner translates into and receives feedback in
	Language string
	Debug    bool
}

// GeminiClient implements Service on the Gemini generateContent REST API
type GeminiClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	language   string
	enabled    bool
	debug      bool
}

// NewGeminiClient creates a client. Without an API key or bearer token the
// client is disabled and every call returns ErrUnavailable.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	language := cfg.Language
	if language == "" {
		language = "Korean"
	}

	if cfg.APIKey == "" && cfg.BearerToken == "" {
		log.Println("AI scoring disabled: GEMINI_API_KEY not configured")
		return &GeminiClient{language: language, debug: cfg.Debug}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.BearerToken != "" {
		// Proxied deployments authenticate with a bearer token instead of a key
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.BearerToken, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(context.Background(), src)
		httpClient.Timeout = timeout
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(cfg.BaseURL, "/"), cfg.Model)
	log.Printf("AI scoring enabled: model=%s", cfg.Model)
	if cfg.Debug {
		log.Printf("[DEBUG] AI endpoint: %s", endpoint)
		log.Printf("[DEBUG] AI timeout: %s", timeout)
	}

	return &GeminiClient{
		httpClient: httpClient,
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		language:   language,
		enabled:    true,
		debug:      cfg.Debug,
	}
}

// IsEnabled returns whether the client calls the AI service
func (c *GeminiClient) IsEnabled() bool {
	return c.enabled
}

// SplitSentences asks the model to split a passage into sentences
func (c *GeminiClient) SplitSentences(ctx context.Context, passage string) ([]string, error) {
	var out struct {
		Sentences []string `json:"sentences"`
	}
	if err := c.generate(ctx, splitPrompt(passage), &out); err != nil {
		return nil, err
	}

	sentences := make([]string, 0, len(out.Sentences))
	for _, s := range out.Sentences {
		sentences = appendTrimmed(sentences, s)
	}
	if len(sentences) == 0 {
		return nil, fmt.Errorf("%w: no sentences in reply", ErrUnavailable)
	}
	return sentences, nil
}

// GradeStructure grades a learner's structural marking of a sentence
func (c *GeminiClient) GradeStructure(ctx context.Context, sentence, markingDescription string) (*models.StructureGrade, error) {
	var out struct {
		Score           *float64 `json:"score"`
		Feedback        string   `json:"feedback"`
		CorrectMarkings []string `json:"correctMarkings"`
		Suggestions     []string `json:"suggestions"`
	}
	if err := c.generate(ctx, structurePrompt(sentence, markingDescription, c.language), &out); err != nil {
		return nil, err
	}
	if out.Score == nil {
		return nil, fmt.Errorf("%w: reply has no score", ErrUnavailable)
	}

	return &models.StructureGrade{
		Score:           clampScore(*out.Score),
		Feedback:        out.Feedback,
		CorrectMarkings: nonNil(out.CorrectMarkings),
		Suggestions:     nonNil(out.Suggestions),
	}, nil
}

// GradeTranslation grades a learner's translation against the original
func (c *GeminiClient) GradeTranslation(ctx context.Context, original, translation string) (*models.TranslationGrade, error) {
	var out struct {
		Score              *float64 `json:"score"`
		Feedback           string   `json:"feedback"`
		MisunderstoodWords []string `json:"misunderstoodWords"`
		Strengths          []string `json:"strengths"`
		Improvements       []string `json:"improvements"`
	}
	if err := c.generate(ctx, translationPrompt(original, translation, c.language), &out); err != nil {
		return nil, err
	}
	if out.Score == nil {
		return nil, fmt.Errorf("%w: reply has no score", ErrUnavailable)
	}

	return &models.TranslationGrade{
		Score:              clampScore(*out.Score),
		Feedback:           out.Feedback,
		MisunderstoodWords: nonNil(out.MisunderstoodWords),
		Strengths:          nonNil(out.Strengths),
		Improvements:       nonNil(out.Improvements),
	}, nil
}

// Translate produces a model translation with the sentence backbone
func (c *GeminiClient) Translate(ctx context.Context, sentence string) (*models.ModelTranslation, error) {
	var out models.ModelTranslation
	if err := c.generate(ctx, translatePrompt(sentence, c.language), &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Translation) == "" {
		return nil, fmt.Errorf("%w: reply has no translation", ErrUnavailable)
	}
	return &out, nil
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// generate sends prompt and decodes the first JSON object of the reply into
// out. Every failure is reported as ErrUnavailable.
func (c *GeminiClient) generate(ctx context.Context, prompt string, out interface{}) error {
	if !c.enabled {
		return ErrUnavailable
	}

	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := c.endpoint
	if c.apiKey != "" {
		endpoint += "?key=" + url.QueryEscape(c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Failed to reach AI service: %v", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: failed to read reply: %v", ErrUnavailable, err)
	}
	if c.debug {
		log.Printf("[DEBUG] AI reply: status=%d bytes=%d took=%s", resp.StatusCode, len(raw), time.Since(start))
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("AI service returned status %d", resp.StatusCode)
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("%w: malformed envelope: %v", ErrUnavailable, err)
	}
	if len(gr.Candidates) == 0 {
		return fmt.Errorf("%w: no candidates", ErrUnavailable)
	}

	var text strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	obj, ok := extractJSON(text.String())
	if !ok {
		if c.debug {
			log.Printf("[DEBUG] AI reply without JSON: %q", text.String())
		}
		return fmt.Errorf("%w: reply contains no JSON object", ErrUnavailable)
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", ErrUnavailable, err)
	}
	return nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
