package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/genai"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
	"github.com/kirillkom/sermon-ledger/internal/infrastructure/resilience"
)

type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	// Breaker, when set, stops calling an endpoint that keeps failing. It never retries.
	Breaker *resilience.Executor
	Logger  *slog.Logger
}

// Extractor implements ports.MetadataExtractor with a single generateContent call per text.
type Extractor struct {
	client  *genai.Client
	model   string
	schema  *jsonschema.Schema
	breaker *resilience.Executor
	logger  *slog.Logger
}

func New(ctx context.Context, options Options) (*Extractor, error) {
	if strings.TrimSpace(options.APIKey) == "" || strings.TrimSpace(options.Model) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "gemini client", errors.New("api key and model are required"))
	}

	cfg := &genai.ClientConfig{
		APIKey:     options.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: 120 * time.Second, Transport: &captureTransport{base: http.DefaultTransport}},
	}
	if base := strings.TrimSpace(options.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		client:  client,
		model:   options.Model,
		schema:  schema,
		breaker: options.Breaker,
		logger:  logger,
	}, nil
}

func (e *Extractor) ExtractMetadata(ctx context.Context, text string) (*domain.MetadataRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract metadata", errors.New("empty text"))
	}

	var raw, envelope string
	call := func(ctx context.Context) error {
		out, body, err := e.generate(ctx, buildMetadataPrompt(text))
		raw, envelope = out, body
		return err
	}

	var err error
	if e.breaker != nil {
		err = e.breaker.Execute(ctx, "gemini.generate_content", call, classifyGeminiError)
		if resilience.IsCircuitOpen(err) {
			err = domain.WrapError(domain.ErrTemporary, "gemini generate content", err)
		}
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}

	record, err := e.parse(raw)
	if err != nil {
		e.logger.Warn("metadata_response_malformed", "model", e.model, "error", err, "text", raw, "body", envelope)
		return nil, domain.WrapError(domain.ErrMalformedResponse, "parse metadata response", err)
	}
	return record, nil
}

// generate returns the generated text and the raw response body.
func (e *Extractor) generate(ctx context.Context, prompt string) (string, string, error) {
	capture := &responseCapture{}
	ctx = withCapture(ctx, capture)

	resp, err := e.client.Models.GenerateContent(ctx, e.model, []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(prompt)},
		},
	}, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.2)),
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", capture.body, err
		}
		switch {
		case capture.success():
			e.logger.Warn("metadata_response_malformed", "model", e.model, "status", capture.statusCode, "error", err, "body", capture.body)
			return "", capture.body, domain.WrapError(domain.ErrMalformedResponse, "decode gemini response", err)
		case capture.statusCode != 0:
			statusErr := &HTTPStatusError{StatusCode: capture.statusCode, Body: capture.body}
			e.logger.Warn("metadata_request_rejected", "model", e.model, "status", capture.statusCode, "body", capture.body)
			return "", capture.body, domain.WrapError(domain.ErrUpstreamStatus, "gemini generate content", statusErr)
		default:
			return "", "", domain.WrapError(domain.ErrTemporary, "gemini generate content", err)
		}
	}
	if resp == nil {
		return "", capture.body, nil
	}
	return resp.Text(), capture.body, nil
}

func (e *Extractor) parse(raw string) (*domain.MetadataRecord, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, errors.New("empty generated text")
	}

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decode generated json: %w", err)
	}
	if err := e.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("generated json does not match schema: %w", err)
	}

	var payload struct {
		Date       *string  `json:"date"`
		Speaker    *string  `json:"speaker"`
		Title      *string  `json:"title"`
		Theme      *string  `json:"theme"`
		References []string `json:"references"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	return &domain.MetadataRecord{
		Date:       deref(payload.Date),
		Speaker:    deref(payload.Speaker),
		Title:      deref(payload.Title),
		Theme:      deref(payload.Theme),
		References: payload.References,
	}, nil
}

// stripCodeFence removes ``` / ```json markers wherever the model put them.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
