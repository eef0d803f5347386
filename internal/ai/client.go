// Package ai wraps the language-model API used for message classification
// and voice-note transcription.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	chatModel          = "gpt-4"
	transcriptionModel = "whisper-1"
)

var (
	// ErrNotConfigured is returned when no API key is present.
	ErrNotConfigured = errors.New("language model API not configured")
	// ErrMalformedClassification is returned when the model's reply does not
	// decode into a valid tagged classification.
	ErrMalformedClassification = errors.New("malformed classification payload")
)

// The assistant extracts transaction data from Brazilian Portuguese messages.
const classifierSystemPrompt = `Você é um assistente financeiro. Analise a mensagem do usuário e extraia informações de transações financeiras.
Responda sempre em português brasileiro e seja conciso.
Formatos esperados:
- "Gastei R$ 50 no mercado com cartão" -> tipo: expense, valor: 50, categoria: Alimentação, método: card
- "Recebi R$ 1000 de salário no PIX" -> tipo: income, valor: 1000, categoria: Salário, método: pix
- "Paguei a conta de luz R$ 150" -> tipo: expense, valor: 150, categoria: Serviços, método: não especificado
Retorne apenas um JSON com: { "type": "income|expense", "amount": number, "category": "string", "payment_method": "pix|card|cash|transfer", "description": "string" }
Se não for uma transação, retorne { "type": "query" }`

// Kind tags a classification result.
type Kind string

const (
	KindQuery   Kind = "query"
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Classification is the validated result of classifying an inbound message.
// Amount, Category, PaymentMethod and Description are only meaningful for
// the income and expense kinds.
type Classification struct {
	Kind          Kind
	Amount        decimal.Decimal
	Category      string
	PaymentMethod string
	Description   string
}

// IsTransaction reports whether the classification names a transaction.
func (c Classification) IsTransaction() bool {
	return c.Kind == KindIncome || c.Kind == KindExpense
}

// Client calls the language-model HTTP API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint, used in tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify asks the model to classify a free-form message and validates the
// reply into a tagged Classification.
func (c *Client) Classify(ctx context.Context, message string) (Classification, error) {
	if !c.Configured() {
		return Classification{}, ErrNotConfigured
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: classifierSystemPrompt},
			{Role: "user", Content: message},
		},
	})
	if err != nil {
		return Classification{}, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return Classification{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Classification{}, fmt.Errorf("call chat completions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Classification{}, fmt.Errorf("chat completions error %d: %s", resp.StatusCode, string(body))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return Classification{}, fmt.Errorf("decode chat response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return Classification{}, fmt.Errorf("%w: empty choices", ErrMalformedClassification)
	}

	return ParseClassification(chat.Choices[0].Message.Content)
}

// ParseClassification decodes and validates the model's JSON reply. The
// shape is checked explicitly here at the boundary; nothing downstream
// trusts raw parsed JSON.
func ParseClassification(raw string) (Classification, error) {
	var payload struct {
		Type          string      `json:"type"`
		Amount        json.Number `json:"amount"`
		Category      string      `json:"category"`
		PaymentMethod string      `json:"payment_method"`
		Description   string      `json:"description"`
	}

	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(raw)))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return Classification{}, fmt.Errorf("%w: %v", ErrMalformedClassification, err)
	}

	switch Kind(payload.Type) {
	case KindQuery:
		return Classification{Kind: KindQuery}, nil
	case KindIncome, KindExpense:
	default:
		return Classification{}, fmt.Errorf("%w: unknown type %q", ErrMalformedClassification, payload.Type)
	}

	amount, err := decimal.NewFromString(payload.Amount.String())
	if err != nil || !amount.IsPositive() {
		return Classification{}, fmt.Errorf("%w: amount %q", ErrMalformedClassification, payload.Amount.String())
	}

	return Classification{
		Kind:          Kind(payload.Type),
		Amount:        amount,
		Category:      strings.TrimSpace(payload.Category),
		PaymentMethod: strings.TrimSpace(payload.PaymentMethod),
		Description:   strings.TrimSpace(payload.Description),
	}, nil
}

// Transcribe sends an audio buffer to the transcription endpoint and returns
// the recognized text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if filename == "" {
		filename = "audio.ogg"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := mw.WriteField("model", transcriptionModel); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call transcription: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("transcription error %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode transcription: %w", err)
	}
	return result.Text, nil
}
