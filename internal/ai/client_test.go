package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Classification
		wantErr bool
	}{
		{
			name: "expense",
			raw:  `{"type":"expense","amount":50,"category":"Alimentação","payment_method":"card","description":"mercado"}`,
			want: Classification{Kind: KindExpense, Category: "Alimentação", PaymentMethod: "card", Description: "mercado"},
		},
		{
			name: "income with decimal amount",
			raw:  `{"type":"income","amount":1000.50,"category":"Salário","payment_method":"pix"}`,
			want: Classification{Kind: KindIncome, Category: "Salário", PaymentMethod: "pix"},
		},
		{
			name: "query ignores other fields",
			raw:  `{"type":"query","amount":99}`,
			want: Classification{Kind: KindQuery},
		},
		{
			name: "surrounding whitespace",
			raw:  "\n  {\"type\":\"query\"}  \n",
			want: Classification{Kind: KindQuery},
		},
		{name: "not json", raw: `tudo certo!`, wantErr: true},
		{name: "empty", raw: ``, wantErr: true},
		{name: "unknown type", raw: `{"type":"refund","amount":10}`, wantErr: true},
		{name: "missing amount", raw: `{"type":"expense","category":"x"}`, wantErr: true},
		{name: "zero amount", raw: `{"type":"expense","amount":0}`, wantErr: true},
		{name: "negative amount", raw: `{"type":"income","amount":-10}`, wantErr: true},
		{name: "amount as words", raw: `{"type":"expense","amount":"fifty"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClassification(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedClassification) {
					t.Fatalf("expected ErrMalformedClassification, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind != tt.want.Kind || got.Category != tt.want.Category ||
				got.PaymentMethod != tt.want.PaymentMethod || got.Description != tt.want.Description {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		msgs, _ := req["messages"].([]any)
		if len(msgs) != 2 {
			t.Errorf("expected system+user messages, got %d", len(msgs))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{
					"content": `{"type":"expense","amount":50,"category":"Alimentação","payment_method":"card","description":"mercado"}`,
				}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("sk-test", WithBaseURL(srv.URL))
	got, err := client.Classify(context.Background(), "Gastei R$ 50 no mercado com cartão")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Kind != KindExpense || got.Category != "Alimentação" {
		t.Errorf("unexpected classification: %+v", got)
	}
	if got.Amount.StringFixed(2) != "50.00" {
		t.Errorf("amount = %s", got.Amount)
	}
}

func TestClassify_NotConfigured(t *testing.T) {
	client := NewClient("")
	if _, err := client.Classify(context.Background(), "oi"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("model") != "whisper-1" {
			t.Errorf("model = %s", r.FormValue("model"))
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "audio.ogg" {
			t.Errorf("filename = %s", header.Filename)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "gastei cinquenta reais no mercado"})
	}))
	defer srv.Close()

	client := NewClient("sk-test", WithBaseURL(srv.URL))
	text, err := client.Transcribe(context.Background(), []byte("OGGDATA"), "")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "gastei cinquenta reais no mercado" {
		t.Errorf("text = %q", text)
	}
}
