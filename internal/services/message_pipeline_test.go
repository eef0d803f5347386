package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/ai"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/storage"
)

type fakeUserStore struct {
	user core.User
	err  error
}

func (f *fakeUserStore) FindOrCreateUserByWhatsApp(ctx context.Context, number string) (core.User, error) {
	return f.user, f.err
}

type fakeTransactionStore struct {
	created []core.Transaction
	balance core.BalanceSummary
	month   core.MonthSummary
	err     error
}

func (f *fakeTransactionStore) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if f.err != nil {
		return core.Transaction{}, f.err
	}
	f.created = append(f.created, t)
	return t, nil
}

func (f *fakeTransactionStore) ListTransactions(ctx context.Context, userID string, filter storage.TransactionFilter) ([]core.Transaction, error) {
	return f.created, nil
}

func (f *fakeTransactionStore) DeleteTransaction(ctx context.Context, userID, id string) error {
	return f.err
}

func (f *fakeTransactionStore) BalanceSummary(ctx context.Context, userID string) (core.BalanceSummary, error) {
	return f.balance, f.err
}

func (f *fakeTransactionStore) MonthSummary(ctx context.Context, userID string, year, month int) (core.MonthSummary, error) {
	return f.month, f.err
}

type fakeClassifier struct {
	classification ai.Classification
	classifyErr    error
	transcript     string
	transcribeErr  error
	classified     []string
}

func (f *fakeClassifier) Classify(ctx context.Context, message string) (ai.Classification, error) {
	f.classified = append(f.classified, message)
	return f.classification, f.classifyErr
}

func (f *fakeClassifier) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	return f.transcript, f.transcribeErr
}

type fakeMediaFetcher struct {
	url  string
	data []byte
	err  error
}

func (f *fakeMediaFetcher) MediaURL(ctx context.Context, mediaID string) (string, error) {
	return f.url, f.err
}

func (f *fakeMediaFetcher) DownloadMedia(ctx context.Context, url string) ([]byte, error) {
	return f.data, f.err
}

type fakeMessenger struct {
	sent []sentMessage
	err  error
}

type sentMessage struct {
	to   string
	body string
}

func (f *fakeMessenger) SendText(ctx context.Context, to, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{to: to, body: body})
	return nil
}

func newTestPipeline(store *fakeTransactionStore, classifier *fakeClassifier, media *fakeMediaFetcher, messenger *fakeMessenger) *MessagePipeline {
	logger := log.New(log.DefaultConfig())
	users := &fakeUserStore{user: core.User{ID: "user-1", Name: "Maria", WhatsAppNumber: "5511999999999"}}
	transactions := NewTransactionService(store, logger)
	return NewMessagePipeline(users, transactions, classifier, media, messenger, logger)
}

func TestPipelineRegistersExpense(t *testing.T) {
	store := &fakeTransactionStore{}
	classifier := &fakeClassifier{classification: ai.Classification{
		Kind:          ai.KindExpense,
		Amount:        decimal.RequireFromString("52.50"),
		Category:      "alimentação",
		PaymentMethod: "pix",
		Description:   "almoço",
	}}
	messenger := &fakeMessenger{}
	pipeline := newTestPipeline(store, classifier, &fakeMediaFetcher{}, messenger)

	err := pipeline.Handle(context.Background(), IncomingMessage{From: "5511999999999", Text: "gastei 52,50 no almoço no pix"})
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	saved := store.created[0]
	assert.Equal(t, "user-1", saved.UserID)
	assert.Equal(t, core.Expense, saved.Type)
	assert.Equal(t, "52.5", saved.Amount.String())
	assert.Equal(t, "alimentação", saved.Category)
	assert.Equal(t, core.Pix, saved.PaymentMethod)

	require.Len(t, messenger.sent, 1)
	assert.Equal(t, "5511999999999", messenger.sent[0].to)
	assert.Contains(t, messenger.sent[0].body, "✅ Transação registrada")
	assert.Contains(t, messenger.sent[0].body, "R$ 52.50")
}

func TestPipelineDefaultsCategoryAndPaymentMethod(t *testing.T) {
	store := &fakeTransactionStore{}
	classifier := &fakeClassifier{classification: ai.Classification{
		Kind:   ai.KindIncome,
		Amount: decimal.RequireFromString("1200"),
	}}
	messenger := &fakeMessenger{}
	pipeline := newTestPipeline(store, classifier, &fakeMediaFetcher{}, messenger)

	err := pipeline.Handle(context.Background(), IncomingMessage{From: "5511999999999", Text: "recebi 1200"})
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	assert.Equal(t, "outros", store.created[0].Category)
	assert.Equal(t, core.Cash, store.created[0].PaymentMethod)
}

func TestPipelineBalanceQuery(t *testing.T) {
	store := &fakeTransactionStore{balance: core.BalanceSummary{
		TotalIncome:  decimal.RequireFromString("3000"),
		TotalExpense: decimal.RequireFromString("1250.40"),
	}}
	classifier := &fakeClassifier{classification: ai.Classification{Kind: ai.KindQuery}}
	messenger := &fakeMessenger{}
	pipeline := newTestPipeline(store, classifier, &fakeMediaFetcher{}, messenger)

	err := pipeline.Handle(context.Background(), IncomingMessage{From: "5511999999999", Text: "qual meu saldo?"})
	require.NoError(t, err)

	assert.Empty(t, store.created)
	require.Len(t, messenger.sent, 1)
	assert.Contains(t, messenger.sent[0].body, "R$ 1749.60")
	assert.Contains(t, messenger.sent[0].body, "📈 Receitas: R$ 3000.00")
}

func TestPipelineMonthSummaryQuery(t *testing.T) {
	today := core.Today()
	store := &fakeTransactionStore{month: core.MonthSummary{
		Year:    today.Year(),
		Month:   int(today.Month()),
		Income:  decimal.RequireFromString("2000"),
		Expense: decimal.RequireFromString("500"),
	}}
	classifier := &fakeClassifier{classification: ai.Classification{Kind: ai.KindQuery}}
	messenger := &fakeMessenger{}
	pipeline := newTestPipeline(store, classifier, &fakeMediaFetcher{}, messenger)

	err := pipeline.Handle(context.Background(), IncomingMessage{From: "5511999999999", Text: "me manda o resumo do mês"})
	require.NoError(t, err)

	require.Len(t, messenger.sent, 1)
	assert.Contains(t, messenger.sent[0].body, "📊 Resumo de")
	assert.Contains(t, messenger.sent[0].body, "Saldo do mês: R$ 1500.00")
}

func TestPipelineUnknownQueryRepliesHelp(t *testing.T) {
	classifier := &fakeClassifier{classification: ai.Classification{Kind: ai.KindQuery}}
	messenger := &fakeMessenger{}
	pipeline := newTestPipeline(&fakeTransactionStore{}, classifier, &fakeMediaFetcher{}, messenger)

	err := pipeline.Handle(context.Background(), IncomingMessage{From: "5511999999999", Text: "bom dia"})
	require.NoError(t, err)

	require.Len(t, messenger.sent, 1)
	assert.Contains(t, messenger.sent[0].body, "🤖")
}

func TestPipelineClassifierFailureRepliesGracefully(t *testing.T) {
	store := &fakeTransactionStore{}
	classifier := &fakeClassifier{classifyErr: errors.New("model unavailable")}
	messenger := &fakeMessenger{}
	pipeline := newTestPipeline(store, classifier, &fakeMediaFetcher{}, messenger)

	err := pipeline.Handle(context.Background(), IncomingMessage{From: "5511999999999", Text: "gastei 50"})
	require.NoError(t, err)

	assert.Empty(t, store.created)
	require.Len(t, messenger.sent, 1)
	assert.Contains(t, messenger.sent[0].body, "Não consegui entender")
}

func TestPipelineTranscribesAudio(t *testing.T) {
	store := &fakeTransactionStore{}
	classifier := &fakeClassifier{
		transcript: "gastei 30 reais de uber",
		classification: ai.Classification{
			Kind:          ai.KindExpense,
			Amount:        decimal.RequireFromString("30"),
			Category:      "transporte",
			PaymentMethod: "card",
		},
	}
	media := &fakeMediaFetcher{url: "https://cdn.example/media/abc", data: []byte("ogg-bytes")}
	messenger := &fakeMessenger{}
	pipeline := newTestPipeline(store, classifier, media, messenger)

	err := pipeline.Handle(context.Background(), IncomingMessage{From: "5511999999999", AudioID: "media-abc"})
	require.NoError(t, err)

	require.Len(t, classifier.classified, 1)
	assert.Equal(t, "gastei 30 reais de uber", classifier.classified[0])
	require.Len(t, store.created, 1)
	assert.Equal(t, "transporte", store.created[0].Category)
}

func TestPipelineEmptyMessage(t *testing.T) {
	classifier := &fakeClassifier{}
	messenger := &fakeMessenger{}
	pipeline := newTestPipeline(&fakeTransactionStore{}, classifier, &fakeMediaFetcher{}, messenger)

	err := pipeline.Handle(context.Background(), IncomingMessage{From: "5511999999999", Text: "   "})
	require.NoError(t, err)

	assert.Empty(t, classifier.classified)
	require.Len(t, messenger.sent, 1)
	assert.Contains(t, messenger.sent[0].body, "Não consegui entender")
}
