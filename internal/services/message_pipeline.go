package services

import (
	"context"
	"fmt"
	"strings"

	"financas/internal/ai"
	"financas/internal/core"
	"financas/internal/log"
)

// UserStore resolves WhatsApp senders to accounts, provisioning on first
// contact.
type UserStore interface {
	FindOrCreateUserByWhatsApp(ctx context.Context, number string) (core.User, error)
}

// Classifier turns free-form text into a structured classification and
// transcribes voice notes.
type Classifier interface {
	Classify(ctx context.Context, message string) (ai.Classification, error)
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// MediaFetcher retrieves media attachments from the WhatsApp gateway.
type MediaFetcher interface {
	MediaURL(ctx context.Context, mediaID string) (string, error)
	DownloadMedia(ctx context.Context, url string) ([]byte, error)
}

// IncomingMessage is a WhatsApp message stripped down to what the
// pipeline needs. AudioID is set for voice notes, Text for everything else.
type IncomingMessage struct {
	From    string
	Text    string
	AudioID string
}

// MessagePipeline handles inbound WhatsApp messages end to end: resolve
// the user, transcribe audio, classify, persist or answer, and reply.
type MessagePipeline struct {
	users        UserStore
	transactions *TransactionService
	classifier   Classifier
	media        MediaFetcher
	messenger    Messenger
	logger       *log.Logger
}

func NewMessagePipeline(
	users UserStore,
	transactions *TransactionService,
	classifier Classifier,
	media MediaFetcher,
	messenger Messenger,
	logger *log.Logger,
) *MessagePipeline {
	return &MessagePipeline{
		users:        users,
		transactions: transactions,
		classifier:   classifier,
		media:        media,
		messenger:    messenger,
		logger:       logger.WithComponent(log.ComponentWebhook),
	}
}

const (
	replyNotUnderstood = "😕 Não consegui entender sua mensagem. Tente algo como:\n• \"gastei 50 reais no mercado\"\n• \"recebi 1200 de salário\""
	replyHelp          = "🤖 Eu posso te ajudar a controlar suas finanças!\n\nEnvie mensagens como:\n• \"gastei 50 reais no mercado no pix\"\n• \"recebi 1200 de salário\"\n• \"saldo\" para ver seu saldo atual\n• \"resumo\" para o resumo do mês"
)

// Handle processes one inbound message. Reply failures are logged but do
// not fail the call, so the gateway webhook can always acknowledge.
func (p *MessagePipeline) Handle(ctx context.Context, msg IncomingMessage) error {
	user, err := p.users.FindOrCreateUserByWhatsApp(ctx, msg.From)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}

	text := msg.Text
	if msg.AudioID != "" {
		text, err = p.transcribeAudio(ctx, msg.AudioID)
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to transcribe audio",
				log.FieldSender, msg.From,
				log.FieldError, err)
			p.reply(ctx, msg.From, "😕 Não consegui entender o áudio. Pode tentar de novo ou enviar por texto?")
			return nil
		}
	}

	if strings.TrimSpace(text) == "" {
		p.reply(ctx, msg.From, replyNotUnderstood)
		return nil
	}

	classification, err := p.classifier.Classify(ctx, text)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to classify message",
			log.FieldSender, msg.From,
			log.FieldOperation, log.OpClassify,
			log.FieldError, err)
		p.reply(ctx, msg.From, replyNotUnderstood)
		return nil
	}

	if classification.IsTransaction() {
		return p.handleTransaction(ctx, user, msg.From, classification)
	}
	p.handleQuery(ctx, user, msg.From, text)
	return nil
}

func (p *MessagePipeline) transcribeAudio(ctx context.Context, audioID string) (string, error) {
	url, err := p.media.MediaURL(ctx, audioID)
	if err != nil {
		return "", fmt.Errorf("media url: %w", err)
	}
	data, err := p.media.DownloadMedia(ctx, url)
	if err != nil {
		return "", fmt.Errorf("download media: %w", err)
	}
	return p.classifier.Transcribe(ctx, data, "audio.ogg")
}

func (p *MessagePipeline) handleTransaction(ctx context.Context, user core.User, from string, c ai.Classification) error {
	category := c.Category
	if category == "" {
		category = "outros"
	}

	t := core.Transaction{
		UserID:        user.ID,
		Type:          core.TransactionType(c.Kind),
		Amount:        c.Amount,
		Category:      category,
		Description:   c.Description,
		PaymentMethod: core.PaymentMethodOrCash(c.PaymentMethod),
		Date:          core.Today(),
	}

	saved, err := p.transactions.Create(ctx, t)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to save transaction from message",
			log.FieldSender, from,
			log.FieldError, err)
		p.reply(ctx, from, "😕 Não consegui registrar a transação. Pode tentar de novo?")
		return nil
	}

	p.reply(ctx, from, transactionReply(saved))
	return nil
}

func (p *MessagePipeline) handleQuery(ctx context.Context, user core.User, from, text string) {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "saldo") || strings.Contains(lower, "quanto tenho"):
		summary, err := p.transactions.Balance(ctx, user.ID)
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to load balance",
				log.FieldUserID, user.ID,
				log.FieldError, err)
			p.reply(ctx, from, "😕 Não consegui consultar seu saldo agora. Tente novamente em instantes.")
			return
		}
		p.reply(ctx, from, balanceReply(summary))

	case strings.Contains(lower, "resumo") || strings.Contains(lower, "relatório") || strings.Contains(lower, "relatorio"):
		today := core.Today()
		summary, err := p.transactions.MonthSummary(ctx, user.ID, today.Year(), int(today.Month()))
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to load month summary",
				log.FieldUserID, user.ID,
				log.FieldError, err)
			p.reply(ctx, from, "😕 Não consegui montar o resumo agora. Tente novamente em instantes.")
			return
		}
		p.reply(ctx, from, monthSummaryReply(summary))

	default:
		p.reply(ctx, from, replyHelp)
	}
}

func (p *MessagePipeline) reply(ctx context.Context, to, body string) {
	if err := p.messenger.SendText(ctx, to, body); err != nil {
		p.logger.ErrorContext(ctx, "Failed to send reply",
			log.FieldRecipient, to,
			log.FieldError, err)
	}
}

func transactionReply(t core.Transaction) string {
	var b strings.Builder
	b.WriteString("✅ Transação registrada!\n\n")
	if t.Type == core.Income {
		fmt.Fprintf(&b, "💰 Receita: R$ %s\n", core.FormatAmount(t.Amount))
	} else {
		fmt.Fprintf(&b, "💸 Despesa: R$ %s\n", core.FormatAmount(t.Amount))
	}
	fmt.Fprintf(&b, "📁 Categoria: %s\n", t.Category)
	fmt.Fprintf(&b, "💳 Pagamento: %s", t.PaymentMethod)
	if t.Description != "" {
		fmt.Fprintf(&b, "\n📝 %s", t.Description)
	}
	return b.String()
}

func balanceReply(s core.BalanceSummary) string {
	return fmt.Sprintf("💰 Seu saldo atual é R$ %s\n\n📈 Receitas: R$ %s\n📉 Despesas: R$ %s",
		core.FormatAmount(s.Balance()),
		core.FormatAmount(s.TotalIncome),
		core.FormatAmount(s.TotalExpense))
}

func monthSummaryReply(s core.MonthSummary) string {
	return fmt.Sprintf("📊 Resumo de %02d/%d\n\n📈 Receitas: R$ %s\n📉 Despesas: R$ %s\n💰 Saldo do mês: R$ %s",
		s.Month, s.Year,
		core.FormatAmount(s.Income),
		core.FormatAmount(s.Expense),
		core.FormatAmount(s.Net()))
}
