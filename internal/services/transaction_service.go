package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/storage"
)

// TransactionStore is the persistence surface the transaction service needs.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
	BalanceSummary(ctx context.Context, userID string) (core.BalanceSummary, error)
	MonthSummary(ctx context.Context, userID string, year, month int) (core.MonthSummary, error)
}

// TransactionService validates and persists income and expense records.
type TransactionService struct {
	storage TransactionStore
	logger  *log.Logger
}

func NewTransactionService(storage TransactionStore, logger *log.Logger) *TransactionService {
	return &TransactionService{
		storage: storage,
		logger:  logger.WithComponent(log.ComponentTransaction),
	}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Date.IsEmpty() {
		t.Date = core.Today()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction created",
		log.FieldUserID, saved.UserID,
		log.FieldAmount, core.FormatAmount(saved.Amount),
		log.FieldCategory, saved.Category,
		"type", saved.Type)

	return saved, nil
}

func (s *TransactionService) List(ctx context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, userID, f)
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (s *TransactionService) Balance(ctx context.Context, userID string) (core.BalanceSummary, error) {
	return s.storage.BalanceSummary(ctx, userID)
}

func (s *TransactionService) MonthSummary(ctx context.Context, userID string, year, month int) (core.MonthSummary, error) {
	return s.storage.MonthSummary(ctx, userID, year, month)
}
