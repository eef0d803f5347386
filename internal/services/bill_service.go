package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/storage"
)

// BillStore is the persistence surface the bill service needs.
type BillStore interface {
	InsertBills(ctx context.Context, bills []core.Bill) error
	ListBills(ctx context.Context, userID string, kind core.BillKind, f storage.BillFilter) ([]core.Bill, error)
	UpdateBillStatus(ctx context.Context, userID string, kind core.BillKind, id string, status core.BillStatus) error
	DeleteBill(ctx context.Context, userID string, kind core.BillKind, id string) error
}

// BillService manages payable and receivable bills, expanding recurring
// ones into their individual instances on creation.
type BillService struct {
	storage BillStore
	logger  *log.Logger
}

func NewBillService(storage BillStore, logger *log.Logger) *BillService {
	return &BillService{
		storage: storage,
		logger:  logger.WithComponent(log.ComponentBill),
	}
}

// Create validates the bill, expands its recurrence policy and inserts the
// resulting instances in a single batch. It returns the inserted bills in
// due-date order.
func (s *BillService) Create(ctx context.Context, bill core.Bill) ([]core.Bill, error) {
	if err := bill.Validate(); err != nil {
		return nil, err
	}

	instances := core.ExpandRecurrence(bill, bill.Recurrence)
	for i := range instances {
		if instances[i].ID == "" {
			instances[i].ID = uuid.NewString()
		}
	}

	if err := s.storage.InsertBills(ctx, instances); err != nil {
		return nil, fmt.Errorf("insert bills: %w", err)
	}

	s.logger.InfoContext(ctx, "Bills created",
		log.FieldUserID, bill.UserID,
		log.FieldBillKind, string(bill.Kind),
		log.FieldOperation, log.OpExpand,
		"instances", len(instances))

	return instances, nil
}

func (s *BillService) List(ctx context.Context, userID string, kind core.BillKind, f storage.BillFilter) ([]core.Bill, error) {
	return s.storage.ListBills(ctx, userID, kind, f)
}

func (s *BillService) UpdateStatus(ctx context.Context, userID string, kind core.BillKind, id string, status core.BillStatus) error {
	if err := s.storage.UpdateBillStatus(ctx, userID, kind, id, status); err != nil {
		return fmt.Errorf("update bill status: %w", err)
	}
	return nil
}

func (s *BillService) Delete(ctx context.Context, userID string, kind core.BillKind, id string) error {
	if err := s.storage.DeleteBill(ctx, userID, kind, id); err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	return nil
}
