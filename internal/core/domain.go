package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Pix      PaymentMethod = "pix"
	Card     PaymentMethod = "card"
	Transfer PaymentMethod = "transfer"
	Cash     PaymentMethod = "cash"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	BillPending BillStatus = "pending"
	BillPaid    BillStatus = "paid"
	BillOverdue BillStatus = "overdue"
)

const (
	Payable    BillKind = "payable"
	Receivable BillKind = "receivable"
)

const (
	Weekly    Interval = "weekly"
	Monthly   Interval = "monthly"
	Quarterly Interval = "quarterly"
	Annual    Interval = "annual"
)

type (
	PaymentMethod   string
	TransactionType string
	BillStatus      string
	BillKind        string
	Interval        string

	Date struct {
		time.Time
	}

	User struct {
		ID             string
		Name           string
		Email          string
		WhatsAppNumber string
		Currency       string
		CreatedAt      time.Time
	}

	Category struct {
		ID     string
		UserID string
		Name   string
		Type   TransactionType
	}

	Transaction struct {
		ID            string
		UserID        string
		Type          TransactionType
		Amount        decimal.Decimal
		Category      string
		Description   string
		PaymentMethod PaymentMethod
		Date          Date
	}

	// Bill is a payable or receivable obligation. PartyName is the supplier
	// for payables and the client for receivables.
	Bill struct {
		ID            string
		UserID        string
		Kind          BillKind
		Amount        decimal.Decimal
		DueDate       Date
		Description   string
		PartyName     string
		PaymentMethod PaymentMethod
		Status        BillStatus
		Recurrence    RecurrencePolicy
	}

	// RecurrencePolicy governs whether and how a bill repeats. Count takes
	// precedence over EndDate when both are set.
	RecurrencePolicy struct {
		IsRecurring bool
		Interval    Interval
		Count       int
		EndDate     Date
	}

	Reminder struct {
		ID                 string
		UserID             string
		Title              string
		Description        string
		DueDate            Date
		DueTime            string
		Status             string
		SendNotification   bool
		NotificationSentAt *time.Time
	}
)

var (
	// ErrInvalid is wrapped by free-form validation failures so callers
	// can classify them without matching message text.
	ErrInvalid = errors.New("invalid")

	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidType          = errors.New("invalid transaction type")
	ErrInvalidKind          = errors.New("invalid bill kind")
	ErrEmptyTitle           = errors.New("empty title")
	ErrNotFound             = errors.New("not found")
	ErrDuplicate            = errors.New("already exists")
)

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current calendar date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// String formats the date as zero-padded YYYY-MM-DD, so lexicographic
// comparison of formatted dates matches chronological order.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsEmpty reports whether the date is unset (optional dates).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// ParsePaymentMethod validates a payment method string.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(s))) {
	case Pix:
		return Pix, nil
	case Card:
		return Card, nil
	case Transfer:
		return Transfer, nil
	case Cash:
		return Cash, nil
	}
	return "", ErrInvalidPaymentMethod
}

// PaymentMethodOrCash maps unknown values to cash. Used on the webhook path
// where the classifier may omit or invent a method.
func PaymentMethodOrCash(s string) PaymentMethod {
	if m, err := ParsePaymentMethod(s); err == nil {
		return m
	}
	return Cash
}

// ParseInterval maps a recurrence interval string to its Interval value.
// Unrecognized values fall back to monthly.
func ParseInterval(s string) Interval {
	switch Interval(strings.ToLower(strings.TrimSpace(s))) {
	case Weekly:
		return Weekly
	case Quarterly:
		return Quarterly
	case Annual:
		return Annual
	default:
		return Monthly
	}
}

// ParseTransactionType validates a transaction type string.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", ErrInvalidType
}

// ParseBillKind validates a bill kind string.
func ParseBillKind(s string) (BillKind, error) {
	switch BillKind(strings.ToLower(strings.TrimSpace(s))) {
	case Payable:
		return Payable, nil
	case Receivable:
		return Receivable, nil
	}
	return "", ErrInvalidKind
}

// ParseBillStatus validates a bill status string.
func ParseBillStatus(s string) (BillStatus, error) {
	switch BillStatus(strings.ToLower(strings.TrimSpace(s))) {
	case BillPending:
		return BillPending, nil
	case BillPaid:
		return BillPaid, nil
	case BillOverdue:
		return BillOverdue, nil
	}
	return "", errors.New("invalid bill status")
}

func (t Transaction) Validate() error {
	if t.UserID == "" {
		return fmt.Errorf("%w: missing user", ErrInvalid)
	}
	switch t.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if _, err := ParsePaymentMethod(string(t.PaymentMethod)); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalid)
	}
	return nil
}

func (b Bill) Validate() error {
	if b.UserID == "" {
		return fmt.Errorf("%w: missing user", ErrInvalid)
	}
	switch b.Kind {
	case Payable, Receivable:
	default:
		return ErrInvalidKind
	}
	if !b.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := b.DueDate.Validate(); err != nil {
		return err
	}
	if _, err := ParsePaymentMethod(string(b.PaymentMethod)); err != nil {
		return err
	}
	if len(b.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalid)
	}
	if b.Recurrence.IsRecurring {
		if b.Recurrence.Count < 0 {
			return fmt.Errorf("%w: recurrence count cannot be negative", ErrInvalid)
		}
		if !b.Recurrence.EndDate.IsEmpty() && b.Recurrence.EndDate.Before(b.DueDate.Time) {
			return fmt.Errorf("%w: recurrence end date before due date", ErrInvalid)
		}
	}
	return nil
}

func (r Reminder) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: missing user", ErrInvalid)
	}
	if len(strings.TrimSpace(r.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(r.Title) > 200 {
		return fmt.Errorf("%w: title too long (max 200 characters)", ErrInvalid)
	}
	return r.DueDate.Validate()
}
