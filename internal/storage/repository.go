// Package storage persists users, transactions, bills and reminders in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"financas/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepository is the persistence handle. It is constructed once and
// passed explicitly to every collaborator that needs it.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// --- users ---

// CreateUser inserts a user. An empty ID is replaced with a fresh UUID.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User, passwordHash string) (core.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Currency == "" {
		u.Currency = "BRL"
	}
	u.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, whatsapp_number, password_hash, currency, created_at)
		VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?, ?)`,
		u.ID, u.Name, u.Email, u.WhatsAppNumber, passwordHash, u.Currency, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, fmt.Errorf("insert user: %w", core.ErrDuplicate)
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// isUniqueViolation reports whether the driver error is a SQLITE_CONSTRAINT
// unique-index failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// UserByEmail returns the user and its password hash for credential checks.
func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (core.User, string, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(email, ''), COALESCE(whatsapp_number, ''), COALESCE(password_hash, ''), currency, created_at
		FROM users WHERE email = ?`, email)
	return scanUserWithHash(row)
}

// UserByWhatsApp looks a user up by WhatsApp sender number.
func (r *SQLiteRepository) UserByWhatsApp(ctx context.Context, number string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(email, ''), COALESCE(whatsapp_number, ''), COALESCE(password_hash, ''), currency, created_at
		FROM users WHERE whatsapp_number = ?`, number)
	u, _, err := scanUserWithHash(row)
	return u, err
}

// FindOrCreateUserByWhatsApp resolves the account for an inbound sender,
// provisioning a bare profile on first contact the way the webhook always has.
func (r *SQLiteRepository) FindOrCreateUserByWhatsApp(ctx context.Context, number string) (core.User, error) {
	u, err := r.UserByWhatsApp(ctx, number)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, err
	}

	created, err := r.CreateUser(ctx, core.User{
		Name:           "User " + number,
		WhatsAppNumber: number,
	}, "")
	if err != nil {
		return core.User{}, fmt.Errorf("provision user for %s: %w", number, err)
	}

	slog.InfoContext(ctx, "Provisioned user from WhatsApp sender",
		"user_id", created.ID)
	return created, nil
}

func scanUserWithHash(row *sql.Row) (core.User, string, error) {
	var u core.User
	var hash string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.WhatsAppNumber, &hash, &u.Currency, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, "", core.ErrNotFound
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("scan user: %w", err)
	}
	return u, hash, nil
}

// --- categories ---

// GetOrCreateCategory resolves a category name to its row ID, creating the
// row on first use. Categories are per user and per transaction type.
func (r *SQLiteRepository) GetOrCreateCategory(ctx context.Context, userID, name string, t core.TransactionType) (string, error) {
	return r.getOrCreateCategory(ctx, r.db, userID, name, t)
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLiteRepository) getOrCreateCategory(ctx context.Context, q execQuerier, userID, name string, t core.TransactionType) (string, error) {
	var id string
	err := q.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE user_id = ? AND name = ? AND type = ?`,
		userID, name, string(t)).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("lookup category: %w", err)
	}

	id = uuid.NewString()
	if _, err := q.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, type) VALUES (?, ?, ?, ?)`,
		id, userID, name, string(t)); err != nil {
		return "", fmt.Errorf("insert category: %w", err)
	}
	return id, nil
}

// --- transactions ---

// CreateTransaction inserts a transaction, resolving its category to a
// foreign key in the same database transaction.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var categoryID any
	if t.Category != "" {
		id, err := r.getOrCreateCategory(ctx, tx, t.UserID, t.Category, t.Type)
		if err != nil {
			return core.Transaction{}, err
		}
		categoryID = id
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, category_id, description, payment_method, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(t.Type), t.Amount.String(), categoryID,
		t.Description, string(t.PaymentMethod), t.Date.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit transaction: %w", err)
	}
	return t, nil
}

// TransactionFilter narrows transaction listings. Zero values mean "no filter".
type TransactionFilter struct {
	Type core.TransactionType
	From core.Date
	To   core.Date
}

// ListTransactions returns a user's transactions newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]core.Transaction, error) {
	query := `
		SELECT t.id, t.user_id, t.type, t.amount, COALESCE(c.name, ''), t.description, t.payment_method, t.date
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ?`
	args := []any{userID}

	if f.Type != "" {
		query += ` AND t.type = ?`
		args = append(args, string(f.Type))
	}
	if !f.From.IsEmpty() {
		query += ` AND t.date >= ?`
		args = append(args, f.From.String())
	}
	if !f.To.IsEmpty() {
		query += ` AND t.date <= ?`
		args = append(args, f.To.String())
	}
	query += ` ORDER BY t.date DESC, t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var typ, method, amount, date string
		if err := rows.Scan(&t.ID, &t.UserID, &typ, &amount, &t.Category, &t.Description, &method, &date); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		t.PaymentMethod = core.PaymentMethod(method)
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse stored amount %q: %w", amount, err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", date, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTransaction removes a transaction owned by the user.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// BalanceSummary sums all of a user's income and expenses. The reduction
// happens here rather than in SQL so amounts stay exact decimals.
func (r *SQLiteRepository) BalanceSummary(ctx context.Context, userID string) (core.BalanceSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, amount FROM transactions WHERE user_id = ?`, userID)
	if err != nil {
		return core.BalanceSummary{}, fmt.Errorf("query balance: %w", err)
	}
	defer rows.Close()

	return sumByType(rows)
}

// MonthSummary sums a user's income and expenses for one calendar month.
func (r *SQLiteRepository) MonthSummary(ctx context.Context, userID string, year, month int) (core.MonthSummary, error) {
	first := core.NewDate(year, month, 1)
	last := core.Date{Time: first.AddDate(0, 1, -1)}

	rows, err := r.db.QueryContext(ctx,
		`SELECT type, amount FROM transactions WHERE user_id = ? AND date >= ? AND date <= ?`,
		userID, first.String(), last.String())
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("query month summary: %w", err)
	}
	defer rows.Close()

	sums, err := sumByType(rows)
	if err != nil {
		return core.MonthSummary{}, err
	}
	return core.MonthSummary{
		Year:    year,
		Month:   month,
		Income:  sums.TotalIncome,
		Expense: sums.TotalExpense,
	}, nil
}

func sumByType(rows *sql.Rows) (core.BalanceSummary, error) {
	var s core.BalanceSummary
	for rows.Next() {
		var typ, amount string
		if err := rows.Scan(&typ, &amount); err != nil {
			return s, fmt.Errorf("scan amount: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return s, fmt.Errorf("parse stored amount %q: %w", amount, err)
		}
		switch core.TransactionType(typ) {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(d)
		case core.Expense:
			s.TotalExpense = s.TotalExpense.Add(d)
		}
	}
	return s, rows.Err()
}

// --- bills ---

// billTable maps a bill kind to its table and party-name column. The two
// parallel tables mirror the hosted schema this replaces.
func billTable(kind core.BillKind) (table, partyColumn string, err error) {
	switch kind {
	case core.Payable:
		return "accounts_payable", "supplier_name", nil
	case core.Receivable:
		return "accounts_receivable", "client_name", nil
	}
	return "", "", core.ErrInvalidKind
}

// InsertBills bulk-inserts expanded bill instances in a single database
// transaction. All instances must share the same kind.
func (r *SQLiteRepository) InsertBills(ctx context.Context, bills []core.Bill) error {
	if len(bills) == 0 {
		return nil
	}
	table, partyCol, err := billTable(bills[0].Kind)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, user_id, amount, due_date, description, %s, payment_method, status,
			is_recurring, recurrence_interval, recurrence_count, recurrence_end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table, partyCol))
	if err != nil {
		return fmt.Errorf("prepare bill insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bills {
		if b.Kind != bills[0].Kind {
			return fmt.Errorf("mixed bill kinds in one insert")
		}
		id := b.ID
		if id == "" {
			id = uuid.NewString()
		}
		var endDate any
		if !b.Recurrence.EndDate.IsEmpty() {
			endDate = b.Recurrence.EndDate.String()
		}
		var interval any
		if b.Recurrence.IsRecurring {
			interval = string(b.Recurrence.Interval)
		}
		if _, err := stmt.ExecContext(ctx,
			id, b.UserID, b.Amount.String(), b.DueDate.String(), b.Description,
			b.PartyName, string(b.PaymentMethod), string(b.Status),
			boolToInt(b.Recurrence.IsRecurring), interval, b.Recurrence.Count, endDate); err != nil {
			return fmt.Errorf("insert bill: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bills: %w", err)
	}
	return nil
}

// BillFilter narrows bill listings. Zero values mean "no filter".
type BillFilter struct {
	Status core.BillStatus
	From   core.Date
	To     core.Date
}

// ListBills returns a user's bills of one kind ordered by due date.
func (r *SQLiteRepository) ListBills(ctx context.Context, userID string, kind core.BillKind, f BillFilter) ([]core.Bill, error) {
	table, partyCol, err := billTable(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, amount, due_date, description, %s, payment_method, status,
			is_recurring, COALESCE(recurrence_interval, ''), COALESCE(recurrence_count, 0), COALESCE(recurrence_end_date, '')
		FROM %s WHERE user_id = ?`, partyCol, table)
	args := []any{userID}

	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if !f.From.IsEmpty() {
		query += ` AND due_date >= ?`
		args = append(args, f.From.String())
	}
	if !f.To.IsEmpty() {
		query += ` AND due_date <= ?`
		args = append(args, f.To.String())
	}
	query += ` ORDER BY due_date ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var out []core.Bill
	for rows.Next() {
		var b core.Bill
		var amount, dueDate, method, status, interval, endDate string
		var recurring int
		if err := rows.Scan(&b.ID, &b.UserID, &amount, &dueDate, &b.Description, &b.PartyName,
			&method, &status, &recurring, &interval, &b.Recurrence.Count, &endDate); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		b.Kind = kind
		b.PaymentMethod = core.PaymentMethod(method)
		b.Status = core.BillStatus(status)
		b.Recurrence.IsRecurring = recurring != 0
		if interval != "" {
			b.Recurrence.Interval = core.Interval(interval)
		}
		if endDate != "" {
			if b.Recurrence.EndDate, err = core.ParseDate(endDate); err != nil {
				return nil, fmt.Errorf("parse stored end date %q: %w", endDate, err)
			}
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse stored amount %q: %w", amount, err)
		}
		if b.DueDate, err = core.ParseDate(dueDate); err != nil {
			return nil, fmt.Errorf("parse stored due date %q: %w", dueDate, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateBillStatus changes a bill's status.
func (r *SQLiteRepository) UpdateBillStatus(ctx context.Context, userID string, kind core.BillKind, id string, status core.BillStatus) error {
	table, _, err := billTable(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET status = ? WHERE id = ? AND user_id = ?`, table),
		string(status), id, userID)
	if err != nil {
		return fmt.Errorf("update bill status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteBill removes a bill owned by the user.
func (r *SQLiteRepository) DeleteBill(ctx context.Context, userID string, kind core.BillKind, id string) error {
	table, _, err := billTable(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND user_id = ?`, table), id, userID)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// --- reminders ---

// CreateReminder inserts a reminder.
func (r *SQLiteRepository) CreateReminder(ctx context.Context, rem core.Reminder) (core.Reminder, error) {
	if rem.ID == "" {
		rem.ID = uuid.NewString()
	}
	if rem.Status == "" {
		rem.Status = "pending"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (id, user_id, title, description, due_date, due_time, status, send_notification)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rem.ID, rem.UserID, rem.Title, rem.Description, rem.DueDate.String(), rem.DueTime,
		rem.Status, boolToInt(rem.SendNotification))
	if err != nil {
		return core.Reminder{}, fmt.Errorf("insert reminder: %w", err)
	}
	return rem, nil
}

// ListReminders returns a user's reminders ordered by due date.
func (r *SQLiteRepository) ListReminders(ctx context.Context, userID string) ([]core.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, description, due_date, due_time, status, send_notification, notification_sent_at
		FROM reminders WHERE user_id = ? ORDER BY due_date ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

// DueReminder pairs a reminder with the delivery details of its owner.
type DueReminder struct {
	core.Reminder
	UserName       string
	WhatsAppNumber string
}

// DueReminders returns reminders due on the given date that are pending,
// have notifications enabled and have not been sent yet.
func (r *SQLiteRepository) DueReminders(ctx context.Context, date core.Date) ([]DueReminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT rem.id, rem.user_id, rem.title, rem.description, rem.due_date, rem.due_time,
			rem.status, rem.send_notification, rem.notification_sent_at,
			u.name, COALESCE(u.whatsapp_number, '')
		FROM reminders rem
		JOIN users u ON u.id = rem.user_id
		WHERE rem.due_date = ? AND rem.status = 'pending'
			AND rem.send_notification = 1 AND rem.notification_sent_at IS NULL`,
		date.String())
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	defer rows.Close()

	var out []DueReminder
	for rows.Next() {
		var d DueReminder
		var dueDate string
		var sendNotification int
		var sentAt sql.NullTime
		if err := rows.Scan(&d.ID, &d.UserID, &d.Title, &d.Description, &dueDate, &d.DueTime,
			&d.Status, &sendNotification, &sentAt, &d.UserName, &d.WhatsAppNumber); err != nil {
			return nil, fmt.Errorf("scan due reminder: %w", err)
		}
		d.SendNotification = sendNotification != 0
		if sentAt.Valid {
			t := sentAt.Time
			d.NotificationSentAt = &t
		}
		if d.DueDate, err = core.ParseDate(dueDate); err != nil {
			return nil, fmt.Errorf("parse stored due date %q: %w", dueDate, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// MarkReminderNotified stamps the notification time on a reminder.
func (r *SQLiteRepository) MarkReminderNotified(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reminders SET notification_sent_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark reminder notified: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanReminders(rows *sql.Rows) ([]core.Reminder, error) {
	var out []core.Reminder
	for rows.Next() {
		var rem core.Reminder
		var dueDate string
		var sendNotification int
		var sentAt sql.NullTime
		if err := rows.Scan(&rem.ID, &rem.UserID, &rem.Title, &rem.Description, &dueDate,
			&rem.DueTime, &rem.Status, &sendNotification, &sentAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		rem.SendNotification = sendNotification != 0
		if sentAt.Valid {
			t := sentAt.Time
			rem.NotificationSentAt = &t
		}
		var err error
		if rem.DueDate, err = core.ParseDate(dueDate); err != nil {
			return nil, fmt.Errorf("parse stored due date %q: %w", dueDate, err)
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
