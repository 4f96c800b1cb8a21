// Package store provides the SQLite-backed demo dataset behind the mock API.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/abelbrown/panel/internal/dashboard"
)

// Store holds customers, members, mails and notifications. NOT an interface -
// concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	mu  sync.RWMutex
	now func() time.Time
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
		now: time.Now,
	}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		avatar TEXT,
		status TEXT NOT NULL,
		location TEXT
	);

	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		username TEXT NOT NULL,
		role TEXT NOT NULL,
		avatar TEXT
	);

	CREATE TABLE IF NOT EXISTS mails (
		id TEXT PRIMARY KEY,
		unread INTEGER DEFAULT 0,
		from_name TEXT NOT NULL,
		from_email TEXT NOT NULL,
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		date DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_mails_date ON mails(date DESC);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		unread INTEGER DEFAULT 0,
		sender TEXT NOT NULL,
		body TEXT NOT NULL,
		date DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_date ON notifications(date DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// insert runs one INSERT per row inside a transaction.
// Caller must hold s.mu for writing.
func (s *Store) insert(ctx context.Context, rows []sq.InsertBuilder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, b := range rows {
		query, args, err := b.ToSql()
		if err != nil {
			return fmt.Errorf("building insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("executing insert: %w", err)
		}
	}
	return tx.Commit()
}

// SaveCustomers inserts or replaces customers.
func (s *Store) SaveCustomers(ctx context.Context, customers []dashboard.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]sq.InsertBuilder, len(customers))
	for i, c := range customers {
		rows[i] = s.sb.Insert("customers").Options("OR REPLACE").
			Columns("id", "name", "email", "avatar", "status", "location").
			Values(c.ID, c.Name, c.Email, c.Avatar, c.Status, c.Location)
	}
	return s.insert(ctx, rows)
}

// SaveMembers inserts or replaces members.
func (s *Store) SaveMembers(ctx context.Context, members []dashboard.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]sq.InsertBuilder, len(members))
	for i, m := range members {
		rows[i] = s.sb.Insert("members").Options("OR REPLACE").
			Columns("id", "name", "username", "role", "avatar").
			Values(m.ID, m.Name, m.Username, m.Role, m.Avatar)
	}
	return s.insert(ctx, rows)
}

// SaveMails inserts or replaces mails.
func (s *Store) SaveMails(ctx context.Context, mails []dashboard.Mail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]sq.InsertBuilder, len(mails))
	for i, m := range mails {
		rows[i] = s.sb.Insert("mails").Options("OR REPLACE").
			Columns("id", "unread", "from_name", "from_email", "subject", "body", "date").
			Values(m.ID, boolToInt(m.Unread), m.From.Name, m.From.Email, m.Subject, m.Body, m.Date.UTC())
	}
	return s.insert(ctx, rows)
}

// SaveNotifications inserts or replaces notifications.
func (s *Store) SaveNotifications(ctx context.Context, notifications []dashboard.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]sq.InsertBuilder, len(notifications))
	for i, n := range notifications {
		rows[i] = s.sb.Insert("notifications").Options("OR REPLACE").
			Columns("id", "unread", "sender", "body", "date").
			Values(n.ID, boolToInt(n.Unread), n.Sender, n.Body, n.Date.UTC())
	}
	return s.insert(ctx, rows)
}

// Customers returns every customer in insertion order.
// Thread-safe: acquires read lock.
func (s *Store) Customers(ctx context.Context) ([]dashboard.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := s.sb.Select("id", "name", "email", "COALESCE(avatar, '')", "status", "COALESCE(location, '')").
		From("customers").OrderBy("rowid")
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []dashboard.Customer{}
	for rows.Next() {
		var c dashboard.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Avatar, &c.Status, &c.Location); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// Members returns every member in insertion order.
// Thread-safe: acquires read lock.
func (s *Store) Members(ctx context.Context) ([]dashboard.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := s.sb.Select("id", "name", "username", "role", "COALESCE(avatar, '')").
		From("members").OrderBy("rowid")
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []dashboard.Member{}
	for rows.Next() {
		var m dashboard.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Username, &m.Role, &m.Avatar); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Mails returns every mail, newest first.
// Thread-safe: acquires read lock.
func (s *Store) Mails(ctx context.Context) ([]dashboard.Mail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := s.sb.Select("id", "unread", "from_name", "from_email", "subject", "body", "date").
		From("mails").OrderBy("date DESC", "rowid")
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mails := []dashboard.Mail{}
	for rows.Next() {
		var m dashboard.Mail
		var unread int
		if err := rows.Scan(&m.ID, &unread, &m.From.Name, &m.From.Email, &m.Subject, &m.Body, &m.Date); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		m.Unread = unread != 0
		mails = append(mails, m)
	}
	return mails, rows.Err()
}

// Notifications returns every notification, newest first.
// Thread-safe: acquires read lock.
func (s *Store) Notifications(ctx context.Context) ([]dashboard.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := s.sb.Select("id", "unread", "sender", "body", "date").
		From("notifications").OrderBy("date DESC", "rowid")
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []dashboard.Notification{}
	for rows.Next() {
		var n dashboard.Notification
		var unread int
		if err := rows.Scan(&n.ID, &unread, &n.Sender, &n.Body, &n.Date); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		n.Unread = unread != 0
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// Count returns the number of rows of res.
func (s *Store) Count(ctx context.Context, res dashboard.Resource) (int, error) {
	if _, err := dashboard.ParseResource(string(res)); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args, err := s.sb.Select("COUNT(*)").From(string(res)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("executing count query: %w", err)
	}
	return n, nil
}

// query runs a select. Caller must hold s.mu (read lock is sufficient).
func (s *Store) query(ctx context.Context, b sq.SelectBuilder) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return rows, nil
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
