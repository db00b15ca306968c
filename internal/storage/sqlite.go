// Copyright 2025 James Ross
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/joltworks/go-brew-queue/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	orderID      INTEGER PRIMARY KEY,
	customer     TEXT NOT NULL,
	dateReceived TEXT NOT NULL,
	timeReceived TEXT NOT NULL,
	timeComplete TEXT
);

CREATE TABLE IF NOT EXISTS drinks (
	identifier   INTEGER PRIMARY KEY,
	orderID      INTEGER NOT NULL REFERENCES orders(orderID) ON DELETE CASCADE,
	drink        TEXT NOT NULL,
	milk         TEXT,
	milk_volume  REAL,
	shots        INTEGER NOT NULL DEFAULT 0,
	temperature  TEXT,
	texture      TEXT,
	options      TEXT,
	customer     TEXT,
	timeReceived TEXT,
	timeComplete TEXT
);
`

// Store is the Persistence Adapter (spec §4.5): a durable SQLite mirror of
// orders and drinks, one file on disk, opened for the process lifetime.
// Every mutation runs in its own transaction with rollback on error.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and migrates the SQLite file at path, enabling
// foreign key cascades.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

const timeFormat = time.RFC3339Nano

func formatTime(t time.Time) string { return t.Format(timeFormat) }

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// AddOrder writes a newly received order and every one of its drinks in a
// single transaction (spec §4.3 step 5, §4.5).
func (s *Store) AddOrder(ctx context.Context, order domain.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (orderID, customer, dateReceived, timeReceived, timeComplete) VALUES (?, ?, ?, ?, ?)`,
		order.OrderID, order.Customer, order.DateReceived.Format("2006-01-02"), formatTime(order.TimeReceived), formatTimePtr(order.TimeComplete),
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, d := range order.Drinks {
		if err := insertDrink(ctx, tx, d); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertDrink(ctx context.Context, tx *sql.Tx, d domain.Drink) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO drinks (identifier, orderID, drink, milk, milk_volume, shots, temperature, texture, options, customer, timeReceived, timeComplete)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Identifier, d.OrderID, d.Name, d.Milk, d.MilkVolume, d.Shots, d.Temperature, d.Texture,
		strings.Join(d.Options, ","), d.Customer, formatTime(d.TimeReceived), formatTimePtr(d.TimeComplete),
	)
	if err != nil {
		return fmt.Errorf("insert drink %d: %w", d.Identifier, err)
	}
	return nil
}

// CompleteDrink stamps a single drink's timeComplete.
func (s *Store) CompleteDrink(ctx context.Context, identifier int64, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE drinks SET timeComplete = ? WHERE identifier = ?`, formatTime(at), identifier); err != nil {
		return fmt.Errorf("complete drink %d: %w", identifier, err)
	}
	return tx.Commit()
}

// CompleteOrder stamps an order's timeComplete.
func (s *Store) CompleteOrder(ctx context.Context, orderID int, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE orders SET timeComplete = ? WHERE orderID = ?`, formatTime(at), orderID); err != nil {
		return fmt.Errorf("complete order %d: %w", orderID, err)
	}
	return tx.Commit()
}

// GetQueue returns today's orders, each with its drinks, ordered by
// timeReceived ascending (spec §4.5, §6 "Startup replay").
func (s *Store) GetQueue(ctx context.Context) ([]domain.Order, error) {
	today := time.Now().Format("2006-01-02")
	rows, err := s.db.QueryContext(ctx,
		`SELECT orderID, customer, dateReceived, timeReceived, timeComplete FROM orders WHERE dateReceived = ? ORDER BY timeReceived ASC`,
		today,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var (
			o                                         domain.Order
			dateReceived, timeReceived                string
			timeComplete                               sql.NullString
		)
		if err := rows.Scan(&o.OrderID, &o.Customer, &dateReceived, &timeReceived, &timeComplete); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.DateReceived, _ = time.Parse("2006-01-02", dateReceived)
		o.TimeReceived, _ = time.Parse(timeFormat, timeReceived)
		if timeComplete.Valid {
			t, err := time.Parse(timeFormat, timeComplete.String)
			if err == nil {
				o.TimeComplete = &t
			}
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		drinks, err := s.drinksForOrder(ctx, orders[i].OrderID)
		if err != nil {
			return nil, err
		}
		orders[i].Drinks = drinks
	}
	return orders, nil
}

func (s *Store) drinksForOrder(ctx context.Context, orderID int) ([]domain.Drink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identifier, drink, milk, milk_volume, shots, temperature, texture, options, customer, timeReceived, timeComplete
		 FROM drinks WHERE orderID = ? ORDER BY identifier ASC`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query drinks for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var drinks []domain.Drink
	for rows.Next() {
		var (
			d                                      domain.Drink
			milk, temperature, texture, options     sql.NullString
			timeReceived                            string
			timeComplete                            sql.NullString
		)
		if err := rows.Scan(&d.Identifier, &d.Name, &milk, &d.MilkVolume, &d.Shots, &temperature, &texture, &options, &d.Customer, &timeReceived, &timeComplete); err != nil {
			return nil, fmt.Errorf("scan drink: %w", err)
		}
		d.OrderID = orderID
		d.Milk = milk.String
		d.Temperature = temperature.String
		d.Texture = texture.String
		if options.String != "" {
			d.Options = strings.Split(options.String, ",")
		}
		d.TimeReceived, _ = time.Parse(timeFormat, timeReceived)
		if timeComplete.Valid {
			t, err := time.Parse(timeFormat, timeComplete.String)
			if err == nil {
				d.TimeComplete = &t
			}
		}
		drinks = append(drinks, d)
	}
	return drinks, rows.Err()
}

// ClearOldRecords deletes every order (and its cascaded drinks) whose
// dateReceived is before today, run once per business day by the
// scheduler (spec §4.5, §6).
func (s *Store) ClearOldRecords(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	today := time.Now().Format("2006-01-02")
	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE dateReceived < ?`, today); err != nil {
		return fmt.Errorf("clear old records: %w", err)
	}
	return tx.Commit()
}

// ClearQueue deletes every persisted order and drink, regardless of date.
func (s *Store) ClearQueue(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	return tx.Commit()
}
