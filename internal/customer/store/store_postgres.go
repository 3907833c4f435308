package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"customerapi/internal/customer/models"
	id "customerapi/pkg/domain"
	"customerapi/pkg/platform/sentinel"
	"customerapi/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists customers in the customers table. Every method joins
// a transaction carried in ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, c *models.Customer) error {
	if c == nil {
		return fmt.Errorf("save customer: nil customer")
	}
	conn := tx.Conn(ctx, s.db)

	if c.ID.IsNil() {
		var newID int64
		err := conn.QueryRowContext(ctx, `
			INSERT INTO customers (name, email, created_at, updated_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, c.Name, c.Email, c.CreatedAt, c.UpdatedAt).Scan(&newID)
		if err != nil {
			return translateWriteErr(err, c.Email, "insert customer")
		}
		c.ID = id.CustomerID(newID)
		return nil
	}

	res, err := conn.ExecContext(ctx, `
		UPDATE customers SET name = $1, email = $2, updated_at = $3
		WHERE id = $4
	`, c.Name, c.Email, c.UpdatedAt, int64(c.ID))
	if err != nil {
		return translateWriteErr(err, c.Email, "update customer")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("customer %s: %w", c.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error) {
	var c models.Customer
	var rawID int64
	err := tx.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM customers
		WHERE id = $1
	`, int64(customerID)).Scan(&rawID, &c.Name, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %s: %w", customerID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find customer %s: %w", customerID, err)
	}
	c.ID = id.CustomerID(rawID)
	return &c, nil
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]*models.Customer, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM customers
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	customers := make([]*models.Customer, 0)
	for rows.Next() {
		var c models.Customer
		var rawID int64
		if err := rows.Scan(&rawID, &c.Name, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		c.ID = id.CustomerID(rawID)
		customers = append(customers, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, customerID id.CustomerID) error {
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, int64(customerID))
	if err != nil {
		return fmt.Errorf("delete customer %s: %w", customerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete customer %s: %w", customerID, err)
	}
	if n == 0 {
		return fmt.Errorf("customer %s: %w", customerID, sentinel.ErrNotFound)
	}
	return nil
}

// DeleteAll removes every row. The id sequence is not reset.
func (s *PostgresStore) DeleteAll(ctx context.Context) error {
	if _, err := tx.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM customers`); err != nil {
		return fmt.Errorf("delete customers: %w", err)
	}
	return nil
}

func translateWriteErr(err error, email, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("email %q: %w", email, sentinel.ErrAlreadyUsed)
	}
	return fmt.Errorf("%s: %w", op, err)
}
