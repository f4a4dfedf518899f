// Package refdata is the Postgres-backed source of the prior-respondent
// matrix consumed by the statistical-outlier check. It only reads and
// grows the reference pool; assessment verdicts are never stored here.
package refdata

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/lib/pq"
)

// Connect opens the reference database from REFDATA_DB_* environment
// variables, with local-development defaults.
func Connect() (*sql.DB, error) {
	host := getEnv("REFDATA_DB_HOST", "localhost")
	port := getEnv("REFDATA_DB_PORT", "5432")
	user := getEnv("REFDATA_DB_USER", "esteem")
	password := getEnv("REFDATA_DB_PASSWORD", "esteem")
	dbname := getEnv("REFDATA_DB_NAME", "esteem_refdata")
	sslmode := getEnv("REFDATA_DB_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping reference database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	return db, nil
}

// Migrate creates the reference pool schema. Idempotent.
func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS reference_responses (
		id           BIGSERIAL PRIMARY KEY,
		instrument   VARCHAR(100) NOT NULL,
		responses    INTEGER[] NOT NULL,
		collected_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_reference_instrument ON reference_responses(instrument);
	`

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("refdata migration failed: %w", err)
	}
	return nil
}

// Store reads and grows the reference pool for one instrument. Safe for
// concurrent use.
type Store struct {
	db         *sql.DB
	instrument string
}

// NewStore wraps an open database for the named instrument.
func NewStore(db *sql.DB, instrument string) *Store {
	return &Store{db: db, instrument: instrument}
}

// LoadMatrix returns every stored vector of the expected length as a
// row-per-respondent matrix. Rows of the wrong length (collected under an
// older instrument revision) are skipped rather than truncated.
func (s *Store) LoadMatrix(ctx context.Context, itemCount int) ([][]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT responses FROM reference_responses WHERE instrument = $1 ORDER BY collected_at`,
		s.instrument,
	)
	if err != nil {
		return nil, fmt.Errorf("querying reference responses: %w", err)
	}
	defer rows.Close()

	var matrix [][]float64
	for rows.Next() {
		var values pq.Int64Array
		if err := rows.Scan(&values); err != nil {
			return nil, fmt.Errorf("scanning reference row: %w", err)
		}
		if len(values) != itemCount {
			continue
		}
		row := make([]float64, itemCount)
		for i, v := range values {
			row[i] = float64(v)
		}
		matrix = append(matrix, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading reference rows: %w", err)
	}

	return matrix, nil
}

// AddResponse appends one respondent's vector to the reference pool.
func (s *Store) AddResponse(ctx context.Context, responses []int) error {
	values := make(pq.Int64Array, len(responses))
	for i, r := range responses {
		values[i] = int64(r)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reference_responses (instrument, responses) VALUES ($1, $2)`,
		s.instrument, values,
	)
	if err != nil {
		return fmt.Errorf("inserting reference response: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
