package db

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/damon-houk/thrift-ledger/internal/domain/entity"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/logger"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// postgresDocument is the JSONB body stored per transaction; the id lives in
// the native UUID primary key
type postgresDocument struct {
	Amount      *decimal.Decimal        `json:"amount,omitempty"`
	Date        *entity.Date            `json:"date,omitempty"`
	Description *string                 `json:"description,omitempty"`
	Type        *entity.TransactionType `json:"type,omitempty"`
}

// PostgresConfig configures the Postgres document store
type PostgresConfig struct {
	URL        string
	Collection string
	MaxConns   int32
}

// PostgresTransactionStore keeps one JSONB document per transaction
type PostgresTransactionStore struct {
	pool       *pgxpool.Pool
	collection string
	logger     logger.Logger
}

// RunMigrations applies the embedded schema migrations
func RunMigrations(databaseURL string, log logger.Logger) error {
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	log.Info("Migrations applied", map[string]interface{}{
		"version": version,
		"dirty":   dirty,
	})
	return nil
}

// OpenPostgresTransactionStore migrates the schema and opens a connection pool
func OpenPostgresTransactionStore(ctx context.Context, cfg PostgresConfig, log logger.Logger) (*PostgresTransactionStore, error) {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	if err := RunMigrations(cfg.URL, log); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("Postgres store connected", map[string]interface{}{
		"collection": cfg.Collection,
	})

	return &PostgresTransactionStore{
		pool:       pool,
		collection: cfg.Collection,
		logger:     log.WithField("store", "postgres"),
	}, nil
}

// List returns every document in the collection, newest first
func (s *PostgresTransactionStore) List(ctx context.Context) ([]entity.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, doc FROM ledger_documents
		 WHERE collection = $1
		 ORDER BY id DESC`,
		s.collection,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs := []entity.Transaction{}
	for rows.Next() {
		var id pgtype.UUID
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		tx, err := fromPostgresDocument(uuid.UUID(id.Bytes).String(), body)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// Insert stores tx as a new document
func (s *PostgresTransactionStore) Insert(ctx context.Context, tx entity.Transaction) error {
	if _, err := uuid.Parse(tx.ID); err != nil {
		return fmt.Errorf("transaction id %q is not a UUID", tx.ID)
	}

	body, err := json.Marshal(toPostgresDocument(tx.FullPatch()))
	if err != nil {
		return fmt.Errorf("failed to encode transaction: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO ledger_documents (id, collection, doc) VALUES ($1::uuid, $2, $3::jsonb)`,
		tx.ID, s.collection, string(body),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	s.logger.Debug("Transaction inserted", map[string]interface{}{"id": tx.ID})
	return nil
}

// Update merges the patched fields into the stored document
func (s *PostgresTransactionStore) Update(ctx context.Context, id string, patch entity.TransactionPatch) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	body, err := json.Marshal(toPostgresDocument(patch))
	if err != nil {
		return false, fmt.Errorf("failed to encode patch: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE ledger_documents SET doc = doc || $3::jsonb
		 WHERE collection = $1 AND id = $2::uuid`,
		s.collection, id, string(body),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update transaction: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Delete removes the document with the given id
func (s *PostgresTransactionStore) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM ledger_documents WHERE collection = $1 AND id = $2::uuid`,
		s.collection, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Close releases the connection pool
func (s *PostgresTransactionStore) Close() error {
	s.pool.Close()
	return nil
}

func toPostgresDocument(p entity.TransactionPatch) postgresDocument {
	return postgresDocument{
		Amount:      p.Amount,
		Date:        p.Date,
		Description: p.Description,
		Type:        p.Type,
	}
}

func fromPostgresDocument(id string, body []byte) (entity.Transaction, error) {
	var doc postgresDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return entity.Transaction{}, fmt.Errorf("invalid document %s: %w", id, err)
	}

	tx := entity.Transaction{ID: id}
	tx.Apply(entity.TransactionPatch{
		Amount:      doc.Amount,
		Date:        doc.Date,
		Description: doc.Description,
		Type:        doc.Type,
	})
	return tx, nil
}
