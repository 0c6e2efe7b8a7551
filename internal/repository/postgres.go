// Package repository содержит реализацию хранилища сырых записей в PostgreSQL.
//
// Хранятся только исходные записи коллекций; вычисляемые показатели
// в базу не записываются.
package repository

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/impact-dashboard/internal/ingest"
	"github.com/mmeshcher/impact-dashboard/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrRecordExists возвращается при попытке создать запись с уже существующим идентификатором.
	ErrRecordExists = errors.New("record already exists")
	// ErrRecordNotFound возвращается, если запись не найдена.
	ErrRecordNotFound = errors.New("record not found")
)

// PostgresRepository предоставляет доступ к записям коллекций в PostgreSQL.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	delays []time.Duration
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{
		pool:   pool,
		delays: []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second},
	}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(r.delays); i++ {
		err = fn()
		if err == nil || !isRetryable(err) || i == len(r.delays) {
			return err
		}

		timer := time.NewTimer(r.delays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}

	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Fetch возвращает все записи коллекции в порядке добавления.
// Параметры запроса не применяются: фильтрация по участнику выполняется
// на стороне дашборда, как и для HTTP-хранилища без фильтрующих эндпоинтов.
func (r *PostgresRepository) Fetch(ctx context.Context, collection model.Collection, _ url.Values) ([]model.Record, error) {
	var records []model.Record

	err := r.withRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT payload
			 FROM records
			 WHERE collection = $1
			 ORDER BY created_at, id`,
			string(collection),
		)
		if err != nil {
			return fmt.Errorf("select records: %w", err)
		}
		defer rows.Close()

		records = records[:0]
		for rows.Next() {
			var payload []byte
			if err := rows.Scan(&payload); err != nil {
				return fmt.Errorf("scan record: %w", err)
			}

			rec, err := decodePayload(payload)
			if err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
			records = append(records, rec)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if records == nil {
		records = []model.Record{}
	}
	return records, nil
}

// Create сохраняет новую запись. Если в ней нет идентификатора, он генерируется.
func (r *PostgresRepository) Create(ctx context.Context, collection model.Collection, payload json.RawMessage) (model.Record, error) {
	rec, err := decodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	id := ingest.ID(rec["id"])
	if id == "" {
		id = uuid.NewString()
		rec["id"] = id
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO records (collection, id, payload) VALUES ($1, $2, $3)`,
		string(collection), id, data,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%w: %s/%s", ErrRecordExists, collection, id)
		}
		return nil, fmt.Errorf("insert record: %w", err)
	}

	return rec, nil
}

// Delete удаляет запись коллекции.
func (r *PostgresRepository) Delete(ctx context.Context, collection model.Collection, id string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`DELETE FROM records WHERE collection = $1 AND id = $2`,
		string(collection), ingest.ID(id),
	)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func decodePayload(payload []byte) (model.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var rec model.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = model.Record{}
	}
	return rec, nil
}
