package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	currency "github.com/malusev998/rate-sync"
)

const MySQLTimeFormat = "2006-01-02 15:04:05"

type MySQLStorage struct {
	ctx       context.Context
	db        *sql.DB
	tableName string
}

// MySQLDSN formats the connection string for a TCP MySQL server.
func MySQLDSN(user, password, addr, db string) string {
	mysqlDriverConfig := mysql.NewConfig()
	mysqlDriverConfig.User = user
	mysqlDriverConfig.Passwd = password
	mysqlDriverConfig.Addr = addr
	mysqlDriverConfig.Net = "tcp"
	mysqlDriverConfig.DBName = db
	mysqlDriverConfig.ParseTime = true
	// Rows matched rather than rows changed, so rewriting equal values
	// still counts as a hit in Update.
	mysqlDriverConfig.ClientFoundRows = true

	return mysqlDriverConfig.FormatDSN()
}

func NewMySQLStorage(config MySQLConfig) (*MySQLStorage, error) {
	db, err := sql.Open("mysql", config.ConnectionString)

	if err != nil {
		return nil, err
	}

	ctx := config.Ctx

	if ctx == nil {
		ctx = context.Background()
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return NewSQLStorage(ctx, db, config.TableName), nil
}

func NewSQLStorage(ctx context.Context, db *sql.DB, tableName string) *MySQLStorage {
	return &MySQLStorage{
		ctx:       ctx,
		db:        db,
		tableName: tableName,
	}
}

func (m *MySQLStorage) Find(ctx context.Context, pair string) ([]currency.RecordWithID, error) {
	rows, err := m.db.QueryContext(
		ctx,
		fmt.Sprintf("SELECT id, pair, currency, rate, source, status FROM %s WHERE pair = ?;", m.tableName),
		pair,
	)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	records := make([]currency.RecordWithID, 0, 1)

	for rows.Next() {
		var (
			record currency.RecordWithID
			status string
		)

		if err := rows.Scan(&record.ID, &record.Pair, &record.Currency, &record.Rate, &record.Source, &status); err != nil {
			return nil, err
		}

		record.Status = currency.Status(status)
		records = append(records, record)
	}

	return records, rows.Err()
}

func (m *MySQLStorage) Update(ctx context.Context, id string, record currency.Record) error {
	res, err := m.db.ExecContext(
		ctx,
		fmt.Sprintf("UPDATE %s SET currency = ?, rate = ?, source = ?, status = ?, updated_at = ? WHERE id = ?;", m.tableName),
		record.Currency,
		record.Rate,
		record.Source,
		string(record.Status),
		time.Now().UTC().Format(MySQLTimeFormat),
		id,
	)

	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()

	if err != nil {
		return err
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	return nil
}

func (m *MySQLStorage) Create(ctx context.Context, record currency.Record) (currency.RecordWithID, error) {
	id := uuid.New()
	tx, err := m.db.BeginTx(ctx, nil)

	if err != nil {
		return currency.RecordWithID{}, err
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s(id, pair, currency, rate, source, status, updated_at) VALUES (?,?,?,?,?,?,?);", m.tableName))

	if err != nil {
		_ = tx.Rollback()
		return currency.RecordWithID{}, err
	}

	defer stmt.Close()

	_, err = stmt.ExecContext(
		ctx,
		id.String(),
		record.Pair,
		record.Currency,
		record.Rate,
		record.Source,
		string(record.Status),
		time.Now().UTC().Format(MySQLTimeFormat),
	)

	if err != nil {
		_ = tx.Rollback()
		return currency.RecordWithID{}, err
	}

	if err := tx.Commit(); err != nil {
		return currency.RecordWithID{}, err
	}

	return currency.RecordWithID{Record: record, ID: id.String()}, nil
}

func (m *MySQLStorage) Migrate() error {
	_, err := m.db.ExecContext(m.ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s(
	id CHAR(36) NOT NULL PRIMARY KEY,
	pair VARCHAR(32) NOT NULL UNIQUE,
	currency VARCHAR(8) NOT NULL,
	rate DOUBLE NOT NULL DEFAULT 0,
	source VARCHAR(32) NOT NULL,
	status VARCHAR(32) NOT NULL,
	updated_at DATETIME NOT NULL
);`, m.tableName))

	return err
}

func (m *MySQLStorage) Drop() error {
	_, err := m.db.ExecContext(m.ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s;", m.tableName))

	return err
}

func (m *MySQLStorage) GetStorageProviderName() string {
	return "MySQL"
}

func (m *MySQLStorage) Close() error {
	return m.db.Close()
}
