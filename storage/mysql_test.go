package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	currency "github.com/malusev998/rate-sync"
	"github.com/malusev998/rate-sync/storage"
)

const mysqlTableName = "currency_rates_test"

var mysqlRecord = currency.Record{
	Pair:     "USD/CNY",
	Currency: "USD",
	Rate:     0.1408,
	Source:   currency.SourceAutoAPI,
	Status:   currency.StatusNormal,
}

func TestMySQLDSN(t *testing.T) {
	require.Equal(
		t,
		"currency:secret@tcp(localhost:3306)/currencydb?clientFoundRows=true&parseTime=true",
		storage.MySQLDSN("currency", "secret", "localhost:3306", "currencydb"),
	)
}

func TestMysqlStorage_Find(t *testing.T) {
	t.Parallel()
	db, m, _ := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	defer db.Close()
	assert := require.New(t)
	ctx := context.Background()
	st := storage.NewSQLStorage(ctx, db, mysqlTableName)
	query := "SELECT id, pair, currency, rate, source, status FROM currency_rates_test WHERE pair = ?;"

	t.Run("Found", func(t *testing.T) {
		id := uuid.NewString()
		m.ExpectQuery(query).
			WithArgs("USD/CNY").
			WillReturnRows(sqlmock.NewRows([]string{"id", "pair", "currency", "rate", "source", "status"}).
				AddRow(id, "USD/CNY", "USD", 0.1408, "auto-api", "normal"))

		records, err := st.Find(ctx, "USD/CNY")

		assert.Nil(err)
		assert.Nil(m.ExpectationsWereMet())
		assert.Len(records, 1)
		assert.Equal(id, records[0].ID)
		assert.Equal(mysqlRecord, records[0].Record)
	})

	t.Run("NotFound", func(t *testing.T) {
		m.ExpectQuery(query).
			WithArgs("GBP/CNY").
			WillReturnRows(sqlmock.NewRows([]string{"id", "pair", "currency", "rate", "source", "status"}))

		records, err := st.Find(ctx, "GBP/CNY")

		assert.Nil(err)
		assert.Nil(m.ExpectationsWereMet())
		assert.Empty(records)
	})

	t.Run("QueryError", func(t *testing.T) {
		m.ExpectQuery(query).WithArgs("EUR/CNY").WillReturnError(errors.New("connection refused"))

		records, err := st.Find(ctx, "EUR/CNY")

		assert.Nil(records)
		assert.Nil(m.ExpectationsWereMet())
		assert.Equal("connection refused", err.Error())
	})
}

func TestMysqlStorage_Update(t *testing.T) {
	t.Parallel()
	db, m, _ := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	defer db.Close()
	assert := require.New(t)
	ctx := context.Background()
	st := storage.NewSQLStorage(ctx, db, mysqlTableName)

	m.ExpectExec("UPDATE currency_rates_test SET currency = ?, rate = ?, source = ?, status = ?, updated_at = ? WHERE id = ?;").
		WithArgs("USD", 0.1408, "auto-api", "normal", sqlmock.AnyArg(), "record-id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.Nil(st.Update(ctx, "record-id", mysqlRecord))
	assert.Nil(m.ExpectationsWereMet())
}

func TestMysqlStorage_UpdateMissing(t *testing.T) {
	t.Parallel()
	db, m, _ := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	defer db.Close()
	assert := require.New(t)
	ctx := context.Background()
	st := storage.NewSQLStorage(ctx, db, mysqlTableName)

	m.ExpectExec("UPDATE currency_rates_test SET currency = ?, rate = ?, source = ?, status = ?, updated_at = ? WHERE id = ?;").
		WithArgs("USD", 0.1408, "auto-api", "normal", sqlmock.AnyArg(), "missing-id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := st.Update(ctx, "missing-id", mysqlRecord)

	assert.ErrorIs(err, storage.ErrRecordNotFound)
	assert.Nil(m.ExpectationsWereMet())
}

func TestMysqlStorage_Create(t *testing.T) {
	t.Parallel()
	db, m, _ := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	defer db.Close()
	assert := require.New(t)
	ctx := context.Background()
	st := storage.NewSQLStorage(ctx, db, mysqlTableName)
	insert := "INSERT INTO currency_rates_test(id, pair, currency, rate, source, status, updated_at) VALUES (?,?,?,?,?,?,?);"

	t.Run("Transaction_Not_Started", func(t *testing.T) {
		m.ExpectBegin().WillReturnError(errors.New("error while starting transaction"))

		_, err := st.Create(ctx, mysqlRecord)

		assert.Error(err)
		assert.Nil(m.ExpectationsWereMet())
		assert.Equal("error while starting transaction", err.Error())
	})

	t.Run("Prepare_SQL_WithError", func(t *testing.T) {
		m.ExpectBegin()
		m.ExpectPrepare(insert).WillReturnError(errors.New("cannot create prepare statement"))
		m.ExpectRollback()

		_, err := st.Create(ctx, mysqlRecord)

		assert.Nil(m.ExpectationsWereMet())
		assert.Error(err)
		assert.Equal("cannot create prepare statement", err.Error())
	})

	t.Run("Inserted", func(t *testing.T) {
		m.ExpectBegin()
		m.ExpectPrepare(insert).
			ExpectExec().
			WithArgs(sqlmock.AnyArg(), "USD/CNY", "USD", 0.1408, "auto-api", "normal", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		m.ExpectCommit()

		record, err := st.Create(ctx, mysqlRecord)

		assert.Nil(err)
		assert.Nil(m.ExpectationsWereMet())
		assert.Equal(mysqlRecord, record.Record)
		_, err = uuid.Parse(record.ID)
		assert.Nil(err)
	})

	t.Run("Exec_WithError", func(t *testing.T) {
		m.ExpectBegin()
		m.ExpectPrepare(insert).
			ExpectExec().
			WillReturnError(errors.New("duplicate entry"))
		m.ExpectRollback()

		_, err := st.Create(ctx, mysqlRecord)

		assert.Nil(m.ExpectationsWereMet())
		assert.Equal("duplicate entry", err.Error())
	})
}

func TestMysqlStorage_MigrateAndDrop(t *testing.T) {
	t.Parallel()
	db, m, _ := sqlmock.New()
	defer db.Close()
	assert := require.New(t)
	st := storage.NewSQLStorage(context.Background(), db, mysqlTableName)

	m.ExpectExec("CREATE TABLE IF NOT EXISTS currency_rates_test").WillReturnResult(sqlmock.NewResult(0, 0))
	m.ExpectExec("DROP TABLE IF EXISTS currency_rates_test").WillReturnResult(sqlmock.NewResult(0, 0))
	m.ExpectClose()

	assert.Nil(st.Migrate())
	assert.Nil(st.Drop())
	assert.Equal("MySQL", st.GetStorageProviderName())
	assert.Nil(st.Close())
	assert.Nil(m.ExpectationsWereMet())
}
