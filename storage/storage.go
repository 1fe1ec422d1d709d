package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	currency "github.com/malusev998/rate-sync"
)

type (
	Provider   string
	BaseConfig struct {
		Ctx     context.Context
		Migrate bool
	}
	MySQLConfig struct {
		BaseConfig
		ConnectionString string
		TableName        string
	}
	MongoDBConfig struct {
		BaseConfig
		ConnectionString string
		Database         string
		Collection       string
	}

	migrator interface {
		Migrate() error
	}
)

const (
	Notion  Provider = "notion"
	MySQL   Provider = "mysql"
	MongoDB Provider = "mongodb"
)

var (
	ErrStorageNotFound  = errors.New("storage is not found")
	ErrRecordNotFound   = errors.New("record is not found")
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

func ConvertToProviderFromString(str string) (Provider, error) {
	switch strings.ToLower(str) {
	case "notion":
		return Notion, nil
	case "mysql":
		return MySQL, nil
	case "mongodb", "mongo":
		return MongoDB, nil
	}

	return "", fmt.Errorf("value %s is not valid Provider", str)
}

// NewStorage builds the record store for the provider and runs its
// migration when the config asks for one.
func NewStorage(provider Provider, config interface{}) (currency.RecordStore, error) {
	var (
		st  currency.RecordStore
		err error
		mig bool
	)

	switch provider {
	case Notion:
		return NewNotionStorage(config.(NotionConfig)), nil
	case MySQL:
		c := config.(MySQLConfig)
		mig = c.Migrate
		st, err = NewMySQLStorage(c)
	case MongoDB:
		c := config.(MongoDBConfig)
		mig = c.Migrate
		st, err = NewMongoStorage(c)
	default:
		return nil, ErrStorageNotFound
	}

	if err != nil {
		return nil, err
	}

	if m, ok := st.(migrator); ok && mig {
		if err := m.Migrate(); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("migrating %s storage: %w", provider, err)
		}
	}

	return st, nil
}
