package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/class-fee-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "fees",
		Password: `p a's`,
		Name:     "class_fee",
	})

	assert.Equal(t, `host='db.internal' port=5432 user='fees' password='p a\'s' dbname='class_fee' sslmode=disable application_name=class-fee-api connect_timeout=5`, dsn)
}

func TestDSNKeepsSSLMode(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "localhost", Port: 5433, SSLMode: "require"})

	assert.Contains(t, dsn, "sslmode=require")
	assert.Contains(t, dsn, "port=5433")
}
