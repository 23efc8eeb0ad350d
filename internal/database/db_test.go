package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exitboard/exitboard/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.Config{
		DBUser: "exitboard",
		DBPass: "hunter2",
		DBHost: "db.internal",
		DBPort: "3306",
		DBName: "exitboard",
	}
	assert.Equal(t,
		"exitboard:hunter2@tcp(db.internal:3306)/exitboard?charset=utf8mb4&parseTime=true&loc=UTC",
		dsn(cfg))
}

func TestDSN_NoPassword(t *testing.T) {
	cfg := config.Config{
		DBUser: "exitboard",
		DBHost: "localhost",
		DBPort: "3307",
		DBName: "exitboard_dev",
	}
	assert.Equal(t,
		"exitboard@tcp(localhost:3307)/exitboard_dev?charset=utf8mb4&parseTime=true&loc=UTC",
		dsn(cfg))
}
