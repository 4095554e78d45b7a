package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnect(t *testing.T) {
	t.Run("invalid connection fails gracefully", func(t *testing.T) {
		cfg := Config{
			Host:           "localhost",
			Port:           9999, // nothing listens here
			User:           "root",
			Password:       "wrongpassword",
			Name:           "dealsync",
			TimeoutSeconds: 1,
		}

		db, err := Connect(cfg)
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}
