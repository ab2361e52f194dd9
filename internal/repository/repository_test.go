package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicate(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'user1' for key 'uq_users_username'"}
	assert.True(t, isDuplicate(dup))
	assert.True(t, isDuplicate(fmt.Errorf("insert user: %w", dup)))
	assert.False(t, isDuplicate(&mysql.MySQLError{Number: 1452}))
	assert.False(t, isDuplicate(errors.New("Error 1062")))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?,?", placeholders(3))
}

func TestNullableHelpers(t *testing.T) {
	assert.False(t, nullTime(nil).Valid)
	local := time.Date(2025, 6, 10, 20, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	nt := nullTime(&local)
	assert.True(t, nt.Valid)
	assert.Equal(t, time.UTC, nt.Time.Location())

	assert.Nil(t, timePtr(sql.NullTime{}))
	assert.Nil(t, stringPtr(sql.NullString{}))
	s := "notes"
	assert.Equal(t, &s, stringPtr(nullString(&s)))

	score := 7
	assert.Equal(t, int64(7), nullInt(&score).Int64)
}
