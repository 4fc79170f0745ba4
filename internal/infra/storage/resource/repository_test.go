package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReturningColumns(t *testing.T) {
	assert.Equal(t,
		"id, kind, name, capacity, committed, version, retired_at, created_at, updated_at",
		returningColumns(),
	)
}
