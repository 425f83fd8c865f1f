package dto_test

import (
	"testing"
	"time"

	"taskFlow/internal/handlers/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	got, ok := dto.ParseDate("2026-03-15")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local), got)

	got, ok = dto.ParseDate("2026-03-15T10:30:00Z")
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)))

	for _, bad := range []string{"", "tomorrow", "15.03.2026", "2026-13-01"} {
		_, ok := dto.ParseDate(bad)
		assert.False(t, ok, bad)
	}
}

func TestNormalizeTrims(t *testing.T) {
	title := "  Buy milk  "
	req := dto.UpdateTaskRequest{Title: &title}
	req.Normalize()
	assert.Equal(t, "Buy milk", *req.Title)
	assert.Equal(t, "  Buy milk  ", title)

	create := dto.CreateTaskRequest{Title: " a ", Description: " b "}
	create.Normalize()
	assert.Equal(t, "a", create.Title)
	assert.Equal(t, "b", create.Description)
}
