package models_test

import (
	"testing"
	"time"

	"strangerchat/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chromeLinux = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestNewClientMeta_ParsesAgent(t *testing.T) {
	meta := models.NewClientMeta("203.0.113.7", chromeLinux, "en")

	assert.Equal(t, "203.0.113.7", meta.Addr)
	assert.Equal(t, chromeLinux, meta.UserAgent)
	assert.Equal(t, "en", meta.Lang)
	assert.Contains(t, meta.Browser, "Chrome")
	assert.Contains(t, meta.OS, "Linux")
	assert.False(t, meta.Mobile)
	assert.Equal(t, meta.Browser+" / "+meta.OS, meta.Summary())
}

func TestNewClientMeta_EmptyAgent(t *testing.T) {
	meta := models.NewClientMeta("198.51.100.1", "", "uk")

	assert.Empty(t, meta.Browser)
	assert.Empty(t, meta.OS)
	assert.Empty(t, meta.Summary())
}

func TestClientMeta_SummaryFallsBackToRawAgent(t *testing.T) {
	meta := models.ClientMeta{UserAgent: "curl/8.5.0"}
	assert.Equal(t, "curl/8.5.0", meta.Summary())
}

// TestAuditRecordBeforeCreate_GeneratesUUID verifies that the hook fills in the id and time.
func TestAuditRecordBeforeCreate_GeneratesUUID(t *testing.T) {
	// Arrange
	rec := &models.AuditRecord{ConnectionID: "conn", Action: models.ActionJoin}

	// Act - Call the hook directly (GORM would call this automatically)
	err := rec.BeforeCreate(nil)

	// Assert
	require.NoError(t, err)
	_, parseErr := uuid.Parse(rec.ID)
	assert.NoError(t, parseErr, "ID must be a valid UUID string")
	assert.WithinDuration(t, time.Now(), rec.CreatedAt, time.Second)
}

// TestAuditRecordBeforeCreate_PreservesExisting verifies that the hook doesn't overwrite set fields.
func TestAuditRecordBeforeCreate_PreservesExisting(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := &models.AuditRecord{ID: "fixed", CreatedAt: at}

	require.NoError(t, rec.BeforeCreate(nil))

	assert.Equal(t, "fixed", rec.ID)
	assert.Equal(t, at, rec.CreatedAt)
}
