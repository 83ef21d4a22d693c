package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

func TestCircuitBreaker_OpensAtFailureThreshold(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cb := NewCircuitBreaker(3, 30*time.Second, clock)

	// Act
	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.State())
	cb.RecordFailure()

	// Assert
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cb := NewCircuitBreaker(3, 30*time.Second, clock)

	// Act
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	// Assert: two failures after the reset are below the threshold
	assert.Equal(t, CircuitClosed, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_HalfOpenProbeAfterTimeout(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cb := NewCircuitBreaker(1, 30*time.Second, clock)
	cb.RecordFailure()
	assert.False(t, cb.Allow())

	// Act
	clock.Advance(31 * time.Second)

	// Assert: the expired open circuit admits one probe
	assert.True(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.State())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cb := NewCircuitBreaker(5, 30*time.Second, clock)
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordFailure()
	clock.Advance(31 * time.Second)
	assert.True(t, cb.Allow())

	// Act: the probe fails
	cb.RecordFailure()

	// Assert
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_SuccessfulProbeCloses(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cb := NewCircuitBreaker(1, 30*time.Second, clock)
	cb.RecordFailure()
	clock.Advance(31 * time.Second)
	assert.True(t, cb.Allow())

	// Act
	cb.RecordSuccess()

	// Assert
	assert.Equal(t, CircuitClosed, cb.State())
}
