package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sniperbot/internal/domain"
)

func TestCooldownAllowsBeforeFirstSignal(t *testing.T) {
	tr := NewCooldownTracker(4)
	assert.True(t, tr.Allow(domain.Buy, 1))
	assert.True(t, tr.Allow(domain.Sell, 1))
}

func TestCooldownSuppressesSameDirection(t *testing.T) {
	tr := NewCooldownTracker(4)
	tr.Record(domain.Buy, 10)

	assert.False(t, tr.Allow(domain.Buy, 11))
	assert.False(t, tr.Allow(domain.Buy, 13))
	assert.True(t, tr.Allow(domain.Buy, 14), "cooldown elapses after four bars")
}

func TestCooldownOppositeDirectionBypasses(t *testing.T) {
	tr := NewCooldownTracker(4)
	tr.Record(domain.Buy, 10)

	assert.True(t, tr.Allow(domain.Sell, 11))
}

func TestCooldownRecordRestartsClock(t *testing.T) {
	tr := NewCooldownTracker(4)
	tr.Record(domain.Buy, 10)
	tr.Record(domain.Sell, 12)

	assert.True(t, tr.Allow(domain.Buy, 13), "direction changed, old clock dropped")
	assert.False(t, tr.Allow(domain.Sell, 13))
}

func TestCooldownDisabled(t *testing.T) {
	tr := NewCooldownTracker(0)
	tr.Record(domain.Buy, 10)
	assert.True(t, tr.Allow(domain.Buy, 10))
}
