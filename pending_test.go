package scorecore

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPendingContext_PutThenTakeRemoves(t *testing.T) {
	p := NewPendingContext(PendingContextConfig{MaxEntries: 10, TTL: time.Minute})
	id := uuid.New()
	x := []float64{1, 2, 3}

	p.Put(id, ActionWarn, x, "example.com")

	arm, got, ok := p.Take(id)
	assert.True(t, ok)
	assert.Equal(t, ActionWarn, arm)
	assert.Equal(t, x, got)

	_, _, ok = p.Take(id)
	assert.False(t, ok, "Take removes the entry, so a second Take for the same decision must miss")
}

func TestPendingContext_TakeUnknownMisses(t *testing.T) {
	p := NewPendingContext(PendingContextConfig{MaxEntries: 10, TTL: time.Minute})
	_, _, ok := p.Take(uuid.New())
	assert.False(t, ok)
}
