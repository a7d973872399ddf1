package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyIsOrderIndependent(t *testing.T) {
	g := NewGenerator()
	a := g.GenerateKey(ScopeNotification, map[string]interface{}{"type": "payment_failed", "invoice": "in_1"})
	b := g.GenerateKey(ScopeNotification, map[string]interface{}{"invoice": "in_1", "type": "payment_failed"})
	assert.Equal(t, a, b)
	assert.Len(t, a, len("ntf-")+24)
}

func TestGenerateKeyDiffersByParams(t *testing.T) {
	g := NewGenerator()
	a := g.GenerateKey(ScopeNotification, map[string]interface{}{"invoice": "in_1"})
	b := g.GenerateKey(ScopeNotification, map[string]interface{}{"invoice": "in_2"})
	assert.NotEqual(t, a, b)
}
