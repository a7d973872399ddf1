package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Scope namespaces idempotency keys
type Scope string

const (
	ScopeNotification Scope = "ntf"
)

// Generator derives deterministic keys so retried work collapses onto one row
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateKey hashes the scope and the sorted params into a short stable key
func (g *Generator) GenerateKey(scope Scope, params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(":%s=%v", k, params[k]))
	}

	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s-%s", scope, hex.EncodeToString(hash[:12]))
}
