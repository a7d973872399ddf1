package types

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex rate_01J9Q4ZC3M8T2N6V0XK4D5B7YH
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

const (
	UUID_PREFIX_PROFILE      = "prof"
	UUID_PREFIX_RATE         = "rate"
	UUID_PREFIX_SUBSCRIPTION = "subs"
	UUID_PREFIX_IDENTITY     = "idv"
	UUID_PREFIX_NOTIFICATION = "ntf"
	UUID_PREFIX_SYSTEM_EVENT = "sevt"
)
