package diagram

import (
	"strings"

	"github.com/google/uuid"
)

// Id prefixes used for generated identifiers.
const (
	PrefixActivity = "activity"
	PrefixRelation = "relation"
	PrefixNary     = "nary"
)

// NewID returns a fresh identifier of the form "<prefix>_<hex>".
func NewID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
