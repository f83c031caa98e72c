package badger

import (
	"fmt"

	"github.com/poiesic/retrievit/core"
)

// Key prefixes for different data types
const (
	documentPrefix = "idxdoc"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}
