// Package romid computes a stable content identity for a ROM image,
// used by the CLI to print a short fingerprint on load. The logger's
// WarnOnce dedupe does not use it.
package romid

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ID is a ROM's content hash, stable across runs for the same bytes.
type ID uint64

// Of hashes the full ROM image.
func Of(rom []byte) ID {
	return ID(xxhash.Sum64(rom))
}

// String renders the full 16-digit hex hash, suitable for log lines and
// CLI output.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Short returns the first 8 hex characters, enough to distinguish ROMs
// in casual output without the full 16-digit hash.
func (id ID) Short() string {
	return id.String()[:8]
}
