package artifacts

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
)

// prefixLength is the number of hex characters kept from the digest.
const prefixLength = 16

// Fingerprint derives the artifact prefix from the training configuration:
// the characteristics left out of learning and the tools excluded from the
// results. Order within each list does not matter.
func Fingerprint(forget, exclude []string) string {
	h := sha256.New()
	writeSorted(h, forget)
	// Separate the lists so moving a name from one to the other changes the key.
	h.Write([]byte{0x01}) //nolint:errcheck
	writeSorted(h, exclude)
	return hex.EncodeToString(h.Sum(nil))[:prefixLength]
}

// DefaultPrefix is the prefix of artifacts trained with nothing forgotten
// and nothing excluded.
func DefaultPrefix() string {
	return Fingerprint(nil, nil)
}

func writeSorted(w io.Writer, items []string) {
	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.Strings(sorted)
	for _, s := range sorted {
		// Null delimiter prevents hash collisions between adjacent names.
		w.Write([]byte(s + "\x00")) //nolint:errcheck
	}
}
