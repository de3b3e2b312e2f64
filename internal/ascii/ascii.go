// Package ascii validates that DB string literals are representable in
// 7-bit ASCII (spec.md §6: "Strings in DB: ASCII only") and provides a
// best-effort Latin-1-to-ASCII fold, using golang.org/x/text the way a prior implementation's
// linker/go.mod pulls it in directly.
package ascii

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Validate reports an error naming the first non-ASCII byte in s, or nil
// if every byte is in [0x00, 0x7F].
func Validate(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return fmt.Errorf("non-ascii byte %#02x at offset %d", s[i], i)
		}
	}
	return nil
}

// Fold best-effort transliterates s from Latin-1 to ASCII: bytes already in
// range pass through, others are decoded as Latin-1 and replaced with '?'
// if they have no ASCII equivalent. The simulator does not call it: screen
// bytes are stored as written.
func Fold(s string) string {
	var b strings.Builder
	reader := transform.NewReader(strings.NewReader(s), charmap.ISO8859_1.NewDecoder())
	buf := make([]byte, len(s))
	n, _ := reader.Read(buf)
	for _, r := range string(buf[:n]) {
		if r <= 0x7F {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}
