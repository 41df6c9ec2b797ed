package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
)

// PatchRef identifies one placeholder inside a PatchBuffer. The text renderers
// use PatchRef values as their link-source Locations: pass one writes a
// placeholder token where the reference text belongs, pass two substitutes the
// final link or plain text.
type PatchRef struct {
	Artifact string
	Seq      int
}

var placeholderPattern = regexp.MustCompile("\x00(\\d+)\x00")

// PatchBuffer is an append-only text buffer with deferred substitution slots.
// Placeholder tokens never contain newlines, so line counts are stable between
// pass one and the patched output (the paginated renderer relies on this).
type PatchBuffer struct {
	name string
	buf  bytes.Buffer
	seq  int
	subs map[int]string
}

// NewPatchBuffer creates a buffer for the named artifact.
func NewPatchBuffer(name string) *PatchBuffer {
	return &PatchBuffer{name: name, subs: make(map[int]string)}
}

// Name returns the artifact name this buffer renders.
func (b *PatchBuffer) Name() string { return b.name }

// WriteString appends literal text.
func (b *PatchBuffer) WriteString(s string) { b.buf.WriteString(s) }

// Writef appends formatted literal text.
func (b *PatchBuffer) Writef(format string, args ...any) {
	fmt.Fprintf(&b.buf, format, args...)
}

// Placeholder reserves a substitution slot at the current position.
func (b *PatchBuffer) Placeholder() PatchRef {
	n := b.seq
	b.seq++
	fmt.Fprintf(&b.buf, "\x00%d\x00", n)
	return PatchRef{Artifact: b.name, Seq: n}
}

// Set provides the final text for a placeholder.
func (b *PatchBuffer) Set(ref PatchRef, replacement string) {
	b.subs[ref.Seq] = replacement
}

// Bytes applies all substitutions and returns the finished artifact content.
// Placeholders that never received a substitution collapse to nothing.
func (b *PatchBuffer) Bytes() []byte {
	return placeholderPattern.ReplaceAllFunc(b.buf.Bytes(), func(tok []byte) []byte {
		n, err := strconv.Atoi(string(tok[1 : len(tok)-1]))
		if err != nil {
			return nil
		}
		return []byte(b.subs[n])
	})
}
