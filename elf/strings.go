package elf

import (
	"bytes"
	"iter"
)

// SectionStrings splits the section's content into null-terminated strings.
// The returned sequence is lazy and may be iterated multiple times.  A
// trailing unterminated fragment is yielded as the final string.
func (file *File) SectionStrings(idx int) (iter.Seq[string], error) {
	content, err := file.SectionContent(idx)
	if err != nil {
		return nil, err
	}

	return splitStrings(content), nil
}

func splitStrings(content []byte) iter.Seq[string] {
	return func(yield func(string) bool) {
		remaining := content
		for len(remaining) > 0 {
			end := bytes.IndexByte(remaining, 0)
			if end == -1 {
				yield(string(remaining))
				return
			}

			if !yield(string(remaining[:end])) {
				return
			}

			remaining = remaining[end+1:]
		}
	}
}

// cString returns the bytes up to (excluding) the first zero byte, or the
// entire chunk if it is not terminated.
func cString(chunk []byte) string {
	end := bytes.IndexByte(chunk, 0)
	if end == -1 {
		return string(chunk)
	}

	return string(chunk[:end])
}
