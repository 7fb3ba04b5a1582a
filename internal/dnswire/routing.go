package dnswire

import (
	"fmt"
	"strings"
)

// ExtractFirstQuestion parses a query buffer far enough to return its
// single question. It fails if the header or question cannot be decoded,
// or if the question count is not exactly one — mirroring the engine's
// "parsing fails or question count != 1 => no forwarding" rule.
func ExtractFirstQuestion(buf []byte) (Question, error) {
	off := 0
	h, err := ParseHeader(buf, &off)
	if err != nil {
		return Question{}, fmt.Errorf("%w: %v", ErrWire, err)
	}
	if h.QDCount != 1 {
		return Question{}, fmt.Errorf("%w: expected exactly one question, got %d", ErrWire, h.QDCount)
	}
	return ParseQuestion(buf, &off)
}

// SplitLabels splits a normalized domain name into its labels, ordered
// left to right with the root omitted (e.g. "foo.example.com" becomes
// ["foo", "example", "com"]). The empty name (root) yields no labels.
func SplitLabels(name string) []string {
	if name == "" {
		return nil
	}
	return strings.Split(name, ".")
}
