package dnswire

import "fmt"

// ValidateForForwarding parses enough of a query buffer to confirm it has a
// well-formed header and exactly one question, and returns the transaction
// id carried in bytes [0:2). This is the "parse enough to read client_id
// and confirm a valid question section" step the upstream client performs
// before remapping the id and sending the query on.
func ValidateForForwarding(buf []byte) (uint16, error) {
	off := 0
	h, err := ParseHeader(buf, &off)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWire, err)
	}
	if h.QDCount != 1 {
		return 0, fmt.Errorf("%w: expected exactly one question, got %d", ErrWire, h.QDCount)
	}
	if _, err := ParseQuestion(buf, &off); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWire, err)
	}
	return h.ID, nil
}
