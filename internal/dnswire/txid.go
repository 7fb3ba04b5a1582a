package dnswire

import (
	"encoding/binary"
	"fmt"
)

// ReadTransactionID returns the transaction id (bytes [0:2)) of msg.
func ReadTransactionID(msg []byte) (uint16, error) {
	if len(msg) < 2 {
		return 0, fmt.Errorf("%w: message shorter than a transaction id", ErrWire)
	}
	return binary.BigEndian.Uint16(msg[0:2]), nil
}

// WriteTransactionID overwrites bytes [0:2) of msg with id in place. msg
// must be at least 2 bytes; callers are expected to have validated this
// already via ReadTransactionID or ValidateForForwarding.
func WriteTransactionID(msg []byte, id uint16) {
	binary.BigEndian.PutUint16(msg[0:2], id)
}
