package dnswire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	b, err := EncodeName("www.example.com")
	require.NoError(t, err)
	require.Equal(t, []byte{3, 'w', 'w', 'w', 7, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 3, 'c', 'o', 'm', 0}, b)

	off := 0
	name, err := DecodeName(b, &off)
	require.NoError(t, err)
	assert.Equal(t, "www.example.com", name)
	assert.Equal(t, len(b), off)
}

func TestEncodeNameRoot(t *testing.T) {
	b, err := EncodeName("")
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, b)
}

func TestEncodeNameLabelTooLong(t *testing.T) {
	label := make([]byte, 64)
	for i := range label {
		label[i] = 'a'
	}
	_, err := EncodeName(string(label) + ".com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWire)
}

func TestDecodeNameCompressionPointer(t *testing.T) {
	msg := []byte{
		3, 'c', 'o', 'm', 0, // offset 0: "com"
		3, 'w', 'w', 'w', 0xC0, 0x00, // offset 5: "www" + pointer to offset 0
	}
	off := 5
	name, err := DecodeName(msg, &off)
	require.NoError(t, err)
	assert.Equal(t, "www.com", name)
}

func TestDecodeNameCompressionLoop(t *testing.T) {
	msg := []byte{0xC0, 0x00}
	off := 0
	_, err := DecodeName(msg, &off)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWire)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "foo.com", NormalizeName("Foo.COM."))
}

func TestHeaderRoundTrip(t *testing.T) {
	msg := []byte{0x12, 0x34, 0x01, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	off := 0
	h, err := ParseHeader(msg, &off)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), h.ID)
	assert.Equal(t, uint16(1), h.QDCount)
	assert.Equal(t, HeaderSize, off)
}

func TestParseHeaderShort(t *testing.T) {
	_, err := ParseHeader([]byte{1, 2, 3}, new(int))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWire)
}

func buildQuery(id uint16, name string) []byte {
	enc, _ := EncodeName(name)
	buf := make([]byte, HeaderSize)
	buf[0] = byte(id >> 8)
	buf[1] = byte(id)
	buf[4] = 0
	buf[5] = 1 // QDCount = 1
	buf = append(buf, enc...)
	buf = append(buf, 0, 1, 0, 1) // TypeA, ClassIN
	return buf
}

func TestValidateForForwarding(t *testing.T) {
	buf := buildQuery(0xBEEF, "foo.com")
	id, err := ValidateForForwarding(buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), id)
}

func TestValidateForForwardingWrongQDCount(t *testing.T) {
	buf := buildQuery(1, "foo.com")
	buf[5] = 2
	_, err := ValidateForForwarding(buf)
	require.Error(t, err)
}

func TestReadWriteTransactionID(t *testing.T) {
	buf := buildQuery(1, "foo.com")
	id, err := ReadTransactionID(buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), id)

	WriteTransactionID(buf, 42)
	id, err = ReadTransactionID(buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(42), id)
}

func TestExtractFirstQuestion(t *testing.T) {
	buf := buildQuery(1, "foo.EXAMPLE.com")
	q, err := ExtractFirstQuestion(buf)
	require.NoError(t, err)
	assert.Equal(t, "foo.example.com", q.Name)
}

func TestExtractFirstQuestionZeroQuestions(t *testing.T) {
	buf := buildQuery(1, "foo.com")
	buf[5] = 0
	_, err := ExtractFirstQuestion(buf)
	require.Error(t, err)
}

func TestSplitLabels(t *testing.T) {
	assert.Equal(t, []string{"foo", "example", "com"}, SplitLabels("foo.example.com"))
	assert.Nil(t, SplitLabels(""))
}
