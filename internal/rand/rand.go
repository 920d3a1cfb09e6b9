// Package rand mints short ids used to correlate log lines of a single
// store request. Not security sensitive.
package rand

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

const (
	bytesInUint64 = 8
	charset       = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var charsetLen = len(charset)

var defaultRandBytes = newRandBytes()

func newRandBytes() *randBytes {
	seed := make([]byte, bytesInUint64)
	if _, err := cryptorand.Read(seed); err != nil {
		panic("unreachable")
	}
	return &randBytes{
		//nolint:gosec // no security required
		rng: rand.New(rand.NewSource(
			int64(binary.LittleEndian.Uint64(seed)),
		)),
	}
}

type randBytes struct {
	mut sync.Mutex
	rng *rand.Rand
}

func (rb *randBytes) read(buf []byte) {
	rb.mut.Lock()
	defer rb.mut.Unlock()
	var chunk [bytesInUint64]byte
	for i := 0; i < len(buf); i += bytesInUint64 {
		binary.LittleEndian.PutUint64(chunk[:], rb.rng.Uint64())
		copy(buf[i:], chunk[:])
	}
}

// NewAttemptID returns a short alphanumeric id. The modulo bias over the
// charset is acceptable for log correlation.
func NewAttemptID(length int) string {
	buf := make([]byte, length)
	defaultRandBytes.read(buf)

	for i, b := range buf {
		buf[i] = charset[int(b)%charsetLen]
	}
	return string(buf)
}
