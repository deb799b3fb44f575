package status

import (
	"sync/atomic"
	"unicode/utf8"
)

// MaxLabelBytes caps stored labels; longer values are cut on a rune boundary
const MaxLabelBytes = 32

// AtomicString is a short label readable from any goroutine.
// The zero value holds "".
type AtomicString struct {
	v atomic.Value // string
}

func (s *AtomicString) Store(val string) {
	if len(val) > MaxLabelBytes {
		cut := MaxLabelBytes
		for cut > 0 && !utf8.RuneStart(val[cut]) {
			cut--
		}
		val = val[:cut]
	}
	s.v.Store(val)
}

func (s *AtomicString) Load() string {
	val, _ := s.v.Load().(string)
	return val
}
