package status

import (
	"sync/atomic"

	"github.com/lixenwraith/sgphysics/fixed"
)

// AtomicNum provides atomic fixed-point storage through the raw value
// Zero value is ready to use (represents 0)
type AtomicNum struct {
	raw atomic.Int64
}

func (n *AtomicNum) Store(val fixed.Num) {
	n.raw.Store(val.Raw())
}

func (n *AtomicNum) Load() fixed.Num {
	return fixed.FromRaw(n.raw.Load())
}

// Add atomically adds delta with saturation and returns the new value
func (n *AtomicNum) Add(delta fixed.Num) fixed.Num {
	for {
		old := n.raw.Load()
		next := fixed.FromRaw(old).Add(delta)
		if n.raw.CompareAndSwap(old, next.Raw()) {
			return next
		}
	}
}
