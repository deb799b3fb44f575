// Package status holds named runtime counters for a physics world and the
// tools that drive it.
package status

import (
	"log/slog"
	"sync/atomic"
)

// Registry is the central metrics facade.
// Owners cache pointers once; hot loops write directly to the atomics.
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Nums    *MetricMap[AtomicNum]
	Strings *MetricMap[AtomicString]
}

// NewRegistry creates an initialized Registry
func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Nums:    NewMetricMap[AtomicNum](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// TotalCount returns total metrics across all types
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Nums.Count() + r.Strings.Count()
}

// LogValue renders every metric as a flat slog group in key order
func (r *Registry) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, r.TotalCount())
	r.Bools.Range(func(k string, p *atomic.Bool) {
		attrs = append(attrs, slog.Bool(k, p.Load()))
	})
	r.Ints.Range(func(k string, p *atomic.Int64) {
		attrs = append(attrs, slog.Int64(k, p.Load()))
	})
	r.Nums.Range(func(k string, p *AtomicNum) {
		attrs = append(attrs, slog.String(k, p.Load().String()))
	})
	r.Strings.Range(func(k string, p *AtomicString) {
		attrs = append(attrs, slog.String(k, p.Load()))
	})
	return slog.GroupValue(attrs...)
}
