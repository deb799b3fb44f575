// Package trace records simulation runs as CSV and fingerprints world state
// for cross-host determinism checks.
package trace

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/lixenwraith/sgphysics/event"
	"github.com/lixenwraith/sgphysics/physics"
)

// TransformRow is one object's pose after a step, as raw fixed-point values
type TransformRow struct {
	Step     uint64 `csv:"step"`
	ID       uint64 `csv:"id"`
	X        int64  `csv:"x"`
	Y        int64  `csv:"y"`
	Rotation int64  `csv:"rotation"`
}

// EventRow is one drained event
type EventRow struct {
	Step    uint64 `csv:"step"`
	Type    string `csv:"type"`
	A       uint64 `csv:"a"`
	B       uint64 `csv:"b"`
	NormalX int64  `csv:"normal_x"`
	NormalY int64  `csv:"normal_y"`
	Depth   int64  `csv:"depth"`
}

// Writer appends rows to a transform stream and an event stream. Either
// destination may be nil to skip it.
type Writer struct {
	transforms io.Writer
	events     io.Writer

	transformHeaderWritten bool
	eventHeaderWritten     bool
}

func NewWriter(transforms, events io.Writer) *Writer {
	return &Writer{transforms: transforms, events: events}
}

// Snapshot collects the pose of every live object in ID order
func Snapshot(s *physics.Server) []TransformRow {
	ids := s.ObjectIDs()
	rows := make([]TransformRow, 0, len(ids))
	for _, id := range ids {
		xf, err := s.Transform(id)
		if err != nil {
			continue
		}
		rows = append(rows, TransformRow{
			Step:     s.CurrentStep(),
			ID:       uint64(id),
			X:        xf.Origin.X.Raw(),
			Y:        xf.Origin.Y.Raw(),
			Rotation: xf.Rotation().Raw(),
		})
	}
	return rows
}

// WriteStep records the world's poses after its current step
func (w *Writer) WriteStep(s *physics.Server) error {
	if w.transforms == nil {
		return nil
	}
	rows := Snapshot(s)
	if len(rows) == 0 {
		return nil
	}
	if err := marshal(rows, w.transforms, &w.transformHeaderWritten); err != nil {
		return fmt.Errorf("writing transforms: %w", err)
	}
	return nil
}

// WriteEvents records drained events
func (w *Writer) WriteEvents(recs []event.Record) error {
	if w.events == nil || len(recs) == 0 {
		return nil
	}
	rows := make([]EventRow, len(recs))
	for i, r := range recs {
		rows[i] = EventRow{
			Step:    r.Step,
			Type:    r.Type.String(),
			A:       r.A,
			B:       r.B,
			NormalX: r.Normal.X.Raw(),
			NormalY: r.Normal.Y.Raw(),
			Depth:   r.Depth.Raw(),
		}
	}
	if err := marshal(rows, w.events, &w.eventHeaderWritten); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	return nil
}

func marshal[T any](rows []T, out io.Writer, headerWritten *bool) error {
	if !*headerWritten {
		*headerWritten = true
		return gocsv.Marshal(rows, out)
	}
	return gocsv.MarshalWithoutHeaders(rows, out)
}

// ReadTransforms parses a transform CSV written by Writer
func ReadTransforms(r io.Reader) ([]TransformRow, error) {
	var rows []TransformRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("reading transforms: %w", err)
	}
	return rows, nil
}

// ReadEvents parses an event CSV written by Writer
func ReadEvents(r io.Reader) ([]EventRow, error) {
	var rows []EventRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	return rows, nil
}

// Divergence reports the first row where two transform traces differ.
// It returns -1 when they match.
func Divergence(a, b []TransformRow) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}

// Digest hashes the raw state of every live object. Two hosts running the
// same scene for the same number of steps print the same digest.
func Digest(s *physics.Server) string {
	h := sha256.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	put(s.CurrentStep())
	for _, id := range s.ObjectIDs() {
		info, err := s.Object(id)
		if err != nil {
			continue
		}
		put(uint64(id))
		put(uint64(info.State))
		for _, v := range []int64{
			info.Transform.X.X.Raw(), info.Transform.X.Y.Raw(),
			info.Transform.Y.X.Raw(), info.Transform.Y.Y.Raw(),
			info.Transform.Origin.X.Raw(), info.Transform.Origin.Y.Raw(),
			info.Velocity.X.Raw(), info.Velocity.Y.Raw(),
		} {
			put(uint64(v))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
