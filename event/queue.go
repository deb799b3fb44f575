package event

// defaultQueueSize is the initial ring capacity, a power of two
const defaultQueueSize = 64

// Queue is a FIFO ring buffer of records.
// Not safe for concurrent use; the owning world pushes and drains on one
// goroutine. The ring doubles when full, so no record is ever dropped.
type Queue struct {
	records []Record
	head    uint64 // Read index
	tail    uint64 // Write index
}

func NewQueue() *Queue {
	return &Queue{records: make([]Record, defaultQueueSize)}
}

// Push appends a record. O(1) amortized
func (q *Queue) Push(r Record) {
	if q.records == nil {
		q.records = make([]Record, defaultQueueSize)
	}
	if q.tail-q.head == uint64(len(q.records)) {
		q.grow()
	}
	q.records[q.tail&q.mask()] = r
	q.tail++
}

// Consume returns all pending records in FIFO order and empties the queue.
// Returns nil when nothing is pending.
func (q *Queue) Consume() []Record {
	n := q.tail - q.head
	if n == 0 {
		return nil
	}
	result := make([]Record, 0, n)
	for i := q.head; i < q.tail; i++ {
		result = append(result, q.records[i&q.mask()])
	}
	q.head, q.tail = 0, 0
	return result
}

// Len returns the pending record count
func (q *Queue) Len() int {
	return int(q.tail - q.head)
}

func (q *Queue) mask() uint64 {
	return uint64(len(q.records)) - 1
}

// grow doubles the ring, compacting pending records to the front
func (q *Queue) grow() {
	next := make([]Record, len(q.records)*2)
	n := q.tail - q.head
	for i := uint64(0); i < n; i++ {
		next[i] = q.records[(q.head+i)&q.mask()]
	}
	q.records = next
	q.head, q.tail = 0, n
}
