package job

// CompletionQueue is the ordered, deduplicated set of target ids whose local
// end time has passed but which the server has not yet confirmed complete.
// Drained by the scheduler each tick; entries are re-inserted on transient
// failure.
type CompletionQueue struct {
	order   []string
	members map[string]struct{}
}

// NewCompletionQueue creates an empty queue
func NewCompletionQueue() *CompletionQueue {
	return &CompletionQueue{members: make(map[string]struct{})}
}

// Enqueue adds a target id; re-adding an already queued id is a no-op
func (q *CompletionQueue) Enqueue(targetID string) {
	if _, ok := q.members[targetID]; ok {
		return
	}
	q.members[targetID] = struct{}{}
	q.order = append(q.order, targetID)
}

// Drain removes and returns all queued ids in insertion order
func (q *CompletionQueue) Drain() []string {
	drained := q.order
	q.order = nil
	q.members = make(map[string]struct{})
	return drained
}

// Contains reports whether a target id is queued
func (q *CompletionQueue) Contains(targetID string) bool {
	_, ok := q.members[targetID]
	return ok
}

// Len returns the number of queued ids
func (q *CompletionQueue) Len() int {
	return len(q.order)
}
