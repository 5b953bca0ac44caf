package mqtt

// queuedMsg is a serialized message held for replay after reconnection.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// offlineQueue is a capacity-bounded FIFO for messages that could not be
// delivered. When full, the oldest message is dropped so the replay after a
// long outage carries the most recent history. Not safe for concurrent use;
// the caller synchronizes.
type offlineQueue struct {
	msgs     []queuedMsg
	capacity int
	dropped  int
}

func newOfflineQueue(capacity int) *offlineQueue {
	return &offlineQueue{capacity: capacity}
}

func (q *offlineQueue) enqueue(msg queuedMsg) {
	if len(q.msgs) == q.capacity {
		copy(q.msgs, q.msgs[1:])
		q.msgs[len(q.msgs)-1] = msg
		q.dropped++
		return
	}
	q.msgs = append(q.msgs, msg)
}

// drain returns the queued messages in arrival order along with the number
// dropped since the last drain, and empties the queue.
func (q *offlineQueue) drain() (pending []queuedMsg, dropped int) {
	pending, dropped = q.msgs, q.dropped
	q.msgs = nil
	q.dropped = 0
	return pending, dropped
}

func (q *offlineQueue) size() int {
	return len(q.msgs)
}
