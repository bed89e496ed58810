package dispatch

import "container/heap"

// queueItem is a queued task plus its admission sequence number.
type queueItem struct {
	task Task
	seq  uint64
}

// taskQueue orders tasks by descending priority, FIFO within a priority
// level. Implements heap.Interface; callers synchronize externally.
type taskQueue []queueItem

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].task.Priority != q[j].task.Priority {
		return q[i].task.Priority > q[j].task.Priority
	}
	return q[i].seq < q[j].seq
}

func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue) Push(x any) { *q = append(*q, x.(queueItem)) }

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// push enqueues a task with its sequence number.
func (q *taskQueue) push(task Task, seq uint64) {
	heap.Push(q, queueItem{task: task, seq: seq})
}

// pop dequeues the highest-priority task, false when empty.
func (q *taskQueue) pop() (Task, bool) {
	if q.Len() == 0 {
		return Task{}, false
	}
	item := heap.Pop(q).(queueItem)
	return item.task, true
}
