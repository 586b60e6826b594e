package bridge

import (
	"iter"
	"sync"
)

// OverflowPolicy 决定队列写满时生产者的行为。
type OverflowPolicy int

const (
	// Block 阻塞生产者（TCP 读循环），形成背压，不丢数据。
	Block OverflowPolicy = iota
	// DropOldest 丢弃最旧的一块数据后写入（UDP 媒体）。
	DropOldest
)

func (p OverflowPolicy) String() string {
	if p == DropOldest {
		return "drop_oldest"
	}
	return "block"
}

// Queue 是后端读循环与 Receive 消费者之间的有界 FIFO。
//
// Close 表示本地断开：消费者立即结束，剩余数据丢弃。
// Finish 表示生产者结束（对端关闭）：消费者取完剩余数据后结束。
type Queue struct {
	ch     chan []byte
	policy OverflowPolicy

	done      chan struct{}
	eof       chan struct{}
	closeOnce sync.Once
	eofOnce   sync.Once
}

// NewQueue 创建容量为 capacity 的队列（capacity<=0 时按 1 处理）。
func NewQueue(capacity int, policy OverflowPolicy) *Queue {
	return &Queue{
		ch:     make(chan []byte, max(capacity, 1)),
		policy: policy,
		done:   make(chan struct{}),
		eof:    make(chan struct{}),
	}
}

// Push 写入一块数据。
// 返回：
// - dropped: DropOldest 策略下是否丢弃了旧数据
// - ok: 队列已关闭时为 false
func (q *Queue) Push(b []byte) (dropped bool, ok bool) {
	if q.policy == Block {
		select {
		case q.ch <- b:
			return false, true
		case <-q.done:
			return false, false
		}
	}
	for {
		select {
		case <-q.done:
			return dropped, false
		case q.ch <- b:
			return dropped, true
		default:
		}
		select {
		case <-q.ch:
			dropped = true
		default:
		}
	}
}

// Len 返回当前排队的数据块数量。
func (q *Queue) Len() int { return len(q.ch) }

// Cap 返回队列容量。
func (q *Queue) Cap() int { return cap(q.ch) }

// Close 本地关闭，幂等。
func (q *Queue) Close() { q.closeOnce.Do(func() { close(q.done) }) }

// Finish 标记生产者结束，幂等。
func (q *Queue) Finish() { q.eofOnce.Do(func() { close(q.eof) }) }

// Done 在 Close 后返回已关闭的 channel。
func (q *Queue) Done() <-chan struct{} { return q.done }

// Seq 按到达顺序产出数据块；队列为空且未结束时阻塞。
func (q *Queue) Seq() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for {
			select {
			case <-q.done:
				return
			default:
			}
			select {
			case <-q.done:
				return
			case b := <-q.ch:
				if !yield(b) {
					return
				}
			case <-q.eof:
				q.drain(yield)
				return
			}
		}
	}
}

func (q *Queue) drain(yield func([]byte) bool) {
	for {
		select {
		case <-q.done:
			return
		case b := <-q.ch:
			if !yield(b) {
				return
			}
		default:
			return
		}
	}
}
