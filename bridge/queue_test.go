package bridge

import (
	"slices"
	"testing"
	"time"
)

func collect(q *Queue) []string {
	var out []string
	for b := range q.Seq() {
		out = append(out, string(b))
	}
	return out
}

// TestQueueFinishFlushes 验证生产者结束后消费者仍按顺序取完剩余数据。
func TestQueueFinishFlushes(t *testing.T) {
	q := NewQueue(4, Block)
	for _, s := range []string{"a", "b", "c"} {
		if _, ok := q.Push([]byte(s)); !ok {
			t.Fatal("push")
		}
	}
	q.Finish()
	if got := collect(q); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("got=%v", got)
	}
}

// TestQueueDropOldest 验证 DropOldest 策略丢弃最旧的数据块。
func TestQueueDropOldest(t *testing.T) {
	q := NewQueue(2, DropOldest)
	q.Push([]byte("a"))
	q.Push([]byte("b"))
	dropped, ok := q.Push([]byte("c"))
	if !dropped || !ok {
		t.Fatalf("dropped=%v ok=%v", dropped, ok)
	}
	q.Finish()
	if got := collect(q); !slices.Equal(got, []string{"b", "c"}) {
		t.Fatalf("got=%v", got)
	}
}

// TestQueueCloseDiscards 验证本地关闭后消费者立即结束且不再产出。
func TestQueueCloseDiscards(t *testing.T) {
	q := NewQueue(4, Block)
	q.Push([]byte("a"))
	q.Close()
	q.Close()
	if got := collect(q); len(got) != 0 {
		t.Fatalf("got=%v", got)
	}
	if _, ok := q.Push([]byte("b")); ok {
		t.Fatalf("push after close should fail")
	}
}

// TestQueueBlockReleasedByClose 验证 Block 策略下被阻塞的生产者在关闭时返回。
func TestQueueBlockReleasedByClose(t *testing.T) {
	q := NewQueue(1, Block)
	q.Push([]byte("a"))
	res := make(chan bool, 1)
	go func() {
		_, ok := q.Push([]byte("b"))
		res <- ok
	}()
	select {
	case <-res:
		t.Fatal("push should block while full")
	case <-time.After(50 * time.Millisecond):
	}
	q.Close()
	select {
	case ok := <-res:
		if ok {
			t.Fatal("expected ok=false")
		}
	case <-time.After(time.Second):
		t.Fatal("producer still blocked")
	}
}

// TestQueueSeqBlocksUntilData 验证队列为空时消费者阻塞，数据到达后继续。
func TestQueueSeqBlocksUntilData(t *testing.T) {
	q := NewQueue(4, Block)
	got := make(chan string, 4)
	go func() {
		for b := range q.Seq() {
			got <- string(b)
		}
		close(got)
	}()
	time.Sleep(20 * time.Millisecond)
	q.Push([]byte("x"))
	select {
	case s := <-got:
		if s != "x" {
			t.Fatalf("s=%q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
	q.Finish()
	if _, open := <-got; open {
		t.Fatal("expected end of sequence")
	}
	if q.Cap() != 4 || q.Len() != 0 {
		t.Fatalf("cap=%d len=%d", q.Cap(), q.Len())
	}
}
