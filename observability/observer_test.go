package observability

import "testing"

type countingObserver struct {
	noopObserver
	opened, closed int
}

func (c *countingObserver) ConnOpened(string) { c.opened++ }
func (c *countingObserver) ConnClosed(string) { c.closed++ }

// TestConnTrackerCountsAndForwards 验证在线计数按路由累加且事件继续转发给下游。
func TestConnTrackerCountsAndForwards(t *testing.T) {
	next := &countingObserver{}
	tr := NewConnTracker(next)
	tr.ConnOpened("media")
	tr.ConnOpened("media")
	tr.ConnOpened("abis_oml")
	tr.ConnOpened("unknown")
	tr.ConnClosed("media")

	a := tr.Active()
	if a["media"] != 1 || a["abis_oml"] != 1 || a["other"] != 1 || a["control"] != 0 {
		t.Fatalf("active=%v", a)
	}
	if next.opened != 4 || next.closed != 1 {
		t.Fatalf("forwarded opened=%d closed=%d", next.opened, next.closed)
	}
	tr.BtsLocked(3)
}

// TestOrNoop 验证 nil Observer 被替换为 Noop。
func TestOrNoop(t *testing.T) {
	if OrNoop(nil) != Noop {
		t.Fatalf("expected Noop")
	}
	c := &countingObserver{}
	if OrNoop(c) != Observer(c) {
		t.Fatalf("expected passthrough")
	}
}
