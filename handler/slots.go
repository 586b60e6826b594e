package handler

import (
	"context"

	gwerrors "osmo-gateway/errors"
)

// DialSlots 限制全局同时进行的后端拨号数量（gateway.worker_pool_size）。
type DialSlots struct {
	ch chan struct{}
}

// NewDialSlots 创建容量为 n 的拨号信号量（n<=0 按 1 处理）。
func NewDialSlots(n int) *DialSlots {
	return &DialSlots{ch: make(chan struct{}, max(n, 1))}
}

// Do 占用一个拨号槽执行 fn；等待期间 ctx 取消时返回 CodeUnavailable。
// nil 的 DialSlots 不做限制。
func (d *DialSlots) Do(ctx context.Context, fn func(context.Context) error) error {
	if d == nil {
		return fn(ctx)
	}
	select {
	case d.ch <- struct{}{}:
	case <-ctx.Done():
		return gwerrors.Wrap(gwerrors.CodeUnavailable, "wait dial slot", ctx.Err())
	}
	defer func() { <-d.ch }()
	return fn(ctx)
}

// InUse 返回正在占用的拨号槽数量。
func (d *DialSlots) InUse() int {
	if d == nil {
		return 0
	}
	return len(d.ch)
}
