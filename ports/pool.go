package ports

import (
	"fmt"
	"sort"
	"sync"
	"time"

	gwerrors "osmo-gateway/errors"
	"osmo-gateway/status"
)

type Lease struct {
	Port     int
	Holder   string
	LeasedAt time.Time
}

// Pool 是媒体会话使用的本地 UDP 端口池，按轮转顺序分配 [base, base+N) 内的端口。
type Pool struct {
	base  int
	ports []int

	mu      sync.Mutex
	lastIdx int
	state   map[int]status.PortStatus
	lease   map[int]Lease
}

// NewPool 创建一个端口池。
// 参数：
// - start: 起始端口（含）
// - end: 结束端口（含）
// 返回：
// - *Pool: 端口池实例
// - error: 端口范围非法时返回 CodeConfig
func NewPool(start, end int) (*Pool, error) {
	if start <= 0 || end <= 0 || end < start || end > 65535 {
		return nil, gwerrors.Wrap(gwerrors.CodeConfig, "invalid port range", fmt.Errorf("%d-%d", start, end))
	}
	p := &Pool{
		base:    start,
		lastIdx: -1,
		state:   make(map[int]status.PortStatus),
		lease:   make(map[int]Lease),
	}
	for i := start; i <= end; i++ {
		p.ports = append(p.ports, i)
		p.state[i] = status.PortIdle
	}
	return p, nil
}

// Reserve 从上次分配位置的下一个开始轮转查找空闲端口并租给 holder。
// 参数：
// - holder: 租用者标识（媒体会话 id）
// 返回：
// - int: 端口号
// - bool: 端口耗尽时为 false
func (p *Pool) Reserve(holder string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.ports)
	for i := 1; i <= n; i++ {
		idx := (p.lastIdx + i) % n
		port := p.ports[idx]
		if p.state[port] != status.PortIdle {
			continue
		}
		p.state[port] = status.PortLeased
		p.lease[port] = Lease{Port: port, Holder: holder, LeasedAt: time.Now()}
		p.lastIdx = idx
		return port, true
	}
	return 0, false
}

// Release 归还端口；holder 与当前租用者不一致（或端口未知/空闲）时不做任何事。
// 返回：
// - bool: 是否实际释放
func (p *Pool) Release(port int, holder string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state[port] != status.PortLeased {
		return false
	}
	if p.lease[port].Holder != holder {
		return false
	}
	delete(p.lease, port)
	p.state[port] = status.PortIdle
	return true
}

// Holder 查询端口当前的租用者。
func (p *Pool) Holder(port int) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.lease[port]
	return l.Holder, ok
}

// Snapshot 返回端口池的快照统计与已租出端口列表。
func (p *Pool) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{Base: p.base, Total: len(p.ports)}
	for _, port := range p.ports {
		switch p.state[port] {
		case status.PortIdle:
			s.Idle++
		case status.PortLeased:
			s.Leased++
			s.LeasedPorts = append(s.LeasedPorts, port)
		}
	}
	sort.Ints(s.LeasedPorts)
	return s
}

type Snapshot struct {
	Base   int `json:"base"`
	Total  int `json:"total"`
	Idle   int `json:"idle"`
	Leased int `json:"leased"`

	LeasedPorts []int `json:"leased_ports,omitempty"`
}
