package bts

import (
	"sync"
)

// OwnerID 是持有锁的连接标识（每条控制连接一个 UUID），空串表示无人持有。
type OwnerID string

// NoOwner 表示槽位未被任何连接持有。
const NoOwner OwnerID = ""

// Lock/Unlock 结果码；成功时返回槽位下标（>=0）。
const (
	CodeNotFound   = -1
	CodeWrongState = -2
	CodeNotOwner   = -3
)

type SlotConfig struct {
	Band         string `json:"band" yaml:"band"`
	IPAccess     string `json:"ip.access" yaml:"ip.access"`
	ARFCN        int    `json:"arfcn" yaml:"arfcn"`
	CellIdentity int    `json:"cell_identity" yaml:"cell_identity"`
	OsmuxPort    int    `json:"osmux_port" yaml:"osmux_port"`
}

type slot struct {
	cfg    SlotConfig
	locked bool
	owner  OwnerID
}

// Entry 是 List 返回的只读快照项。
type Entry struct {
	Index  int
	Config SlotConfig
	Locked bool
}

// Pool 是启动时加载的 BTS 槽位表，lock/unlock/release 在同一把互斥锁下完成。
type Pool struct {
	mu    sync.Mutex
	slots []slot
}

// NewPool 按给定顺序创建槽位，下标从 0 开始且此后不变。
func NewPool(cfgs []SlotConfig) *Pool {
	p := &Pool{slots: make([]slot, len(cfgs))}
	for i, c := range cfgs {
		p.slots[i] = slot{cfg: c}
	}
	return p
}

// Len 返回槽位数量。
func (p *Pool) Len() int { return len(p.slots) }

// List 返回全部槽位的快照（配置、下标、是否加锁），无副作用。
func (p *Pool) List() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Entry, len(p.slots))
	for i, s := range p.slots {
		out[i] = Entry{Index: i, Config: s.cfg, Locked: s.locked}
	}
	return out
}

// Get 返回指定下标的槽位配置。
// 返回：
// - SlotConfig: 配置
// - bool: index 不在 [0, N) 时为 false
func (p *Pool) Get(index int) (SlotConfig, bool) {
	if !p.valid(index) {
		return SlotConfig{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slots[index].cfg, true
}

// Lock 为 owner 锁定槽位；成功前会先释放 owner 已持有的所有槽位。
// 参数：
// - index: 槽位下标
// - owner: 连接标识（不可为空）
// 返回：
// - int: 成功时为 index；CodeNotFound 下标非法；CodeWrongState 已被锁定；CodeNotOwner owner 为空
func (p *Pool) Lock(index int, owner OwnerID) int {
	if !p.valid(index) {
		return CodeNotFound
	}
	if owner == NoOwner {
		return CodeNotOwner
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.slots[index].locked {
		return CodeWrongState
	}
	p.releaseLocked(owner)
	p.slots[index].locked = true
	p.slots[index].owner = owner
	return index
}

// Unlock 释放 owner 持有的槽位。
// 返回：
// - int: 成功时为 index；CodeNotFound 下标非法；CodeWrongState 未加锁；CodeNotOwner 由其他连接持有
func (p *Pool) Unlock(index int, owner OwnerID) int {
	if !p.valid(index) {
		return CodeNotFound
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &p.slots[index]
	if !s.locked {
		return CodeWrongState
	}
	if s.owner != owner {
		return CodeNotOwner
	}
	s.locked = false
	s.owner = NoOwner
	return index
}

// ReleaseAllOwnedBy 在连接断开时释放 owner 持有的全部槽位，返回释放数量。
func (p *Pool) ReleaseAllOwnedBy(owner OwnerID) int {
	if owner == NoOwner {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.releaseLocked(owner)
}

// OwnedBy 返回 owner 当前持有的槽位下标（升序）。
func (p *Pool) OwnedBy(owner OwnerID) []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []int
	for i, s := range p.slots {
		if s.locked && s.owner == owner {
			out = append(out, i)
		}
	}
	return out
}

// Stats 返回槽位总数与已加锁数量。
func (p *Pool) Stats() (total, locked int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.slots {
		if s.locked {
			locked++
		}
	}
	return len(p.slots), locked
}

// releaseLocked 释放 owner 的全部槽位，调用方需持有 p.mu。
func (p *Pool) releaseLocked(owner OwnerID) int {
	n := 0
	for i := range p.slots {
		if p.slots[i].locked && p.slots[i].owner == owner {
			p.slots[i].locked = false
			p.slots[i].owner = NoOwner
			n++
		}
	}
	return n
}

func (p *Pool) valid(index int) bool {
	return index >= 0 && index < len(p.slots)
}
