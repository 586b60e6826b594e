package control

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"osmo-gateway/bts"
	gwerrors "osmo-gateway/errors"
	gwlog "osmo-gateway/log"
	"osmo-gateway/observability"
)

// Dispatcher 将控制请求分派到 BTS 槽位池；每个请求同步应答一次。
type Dispatcher struct {
	pool *bts.Pool
	obs  observability.Observer
}

// NewDispatcher 创建分派器。
// 参数：
// - pool: 槽位池（启动时注入）
// - obs: 指标观察者（可为 nil）
func NewDispatcher(pool *bts.Pool, obs observability.Observer) *Dispatcher {
	return &Dispatcher{pool: pool, obs: observability.OrNoop(obs)}
}

// Handle 执行请求并返回响应变体。
// 参数：
// - req: 请求变体
// - owner: 当前连接标识
func (d *Dispatcher) Handle(req Request, owner bts.OwnerID) Response {
	switch r := req.(type) {
	case GetBtsList:
		d.obs.ControlRequest(string(EventGetBtsList), observability.ControlOK)
		return d.list()
	case LockBts:
		code := d.pool.Lock(r.ID, owner)
		return d.lockResult(EventLockBts, r.ID, code, owner)
	case UnlockBts:
		code := d.pool.Unlock(r.ID, owner)
		return d.lockResult(EventUnlockBts, r.ID, code, owner)
	case Invalid:
		d.obs.ControlRequest("unknown", observability.ControlInvalid)
		return ErrorResponse{Error: ErrorBody{Description: r.Description}}
	default:
		d.obs.ControlRequest("unknown", observability.ControlInvalid)
		return ErrorResponse{Error: ErrorBody{Code: gwerrors.CodeInternal, Description: "Unknown request"}}
	}
}

// HandleText 处理一条文本帧：解码、分派并编码为 JSON。
func (d *Dispatcher) HandleText(raw []byte, owner bts.OwnerID) ([]byte, error) {
	resp := d.Handle(DecodeRequest(raw), owner)
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.CodeInternal, "encode control response", err)
	}
	return b, nil
}

// HandleFrame 处理一条分帧消息（4 字节 id || JSON），响应带回同一 id。
// 返回：
// - []byte: 编码后的响应帧
// - error: 帧格式错误（CodeBadRequest），此时不产生响应
func (d *Dispatcher) HandleFrame(raw []byte, owner bts.OwnerID) ([]byte, error) {
	id, req, err := ParseFrame(raw)
	if err != nil {
		d.obs.ControlRequest("frame", observability.ControlInvalid)
		return nil, err
	}
	return EncodeFrame(id, d.Handle(req, owner))
}

func (d *Dispatcher) list() BtsListResponse {
	entries := d.pool.List()
	out := BtsListResponse{Event: EventGetBtsList, BTS: make([]BtsEntry, 0, len(entries))}
	for _, e := range entries {
		out.BTS = append(out.BTS, BtsEntry{SlotConfig: e.Config, ID: e.Index, Locked: e.Locked})
	}
	return out
}

func (d *Dispatcher) lockResult(ev Event, id, code int, owner bts.OwnerID) LockResult {
	result := observability.ControlOK
	if code < 0 {
		result = observability.ControlRejected
	}
	d.obs.ControlRequest(string(ev), result)
	_, locked := d.pool.Stats()
	d.obs.BtsLocked(locked)
	gwlog.With(logrus.Fields{
		"event": ev,
		"bts":   id,
		"code":  code,
		"owner": owner,
	}).Debug("控制请求已处理")
	return LockResult{Event: ev, ID: id, Result: ResultCode{Code: code}}
}
