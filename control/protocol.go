package control

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"osmo-gateway/bts"
)

type Event string

const (
	EventGetBtsList Event = "get-bts-list"
	EventLockBts    Event = "lock-bts"
	EventUnlockBts  Event = "unlock-bts"
)

// Request 是控制请求的有限变体集合：GetBtsList / LockBts / UnlockBts / Invalid。
type Request interface {
	isRequest()
}

type GetBtsList struct{}

type LockBts struct {
	ID int
}

type UnlockBts struct {
	ID int
}

// Invalid 表示无法识别或字段不完整的请求，Description 原样返回给客户端。
type Invalid struct {
	Description string
}

func (GetBtsList) isRequest() {}
func (LockBts) isRequest()    {}
func (UnlockBts) isRequest()  {}
func (Invalid) isRequest()    {}

// Response 是控制响应的有限变体集合。
type Response interface {
	isResponse()
}

// BtsEntry 是 get-bts-list 响应中的一项：槽位配置平铺后追加 id 与 locked。
type BtsEntry struct {
	bts.SlotConfig
	ID     int  `json:"id"`
	Locked bool `json:"locked"`
}

type BtsListResponse struct {
	Event Event      `json:"event"`
	BTS   []BtsEntry `json:"bts"`
}

type ResultCode struct {
	Code int `json:"code"`
}

type LockResult struct {
	Event  Event      `json:"event"`
	ID     int        `json:"id"`
	Result ResultCode `json:"result"`
}

type ErrorBody struct {
	Code        int    `json:"code,omitempty"`
	Description string `json:"description"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func (BtsListResponse) isResponse() {}
func (LockResult) isResponse()      {}
func (ErrorResponse) isResponse()   {}

// maxEchoLen 限制错误描述中回显的原始请求长度。
const maxEchoLen = 256

type wireRequest struct {
	Event *string         `json:"event"`
	ID    json.RawMessage `json:"id"`
}

// DecodeRequest 将一条文本消息解码为请求变体；任何非法输入都得到 Invalid，而不是错误。
// 参数：
// - raw: WebSocket 文本帧内容
// 返回：
// - Request: 请求变体
func DecodeRequest(raw []byte) Request {
	req, err := decode(raw)
	if err != nil {
		return unknown(raw)
	}
	return req
}

// decode 仅在 JSON 语法错误时返回 error，字段/事件不合法时返回 Invalid。
func decode(raw []byte) (Request, error) {
	var w wireRequest
	if err := json.Unmarshal(raw, &w); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return unknown(raw), nil
		}
		return nil, err
	}
	if w.Event == nil {
		return unknown(raw), nil
	}
	switch Event(*w.Event) {
	case EventGetBtsList:
		return GetBtsList{}, nil
	case EventLockBts:
		id, ok := parseID(w.ID)
		if !ok {
			return unknown(raw), nil
		}
		return LockBts{ID: id}, nil
	case EventUnlockBts:
		id, ok := parseID(w.ID)
		if !ok {
			return unknown(raw), nil
		}
		return UnlockBts{ID: id}, nil
	default:
		return unknown(raw), nil
	}
}

// parseID 只接受 JSON 整数（拒绝字符串、小数与指数形式）。
func parseID(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	id, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, false
	}
	return id, true
}

func unknown(raw []byte) Invalid {
	s := string(bytes.TrimSpace(raw))
	if len(s) > maxEchoLen {
		n := maxEchoLen
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n] + "..."
	}
	return Invalid{Description: fmt.Sprintf("Unknown request %s", s)}
}
