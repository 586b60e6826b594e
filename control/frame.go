package control

import (
	"encoding/json"
	"fmt"

	gwerrors "osmo-gateway/errors"
)

// FrameIDSize 是分帧协议中关联 id 的字节数。
const FrameIDSize = 4

// FrameID 是不透明的 4 字节关联 id，响应原样带回。
type FrameID [FrameIDSize]byte

// ParseFrame 解析 "4 字节 id || UTF-8 JSON" 格式的消息。
// 参数：
// - b: 原始消息
// 返回：
// - FrameID: 关联 id
// - Request: 请求变体（事件未知时为 Invalid）
// - error: 长度不足或 JSON 语法错误（CodeBadRequest）
func ParseFrame(b []byte) (FrameID, Request, error) {
	var id FrameID
	if len(b) < FrameIDSize {
		return id, nil, gwerrors.Wrap(gwerrors.CodeBadRequest, "short frame", fmt.Errorf("len=%d", len(b)))
	}
	copy(id[:], b[:FrameIDSize])
	req, err := decode(b[FrameIDSize:])
	if err != nil {
		return id, nil, gwerrors.Wrap(gwerrors.CodeBadRequest, "parse frame payload", err)
	}
	return id, req, nil
}

// EncodeFrame 将 id 与响应的 JSON 编码拼接为一条消息。
func EncodeFrame(id FrameID, resp Response) ([]byte, error) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.CodeInternal, "encode frame payload", err)
	}
	out := make([]byte, 0, FrameIDSize+len(payload))
	out = append(out, id[:]...)
	return append(out, payload...), nil
}
