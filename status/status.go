package status

import (
	"encoding/json"
	"fmt"
	"strings"
)

type GatewayStatus string

const (
	GatewayStarting GatewayStatus = "Starting"
	GatewayRunning  GatewayStatus = "Running"
	GatewayStopping GatewayStatus = "Stopping"
	GatewayStopped  GatewayStatus = "Stopped"
)

// String 返回网关状态文本。
func (s GatewayStatus) String() string { return string(s) }

// parseGatewayStatus 将文本解析为 GatewayStatus。
// 参数：
// - v: 状态文本（Starting/Running/Stopping/Stopped）
// 返回：
// - GatewayStatus: 解析结果
// - error: 未知状态时返回错误
func parseGatewayStatus(v string) (GatewayStatus, error) {
	switch strings.TrimSpace(v) {
	case string(GatewayStarting):
		return GatewayStarting, nil
	case string(GatewayRunning):
		return GatewayRunning, nil
	case string(GatewayStopping):
		return GatewayStopping, nil
	case string(GatewayStopped):
		return GatewayStopped, nil
	default:
		return "", fmt.Errorf("unknown GatewayStatus: %q", v)
	}
}

// MarshalJSON 将 GatewayStatus 编码为 JSON 字符串。
func (s GatewayStatus) MarshalJSON() ([]byte, error) { return json.Marshal(string(s)) }

// UnmarshalJSON 从 JSON 字符串解码为 GatewayStatus。
func (s *GatewayStatus) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, err := parseGatewayStatus(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SessionState 是单条 WebSocket 连接在处理器中的生命周期：Idle -> Bridging -> Closed。
type SessionState string

const (
	SessionIdle     SessionState = "Idle"
	SessionBridging SessionState = "Bridging"
	SessionClosed   SessionState = "Closed"
)

// String 返回会话状态文本。
func (s SessionState) String() string { return string(s) }

// parseSessionState 将文本解析为 SessionState。
// 参数：
// - v: 状态文本（Idle/Bridging/Closed）
// 返回：
// - SessionState: 解析结果
// - error: 未知状态时返回错误
func parseSessionState(v string) (SessionState, error) {
	switch strings.TrimSpace(v) {
	case string(SessionIdle):
		return SessionIdle, nil
	case string(SessionBridging):
		return SessionBridging, nil
	case string(SessionClosed):
		return SessionClosed, nil
	default:
		return "", fmt.Errorf("unknown SessionState: %q", v)
	}
}

// MarshalJSON 将 SessionState 编码为 JSON 字符串。
func (s SessionState) MarshalJSON() ([]byte, error) { return json.Marshal(string(s)) }

// UnmarshalJSON 从 JSON 字符串解码为 SessionState。
func (s *SessionState) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, err := parseSessionState(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type PortStatus string

const (
	PortIdle   PortStatus = "Idle"
	PortLeased PortStatus = "Leased"
)

// String 返回端口状态文本。
func (s PortStatus) String() string { return string(s) }

// parsePortStatus 将文本解析为 PortStatus。
// 参数：
// - v: 状态文本（Idle/Leased）
// 返回：
// - PortStatus: 解析结果
// - error: 未知状态时返回错误
func parsePortStatus(v string) (PortStatus, error) {
	switch strings.TrimSpace(v) {
	case string(PortIdle):
		return PortIdle, nil
	case string(PortLeased):
		return PortLeased, nil
	default:
		return "", fmt.Errorf("unknown PortStatus: %q", v)
	}
}

// MarshalJSON 将 PortStatus 编码为 JSON 字符串。
func (s PortStatus) MarshalJSON() ([]byte, error) { return json.Marshal(string(s)) }

// UnmarshalJSON 从 JSON 字符串解码为 PortStatus。
func (s *PortStatus) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, err := parsePortStatus(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
