package config

import "fmt"

// ServiceKind 标识五类固定的后端服务，数值顺序与部署环境变量表一致。
type ServiceKind int

const (
	ServiceMedia ServiceKind = iota
	ServiceAbisOML
	ServiceAbisRSL
	ServiceHLR
	ServiceBSC
)

// AllServices 按固定顺序列出全部服务类型。
var AllServices = []ServiceKind{ServiceMedia, ServiceAbisOML, ServiceAbisRSL, ServiceHLR, ServiceBSC}

// String 返回服务类型名（用于日志字段与指标标签）。
func (k ServiceKind) String() string {
	switch k {
	case ServiceMedia:
		return "media"
	case ServiceAbisOML:
		return "abis_oml"
	case ServiceAbisRSL:
		return "abis_rsl"
	case ServiceHLR:
		return "hlr"
	case ServiceBSC:
		return "bsc"
	default:
		return fmt.Sprintf("service(%d)", int(k))
	}
}

// Get 按服务类型取出地址。
// 返回：
// - ServiceAddress: 地址
// - bool: kind 非法时为 false
func (s ServicesConfig) Get(kind ServiceKind) (ServiceAddress, bool) {
	switch kind {
	case ServiceMedia:
		return s.Media, true
	case ServiceAbisOML:
		return s.AbisOML, true
	case ServiceAbisRSL:
		return s.AbisRSL, true
	case ServiceHLR:
		return s.HLR, true
	case ServiceBSC:
		return s.BSC, true
	default:
		return ServiceAddress{}, false
	}
}

// ref 返回指定服务地址字段的指针，供环境变量覆盖使用。
func (s *ServicesConfig) ref(kind ServiceKind) *ServiceAddress {
	switch kind {
	case ServiceMedia:
		return &s.Media
	case ServiceAbisOML:
		return &s.AbisOML
	case ServiceAbisRSL:
		return &s.AbisRSL
	case ServiceHLR:
		return &s.HLR
	case ServiceBSC:
		return &s.BSC
	default:
		return nil
	}
}
