package router

import (
	"sort"
	"strings"

	"osmo-gateway/config"
	"osmo-gateway/handler"
)

const (
	TokenControl = "control"
	TokenAbisOML = "abis_oml"
	TokenAbisRSL = "abis_rsl"
	TokenMedia   = "media"
)

// Router 将 URL 路径的最后一段映射到处理器；启动时构建完成，之后只读。
type Router struct {
	handlers map[string]handler.Handler
	fallback handler.Handler
}

// New 创建空路由表，未知 token 交给 fallback。
func New(fallback handler.Handler) *Router {
	return &Router{handlers: map[string]handler.Handler{}, fallback: fallback}
}

// Build 按共享依赖构造四个处理器并注册到路由表。
// 参数：
// - deps: 处理器共享依赖
// - sink: 控制通道 HLR/BSC 数据回调（可为 nil）
func Build(deps handler.Deps, sink handler.BackendSink) *Router {
	r := New(handler.NewDefault(deps.Observer))
	r.Register(TokenControl, handler.NewControl(deps, sink))
	r.Register(TokenAbisOML, handler.NewAbis(config.ServiceAbisOML, deps))
	r.Register(TokenAbisRSL, handler.NewAbis(config.ServiceAbisRSL, deps))
	r.Register(TokenMedia, handler.NewMedia(deps))
	return r
}

// Register 注册 token 对应的处理器，只能在开始服务前调用。
func (r *Router) Register(token string, h handler.Handler) {
	r.handlers[token] = h
}

// Resolve 返回 token 对应的处理器；未注册时返回默认处理器。
func (r *Router) Resolve(token string) handler.Handler {
	if h, ok := r.handlers[token]; ok {
		return h
	}
	return r.fallback
}

// To 取路径最后一段作为 token 解析处理器；以 "/" 结尾的路径最后一段为空，交给默认处理器。
func (r *Router) To(path string) handler.Handler {
	return r.Resolve(Token(path))
}

// Token 返回路径最后一个 "/" 之后的部分。
func Token(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Tokens 返回已注册的 token（升序）。
func (r *Router) Tokens() []string {
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
