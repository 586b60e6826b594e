package router

import (
	"context"
	"net/http"
	"slices"
	"testing"

	"osmo-gateway/bts"
	"osmo-gateway/config"
	"osmo-gateway/handler"
)

// TestToUsesLastSegment 验证按路径最后一段解析处理器，未知路径走默认处理器。
func TestToUsesLastSegment(t *testing.T) {
	var hit string
	mk := func(name string) handler.Handler {
		return handler.HandlerFunc(func(context.Context, handler.Conn, *http.Request) { hit = name })
	}
	r := New(mk("default"))
	r.Register(TokenControl, mk("control"))
	r.Register(TokenMedia, mk("media"))

	cases := map[string]string{
		"/wsdr/osmo/control":  "control",
		"/wsdr/osmo/media/":   "default",
		"media":               "media",
		"/wsdr/osmo/abis_oml": "default",
		"/":                   "default",
		"":                    "default",
		"/control/extra":      "default",
	}
	for path, want := range cases {
		hit = ""
		r.To(path).Handle(context.Background(), nil, nil)
		if hit != want {
			t.Fatalf("%q -> %q want %q", path, hit, want)
		}
	}
}

// TestBuildRegistersAllRoutes 验证 Build 注册四个固定 token。
func TestBuildRegistersAllRoutes(t *testing.T) {
	deps := handler.Deps{Config: config.DefaultConfig(), BTS: bts.NewPool([]bts.SlotConfig{{OsmuxPort: 5000}})}
	r := Build(deps, nil)
	want := []string{TokenAbisOML, TokenAbisRSL, TokenControl, TokenMedia}
	if got := r.Tokens(); !slices.Equal(got, want) {
		t.Fatalf("tokens=%v", got)
	}
	if _, ok := r.Resolve("nope").(*handler.Default); !ok {
		t.Fatalf("fallback should be *handler.Default")
	}
	if _, ok := r.Resolve(TokenMedia).(*handler.Media); !ok {
		t.Fatalf("media handler type")
	}
}
