package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	gwlog "osmo-gateway/log"
	"osmo-gateway/observability"
)

// Default 处理无法识别的路径：记录日志后直接关闭。
type Default struct {
	obs observability.Observer
}

func NewDefault(obs observability.Observer) *Default {
	return &Default{obs: observability.OrNoop(obs)}
}

func (h *Default) Handle(_ context.Context, conn Conn, r *http.Request) {
	path := ""
	if r != nil && r.URL != nil {
		path = r.URL.Path
	}
	gwlog.With(logrus.Fields{"route": "default", "path": path, "session": remoteID(conn)}).Warn("未知路径，关闭连接")
	h.obs.ConnOpened("default")
	h.obs.ConnClosed("default")
	closeWS(conn, websocket.CloseNormalClosure, "unknown path")
}
