package handler

import (
	"context"
	"iter"

	"github.com/gorilla/websocket"
)

// backend 是 bridge.TCPClient / bridge.UDPClient 的公共行为。
type backend interface {
	Send(b []byte) error
	Receive() iter.Seq[[]byte]
	Disconnect()
}

// readLoop 在独立 goroutine 中读取 WebSocket 消息，读错误（含对端关闭）时调用 onClose（可为 nil）。
// 返回的 channel 在读循环退出后关闭。
func readLoop(conn Conn, onMessage func(mt int, data []byte), onClose func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if onClose != nil {
			defer onClose()
		}
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			onMessage(mt, data)
		}
	}()
	return done
}

// forward 将后端数据逐块写回 WebSocket，直到任一侧关闭；返回前两侧都已关闭（WebSocket 带关闭帧）且读循环已退出。
// 参数：
// - ctx: 服务关闭时取消
// - conn: WebSocket 连接
// - be: 后端客户端
// - readerDone: readLoop 返回的 channel
// - onChunk: 每块数据写出前的回调（可为 nil）
func forward(ctx context.Context, conn Conn, be backend, readerDone <-chan struct{}, onChunk func([]byte)) {
	stop := context.AfterFunc(ctx, func() {
		closeWS(conn, websocket.CloseGoingAway, reasonShutdown)
		be.Disconnect()
	})
	defer stop()
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-readerDone:
			be.Disconnect()
		case <-finished:
		}
	}()

	for chunk := range be.Receive() {
		if onChunk != nil {
			onChunk(chunk)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			break
		}
	}
	be.Disconnect()
	closeWS(conn, websocket.CloseNormalClosure, reasonBackendClosed)
	<-readerDone
}
