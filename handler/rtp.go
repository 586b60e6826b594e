package handler

import "github.com/pion/rtp"

// seqTracker 统计后端 RTP 流中的序列号缺口；非 RTP 数据（如 Osmux）被忽略。
type seqTracker struct {
	have bool
	last uint16
	gaps int
}

// observe 解析一块数据的 RTP 头，返回本块之前缺失的包数量。
func (t *seqTracker) observe(b []byte) int {
	var h rtp.Header
	if _, err := h.Unmarshal(b); err != nil || h.Version != 2 {
		return 0
	}
	if !t.have {
		t.have, t.last = true, h.SequenceNumber
		return 0
	}
	delta := h.SequenceNumber - t.last
	if delta == 0 || delta >= 0x8000 {
		// 重复或乱序包
		return 0
	}
	t.last = h.SequenceNumber
	missing := int(delta) - 1
	t.gaps += missing
	return missing
}
