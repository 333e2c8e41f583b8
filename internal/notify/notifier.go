package notify

import (
	"encoding/json"
	"time"
)

// StatusNotifier 将引擎状态变更推送到 Hub
type StatusNotifier struct {
	hub *Hub
}

// NewStatusNotifier 创建状态变更推送器
func NewStatusNotifier(hub *Hub) *StatusNotifier {
	return &StatusNotifier{hub: hub}
}

// statusMessage 状态变更消息
type statusMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// RequestStatusChanged 推送申请单状态变更
func (n *StatusNotifier) RequestStatusChanged(requestID string, status string) {
	if n.hub == nil {
		return
	}

	data, err := json.Marshal(statusMessage{
		Type:      "request_status",
		RequestID: requestID,
		Status:    status,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return
	}

	n.hub.BroadcastToRequest(requestID, data)
}
