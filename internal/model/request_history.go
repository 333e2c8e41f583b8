package model

import (
	"errors"
	"time"
)

// 历史事件类型
const (
	EventCreate          = "CREATE"
	EventDraftSave       = "DRAFT_SAVE"
	EventSubmit          = "SUBMIT"
	EventWithdraw        = "WITHDRAW"
	EventApprove         = "APPROVE"
	EventReject          = "REJECT"
	EventReceiveComplete = "RECEIVE_COMPLETE"
	EventReceiveReject   = "RECEIVE_REJECT"
)

// RequestHistoryModel 申请单流转历史数据模型
// 只追加, 不修改不删除, 是唯一持久的审计来源
type RequestHistoryModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)"`
	RequestID  string    `gorm:"type:varchar(64);not null;index"`
	EventType  string    `gorm:"type:varchar(32);not null;index"`
	FromStatus string    `gorm:"type:varchar(32)"`
	ToStatus   string    `gorm:"type:varchar(32);not null"`
	ActorID    string    `gorm:"type:varchar(64);not null"`
	Payload    []byte    `gorm:"type:jsonb"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (RequestHistoryModel) TableName() string {
	return "request_histories"
}

// Validate 验证流转历史模型
func (hm *RequestHistoryModel) Validate() error {
	if hm.ID == "" {
		return errors.New("history ID is required")
	}
	if hm.RequestID == "" {
		return errors.New("request ID is required")
	}
	if hm.EventType == "" {
		return errors.New("event type is required")
	}
	if hm.ToStatus == "" {
		return errors.New("to status is required")
	}
	if hm.ActorID == "" {
		return errors.New("actor ID is required")
	}
	return nil
}
