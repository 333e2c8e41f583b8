package model

import (
	"errors"
	"time"
)

// 步骤快照的动作状态
const (
	ActionWaiting  = "WAITING"
	ActionApproved = "APPROVED"
	ActionRejected = "REJECTED"
	ActionReceived = "RECEIVED"
)

// RequestStepSnapshotModel 申请单步骤快照数据模型
// 每次(重新)提交时整组重建, 审批人信息是提交时刻的冻结副本,
// 之后人员调动或改名不影响已生成的快照
type RequestStepSnapshotModel struct {
	ID           string     `gorm:"primaryKey;type:varchar(64)"`
	RequestID    string     `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_snapshots_request_order,priority:1"`
	StepOrder    int        `gorm:"type:int;not null;uniqueIndex:idx_snapshots_request_order,priority:2"`
	StepType     string     `gorm:"type:varchar(16);not null"` // APPROVAL/RECEIVE/REFERENCE
	ActorID      string     `gorm:"type:varchar(64);not null;index"`
	ActorName    string     `gorm:"type:varchar(255);not null"`
	ActorOrgID   string     `gorm:"type:varchar(64)"`
	ActionStatus string     `gorm:"type:varchar(16);not null;index"` // WAITING/APPROVED/REJECTED/RECEIVED
	ActedAt      *time.Time
	Comment      string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName 指定表名
func (RequestStepSnapshotModel) TableName() string {
	return "request_step_snapshots"
}

// Validate 验证步骤快照模型
func (sm *RequestStepSnapshotModel) Validate() error {
	if sm.ID == "" {
		return errors.New("snapshot ID is required")
	}
	if sm.RequestID == "" {
		return errors.New("request ID is required")
	}
	if sm.StepOrder <= 0 {
		return errors.New("step order must be positive")
	}
	if sm.ActorID == "" {
		return errors.New("actor ID is required")
	}
	if sm.ActionStatus == "" {
		return errors.New("action status is required")
	}
	return nil
}
