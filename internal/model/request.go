package model

import (
	"errors"
	"time"
)

// 申请单状态
const (
	StatusDraft              = "DRAFT"
	StatusApprovalInProgress = "APPROVAL_IN_PROGRESS"
	StatusApprovalRejected   = "APPROVAL_REJECTED"
	StatusReceiveInProgress  = "RECEIVE_IN_PROGRESS"
	StatusReceiveRejected    = "RECEIVE_REJECTED"
	StatusCompleted          = "COMPLETED"
	StatusWithdrawn          = "WITHDRAWN"
)

// EditableStatuses 允许草稿编辑与提交的状态集合
var EditableStatuses = []string{StatusDraft, StatusApprovalRejected, StatusReceiveRejected}

// IsEditableStatus 判断状态是否允许草稿编辑
func IsEditableStatus(status string) bool {
	for _, s := range EditableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// RequestMasterModel 申请单主数据模型
// 提交之前由申请人独占; 提交之后状态流转的所有权归属当前步骤的审批人
type RequestMasterModel struct {
	ID               string     `gorm:"primaryKey;type:varchar(64)"`
	RequestNo        string     `gorm:"type:varchar(32);index"` // 提交时签发, 草稿阶段为空; 非空值的唯一性由部分唯一索引保证
	FormTypeID       string     `gorm:"type:varchar(32);not null;index"`
	RequesterID      string     `gorm:"type:varchar(64);not null;index"`
	Title            string     `gorm:"type:varchar(255);not null"`
	Content          []byte     `gorm:"type:jsonb"` // 序列化后的表单内容
	Status           string     `gorm:"type:varchar(32);not null;index"`
	CurrentStepOrder *int       `gorm:"type:int;index"`
	SubmittedAt      *time.Time `gorm:"index"`
	CompletedAt      *time.Time
	CreatedAt        time.Time `gorm:"not null;index"`
	UpdatedAt        time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (RequestMasterModel) TableName() string {
	return "request_masters"
}

// Validate 验证申请单模型
func (rm *RequestMasterModel) Validate() error {
	if rm.ID == "" {
		return errors.New("request ID is required")
	}
	if rm.FormTypeID == "" {
		return errors.New("form type ID is required")
	}
	if rm.RequesterID == "" {
		return errors.New("requester ID is required")
	}
	if rm.Status == "" {
		return errors.New("request status is required")
	}
	return nil
}
