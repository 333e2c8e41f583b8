package model

import (
	"errors"
	"time"
)

// 步骤类型
const (
	StepTypeApproval  = "APPROVAL"
	StepTypeReceive   = "RECEIVE"
	StepTypeReference = "REFERENCE"
)

// 审批人解析方式
const (
	ResolveModeRoleBased = "ROLE_BASED"
	ResolveModeUserFixed = "USER_FIXED"
)

// ApprovalLineTemplateModel 审批线模板数据模型
// 模板是可复用的蓝图, 不与任何具体申请单绑定
type ApprovalLineTemplateModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Scope     string    `gorm:"type:varchar(32);not null;default:'GLOBAL'"` // GLOBAL/COMPANY/DEPARTMENT/TEAM/USER
	IsActive  bool      `gorm:"not null;default:true;index"`
	IsDefault bool      `gorm:"not null;default:false;index"`
	Priority  int       `gorm:"type:int;not null;default:0"` // 数值越大优先级越高
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Steps []ApprovalLineStepModel `gorm:"foreignKey:TemplateID"`
}

// TableName 指定表名
func (ApprovalLineTemplateModel) TableName() string {
	return "approval_line_templates"
}

// Validate 验证审批线模板模型
func (tm *ApprovalLineTemplateModel) Validate() error {
	if tm.Name == "" {
		return errors.New("template name is required")
	}
	if tm.Scope == "" {
		return errors.New("template scope is required")
	}
	return nil
}

// ApprovalLineStepModel 审批线模板步骤数据模型
type ApprovalLineStepModel struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	TemplateID     uint   `gorm:"not null;index;uniqueIndex:idx_line_steps_template_order,priority:1"`
	StepOrder      int    `gorm:"type:int;not null;uniqueIndex:idx_line_steps_template_order,priority:2"` // 模板内唯一, 1..N
	StepType       string `gorm:"type:varchar(16);not null"` // APPROVAL/RECEIVE/REFERENCE
	ResolveMode    string `gorm:"type:varchar(16);not null"` // ROLE_BASED/USER_FIXED
	RoleCode       string `gorm:"type:varchar(64)"`
	FixedUserID    string `gorm:"type:varchar(64)"`
	AllowDelegate  bool   `gorm:"not null;default:false"`
	RequiredAction string `gorm:"type:varchar(16);not null;default:'APPROVE'"` // APPROVE/RECEIVE
}

// TableName 指定表名
func (ApprovalLineStepModel) TableName() string {
	return "approval_line_steps"
}

// Validate 验证审批线步骤模型
func (sm *ApprovalLineStepModel) Validate() error {
	if sm.StepOrder <= 0 {
		return errors.New("step order must be positive")
	}
	switch sm.StepType {
	case StepTypeApproval, StepTypeReceive, StepTypeReference:
	default:
		return errors.New("invalid step type")
	}
	switch sm.ResolveMode {
	case ResolveModeRoleBased, ResolveModeUserFixed:
	default:
		return errors.New("invalid resolve mode")
	}
	return nil
}
