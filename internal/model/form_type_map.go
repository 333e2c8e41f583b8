package model

import (
	"errors"
	"time"
)

// FormTypeApprovalMapModel 申请单类型与审批线模板的绑定数据模型
// 允许同一类型存在多条生效期重叠的绑定, 由选择器做确定性裁决
type FormTypeApprovalMapModel struct {
	ID            uint       `gorm:"primaryKey;autoIncrement"`
	FormTypeID    string     `gorm:"type:varchar(32);not null;index"`
	TemplateID    uint       `gorm:"not null;index"`
	EffectiveFrom time.Time  `gorm:"not null"`
	EffectiveTo   *time.Time // 为空表示开放区间
	IsActive      bool       `gorm:"not null;default:true;index"`
	CreatedAt     time.Time  `gorm:"not null"`
	UpdatedAt     time.Time  `gorm:"not null"`
}

// TableName 指定表名
func (FormTypeApprovalMapModel) TableName() string {
	return "form_type_approval_maps"
}

// Validate 验证绑定模型
func (mm *FormTypeApprovalMapModel) Validate() error {
	if mm.FormTypeID == "" {
		return errors.New("form type ID is required")
	}
	if mm.TemplateID == 0 {
		return errors.New("template ID is required")
	}
	if mm.EffectiveFrom.IsZero() {
		return errors.New("effective from is required")
	}
	if mm.EffectiveTo != nil && mm.EffectiveTo.Before(mm.EffectiveFrom) {
		return errors.New("effective to must not precede effective from")
	}
	return nil
}
