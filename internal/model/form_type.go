package model

import (
	"errors"
	"time"
)

// FormTypeModel 申请单类型数据模型
type FormTypeModel struct {
	ID              string    `gorm:"primaryKey;type:varchar(32)"` // 类型编码, 如 LEAVE
	Name            string    `gorm:"type:varchar(255);not null"`
	Module          string    `gorm:"type:varchar(64);not null;index"` // 所属模块
	Prefix          string    `gorm:"type:varchar(16);not null"` // 单号前缀
	AllowDraftEdit  bool      `gorm:"not null;default:true"`
	AllowWithdraw   bool      `gorm:"not null;default:true"`
	RequiresReceive bool      `gorm:"not null;default:false"` // 是否需要接收阶段
	DefaultPriority int       `gorm:"type:int;not null;default:0"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName 指定表名
func (FormTypeModel) TableName() string {
	return "form_types"
}

// Validate 验证申请单类型模型
func (ftm *FormTypeModel) Validate() error {
	if ftm.ID == "" {
		return errors.New("form type ID is required")
	}
	if ftm.Name == "" {
		return errors.New("form type name is required")
	}
	if ftm.Prefix == "" {
		return errors.New("form type prefix is required")
	}
	return nil
}
