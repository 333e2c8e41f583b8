package model

import (
	"errors"
	"time"
)

// RequestCounterModel 申请单编号计数器数据模型
// 以 年月+类型编码 为作用域, 每个作用域一行, 原子递增
type RequestCounterModel struct {
	ScopeKey  string    `gorm:"primaryKey;type:varchar(64)"` // 如 202608-LEAVE
	LastSeq   int64     `gorm:"type:bigint;not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName 指定表名
func (RequestCounterModel) TableName() string {
	return "request_counters"
}

// Validate 验证计数器模型
func (cm *RequestCounterModel) Validate() error {
	if cm.ScopeKey == "" {
		return errors.New("scope key is required")
	}
	if cm.LastSeq < 0 {
		return errors.New("last seq must not be negative")
	}
	return nil
}
