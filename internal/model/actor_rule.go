package model

import (
	"errors"
	"time"
)

// 角色解析方法
const (
	ResolveMethodOrgChain    = "ORG_CHAIN"
	ResolveMethodJobPosition = "JOB_POSITION"
	ResolveMethodFixedUser   = "FIXED_USER"
)

// 解析失败时的回退策略
const (
	FallbackEscalate = "ESCALATE"
	FallbackHRAdmin  = "HR_ADMIN"
	FallbackSkip     = "SKIP"
)

// ActorResolutionRuleModel 角色到审批人的解析规则数据模型
// 每个角色编码应当恰好存在一条启用中的规则, 缺失视为配置错误
type ActorResolutionRuleModel struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	RoleCode       string    `gorm:"type:varchar(64);not null;index"`
	Method         string    `gorm:"type:varchar(16);not null"` // ORG_CHAIN/JOB_POSITION/FIXED_USER
	Keywords       string    `gorm:"type:text"`                 // 逗号分隔的职位关键字
	FallbackPolicy string    `gorm:"type:varchar(16);not null;default:'ESCALATE'"`
	IsActive       bool      `gorm:"not null;default:true;index"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName 指定表名
func (ActorResolutionRuleModel) TableName() string {
	return "actor_resolution_rules"
}

// Validate 验证解析规则模型
func (rm *ActorResolutionRuleModel) Validate() error {
	if rm.RoleCode == "" {
		return errors.New("role code is required")
	}
	switch rm.Method {
	case ResolveMethodOrgChain, ResolveMethodJobPosition, ResolveMethodFixedUser:
	default:
		return errors.New("invalid resolution method")
	}
	switch rm.FallbackPolicy {
	case FallbackEscalate, FallbackHRAdmin, FallbackSkip:
	default:
		return errors.New("invalid fallback policy")
	}
	return nil
}
