package workflow

import (
	"fmt"
	"strings"
)

// NotFoundError 申请单/模板/类型不存在
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ConflictError 当前状态不允许该操作
// 携带当前状态, 便于调用方刷新后重试
type ConflictError struct {
	Message       string
	CurrentStatus string
}

func (e *ConflictError) Error() string {
	if e.CurrentStatus != "" {
		return fmt.Sprintf("%s (current status: %s)", e.Message, e.CurrentStatus)
	}
	return e.Message
}

// ForbiddenError 操作人不是当前步骤绑定的审批人或申请人
// 不泄露正确的审批人是谁
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// ConfigurationError 管理侧数据缺失: 规则缺失、模板步骤为空、无可用模板
// 绝不静默替代, 错误的审批人比阻塞的提交更糟
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

// ResolutionError 角色搜索无匹配且回退策略为 ESCALATE
type ResolutionError struct {
	RoleCode string
	Keywords []string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no actor resolved for role %q (keywords: %s)",
		e.RoleCode, strings.Join(e.Keywords, ","))
}
