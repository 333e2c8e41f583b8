package workflow

import (
	"fmt"
	"strings"

	"github.com/hrdesk/hri-gin/internal/model"
	"gorm.io/gorm"
)

// adminPoolRole 固定审批人池对应的角色编码
const adminPoolRole = "HR_ADMIN"

// resolvedActor 解析出的具体审批人, 姓名与组织为解析时刻的值
type resolvedActor struct {
	UserID    string
	Name      string
	OrgUnitID string
}

// resolveActor 将角色编码解析为具体审批人
// 规则缺失是硬性配置错误; 搜索无匹配时应用规则的回退策略
func (e *Engine) resolveActor(tx *gorm.DB, requesterID string, roleCode string) (*resolvedActor, error) {
	var rule model.ActorResolutionRuleModel
	err := tx.Where("role_code = ? AND is_active = ?", roleCode, true).First(&rule).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &ConfigurationError{
				Message: fmt.Sprintf("no active actor resolution rule for role %q", roleCode),
			}
		}
		return nil, fmt.Errorf("failed to load resolution rule for role %q: %w", roleCode, err)
	}

	if rule.Method == model.ResolveMethodFixedUser {
		return e.adminPoolActor()
	}

	keywords := parseKeywords(rule.Keywords)

	requester, err := e.dir.Employee(requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load requester employee profile: %w", err)
	}
	if requester == nil || len(keywords) == 0 {
		return e.applyFallback(&rule, keywords)
	}

	var pool []*DirectoryEmployee
	switch rule.Method {
	case model.ResolveMethodOrgChain:
		pool, err = e.dir.ActiveEmployeesInOrg(requester.OrgUnitID)
	case model.ResolveMethodJobPosition:
		pool, err = e.dir.ActiveEmployees()
	default:
		return nil, &ConfigurationError{
			Message: fmt.Sprintf("unknown resolution method %q for role %q", rule.Method, roleCode),
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search employees for role %q: %w", roleCode, err)
	}

	// 池已按用户 ID 升序, 取第一个职位命中者
	for _, emp := range pool {
		if matchTitle(emp.PositionTitle, keywords) {
			return e.freezeActor(emp.UserID)
		}
	}

	return e.applyFallback(&rule, keywords)
}

// applyFallback 应用回退策略
// HR_ADMIN 与 SKIP 都重定向到固定审批人池(源系统行为, 见 DESIGN.md);
// ESCALATE 显式失败, 带上角色与关键字便于诊断
func (e *Engine) applyFallback(rule *model.ActorResolutionRuleModel, keywords []string) (*resolvedActor, error) {
	switch rule.FallbackPolicy {
	case model.FallbackHRAdmin, model.FallbackSkip:
		return e.adminPoolActor()
	case model.FallbackEscalate:
		return nil, &ResolutionError{RoleCode: rule.RoleCode, Keywords: keywords}
	default:
		return nil, &ConfigurationError{
			Message: fmt.Sprintf("unknown fallback policy %q for role %q", rule.FallbackPolicy, rule.RoleCode),
		}
	}
}

// adminPoolActor 固定审批人池: 持有 HR_ADMIN 角色的最小用户 ID
// 选取规则刻意显式且确定, 这是一条策略决定
func (e *Engine) adminPoolActor() (*resolvedActor, error) {
	ids, err := e.dir.UsersWithRole(adminPoolRole)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin pool: %w", err)
	}
	if len(ids) == 0 {
		return nil, &ConfigurationError{
			Message: fmt.Sprintf("admin pool is empty: no user holds role %q", adminPoolRole),
		}
	}
	return e.freezeActor(ids[0])
}

// freezeActor 取用户当前的姓名与组织, 作为快照的冻结副本
func (e *Engine) freezeActor(userID string) (*resolvedActor, error) {
	user, err := e.dir.User(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %q: %w", userID, err)
	}
	if user == nil {
		return nil, &ConfigurationError{
			Message: fmt.Sprintf("resolved actor %q has no user record", userID),
		}
	}

	actor := &resolvedActor{UserID: user.ID, Name: user.Name}
	emp, err := e.dir.Employee(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee profile for %q: %w", userID, err)
	}
	if emp != nil {
		actor.OrgUnitID = emp.OrgUnitID
	}
	return actor, nil
}

// parseKeywords 解析逗号分隔的关键字列表, 去除空白与空项
func parseKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}

// matchTitle 职位名称与任一关键字子串匹配(忽略大小写)即命中
func matchTitle(title string, keywords []string) bool {
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
