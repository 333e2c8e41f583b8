package workflow

import (
	"time"

	"github.com/hrdesk/hri-gin/internal/model"
)

// DirectoryUser 身份查询结果
type DirectoryUser struct {
	ID       string
	Name     string
	IsActive bool
}

// DirectoryEmployee 员工档案查询结果
type DirectoryEmployee struct {
	UserID        string
	OrgUnitID     string
	PositionTitle string
	IsActive      bool
}

// Directory 组织与身份查询接口
// 引擎只读消费, 数据由管理模块维护
type Directory interface {
	// User 根据用户 ID 查询用户, 不存在时返回 (nil, nil)
	User(id string) (*DirectoryUser, error)
	// Employee 根据用户 ID 查询员工档案, 无档案时返回 (nil, nil)
	Employee(userID string) (*DirectoryEmployee, error)
	// UsersWithRole 返回持有指定角色的用户 ID, 按 ID 升序
	UsersWithRole(roleCode string) ([]string, error)
	// ActiveEmployeesInOrg 返回指定组织单元内在职员工, 按用户 ID 升序
	ActiveEmployeesInOrg(orgUnitID string) ([]*DirectoryEmployee, error)
	// ActiveEmployees 返回全部在职员工, 按用户 ID 升序
	ActiveEmployees() ([]*DirectoryEmployee, error)
}

// FormRegistry 申请单类型注册表查询接口
type FormRegistry interface {
	// FormType 根据 ID 查询申请单类型, 不存在时返回 (nil, nil)
	FormType(id string) (*model.FormTypeModel, error)
}

// BusinessCalendar 业务日历接口, 提供组织口径的"今天"
type BusinessCalendar interface {
	Today() time.Time
}

// Notifier 状态变更推送接口
type Notifier interface {
	RequestStatusChanged(requestID string, status string)
}

// FixedZoneCalendar 固定时区的业务日历实现
type FixedZoneCalendar struct {
	loc *time.Location
}

// NewFixedZoneCalendar 创建固定时区日历, 时区无效时退回 UTC
func NewFixedZoneCalendar(name string) *FixedZoneCalendar {
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	return &FixedZoneCalendar{loc: loc}
}

// Today 返回该时区当天零点
func (c *FixedZoneCalendar) Today() time.Time {
	now := time.Now().In(c.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
}
