package model

import (
	"errors"
	"time"
)

// 雇佣状态
const (
	EmploymentActive   = "ACTIVE"
	EmploymentInactive = "INACTIVE"
)

// UserModel 用户数据模型
// 目录表对工作流引擎只读, 由管理/种子流程维护
type UserModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)"`
	Name         string    `gorm:"type:varchar(255);not null"`
	IsActive     bool      `gorm:"not null;default:true;index"`
	PasswordHash string    `gorm:"type:varchar(255)"` // bcrypt
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// Validate 验证用户模型
func (um *UserModel) Validate() error {
	if um.ID == "" {
		return errors.New("user ID is required")
	}
	if um.Name == "" {
		return errors.New("user name is required")
	}
	return nil
}

// EmployeeModel 员工档案数据模型
type EmployeeModel struct {
	UserID           string    `gorm:"primaryKey;type:varchar(64)"`
	OrgUnitID        string    `gorm:"type:varchar(64);not null;index"`
	PositionTitle    string    `gorm:"type:varchar(255);not null"`
	EmploymentStatus string    `gorm:"type:varchar(16);not null;index"` // ACTIVE/INACTIVE
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName 指定表名
func (EmployeeModel) TableName() string {
	return "employees"
}

// Validate 验证员工档案模型
func (em *EmployeeModel) Validate() error {
	if em.UserID == "" {
		return errors.New("user ID is required")
	}
	if em.OrgUnitID == "" {
		return errors.New("org unit ID is required")
	}
	return nil
}

// UserRoleModel 用户角色数据模型
type UserRoleModel struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	UserID   string `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_user_roles_user_role,priority:1"`
	RoleCode string `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_user_roles_user_role,priority:2"`
}

// TableName 指定表名
func (UserRoleModel) TableName() string {
	return "user_roles"
}

// Validate 验证用户角色模型
func (rm *UserRoleModel) Validate() error {
	if rm.UserID == "" {
		return errors.New("user ID is required")
	}
	if rm.RoleCode == "" {
		return errors.New("role code is required")
	}
	return nil
}
