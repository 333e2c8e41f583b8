package repository

import (
	"github.com/hrdesk/hri-gin/internal/model"
	"github.com/hrdesk/hri-gin/internal/workflow"
	"gorm.io/gorm"
)

// directoryRepository 组织与身份查询仓储, 实现 workflow.Directory
// 目录表对引擎只读, 无需加锁
type directoryRepository struct {
	db *gorm.DB
}

// NewDirectoryRepository 创建组织与身份查询仓储
func NewDirectoryRepository(db *gorm.DB) workflow.Directory {
	return &directoryRepository{db: db}
}

// User 根据用户 ID 查询用户
func (r *directoryRepository) User(id string) (*workflow.DirectoryUser, error) {
	var user model.UserModel
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &workflow.DirectoryUser{ID: user.ID, Name: user.Name, IsActive: user.IsActive}, nil
}

// Employee 根据用户 ID 查询员工档案
func (r *directoryRepository) Employee(userID string) (*workflow.DirectoryEmployee, error) {
	var emp model.EmployeeModel
	if err := r.db.Where("user_id = ?", userID).First(&emp).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return toDirectoryEmployee(&emp), nil
}

// UsersWithRole 返回持有指定角色的用户 ID, 按 ID 升序
func (r *directoryRepository) UsersWithRole(roleCode string) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.UserRoleModel{}).
		Where("role_code = ?", roleCode).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// ActiveEmployeesInOrg 返回指定组织单元内的在职员工, 按用户 ID 升序
func (r *directoryRepository) ActiveEmployeesInOrg(orgUnitID string) ([]*workflow.DirectoryEmployee, error) {
	var emps []*model.EmployeeModel
	err := r.db.Where("org_unit_id = ? AND employment_status = ?", orgUnitID, model.EmploymentActive).
		Order("user_id ASC").Find(&emps).Error
	if err != nil {
		return nil, err
	}
	return toDirectoryEmployees(emps), nil
}

// ActiveEmployees 返回全部在职员工, 按用户 ID 升序
func (r *directoryRepository) ActiveEmployees() ([]*workflow.DirectoryEmployee, error) {
	var emps []*model.EmployeeModel
	err := r.db.Where("employment_status = ?", model.EmploymentActive).
		Order("user_id ASC").Find(&emps).Error
	if err != nil {
		return nil, err
	}
	return toDirectoryEmployees(emps), nil
}

func toDirectoryEmployee(emp *model.EmployeeModel) *workflow.DirectoryEmployee {
	return &workflow.DirectoryEmployee{
		UserID:        emp.UserID,
		OrgUnitID:     emp.OrgUnitID,
		PositionTitle: emp.PositionTitle,
		IsActive:      emp.EmploymentStatus == model.EmploymentActive,
	}
}

func toDirectoryEmployees(emps []*model.EmployeeModel) []*workflow.DirectoryEmployee {
	result := make([]*workflow.DirectoryEmployee, len(emps))
	for i, emp := range emps {
		result[i] = toDirectoryEmployee(emp)
	}
	return result
}
