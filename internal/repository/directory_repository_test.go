package repository_test

import (
	"testing"
	"time"

	"github.com/hrdesk/hri-gin/internal/database"
	"github.com/hrdesk/hri-gin/internal/model"
	"github.com/hrdesk/hri-gin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDBForDirectory 创建目录查询测试数据库
func setupTestDBForDirectory(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	now := time.Now()
	users := []model.UserModel{
		{ID: "u-alice", Name: "Alice Kim", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "u-bob", Name: "Bob Lee", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "u-carol", Name: "Carol Park", IsActive: false, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, db.Create(&users).Error)

	employees := []model.EmployeeModel{
		{UserID: "u-bob", OrgUnitID: "org-dev", PositionTitle: "Team Lead", EmploymentStatus: model.EmploymentActive, CreatedAt: now, UpdatedAt: now},
		{UserID: "u-alice", OrgUnitID: "org-dev", PositionTitle: "Software Engineer", EmploymentStatus: model.EmploymentActive, CreatedAt: now, UpdatedAt: now},
		{UserID: "u-carol", OrgUnitID: "org-dev", PositionTitle: "Department Head", EmploymentStatus: model.EmploymentInactive, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, db.Create(&employees).Error)

	roles := []model.UserRoleModel{
		{UserID: "u-bob", RoleCode: "HR_ADMIN"},
		{UserID: "u-alice", RoleCode: "HR_ADMIN"},
	}
	require.NoError(t, db.Create(&roles).Error)

	return db
}

// TestDirectoryRepository_User 测试用户查询与缺失语义
func TestDirectoryRepository_User(t *testing.T) {
	dir := repository.NewDirectoryRepository(setupTestDBForDirectory(t))

	user, err := dir.User("u-alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Alice Kim", user.Name)
	assert.True(t, user.IsActive)

	// 不存在的用户返回 (nil, nil), 不是错误
	user, err = dir.User("u-ghost")
	require.NoError(t, err)
	assert.Nil(t, user)
}

// TestDirectoryRepository_Employee 测试员工档案查询
func TestDirectoryRepository_Employee(t *testing.T) {
	dir := repository.NewDirectoryRepository(setupTestDBForDirectory(t))

	emp, err := dir.Employee("u-carol")
	require.NoError(t, err)
	require.NotNil(t, emp)
	assert.Equal(t, "org-dev", emp.OrgUnitID)
	assert.False(t, emp.IsActive)

	emp, err = dir.Employee("u-ghost")
	require.NoError(t, err)
	assert.Nil(t, emp)
}

// TestDirectoryRepository_UsersWithRole 测试角色成员按 ID 升序
func TestDirectoryRepository_UsersWithRole(t *testing.T) {
	dir := repository.NewDirectoryRepository(setupTestDBForDirectory(t))

	ids, err := dir.UsersWithRole("HR_ADMIN")
	require.NoError(t, err)
	assert.Equal(t, []string{"u-alice", "u-bob"}, ids)

	ids, err = dir.UsersWithRole("NO_SUCH_ROLE")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

// TestDirectoryRepository_ActiveEmployeesInOrg 测试组织内在职过滤与排序
func TestDirectoryRepository_ActiveEmployeesInOrg(t *testing.T) {
	dir := repository.NewDirectoryRepository(setupTestDBForDirectory(t))

	emps, err := dir.ActiveEmployeesInOrg("org-dev")
	require.NoError(t, err)
	// carol 离职, 不在结果中; 按用户 ID 升序
	require.Len(t, emps, 2)
	assert.Equal(t, "u-alice", emps[0].UserID)
	assert.Equal(t, "u-bob", emps[1].UserID)
}

// TestFormTypeRepository 测试申请单类型查询
func TestFormTypeRepository(t *testing.T) {
	db := setupTestDBForDirectory(t)
	now := time.Now()
	require.NoError(t, db.Create(&model.FormTypeModel{
		ID: "LEAVE", Name: "Leave Request", Module: "attendance", Prefix: "LV",
		AllowDraftEdit: true, AllowWithdraw: true, CreatedAt: now, UpdatedAt: now,
	}).Error)

	forms := repository.NewFormTypeRepository(db)

	form, err := forms.FormType("LEAVE")
	require.NoError(t, err)
	require.NotNil(t, form)
	assert.Equal(t, "LV", form.Prefix)

	form, err = forms.FormType("UNKNOWN")
	require.NoError(t, err)
	assert.Nil(t, form)
}
