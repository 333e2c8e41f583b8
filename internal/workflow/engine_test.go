package workflow_test

import (
	"testing"
	"time"

	"github.com/hrdesk/hri-gin/internal/database"
	"github.com/hrdesk/hri-gin/internal/model"
	"github.com/hrdesk/hri-gin/internal/repository"
	"github.com/hrdesk/hri-gin/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fixedCalendar 固定日期的业务日历, 让模板选择可控
type fixedCalendar struct {
	today time.Time
}

func (c *fixedCalendar) Today() time.Time {
	return c.today
}

// setupEngine 创建内存数据库与引擎, 并写入一套最小组织与审批线配置
func setupEngine(t *testing.T) (*workflow.Engine, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	seedWorkflowFixtures(t, db)

	calendar := &fixedCalendar{today: time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)}
	engine := workflow.NewEngine(db,
		repository.NewDirectoryRepository(db),
		repository.NewFormTypeRepository(db),
		calendar, nil)
	return engine, db
}

// seedWorkflowFixtures 组织目录 + 申请单类型 + 解析规则 + 审批线模板
// alice 是申请人, bob 是同组团队长, carol 是同组部门长, dana 是 HR 管理员
func seedWorkflowFixtures(t *testing.T, db *gorm.DB) {
	now := time.Now()

	users := []model.UserModel{
		{ID: "u-alice", Name: "Alice Kim", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "u-bob", Name: "Bob Lee", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "u-carol", Name: "Carol Park", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "u-dana", Name: "Dana Choi", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "u-eve", Name: "Eve Jung", IsActive: true, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, db.Create(&users).Error)

	employees := []model.EmployeeModel{
		{UserID: "u-alice", OrgUnitID: "org-dev", PositionTitle: "Software Engineer", EmploymentStatus: model.EmploymentActive, CreatedAt: now, UpdatedAt: now},
		{UserID: "u-bob", OrgUnitID: "org-dev", PositionTitle: "Team Lead", EmploymentStatus: model.EmploymentActive, CreatedAt: now, UpdatedAt: now},
		{UserID: "u-carol", OrgUnitID: "org-dev", PositionTitle: "Department Head", EmploymentStatus: model.EmploymentActive, CreatedAt: now, UpdatedAt: now},
		{UserID: "u-dana", OrgUnitID: "org-hr", PositionTitle: "HR Manager", EmploymentStatus: model.EmploymentActive, CreatedAt: now, UpdatedAt: now},
		// eve 所在组织没有任何团队长
		{UserID: "u-eve", OrgUnitID: "org-sales", PositionTitle: "Account Executive", EmploymentStatus: model.EmploymentActive, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, db.Create(&employees).Error)

	require.NoError(t, db.Create(&model.UserRoleModel{UserID: "u-dana", RoleCode: "HR_ADMIN"}).Error)

	forms := []model.FormTypeModel{
		{ID: "LEAVE", Name: "Leave Request", Module: "attendance", Prefix: "LV", AllowDraftEdit: true, AllowWithdraw: true, CreatedAt: now, UpdatedAt: now},
		{ID: "CERT", Name: "Employment Certificate", Module: "documents", Prefix: "CT", AllowDraftEdit: true, AllowWithdraw: false, RequiresReceive: true, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, db.Create(&forms).Error)

	rules := []model.ActorResolutionRuleModel{
		{RoleCode: "TEAM_LEAD", Method: model.ResolveMethodOrgChain, Keywords: "team lead", FallbackPolicy: model.FallbackEscalate, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{RoleCode: "DEPT_HEAD", Method: model.ResolveMethodOrgChain, Keywords: "department head", FallbackPolicy: model.FallbackHRAdmin, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{RoleCode: "HR_STAFF", Method: model.ResolveMethodFixedUser, FallbackPolicy: model.FallbackHRAdmin, IsActive: true, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, db.Create(&rules).Error)

	leaveTpl := model.ApprovalLineTemplateModel{
		Name: "Standard Leave Line", Scope: "GLOBAL", IsActive: true, IsDefault: true, Priority: 10,
		CreatedAt: now, UpdatedAt: now,
		Steps: []model.ApprovalLineStepModel{
			{StepOrder: 1, StepType: model.StepTypeApproval, ResolveMode: model.ResolveModeRoleBased, RoleCode: "TEAM_LEAD", RequiredAction: "APPROVE"},
			{StepOrder: 2, StepType: model.StepTypeApproval, ResolveMode: model.ResolveModeRoleBased, RoleCode: "DEPT_HEAD", RequiredAction: "APPROVE"},
			{StepOrder: 3, StepType: model.StepTypeReference, ResolveMode: model.ResolveModeRoleBased, RoleCode: "HR_STAFF", RequiredAction: "APPROVE"},
		},
	}
	require.NoError(t, db.Create(&leaveTpl).Error)

	certTpl := model.ApprovalLineTemplateModel{
		Name: "Certificate Issue Line", Scope: "GLOBAL", IsActive: true, Priority: 10,
		CreatedAt: now, UpdatedAt: now,
		Steps: []model.ApprovalLineStepModel{
			{StepOrder: 1, StepType: model.StepTypeApproval, ResolveMode: model.ResolveModeRoleBased, RoleCode: "TEAM_LEAD", RequiredAction: "APPROVE"},
			{StepOrder: 2, StepType: model.StepTypeReceive, ResolveMode: model.ResolveModeRoleBased, RoleCode: "HR_STAFF", RequiredAction: "RECEIVE"},
		},
	}
	require.NoError(t, db.Create(&certTpl).Error)

	maps := []model.FormTypeApprovalMapModel{
		{FormTypeID: "LEAVE", TemplateID: leaveTpl.ID, EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), IsActive: true, CreatedAt: now, UpdatedAt: now},
		{FormTypeID: "CERT", TemplateID: certTpl.ID, EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), IsActive: true, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, db.Create(&maps).Error)
}

// createDraft 建一张草稿并返回申请单 ID
func createDraft(t *testing.T, engine *workflow.Engine, requester string, formType string) string {
	summary, err := engine.UpsertDraft(requester, &workflow.DraftInput{
		FormTypeID: formType,
		Title:      "test request",
		Content:    []byte(`{"days":3}`),
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusDraft, summary.Status)
	require.Empty(t, summary.RequestNo)
	return summary.RequestID
}

// TestSubmit_BuildsSnapshotsAndIssuesNumber 测试提交后的快照构建与单号签发
func TestSubmit_BuildsSnapshotsAndIssuesNumber(t *testing.T) {
	engine, db := setupEngine(t)
	id := createDraft(t, engine, "u-alice", "LEAVE")

	result, err := engine.Submit("u-alice", id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApprovalInProgress, result.Status)
	require.NotNil(t, result.CurrentStepOrder)
	assert.Equal(t, 1, *result.CurrentStepOrder)

	var req model.RequestMasterModel
	require.NoError(t, db.First(&req, "id = ?", id).Error)
	assert.Equal(t, "LV-"+time.Now().Format("200601")+"-000001", req.RequestNo)
	assert.NotNil(t, req.SubmittedAt)

	var snaps []model.RequestStepSnapshotModel
	require.NoError(t, db.Where("request_id = ?", id).Order("step_order ASC").Find(&snaps).Error)
	require.Len(t, snaps, 3)

	// 步骤 1: 同组团队长 bob
	assert.Equal(t, "u-bob", snaps[0].ActorID)
	assert.Equal(t, "Bob Lee", snaps[0].ActorName)
	assert.Equal(t, "org-dev", snaps[0].ActorOrgID)
	assert.Equal(t, model.ActionWaiting, snaps[0].ActionStatus)

	// 步骤 2: 同组部门长 carol
	assert.Equal(t, "u-carol", snaps[1].ActorID)
	assert.Equal(t, model.ActionWaiting, snaps[1].ActionStatus)

	// 步骤 3: REFERENCE 在提交时即完成
	assert.Equal(t, model.StepTypeReference, snaps[2].StepType)
	assert.Equal(t, model.ActionReceived, snaps[2].ActionStatus)
	assert.NotNil(t, snaps[2].ActedAt)
}

// TestApprove_AdvancesThenCompletes 测试逐级审批直至完结
func TestApprove_AdvancesThenCompletes(t *testing.T) {
	engine, db := setupEngine(t)
	id := createDraft(t, engine, "u-alice", "LEAVE")
	_, err := engine.Submit("u-alice", id)
	require.NoError(t, err)

	result, err := engine.Approve("u-bob", id, "looks good")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApprovalInProgress, result.Status)
	require.NotNil(t, result.CurrentStepOrder)
	assert.Equal(t, 2, *result.CurrentStepOrder)

	result, err = engine.Approve("u-carol", id, "approved")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, result.Status)
	assert.Nil(t, result.CurrentStepOrder)

	var req model.RequestMasterModel
	require.NoError(t, db.First(&req, "id = ?", id).Error)
	assert.NotNil(t, req.CompletedAt)

	// 历史链: CREATE → SUBMIT → APPROVE → APPROVE
	var history []model.RequestHistoryModel
	require.NoError(t, db.Where("request_id = ?", id).Order("created_at ASC").Find(&history).Error)
	require.Len(t, history, 4)
	assert.Equal(t, model.EventCreate, history[0].EventType)
	assert.Equal(t, model.EventSubmit, history[1].EventType)
	assert.Equal(t, model.EventApprove, history[2].EventType)
	assert.Equal(t, model.EventApprove, history[3].EventType)
}

// TestApprove_WrongActorLeavesStateUnchanged 测试非当前审批人操作被拒且不产生副作用
func TestApprove_WrongActorLeavesStateUnchanged(t *testing.T) {
	engine, db := setupEngine(t)
	id := createDraft(t, engine, "u-alice", "LEAVE")
	_, err := engine.Submit("u-alice", id)
	require.NoError(t, err)

	// carol 是步骤 2 的审批人, 但当前步骤是 1
	_, err = engine.Approve("u-carol", id, "")
	var forbidden *workflow.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	var req model.RequestMasterModel
	require.NoError(t, db.First(&req, "id = ?", id).Error)
	assert.Equal(t, model.StatusApprovalInProgress, req.Status)
	require.NotNil(t, req.CurrentStepOrder)
	assert.Equal(t, 1, *req.CurrentStepOrder)

	var snap model.RequestStepSnapshotModel
	require.NoError(t, db.Where("request_id = ? AND step_order = ?", id, 1).First(&snap).Error)
	assert.Equal(t, model.ActionWaiting, snap.ActionStatus)
}

// TestReject_ThenEditAndResubmit 测试拒绝后重新编辑并再次提交会重建快照
func TestReject_ThenEditAndResubmit(t *testing.T) {
	engine, db := setupEngine(t)
	id := createDraft(t, engine, "u-alice", "LEAVE")
	_, err := engine.Submit("u-alice", id)
	require.NoError(t, err)

	var firstRound []model.RequestStepSnapshotModel
	require.NoError(t, db.Where("request_id = ?", id).Find(&firstRound).Error)
	firstIDs := make(map[string]bool)
	for _, s := range firstRound {
		firstIDs[s.ID] = true
	}
	var reqNo string
	{
		var req model.RequestMasterModel
		require.NoError(t, db.First(&req, "id = ?", id).Error)
		reqNo = req.RequestNo
	}

	result, err := engine.Reject("u-bob", id, "missing details")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApprovalRejected, result.Status)
	assert.Nil(t, result.CurrentStepOrder)

	// 被拒后可重新编辑, 状态回到 DRAFT
	summary, err := engine.UpsertDraft("u-alice", &workflow.DraftInput{
		RequestID: id,
		Title:     "test request v2",
		Content:   []byte(`{"days":2}`),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, summary.Status)

	result, err = engine.Submit("u-alice", id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApprovalInProgress, result.Status)

	// 快照整组重建, 旧 ID 全部丢弃, 单号保持不变
	var secondRound []model.RequestStepSnapshotModel
	require.NoError(t, db.Where("request_id = ?", id).Order("step_order ASC").Find(&secondRound).Error)
	require.Len(t, secondRound, 3)
	for _, s := range secondRound {
		assert.False(t, firstIDs[s.ID], "old snapshot %s must be discarded", s.ID)
	}
	assert.Equal(t, model.ActionWaiting, secondRound[0].ActionStatus)

	var req model.RequestMasterModel
	require.NoError(t, db.First(&req, "id = ?", id).Error)
	assert.Equal(t, reqNo, req.RequestNo)
}

// TestReceiveFlow_CompletesAfterReceive 测试审批通过后进入接收阶段并完结
func TestReceiveFlow_CompletesAfterReceive(t *testing.T) {
	engine, _ := setupEngine(t)
	id := createDraft(t, engine, "u-alice", "CERT")
	_, err := engine.Submit("u-alice", id)
	require.NoError(t, err)

	result, err := engine.Approve("u-bob", id, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReceiveInProgress, result.Status)
	require.NotNil(t, result.CurrentStepOrder)
	assert.Equal(t, 2, *result.CurrentStepOrder)

	// HR_STAFF 经 FIXED_USER 方法落到管理员池, 即 dana
	result, err = engine.ReceiveComplete("u-dana", id, "issued")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, result.Status)
}

// TestReceiveReject_ReturnsEditable 测试接收拒绝后回到可编辑状态族
func TestReceiveReject_ReturnsEditable(t *testing.T) {
	engine, _ := setupEngine(t)
	id := createDraft(t, engine, "u-alice", "CERT")
	_, err := engine.Submit("u-alice", id)
	require.NoError(t, err)
	_, err = engine.Approve("u-bob", id, "")
	require.NoError(t, err)

	result, err := engine.ReceiveReject("u-dana", id, "wrong recipient")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReceiveRejected, result.Status)

	// 接收拒绝后申请人可以再次编辑
	summary, err := engine.UpsertDraft("u-alice", &workflow.DraftInput{
		RequestID: id,
		Title:     "fixed recipient",
		Content:   []byte(`{}`),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, summary.Status)
}

// TestWithdraw_MarksWaitingSnapshots 测试撤回将未处理快照标记为 REJECTED
func TestWithdraw_MarksWaitingSnapshots(t *testing.T) {
	engine, db := setupEngine(t)
	id := createDraft(t, engine, "u-alice", "LEAVE")
	_, err := engine.Submit("u-alice", id)
	require.NoError(t, err)

	result, err := engine.Withdraw("u-alice", id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusWithdrawn, result.Status)

	var snaps []model.RequestStepSnapshotModel
	require.NoError(t, db.Where("request_id = ? AND step_type <> ?", id, model.StepTypeReference).Find(&snaps).Error)
	for _, s := range snaps {
		assert.Equal(t, model.ActionRejected, s.ActionStatus)
		assert.NotNil(t, s.ActedAt)
	}

	// 撤回是终态, 不能再编辑或提交
	_, err = engine.Submit("u-alice", id)
	var conflict *workflow.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, model.StatusWithdrawn, conflict.CurrentStatus)
}

// TestWithdraw_DisallowedByFormType 测试类型禁止撤回
func TestWithdraw_DisallowedByFormType(t *testing.T) {
	engine, _ := setupEngine(t)
	id := createDraft(t, engine, "u-alice", "CERT")
	_, err := engine.Submit("u-alice", id)
	require.NoError(t, err)

	_, err = engine.Withdraw("u-alice", id)
	var conflict *workflow.ConflictError
	require.ErrorAs(t, err, &conflict)
}

// TestSubmit_EscalateFailsWholeSubmission 测试 ESCALATE 回退让提交原子失败
func TestSubmit_EscalateFailsWholeSubmission(t *testing.T) {
	engine, db := setupEngine(t)
	// eve 所在组织没有团队长, TEAM_LEAD 规则回退策略是 ESCALATE
	id := createDraft(t, engine, "u-eve", "LEAVE")

	_, err := engine.Submit("u-eve", id)
	var resolution *workflow.ResolutionError
	require.ErrorAs(t, err, &resolution)
	assert.Equal(t, "TEAM_LEAD", resolution.RoleCode)

	// 事务回滚: 状态仍是 DRAFT, 没有快照, 没有单号
	var req model.RequestMasterModel
	require.NoError(t, db.First(&req, "id = ?", id).Error)
	assert.Equal(t, model.StatusDraft, req.Status)
	assert.Empty(t, req.RequestNo)

	var count int64
	require.NoError(t, db.Model(&model.RequestStepSnapshotModel{}).Where("request_id = ?", id).Count(&count).Error)
	assert.Zero(t, count)
}

// TestSubmit_HRAdminFallback 测试 HR_ADMIN 回退落到管理员池
func TestSubmit_HRAdminFallback(t *testing.T) {
	engine, db := setupEngine(t)

	// carol 离职后 org-dev 没有部门长, DEPT_HEAD 规则回退到 HR_ADMIN
	require.NoError(t, db.Model(&model.EmployeeModel{}).
		Where("user_id = ?", "u-carol").
		Update("employment_status", model.EmploymentInactive).Error)

	id := createDraft(t, engine, "u-alice", "LEAVE")
	_, err := engine.Submit("u-alice", id)
	require.NoError(t, err)

	var snap model.RequestStepSnapshotModel
	require.NoError(t, db.Where("request_id = ? AND step_order = ?", id, 2).First(&snap).Error)
	assert.Equal(t, "u-dana", snap.ActorID)
}

// TestSubmit_AllReferenceCompletesImmediately 测试纯 REFERENCE 模板提交即完结
func TestSubmit_AllReferenceCompletesImmediately(t *testing.T) {
	engine, db := setupEngine(t)
	now := time.Now()

	form := model.FormTypeModel{ID: "NOTICE", Name: "HR Notice", Module: "documents", Prefix: "NT", AllowDraftEdit: true, AllowWithdraw: false, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, db.Create(&form).Error)

	tpl := model.ApprovalLineTemplateModel{
		Name: "Notice Line", Scope: "GLOBAL", IsActive: true, Priority: 50,
		CreatedAt: now, UpdatedAt: now,
		Steps: []model.ApprovalLineStepModel{
			{StepOrder: 1, StepType: model.StepTypeReference, ResolveMode: model.ResolveModeRoleBased, RoleCode: "HR_STAFF", RequiredAction: "APPROVE"},
			{StepOrder: 2, StepType: model.StepTypeReference, ResolveMode: model.ResolveModeRoleBased, RoleCode: "HR_STAFF", RequiredAction: "APPROVE"},
		},
	}
	require.NoError(t, db.Create(&tpl).Error)
	require.NoError(t, db.Create(&model.FormTypeApprovalMapModel{
		FormTypeID: "NOTICE", TemplateID: tpl.ID,
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:      true, CreatedAt: now, UpdatedAt: now,
	}).Error)

	id := createDraft(t, engine, "u-alice", "NOTICE")
	result, err := engine.Submit("u-alice", id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, result.Status)
	assert.Nil(t, result.CurrentStepOrder)

	var req model.RequestMasterModel
	require.NoError(t, db.First(&req, "id = ?", id).Error)
	assert.NotNil(t, req.CompletedAt)
	assert.Equal(t, "NT-"+time.Now().Format("200601")+"-000001", req.RequestNo)
}

// TestUpsertDraft_OnlyRequesterCanEdit 测试草稿的申请人独占
func TestUpsertDraft_OnlyRequesterCanEdit(t *testing.T) {
	engine, _ := setupEngine(t)
	id := createDraft(t, engine, "u-alice", "LEAVE")

	_, err := engine.UpsertDraft("u-bob", &workflow.DraftInput{
		RequestID: id,
		Title:     "hijacked",
	})
	var forbidden *workflow.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}

// TestDetail_ReturnsTimelineInOrder 测试详情查询的步骤与历史排序
func TestDetail_ReturnsTimelineInOrder(t *testing.T) {
	engine, _ := setupEngine(t)
	id := createDraft(t, engine, "u-alice", "LEAVE")
	_, err := engine.Submit("u-alice", id)
	require.NoError(t, err)

	detail, err := engine.Detail("u-dana", id)
	require.NoError(t, err)
	require.Len(t, detail.Steps, 3)
	assert.Equal(t, 1, detail.Steps[0].StepOrder)
	assert.Equal(t, 3, detail.Steps[2].StepOrder)
	require.NotEmpty(t, detail.History)
	assert.Equal(t, model.EventCreate, detail.History[0].EventType)
}

// TestListMyApprovalTasks 测试待办列表只包含当前步骤指向自己的申请单
func TestListMyApprovalTasks(t *testing.T) {
	engine, _ := setupEngine(t)
	id := createDraft(t, engine, "u-alice", "LEAVE")
	_, err := engine.Submit("u-alice", id)
	require.NoError(t, err)

	tasks, err := engine.ListMyApprovalTasks("u-bob")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, id, tasks[0].ID)

	// carol 是步骤 2 的审批人, 当前步骤还没轮到她
	tasks, err = engine.ListMyApprovalTasks("u-carol")
	require.NoError(t, err)
	assert.Empty(t, tasks)

	// bob 审批后待办转移给 carol
	_, err = engine.Approve("u-bob", id, "")
	require.NoError(t, err)

	tasks, err = engine.ListMyApprovalTasks("u-carol")
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	tasks, err = engine.ListMyApprovalTasks("u-bob")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

// TestSubmit_UnknownRequest 测试不存在的申请单
func TestSubmit_UnknownRequest(t *testing.T) {
	engine, _ := setupEngine(t)

	_, err := engine.Submit("u-alice", "no-such-id")
	var notFound *workflow.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
