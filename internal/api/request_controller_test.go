package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hrdesk/hri-gin/internal/api"
	"github.com/hrdesk/hri-gin/internal/config"
	"github.com/hrdesk/hri-gin/internal/database"
	"github.com/hrdesk/hri-gin/internal/model"
	"github.com/hrdesk/hri-gin/internal/repository"
	"github.com/hrdesk/hri-gin/internal/service"
	"github.com/hrdesk/hri-gin/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestAPIServer 构建完整的 HTTP 测试栈: 内存数据库 + 引擎 + 路由
// dev_mode 开启, 用 X-User-ID 头模拟已认证用户
func setupTestAPIServer(t *testing.T) (http.Handler, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	seedAPIFixtures(t, db)

	cfg := config.Default()
	cfg.Auth.DevMode = true
	cfg.Auth.JWTSecret = "test-secret"
	cfg.RateLimit.RPS = 0

	engine := workflow.NewEngine(db,
		repository.NewDirectoryRepository(db),
		repository.NewFormTypeRepository(db),
		workflow.NewFixedZoneCalendar("UTC"), nil)
	requestService := service.NewRequestService(engine, nil)

	return api.SetupRoutes(db, cfg, requestService, nil), db
}

// seedAPIFixtures 最小组织与审批线配置
// alice 申请, bob 审批, dana 是 HR 管理员兜底
func seedAPIFixtures(t *testing.T, db *gorm.DB) {
	now := time.Now()

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	users := []model.UserModel{
		{ID: "u-alice", Name: "Alice Kim", IsActive: true, PasswordHash: string(hash), CreatedAt: now, UpdatedAt: now},
		{ID: "u-bob", Name: "Bob Lee", IsActive: true, PasswordHash: string(hash), CreatedAt: now, UpdatedAt: now},
		{ID: "u-dana", Name: "Dana Choi", IsActive: true, PasswordHash: string(hash), CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, db.Create(&users).Error)

	employees := []model.EmployeeModel{
		{UserID: "u-alice", OrgUnitID: "org-dev", PositionTitle: "Software Engineer", EmploymentStatus: model.EmploymentActive, CreatedAt: now, UpdatedAt: now},
		{UserID: "u-bob", OrgUnitID: "org-dev", PositionTitle: "Team Lead", EmploymentStatus: model.EmploymentActive, CreatedAt: now, UpdatedAt: now},
		{UserID: "u-dana", OrgUnitID: "org-hr", PositionTitle: "HR Manager", EmploymentStatus: model.EmploymentActive, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, db.Create(&employees).Error)
	require.NoError(t, db.Create(&model.UserRoleModel{UserID: "u-dana", RoleCode: "HR_ADMIN"}).Error)

	require.NoError(t, db.Create(&model.FormTypeModel{
		ID: "LEAVE", Name: "Leave Request", Module: "attendance", Prefix: "LV",
		AllowDraftEdit: true, AllowWithdraw: true, CreatedAt: now, UpdatedAt: now,
	}).Error)

	require.NoError(t, db.Create(&model.ActorResolutionRuleModel{
		RoleCode: "TEAM_LEAD", Method: model.ResolveMethodOrgChain, Keywords: "team lead",
		FallbackPolicy: model.FallbackHRAdmin, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}).Error)

	tpl := model.ApprovalLineTemplateModel{
		Name: "Single Approval Line", Scope: "GLOBAL", IsActive: true, Priority: 10,
		CreatedAt: now, UpdatedAt: now,
		Steps: []model.ApprovalLineStepModel{
			{StepOrder: 1, StepType: model.StepTypeApproval, ResolveMode: model.ResolveModeRoleBased, RoleCode: "TEAM_LEAD", RequiredAction: "APPROVE"},
		},
	}
	require.NoError(t, db.Create(&tpl).Error)
	require.NoError(t, db.Create(&model.FormTypeApprovalMapModel{
		FormTypeID: "LEAVE", TemplateID: tpl.ID,
		EffectiveFrom: now.AddDate(0, -1, 0), IsActive: true, CreatedAt: now, UpdatedAt: now,
	}).Error)
}

// doJSON 以指定用户身份发送请求, 返回响应记录器
func doJSON(t *testing.T, router http.Handler, method string, path string, userID string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeData 解出统一响应格式中的 data 字段
func decodeData(t *testing.T, body []byte) map[string]interface{} {
	var resp struct {
		Code    int                    `json:"code"`
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Equal(t, 0, resp.Code)
	return resp.Data
}

// TestRequestAPI_FullLifecycle 测试 HTTP 层的完整生命周期
// 创建草稿 -> 提交 -> 审批 -> 完结
func TestRequestAPI_FullLifecycle(t *testing.T) {
	router, _ := setupTestAPIServer(t)

	// 1. 创建草稿
	w := doJSON(t, router, "POST", "/api/v1/requests", "u-alice", service.CreateDraftRequest{
		FormTypeID: "LEAVE",
		Title:      "annual leave",
		Content:    json.RawMessage(`{"days":3}`),
	})
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w.Body.Bytes())
	requestID, _ := data["request_id"].(string)
	require.NotEmpty(t, requestID)
	assert.Equal(t, model.StatusDraft, data["status"])

	// 2. 提交
	w = doJSON(t, router, "POST", "/api/v1/requests/"+requestID+"/submit", "u-alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeData(t, w.Body.Bytes())
	assert.Equal(t, model.StatusApprovalInProgress, data["status"])

	// 3. bob 审批同意
	w = doJSON(t, router, "POST", "/api/v1/requests/"+requestID+"/approve", "u-bob", service.ActionRequest{Comment: "ok"})
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeData(t, w.Body.Bytes())
	assert.Equal(t, model.StatusCompleted, data["status"])

	// 4. 详情包含步骤时间线
	w = doJSON(t, router, "GET", "/api/v1/requests/"+requestID, "u-alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeData(t, w.Body.Bytes())
	steps, ok := data["steps"].([]interface{})
	require.True(t, ok)
	assert.Len(t, steps, 1)
}

// TestRequestAPI_ListBoxes 测试按视角列出申请单
func TestRequestAPI_ListBoxes(t *testing.T) {
	router, _ := setupTestAPIServer(t)

	w := doJSON(t, router, "POST", "/api/v1/requests", "u-alice", service.CreateDraftRequest{
		FormTypeID: "LEAVE", Title: "sick leave", Content: json.RawMessage(`{}`),
	})
	require.Equal(t, http.StatusOK, w.Code)
	requestID := decodeData(t, w.Body.Bytes())["request_id"].(string)

	w = doJSON(t, router, "POST", "/api/v1/requests/"+requestID+"/submit", "u-alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// 申请人视角
	w = doJSON(t, router, "GET", "/api/v1/requests?box=mine", "u-alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Code int           `json:"code"`
		Data []interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Len(t, listResp.Data, 1)

	// 审批人视角
	w = doJSON(t, router, "GET", "/api/v1/requests?box=approvals", "u-bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Len(t, listResp.Data, 1)

	// 未知视角
	w = doJSON(t, router, "GET", "/api/v1/requests?box=unknown", "u-alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestRequestAPI_ErrorMapping 测试引擎错误到 HTTP 状态码的映射
func TestRequestAPI_ErrorMapping(t *testing.T) {
	router, _ := setupTestAPIServer(t)

	// 不存在的申请单: 404
	w := doJSON(t, router, "POST", "/api/v1/requests/no-such-id/submit", "u-alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 建草稿后由他人提交: 403
	w = doJSON(t, router, "POST", "/api/v1/requests", "u-alice", service.CreateDraftRequest{
		FormTypeID: "LEAVE", Title: "lifecycle probe", Content: json.RawMessage(`{}`),
	})
	require.Equal(t, http.StatusOK, w.Code)
	requestID := decodeData(t, w.Body.Bytes())["request_id"].(string)

	w = doJSON(t, router, "POST", "/api/v1/requests/"+requestID+"/submit", "u-bob", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 草稿状态直接审批: 409, 响应附带当前状态
	w = doJSON(t, router, "POST", "/api/v1/requests/"+requestID+"/approve", "u-bob", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	var conflictResp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conflictResp))
	assert.Equal(t, model.StatusDraft, conflictResp["current_status"])

	// 非法 ID: 400
	w = doJSON(t, router, "POST", "/api/v1/requests/bad%20id/submit", "u-alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestRequestAPI_Validation 测试入参验证
func TestRequestAPI_Validation(t *testing.T) {
	router, _ := setupTestAPIServer(t)

	// 缺少标题
	w := doJSON(t, router, "POST", "/api/v1/requests", "u-alice", map[string]string{"form_type_id": "LEAVE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 标题携带脚本片段
	w = doJSON(t, router, "POST", "/api/v1/requests", "u-alice", service.CreateDraftRequest{
		FormTypeID: "LEAVE", Title: "<script>alert(1)</script>",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 未认证
	w = doJSON(t, router, "POST", "/api/v1/requests", "", service.CreateDraftRequest{
		FormTypeID: "LEAVE", Title: "anonymous",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestAuthAPI_Login 测试登录与凭证校验
func TestAuthAPI_Login(t *testing.T) {
	router, _ := setupTestAPIServer(t)

	w := doJSON(t, router, "POST", "/api/v1/auth/login", "", api.LoginRequest{
		UserID: "u-alice", Password: "password",
	})
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w.Body.Bytes())
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, "u-alice", data["user_id"])

	// 错误密码与未知用户返回同样的 401
	w = doJSON(t, router, "POST", "/api/v1/auth/login", "", api.LoginRequest{
		UserID: "u-alice", Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, "POST", "/api/v1/auth/login", "", api.LoginRequest{
		UserID: "u-ghost", Password: "password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestIssueAndParseToken 测试 JWT 签发与解析
func TestIssueAndParseToken(t *testing.T) {
	token, err := api.IssueToken("u-alice", "test-secret", time.Hour)
	require.NoError(t, err)

	userID, err := api.ParseToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "u-alice", userID)

	// 错误密钥
	_, err = api.ParseToken(token, "other-secret")
	assert.Error(t, err)

	// 过期令牌
	expired, err := api.IssueToken("u-alice", "test-secret", -time.Hour)
	require.NoError(t, err)
	_, err = api.ParseToken(expired, "test-secret")
	assert.Error(t, err)
}

// TestHealthEndpoint 测试健康检查
func TestHealthEndpoint(t *testing.T) {
	router, _ := setupTestAPIServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

// TestRequestIDHeader 测试请求 ID 透传
func TestRequestIDHeader(t *testing.T) {
	router, _ := setupTestAPIServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "trace-123", w.Header().Get("X-Request-ID"))
}
