package service

import (
	"context"
	"encoding/json"

	"github.com/hrdesk/hri-gin/internal/metrics"
	"github.com/hrdesk/hri-gin/internal/model"
	"github.com/hrdesk/hri-gin/internal/workflow"
)

// RequestService 申请单服务接口
type RequestService interface {
	CreateDraft(ctx context.Context, userID string, req *CreateDraftRequest) (*workflow.RequestSummary, error)
	UpdateDraft(ctx context.Context, userID string, requestID string, req *UpdateDraftRequest) (*workflow.RequestSummary, error)
	Submit(ctx context.Context, userID string, requestID string) (*workflow.TransitionResult, error)
	Withdraw(ctx context.Context, userID string, requestID string) (*workflow.TransitionResult, error)
	Approve(ctx context.Context, userID string, requestID string, req *ActionRequest) (*workflow.TransitionResult, error)
	Reject(ctx context.Context, userID string, requestID string, req *ActionRequest) (*workflow.TransitionResult, error)
	ReceiveComplete(ctx context.Context, userID string, requestID string, req *ActionRequest) (*workflow.TransitionResult, error)
	ReceiveReject(ctx context.Context, userID string, requestID string, req *ActionRequest) (*workflow.TransitionResult, error)
	Get(userID string, requestID string) (*workflow.RequestDetail, error)
	ListMine(userID string) ([]*model.RequestMasterModel, error)
	ListApprovals(userID string) ([]*model.RequestMasterModel, error)
	ListReceives(userID string) ([]*model.RequestMasterModel, error)
}

// CreateDraftRequest 创建草稿请求
type CreateDraftRequest struct {
	FormTypeID string          `json:"form_type_id" binding:"required"` // 申请单类型编码
	Title      string          `json:"title" binding:"required"`        // 标题
	Content    json.RawMessage `json:"content"`                         // 表单内容(JSON 格式)
}

// UpdateDraftRequest 修改草稿请求
type UpdateDraftRequest struct {
	Title   string          `json:"title" binding:"required"` // 标题
	Content json.RawMessage `json:"content"`                  // 表单内容(JSON 格式)
}

// ActionRequest 流转动作请求
type ActionRequest struct {
	Comment string `json:"comment"` // 处理意见
}

// requestService 申请单服务实现
type requestService struct {
	engine   *workflow.Engine
	auditSvc AuditLogService
}

// NewRequestService 创建申请单服务
func NewRequestService(engine *workflow.Engine, auditSvc AuditLogService) RequestService {
	return &requestService{
		engine:   engine,
		auditSvc: auditSvc,
	}
}

// CreateDraft 创建草稿
func (s *requestService) CreateDraft(ctx context.Context, userID string, req *CreateDraftRequest) (*workflow.RequestSummary, error) {
	summary, err := s.engine.UpsertDraft(userID, &workflow.DraftInput{
		FormTypeID: req.FormTypeID,
		Title:      req.Title,
		Content:    req.Content,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordRequestCreated()
	s.record(ctx, userID, "create_draft", summary.RequestID, req)
	return summary, nil
}

// UpdateDraft 修改草稿, 也用于被拒后的重新编辑
func (s *requestService) UpdateDraft(ctx context.Context, userID string, requestID string, req *UpdateDraftRequest) (*workflow.RequestSummary, error) {
	summary, err := s.engine.UpsertDraft(userID, &workflow.DraftInput{
		RequestID: requestID,
		Title:     req.Title,
		Content:   req.Content,
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, userID, "update_draft", requestID, req)
	return summary, nil
}

// Submit 提交申请单
func (s *requestService) Submit(ctx context.Context, userID string, requestID string) (*workflow.TransitionResult, error) {
	result, err := s.engine.Submit(userID, requestID)
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition("submit")
	s.record(ctx, userID, "submit", requestID, result)
	return result, nil
}

// Withdraw 撤回申请单
func (s *requestService) Withdraw(ctx context.Context, userID string, requestID string) (*workflow.TransitionResult, error) {
	result, err := s.engine.Withdraw(userID, requestID)
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition("withdraw")
	s.record(ctx, userID, "withdraw", requestID, result)
	return result, nil
}

// Approve 审批同意
func (s *requestService) Approve(ctx context.Context, userID string, requestID string, req *ActionRequest) (*workflow.TransitionResult, error) {
	result, err := s.engine.Approve(userID, requestID, req.Comment)
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition("approve")
	s.record(ctx, userID, "approve", requestID, result)
	return result, nil
}

// Reject 审批拒绝
func (s *requestService) Reject(ctx context.Context, userID string, requestID string, req *ActionRequest) (*workflow.TransitionResult, error) {
	result, err := s.engine.Reject(userID, requestID, req.Comment)
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition("reject")
	s.record(ctx, userID, "reject", requestID, result)
	return result, nil
}

// ReceiveComplete 接收完成
func (s *requestService) ReceiveComplete(ctx context.Context, userID string, requestID string, req *ActionRequest) (*workflow.TransitionResult, error) {
	result, err := s.engine.ReceiveComplete(userID, requestID, req.Comment)
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition("receive_complete")
	s.record(ctx, userID, "receive_complete", requestID, result)
	return result, nil
}

// ReceiveReject 接收拒绝
func (s *requestService) ReceiveReject(ctx context.Context, userID string, requestID string, req *ActionRequest) (*workflow.TransitionResult, error) {
	result, err := s.engine.ReceiveReject(userID, requestID, req.Comment)
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition("receive_reject")
	s.record(ctx, userID, "receive_reject", requestID, result)
	return result, nil
}

// Get 查询申请单详情
func (s *requestService) Get(userID string, requestID string) (*workflow.RequestDetail, error) {
	return s.engine.Detail(userID, requestID)
}

// ListMine 查询我发起的申请单
func (s *requestService) ListMine(userID string) ([]*model.RequestMasterModel, error) {
	return s.engine.ListMyRequests(userID)
}

// ListApprovals 查询待我审批的申请单
func (s *requestService) ListApprovals(userID string) ([]*model.RequestMasterModel, error) {
	return s.engine.ListMyApprovalTasks(userID)
}

// ListReceives 查询待我接收的申请单
func (s *requestService) ListReceives(userID string) ([]*model.RequestMasterModel, error) {
	return s.engine.ListMyReceiveTasks(userID)
}

// record 写入审计日志, 失败不影响主流程
func (s *requestService) record(ctx context.Context, userID string, action string, requestID string, details interface{}) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.RecordAction(ctx, userID, action, "request", requestID, details)
}
