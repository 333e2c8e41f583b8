package workflow

import (
	"fmt"

	"github.com/hrdesk/hri-gin/internal/model"
	"gorm.io/gorm"
)

// RequestDetail 申请单详情: 主数据 + 步骤时间线 + 流转历史
type RequestDetail struct {
	Request *model.RequestMasterModel        `json:"request"`
	Steps   []*model.RequestStepSnapshotModel `json:"steps"`
	History []*model.RequestHistoryModel      `json:"history"`
}

// Detail 查询申请单详情, 纯读取, 不改变任何状态
// viewerID 仅用于访问记录, 详情对已认证用户可见
func (e *Engine) Detail(viewerID string, requestID string) (*RequestDetail, error) {
	var req model.RequestMasterModel
	if err := e.db.Where("id = ?", requestID).First(&req).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "request", ID: requestID}
		}
		return nil, fmt.Errorf("failed to load request %q: %w", requestID, err)
	}

	var steps []*model.RequestStepSnapshotModel
	if err := e.db.Where("request_id = ?", requestID).
		Order("step_order ASC").Find(&steps).Error; err != nil {
		return nil, fmt.Errorf("failed to load step snapshots: %w", err)
	}

	var history []*model.RequestHistoryModel
	if err := e.db.Where("request_id = ?", requestID).
		Order("created_at ASC").Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to load request history: %w", err)
	}

	e.logger.WithField("viewer", viewerID).WithField("request_id", requestID).Debug("request detail viewed")

	return &RequestDetail{Request: &req, Steps: steps, History: history}, nil
}

// ListMyRequests 查询申请人自己的申请单, 新的在前
func (e *Engine) ListMyRequests(requesterID string) ([]*model.RequestMasterModel, error) {
	var requests []*model.RequestMasterModel
	err := e.db.Where("requester_id = ?", requesterID).
		Order("created_at DESC").Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, nil
}

// ListMyApprovalTasks 查询等待该用户审批的申请单
// 仅包含当前步骤指向的 WAITING APPROVAL 快照绑定到该用户的申请单
func (e *Engine) ListMyApprovalTasks(actorID string) ([]*model.RequestMasterModel, error) {
	return e.listActorTasks(actorID, model.StatusApprovalInProgress, model.StepTypeApproval)
}

// ListMyReceiveTasks 查询等待该用户接收的申请单
func (e *Engine) ListMyReceiveTasks(actorID string) ([]*model.RequestMasterModel, error) {
	return e.listActorTasks(actorID, model.StatusReceiveInProgress, model.StepTypeReceive)
}

func (e *Engine) listActorTasks(actorID string, status string, stepType string) ([]*model.RequestMasterModel, error) {
	var requests []*model.RequestMasterModel
	err := e.db.Model(&model.RequestMasterModel{}).
		Joins("JOIN request_step_snapshots s ON s.request_id = request_masters.id AND s.step_order = request_masters.current_step_order").
		Where("request_masters.status = ?", status).
		Where("s.actor_id = ? AND s.step_type = ? AND s.action_status = ?",
			actorID, stepType, model.ActionWaiting).
		Order("request_masters.submitted_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list actor tasks: %w", err)
	}
	return requests, nil
}
