package workflow

import (
	"fmt"
	"time"

	"github.com/hrdesk/hri-gin/internal/model"
	"gorm.io/gorm"
)

// Approve 当前审批步骤的审批人同意
// 依次推进: 下一个 WAITING APPROVAL 步骤 → 下一个 WAITING RECEIVE 步骤 → 完结
func (e *Engine) Approve(actorID string, requestID string, comment string) (*TransitionResult, error) {
	var result *TransitionResult

	err := e.db.Transaction(func(tx *gorm.DB) error {
		req, err := e.lockRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != model.StatusApprovalInProgress {
			return &ConflictError{Message: "request cannot be approved in its current status", CurrentStatus: req.Status}
		}

		snap, err := e.currentSnapshot(tx, req, model.StepTypeApproval)
		if err != nil {
			return err
		}
		if snap.ActorID != actorID {
			return &ForbiddenError{Message: "acting user is not the approver of the current step"}
		}

		now := time.Now()
		if err := e.markSnapshot(tx, snap, model.ActionApproved, comment, now); err != nil {
			return err
		}

		fromStatus := req.Status
		if err := e.advanceAfterApproval(tx, req, now); err != nil {
			return err
		}
		if err := e.saveRequest(tx, req); err != nil {
			return err
		}
		if err := e.appendHistory(tx, req.ID, model.EventApprove, fromStatus, req.Status, actorID, map[string]interface{}{
			"step_order": snap.StepOrder,
			"comment":    comment,
		}); err != nil {
			return err
		}

		result = transition(req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.notifyStatus(result.RequestID, result.Status)
	return result, nil
}

// Reject 当前审批步骤的审批人拒绝
// 申请单进入 APPROVAL_REJECTED 并清空当前步骤, 重新变为可编辑
func (e *Engine) Reject(actorID string, requestID string, comment string) (*TransitionResult, error) {
	return e.rejectCurrent(actorID, requestID, comment,
		model.StatusApprovalInProgress, model.StepTypeApproval,
		model.StatusApprovalRejected, model.EventReject)
}

// ReceiveComplete 当前接收步骤的接收人确认完成
// 推进到下一个 WAITING RECEIVE 步骤, 没有则完结
func (e *Engine) ReceiveComplete(actorID string, requestID string, comment string) (*TransitionResult, error) {
	var result *TransitionResult

	err := e.db.Transaction(func(tx *gorm.DB) error {
		req, err := e.lockRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != model.StatusReceiveInProgress {
			return &ConflictError{Message: "request cannot be received in its current status", CurrentStatus: req.Status}
		}

		snap, err := e.currentSnapshot(tx, req, model.StepTypeReceive)
		if err != nil {
			return err
		}
		if snap.ActorID != actorID {
			return &ForbiddenError{Message: "acting user is not the receiver of the current step"}
		}

		now := time.Now()
		if err := e.markSnapshot(tx, snap, model.ActionReceived, comment, now); err != nil {
			return err
		}

		fromStatus := req.Status
		next, err := e.nextWaiting(tx, req.ID, model.StepTypeReceive)
		if err != nil {
			return err
		}
		if next != nil {
			order := next.StepOrder
			req.CurrentStepOrder = &order
		} else {
			req.Status = model.StatusCompleted
			req.CompletedAt = &now
			req.CurrentStepOrder = nil
		}
		req.UpdatedAt = now
		if err := e.saveRequest(tx, req); err != nil {
			return err
		}
		if err := e.appendHistory(tx, req.ID, model.EventReceiveComplete, fromStatus, req.Status, actorID, map[string]interface{}{
			"step_order": snap.StepOrder,
			"comment":    comment,
		}); err != nil {
			return err
		}

		result = transition(req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.notifyStatus(result.RequestID, result.Status)
	return result, nil
}

// ReceiveReject 当前接收步骤的接收人拒绝
func (e *Engine) ReceiveReject(actorID string, requestID string, comment string) (*TransitionResult, error) {
	return e.rejectCurrent(actorID, requestID, comment,
		model.StatusReceiveInProgress, model.StepTypeReceive,
		model.StatusReceiveRejected, model.EventReceiveReject)
}

// rejectCurrent 审批拒绝与接收拒绝的公共路径
func (e *Engine) rejectCurrent(actorID string, requestID string, comment string, wantStatus string, wantType string, toStatus string, event string) (*TransitionResult, error) {
	var result *TransitionResult

	err := e.db.Transaction(func(tx *gorm.DB) error {
		req, err := e.lockRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != wantStatus {
			return &ConflictError{Message: "request cannot be rejected in its current status", CurrentStatus: req.Status}
		}

		snap, err := e.currentSnapshot(tx, req, wantType)
		if err != nil {
			return err
		}
		if snap.ActorID != actorID {
			return &ForbiddenError{Message: "acting user is not the actor of the current step"}
		}

		now := time.Now()
		if err := e.markSnapshot(tx, snap, model.ActionRejected, comment, now); err != nil {
			return err
		}

		fromStatus := req.Status
		req.Status = toStatus
		req.CurrentStepOrder = nil
		req.UpdatedAt = now
		if err := e.saveRequest(tx, req); err != nil {
			return err
		}
		if err := e.appendHistory(tx, req.ID, event, fromStatus, req.Status, actorID, map[string]interface{}{
			"step_order": snap.StepOrder,
			"comment":    comment,
		}); err != nil {
			return err
		}

		result = transition(req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.notifyStatus(result.RequestID, result.Status)
	return result, nil
}

// advanceAfterApproval 审批通过后的推进
func (e *Engine) advanceAfterApproval(tx *gorm.DB, req *model.RequestMasterModel, now time.Time) error {
	next, err := e.nextWaiting(tx, req.ID, model.StepTypeApproval)
	if err != nil {
		return err
	}
	if next != nil {
		order := next.StepOrder
		req.CurrentStepOrder = &order
		req.UpdatedAt = now
		return nil
	}

	next, err = e.nextWaiting(tx, req.ID, model.StepTypeReceive)
	if err != nil {
		return err
	}
	if next != nil {
		order := next.StepOrder
		req.Status = model.StatusReceiveInProgress
		req.CurrentStepOrder = &order
		req.UpdatedAt = now
		return nil
	}

	req.Status = model.StatusCompleted
	req.CompletedAt = &now
	req.CurrentStepOrder = nil
	req.UpdatedAt = now
	return nil
}

// currentSnapshot 加载当前步骤指针指向的快照
// 指针必须指向类型匹配的 WAITING 快照, 否则视为状态冲突
func (e *Engine) currentSnapshot(tx *gorm.DB, req *model.RequestMasterModel, wantType string) (*model.RequestStepSnapshotModel, error) {
	if req.CurrentStepOrder == nil {
		return nil, &ConflictError{Message: "request has no current step", CurrentStatus: req.Status}
	}

	var snap model.RequestStepSnapshotModel
	err := tx.Where("request_id = ? AND step_order = ?", req.ID, *req.CurrentStepOrder).First(&snap).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &ConflictError{Message: "current step snapshot is missing", CurrentStatus: req.Status}
		}
		return nil, fmt.Errorf("failed to load current step snapshot: %w", err)
	}
	if snap.StepType != wantType || snap.ActionStatus != model.ActionWaiting {
		return nil, &ConflictError{Message: "current step does not accept this action", CurrentStatus: req.Status}
	}
	return &snap, nil
}

// markSnapshot 落盘单个快照的动作结果
func (e *Engine) markSnapshot(tx *gorm.DB, snap *model.RequestStepSnapshotModel, status string, comment string, now time.Time) error {
	snap.ActionStatus = status
	snap.Comment = comment
	snap.ActedAt = &now
	if err := tx.Save(snap).Error; err != nil {
		return fmt.Errorf("failed to save step snapshot: %w", err)
	}
	return nil
}

// nextWaiting 指定类型中步骤序最靠前的 WAITING 快照, 没有则返回 nil
func (e *Engine) nextWaiting(tx *gorm.DB, requestID string, stepType string) (*model.RequestStepSnapshotModel, error) {
	var snap model.RequestStepSnapshotModel
	err := tx.Where("request_id = ? AND step_type = ? AND action_status = ?",
		requestID, stepType, model.ActionWaiting).
		Order("step_order ASC").First(&snap).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find next waiting step: %w", err)
	}
	return &snap, nil
}
