package workflow

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hrdesk/hri-gin/internal/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// withdrawComment 撤回时写入未处理快照的系统备注
const withdrawComment = "request withdrawn by requester"

// Engine 申请单工作流引擎
// 持有申请单的生命周期状态与当前步骤指针; 模板选择与快照构建仅发生在(重新)提交时,
// 每次已提交的流转之后追加一条历史事件。每个对外操作对应一个数据库事务
type Engine struct {
	db       *gorm.DB
	dir      Directory
	forms    FormRegistry
	calendar BusinessCalendar
	notifier Notifier
	logger   *logrus.Logger
}

// NewEngine 创建工作流引擎
func NewEngine(db *gorm.DB, dir Directory, forms FormRegistry, calendar BusinessCalendar, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		db:       db,
		dir:      dir,
		forms:    forms,
		calendar: calendar,
		logger:   logger,
	}
}

// SetNotifier 设置状态变更推送器(可选)
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// DraftInput 草稿保存入参
type DraftInput struct {
	RequestID  string          `json:"request_id"`
	FormTypeID string          `json:"form_type_id"`
	Title      string          `json:"title"`
	Content    json.RawMessage `json:"content"`
}

// RequestSummary 申请单概要
type RequestSummary struct {
	RequestID        string `json:"request_id"`
	RequestNo        string `json:"request_no,omitempty"`
	FormTypeID       string `json:"form_type_id"`
	Title            string `json:"title"`
	Status           string `json:"status"`
	CurrentStepOrder *int   `json:"current_step_order,omitempty"`
}

// TransitionResult 流转结果
type TransitionResult struct {
	RequestID        string `json:"request_id"`
	Status           string `json:"status"`
	CurrentStepOrder *int   `json:"current_step_order,omitempty"`
}

// UpsertDraft 创建或编辑草稿
// 仅申请人可操作; 编辑仅允许 DRAFT/APPROVAL_REJECTED/RECEIVE_REJECTED,
// 保存后强制回到 DRAFT 并清空当前步骤
func (e *Engine) UpsertDraft(requesterID string, in *DraftInput) (*RequestSummary, error) {
	var summary *RequestSummary

	err := e.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// 新建草稿
		if in.RequestID == "" {
			form, err := e.forms.FormType(in.FormTypeID)
			if err != nil {
				return fmt.Errorf("failed to load form type: %w", err)
			}
			if form == nil {
				return &NotFoundError{Resource: "form type", ID: in.FormTypeID}
			}

			req := &model.RequestMasterModel{
				ID:          uuid.New().String(),
				FormTypeID:  form.ID,
				RequesterID: requesterID,
				Title:       in.Title,
				Content:     in.Content,
				Status:      model.StatusDraft,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Create(req).Error; err != nil {
				return fmt.Errorf("failed to create draft: %w", err)
			}
			if err := e.appendHistory(tx, req.ID, model.EventCreate, "", model.StatusDraft, requesterID, nil); err != nil {
				return err
			}
			summary = summarize(req)
			return nil
		}

		// 编辑既有申请单
		req, err := e.lockRequest(tx, in.RequestID)
		if err != nil {
			return err
		}
		if req.RequesterID != requesterID {
			return &ForbiddenError{Message: "only the requester can edit this request"}
		}
		if !model.IsEditableStatus(req.Status) {
			return &ConflictError{Message: "request cannot be edited in its current status", CurrentStatus: req.Status}
		}

		form, err := e.forms.FormType(req.FormTypeID)
		if err != nil {
			return fmt.Errorf("failed to load form type: %w", err)
		}
		if form == nil {
			return &NotFoundError{Resource: "form type", ID: req.FormTypeID}
		}
		if !form.AllowDraftEdit && req.Status != model.StatusDraft {
			return &ConflictError{Message: "form type does not allow editing after rejection", CurrentStatus: req.Status}
		}

		fromStatus := req.Status
		req.Title = in.Title
		req.Content = in.Content
		req.Status = model.StatusDraft
		req.CurrentStepOrder = nil
		req.UpdatedAt = now
		if err := e.saveRequest(tx, req); err != nil {
			return err
		}
		if err := e.appendHistory(tx, req.ID, model.EventDraftSave, fromStatus, model.StatusDraft, requesterID, nil); err != nil {
			return err
		}
		summary = summarize(req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.notifyStatus(summary.RequestID, summary.Status)
	return summary, nil
}

// Submit 提交申请单进入审批流程
// 1. 选择生效模板, 2. 重建步骤快照, 3. 首次提交签发单号,
// 4. 无任何 WAITING 步骤时直接完结, 否则按首个 WAITING 步骤类型进入对应状态族
func (e *Engine) Submit(requesterID string, requestID string) (*TransitionResult, error) {
	var result *TransitionResult

	err := e.db.Transaction(func(tx *gorm.DB) error {
		req, err := e.lockRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.RequesterID != requesterID {
			return &ForbiddenError{Message: "only the requester can submit this request"}
		}
		if !model.IsEditableStatus(req.Status) {
			return &ConflictError{Message: "request cannot be submitted in its current status", CurrentStatus: req.Status}
		}

		form, err := e.forms.FormType(req.FormTypeID)
		if err != nil {
			return fmt.Errorf("failed to load form type: %w", err)
		}
		if form == nil {
			return &NotFoundError{Resource: "form type", ID: req.FormTypeID}
		}

		tpl, err := e.selectTemplate(tx, req.FormTypeID, e.calendar.Today())
		if err != nil {
			return err
		}

		first, err := e.buildSnapshots(tx, req, tpl)
		if err != nil {
			return err
		}

		now := time.Now()
		if req.RequestNo == "" {
			no, err := e.nextRequestNo(tx, form, now)
			if err != nil {
				return err
			}
			req.RequestNo = no
		}

		fromStatus := req.Status
		req.SubmittedAt = &now
		req.UpdatedAt = now
		if first == nil {
			// 全部步骤非阻塞, 提交即完结
			req.Status = model.StatusCompleted
			req.CompletedAt = &now
			req.CurrentStepOrder = nil
		} else {
			if first.StepType == model.StepTypeApproval {
				req.Status = model.StatusApprovalInProgress
			} else {
				req.Status = model.StatusReceiveInProgress
			}
			order := first.StepOrder
			req.CurrentStepOrder = &order
			req.CompletedAt = nil
		}

		if err := e.saveRequest(tx, req); err != nil {
			return err
		}
		if err := e.appendHistory(tx, req.ID, model.EventSubmit, fromStatus, req.Status, requesterID, map[string]interface{}{
			"template_id": tpl.ID,
			"request_no":  req.RequestNo,
		}); err != nil {
			return err
		}

		result = transition(req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"request_id": result.RequestID,
		"status":     result.Status,
	}).Info("request submitted")
	e.notifyStatus(result.RequestID, result.Status)
	return result, nil
}

// Withdraw 申请人撤回审批中的申请单
// 所有仍为 WAITING 的快照标记为 REJECTED 并写入系统备注
func (e *Engine) Withdraw(requesterID string, requestID string) (*TransitionResult, error) {
	var result *TransitionResult

	err := e.db.Transaction(func(tx *gorm.DB) error {
		req, err := e.lockRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.RequesterID != requesterID {
			return &ForbiddenError{Message: "only the requester can withdraw this request"}
		}
		if req.Status != model.StatusApprovalInProgress {
			return &ConflictError{Message: "request cannot be withdrawn in its current status", CurrentStatus: req.Status}
		}

		form, err := e.forms.FormType(req.FormTypeID)
		if err != nil {
			return fmt.Errorf("failed to load form type: %w", err)
		}
		if form == nil {
			return &NotFoundError{Resource: "form type", ID: req.FormTypeID}
		}
		if !form.AllowWithdraw {
			return &ConflictError{Message: "form type does not allow withdrawal", CurrentStatus: req.Status}
		}

		now := time.Now()
		err = tx.Model(&model.RequestStepSnapshotModel{}).
			Where("request_id = ? AND action_status = ?", req.ID, model.ActionWaiting).
			Updates(map[string]interface{}{
				"action_status": model.ActionRejected,
				"comment":       withdrawComment,
				"acted_at":      now,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to reject waiting snapshots: %w", err)
		}

		fromStatus := req.Status
		req.Status = model.StatusWithdrawn
		req.CurrentStepOrder = nil
		req.UpdatedAt = now
		if err := e.saveRequest(tx, req); err != nil {
			return err
		}
		if err := e.appendHistory(tx, req.ID, model.EventWithdraw, fromStatus, req.Status, requesterID, nil); err != nil {
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

// lockRequest 加载申请单并在事务内持有行级锁
// 同一申请单的并发流转由此串行化
func (e *Engine) lockRequest(tx *gorm.DB, requestID string) (*model.RequestMasterModel, error) {
	var req model.RequestMasterModel
	if err := forUpdate(tx).Where("id = ?", requestID).First(&req).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "request", ID: requestID}
		}
		return nil, fmt.Errorf("failed to load request %q: %w", requestID, err)
	}
	return &req, nil
}

// saveRequest 回写申请单主数据
// Save 写全部字段, 可携带指针字段的置空
func (e *Engine) saveRequest(tx *gorm.DB, req *model.RequestMasterModel) error {
	if err := tx.Save(req).Error; err != nil {
		return fmt.Errorf("failed to save request %q: %w", req.ID, err)
	}
	return nil
}

// appendHistory 追加一条不可变流转历史
func (e *Engine) appendHistory(tx *gorm.DB, requestID string, event string, fromStatus string, toStatus string, actorID string, payload map[string]interface{}) error {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal history payload: %w", err)
		}
	}

	hist := &model.RequestHistoryModel{
		ID:         uuid.New().String(),
		RequestID:  requestID,
		EventType:  event,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		ActorID:    actorID,
		Payload:    data,
		CreatedAt:  time.Now(),
	}
	if err := tx.Create(hist).Error; err != nil {
		return fmt.Errorf("failed to append history event: %w", err)
	}
	return nil
}

// notifyStatus 事务提交后推送状态变更
func (e *Engine) notifyStatus(requestID string, status string) {
	if e.notifier != nil {
		e.notifier.RequestStatusChanged(requestID, status)
	}
}

func summarize(req *model.RequestMasterModel) *RequestSummary {
	return &RequestSummary{
		RequestID:        req.ID,
		RequestNo:        req.RequestNo,
		FormTypeID:       req.FormTypeID,
		Title:            req.Title,
		Status:           req.Status,
		CurrentStepOrder: req.CurrentStepOrder,
	}
}

func transition(req *model.RequestMasterModel) *TransitionResult {
	return &TransitionResult{
		RequestID:        req.ID,
		Status:           req.Status,
		CurrentStepOrder: req.CurrentStepOrder,
	}
}
