package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hrdesk/hri-gin/internal/model"
	"gorm.io/gorm"
)

// defaultStepRole 步骤未指定角色编码时使用的默认角色
const defaultStepRole = adminPoolRole

// referenceAutoComment REFERENCE 步骤自动完成时写入的备注
const referenceAutoComment = "reference step auto-completed at submission"

// buildSnapshots 将模板的有序步骤展开为本次提交的不可变步骤快照
// 旧快照整组删除后重建(幂等重提交); 返回按步骤序最靠前的 WAITING 快照,
// 由它决定申请单的新当前步骤与状态族, 全部非阻塞时返回 nil
func (e *Engine) buildSnapshots(tx *gorm.DB, req *model.RequestMasterModel, tpl *model.ApprovalLineTemplateModel) (*model.RequestStepSnapshotModel, error) {
	if len(tpl.Steps) == 0 {
		return nil, &ConfigurationError{
			Message: fmt.Sprintf("approval line template %d has no steps", tpl.ID),
		}
	}

	// 1. 丢弃上一轮提交的快照
	if err := tx.Where("request_id = ?", req.ID).
		Delete(&model.RequestStepSnapshotModel{}).Error; err != nil {
		return nil, fmt.Errorf("failed to discard previous snapshots: %w", err)
	}

	// 2. 逐步骤解析审批人并冻结身份
	now := time.Now()
	var first *model.RequestStepSnapshotModel
	snapshots := make([]*model.RequestStepSnapshotModel, 0, len(tpl.Steps))

	for i := range tpl.Steps {
		step := &tpl.Steps[i]

		actor, err := e.resolveStepActor(tx, req.RequesterID, step)
		if err != nil {
			return nil, err
		}

		snap := &model.RequestStepSnapshotModel{
			ID:           uuid.New().String(),
			RequestID:    req.ID,
			StepOrder:    step.StepOrder,
			StepType:     step.StepType,
			ActorID:      actor.UserID,
			ActorName:    actor.Name,
			ActorOrgID:   actor.OrgUnitID,
			ActionStatus: model.ActionWaiting,
			CreatedAt:    now,
		}

		// REFERENCE 步骤非阻塞, 创建即终态
		if step.StepType == model.StepTypeReference {
			snap.ActionStatus = model.ActionReceived
			acted := now
			snap.ActedAt = &acted
			snap.Comment = referenceAutoComment
		} else if first == nil || snap.StepOrder < first.StepOrder {
			first = snap
		}

		snapshots = append(snapshots, snap)
	}

	// 3. 持久化整组快照
	if err := tx.Create(&snapshots).Error; err != nil {
		return nil, fmt.Errorf("failed to save step snapshots: %w", err)
	}

	return first, nil
}

// resolveStepActor 按步骤的解析方式确定审批人
// ROLE_BASED 走角色解析(角色缺省时用默认角色); USER_FIXED 用配置的固定用户;
// 两者都缺失时落到固定审批人池
func (e *Engine) resolveStepActor(tx *gorm.DB, requesterID string, step *model.ApprovalLineStepModel) (*resolvedActor, error) {
	switch {
	case step.ResolveMode == model.ResolveModeRoleBased:
		roleCode := step.RoleCode
		if roleCode == "" {
			roleCode = defaultStepRole
		}
		return e.resolveActor(tx, requesterID, roleCode)
	case step.ResolveMode == model.ResolveModeUserFixed && step.FixedUserID != "":
		return e.freezeActor(step.FixedUserID)
	default:
		return e.adminPoolActor()
	}
}
