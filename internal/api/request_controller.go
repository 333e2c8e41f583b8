package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hrdesk/hri-gin/internal/service"
	"github.com/hrdesk/hri-gin/internal/utils"
)

// RequestController 申请单控制器
type RequestController struct {
	requestService service.RequestService
}

// NewRequestController 创建申请单控制器
func NewRequestController(requestService service.RequestService) *RequestController {
	return &RequestController{
		requestService: requestService,
	}
}

// validateRequestID 验证申请单 ID 并在无效时返回错误响应
func (c *RequestController) validateRequestID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateRequestID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request ID", err.Error())
		return false
	}
	return true
}

// Create 创建草稿
func (c *RequestController) Create(ctx *gin.Context) {
	var req service.CreateDraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := utils.ValidateFormTypeID(req.FormTypeID); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid form type ID", err.Error())
		return
	}
	if err := utils.ValidateTitle(req.Title); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid title", err.Error())
		return
	}

	summary, err := c.requestService.CreateDraft(ctx.Request.Context(), CurrentUserID(ctx), &req)
	if err != nil {
		RespondEngineError(ctx, err)
		return
	}

	Success(ctx, summary)
}

// Update 修改草稿, 被拒后的重新编辑也走这里
func (c *RequestController) Update(ctx *gin.Context) {
	if !c.validateRequestID(ctx, ctx.Param("id")) {
		return
	}

	var req service.UpdateDraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := utils.ValidateTitle(req.Title); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid title", err.Error())
		return
	}

	summary, err := c.requestService.UpdateDraft(ctx.Request.Context(), CurrentUserID(ctx), ctx.Param("id"), &req)
	if err != nil {
		RespondEngineError(ctx, err)
		return
	}

	Success(ctx, summary)
}

// Submit 提交申请单
func (c *RequestController) Submit(ctx *gin.Context) {
	if !c.validateRequestID(ctx, ctx.Param("id")) {
		return
	}

	result, err := c.requestService.Submit(ctx.Request.Context(), CurrentUserID(ctx), ctx.Param("id"))
	if err != nil {
		RespondEngineError(ctx, err)
		return
	}

	Success(ctx, result)
}

// Withdraw 撤回申请单
func (c *RequestController) Withdraw(ctx *gin.Context) {
	if !c.validateRequestID(ctx, ctx.Param("id")) {
		return
	}

	result, err := c.requestService.Withdraw(ctx.Request.Context(), CurrentUserID(ctx), ctx.Param("id"))
	if err != nil {
		RespondEngineError(ctx, err)
		return
	}

	Success(ctx, result)
}

// Approve 审批同意
func (c *RequestController) Approve(ctx *gin.Context) {
	if !c.validateRequestID(ctx, ctx.Param("id")) {
		return
	}

	req, ok := c.bindAction(ctx)
	if !ok {
		return
	}

	result, err := c.requestService.Approve(ctx.Request.Context(), CurrentUserID(ctx), ctx.Param("id"), req)
	if err != nil {
		RespondEngineError(ctx, err)
		return
	}

	Success(ctx, result)
}

// Reject 审批拒绝
func (c *RequestController) Reject(ctx *gin.Context) {
	if !c.validateRequestID(ctx, ctx.Param("id")) {
		return
	}

	req, ok := c.bindAction(ctx)
	if !ok {
		return
	}

	result, err := c.requestService.Reject(ctx.Request.Context(), CurrentUserID(ctx), ctx.Param("id"), req)
	if err != nil {
		RespondEngineError(ctx, err)
		return
	}

	Success(ctx, result)
}

// ReceiveComplete 接收完成
func (c *RequestController) ReceiveComplete(ctx *gin.Context) {
	if !c.validateRequestID(ctx, ctx.Param("id")) {
		return
	}

	req, ok := c.bindAction(ctx)
	if !ok {
		return
	}

	result, err := c.requestService.ReceiveComplete(ctx.Request.Context(), CurrentUserID(ctx), ctx.Param("id"), req)
	if err != nil {
		RespondEngineError(ctx, err)
		return
	}

	Success(ctx, result)
}

// ReceiveReject 接收拒绝
func (c *RequestController) ReceiveReject(ctx *gin.Context) {
	if !c.validateRequestID(ctx, ctx.Param("id")) {
		return
	}

	req, ok := c.bindAction(ctx)
	if !ok {
		return
	}

	result, err := c.requestService.ReceiveReject(ctx.Request.Context(), CurrentUserID(ctx), ctx.Param("id"), req)
	if err != nil {
		RespondEngineError(ctx, err)
		return
	}

	Success(ctx, result)
}

// Get 查询申请单详情
func (c *RequestController) Get(ctx *gin.Context) {
	if !c.validateRequestID(ctx, ctx.Param("id")) {
		return
	}

	detail, err := c.requestService.Get(CurrentUserID(ctx), ctx.Param("id"))
	if err != nil {
		RespondEngineError(ctx, err)
		return
	}

	Success(ctx, detail)
}

// List 按视角列出申请单
// box=mine 我发起的, box=approvals 待我审批, box=receives 待我接收
func (c *RequestController) List(ctx *gin.Context) {
	userID := CurrentUserID(ctx)
	box := ctx.DefaultQuery("box", "mine")

	switch box {
	case "mine":
		requests, err := c.requestService.ListMine(userID)
		if err != nil {
			RespondEngineError(ctx, err)
			return
		}
		Success(ctx, requests)
	case "approvals":
		requests, err := c.requestService.ListApprovals(userID)
		if err != nil {
			RespondEngineError(ctx, err)
			return
		}
		Success(ctx, requests)
	case "receives":
		requests, err := c.requestService.ListReceives(userID)
		if err != nil {
			RespondEngineError(ctx, err)
			return
		}
		Success(ctx, requests)
	default:
		Error(ctx, http.StatusBadRequest, "invalid box", "box must be one of: mine, approvals, receives")
	}
}

// bindAction 解析流转动作请求体, 允许空请求体
func (c *RequestController) bindAction(ctx *gin.Context) (*service.ActionRequest, bool) {
	req := &service.ActionRequest{}
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(req); err != nil {
			Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
			return nil, false
		}
	}
	return req, true
}
