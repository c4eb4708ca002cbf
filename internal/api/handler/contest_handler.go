package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"contest-core/internal/dto"
	"contest-core/internal/service"
	pkgerrors "contest-core/pkg/errors"
	"contest-core/pkg/response"
)

// ContestHandler 比赛模块 HTTP 处理器
type ContestHandler struct {
	contestSvc service.ContestService
}

// NewContestHandler 创建 ContestHandler
func NewContestHandler(contestSvc service.ContestService) *ContestHandler {
	return &ContestHandler{contestSvc: contestSvc}
}

// ListContests 获取比赛列表
// GET /api/v1/contests?page=1&page_size=20
func (h *ContestHandler) ListContests(c *gin.Context) {
	var req dto.ContestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.contestSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetContest 获取比赛详情
// GET /api/v1/contests/:id
func (h *ContestHandler) GetContest(c *gin.Context) {
	contest, err := h.contestSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleContestError(c, err)
		return
	}

	response.OK(c, contest)
}

// GetPhase 查询比赛阶段
// GET /api/v1/contests/:id/phase?at=2026-03-01T09:00:00Z
func (h *ContestHandler) GetPhase(c *gin.Context) {
	var at *time.Time
	if raw := c.Query("at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, 10001, "at 必须是 RFC3339 时间")
			return
		}
		at = &t
	}

	phase, err := h.contestSvc.GetPhase(c.Request.Context(), c.Param("id"), at)
	if err != nil {
		handleContestError(c, err)
		return
	}

	response.OK(c, phase)
}

// CreateContest 创建比赛
// POST /api/v1/contests
func (h *ContestHandler) CreateContest(c *gin.Context) {
	var req dto.CreateContestRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	contest, err := h.contestSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleContestError(c, err)
		return
	}

	response.Created(c, contest)
}

// UpdateContest 整体更新比赛配置
// PUT /api/v1/contests/:id
func (h *ContestHandler) UpdateContest(c *gin.Context) {
	var req dto.UpdateContestRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	contest, err := h.contestSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleContestError(c, err)
		return
	}

	response.OK(c, contest)
}

// DeleteContest 删除比赛（软删除）
// DELETE /api/v1/contests/:id
func (h *ContestHandler) DeleteContest(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.contestSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		handleContestError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleContestError 比赛模块错误映射；参赛、令牌、提交模块复用
func handleContestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrContestNotFound):
		response.NotFound(c, 20001, "比赛不存在")
	case errors.Is(err, service.ErrContestConfigInvalid):
		detail := strings.TrimPrefix(err.Error(), service.ErrContestConfigInvalid.Error()+": ")
		response.ErrorWithDetails(c, http.StatusBadRequest, 20002, "比赛配置不合法", detail)
	case errors.Is(err, service.ErrContestNameTaken):
		response.Conflict(c, 20003, "比赛名称已被使用")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 20004, "比赛已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
