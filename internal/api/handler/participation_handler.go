package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"contest-core/internal/dto"
	"contest-core/internal/service"
	"contest-core/pkg/response"
)

// ParticipationHandler 参赛模块 HTTP 处理器
type ParticipationHandler struct {
	participationSvc service.ParticipationService
}

// NewParticipationHandler 创建 ParticipationHandler
func NewParticipationHandler(participationSvc service.ParticipationService) *ParticipationHandler {
	return &ParticipationHandler{participationSvc: participationSvc}
}

// JoinContest 登记参赛者
// POST /api/v1/contests/:id/participations
func (h *ParticipationHandler) JoinContest(c *gin.Context) {
	var req dto.JoinContestRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	p, err := h.participationSvc.Join(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleParticipationError(c, err)
		return
	}

	response.Created(c, p)
}

// GetParticipation 获取参赛记录
// GET /api/v1/participations/:id
func (h *ParticipationHandler) GetParticipation(c *gin.Context) {
	p, err := h.participationSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleParticipationError(c, err)
		return
	}

	response.OK(c, p)
}

// authorizeParticipation 校验当前用户对参赛记录的访问权限：
// 本人总是允许；allowAdmin=true 时管理员也允许。失败时已写入响应。
func authorizeParticipation(c *gin.Context, svc service.ParticipationService, id string, allowAdmin bool) bool {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return false
	}

	p, err := svc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleParticipationError(c, err)
		return false
	}

	if p.UserID == callerID || (allowAdmin && IsAdmin(c)) {
		return true
	}
	response.Forbidden(c, 10003, "无权操作他人的参赛记录")
	return false
}

func handleParticipationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrParticipationNotFound):
		response.NotFound(c, 21001, "参赛记录不存在")
	case errors.Is(err, service.ErrAlreadyJoined):
		response.Conflict(c, 21002, "该用户已参加本场比赛")
	default:
		handleContestError(c, err)
	}
}
