package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"contest-core/internal/dto"
	"contest-core/internal/service"
	"contest-core/pkg/response"
)

// TokenHandler 令牌模块 HTTP 处理器
type TokenHandler struct {
	tokenSvc         service.TokenService
	participationSvc service.ParticipationService
}

// NewTokenHandler 创建 TokenHandler
func NewTokenHandler(tokenSvc service.TokenService, participationSvc service.ParticipationService) *TokenHandler {
	return &TokenHandler{tokenSvc: tokenSvc, participationSvc: participationSvc}
}

// GetTokenStatus 查询令牌状态（本人或管理员）
// GET /api/v1/participations/:id/tokens
func (h *TokenHandler) GetTokenStatus(c *gin.Context) {
	id := c.Param("id")
	if !authorizeParticipation(c, h.participationSvc, id, true) {
		return
	}

	status, err := h.tokenSvc.GetStatus(c.Request.Context(), id)
	if err != nil {
		handleTokenError(c, err)
		return
	}

	response.OK(c, status)
}

// RedeemToken 为提交使用一个令牌（仅本人）
// POST /api/v1/participations/:id/tokens
func (h *TokenHandler) RedeemToken(c *gin.Context) {
	var req dto.RedeemTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	id := c.Param("id")
	if !authorizeParticipation(c, h.participationSvc, id, false) {
		return
	}

	result, err := h.tokenSvc.Redeem(c.Request.Context(), id, req.SubmissionID)
	if err != nil {
		handleTokenError(c, err)
		return
	}

	response.Created(c, result)
}

func handleTokenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTokenDisabled):
		response.Unprocessable(c, 22001, "本场比赛未启用令牌")
	case errors.Is(err, service.ErrNoTokensAvailable):
		response.Unprocessable(c, 22002, "当前没有可用令牌")
	case errors.Is(err, service.ErrTokenTooSoon):
		response.TooManyRequests(c, 22003, "距上次使用令牌的间隔过短")
	case errors.Is(err, service.ErrContestNotActive):
		response.Unprocessable(c, 22004, "比赛不在进行中")
	case errors.Is(err, service.ErrSpendInProgress):
		response.Conflict(c, 22005, "令牌使用请求正在处理，请稍后重试")
	case errors.Is(err, service.ErrTokenAlreadyRedeemed):
		response.Conflict(c, 22006, "该提交已使用过令牌")
	default:
		handleParticipationError(c, err)
	}
}
