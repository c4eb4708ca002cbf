package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"contest-core/internal/dto"
	"contest-core/internal/service"
	"contest-core/pkg/response"
)

// SubmissionHandler 提交 / 自测模块 HTTP 处理器
type SubmissionHandler struct {
	submissionSvc    service.SubmissionService
	participationSvc service.ParticipationService
}

// NewSubmissionHandler 创建 SubmissionHandler
func NewSubmissionHandler(submissionSvc service.SubmissionService, participationSvc service.ParticipationService) *SubmissionHandler {
	return &SubmissionHandler{submissionSvc: submissionSvc, participationSvc: participationSvc}
}

// Submit 记录一次提交或自测（仅本人）
// POST /api/v1/participations/:id/submissions
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req dto.SubmitRequest
	if !bindJSON(c, &req) {
		return
	}

	id := c.Param("id")
	if !authorizeParticipation(c, h.participationSvc, id, false) {
		return
	}

	result, err := h.submissionSvc.Record(c.Request.Context(), id, &req)
	if err != nil {
		handleSubmissionError(c, err)
		return
	}

	response.Created(c, result)
}

// CheckSubmission 预检当前能否提交（不记录）
// GET /api/v1/participations/:id/submissions/check?kind=submission
func (h *SubmissionHandler) CheckSubmission(c *gin.Context) {
	kind := c.DefaultQuery("kind", "submission")

	id := c.Param("id")
	if !authorizeParticipation(c, h.participationSvc, id, true) {
		return
	}

	if err := h.submissionSvc.Check(c.Request.Context(), id, kind); err != nil {
		handleSubmissionError(c, err)
		return
	}

	response.OK(c, &dto.SubmitCheckResponse{ParticipationID: id, Kind: kind, Allowed: true})
}

func handleSubmissionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubmissionsClosed):
		response.Unprocessable(c, 23001, "当前阶段不接受提交")
	case errors.Is(err, service.ErrSubmissionLimitReached):
		response.Unprocessable(c, 23002, "提交次数已达上限")
	case errors.Is(err, service.ErrSubmissionTooSoon):
		response.TooManyRequests(c, 23003, "距上次提交的间隔过短")
	case errors.Is(err, service.ErrUserTestsDisabled):
		response.Unprocessable(c, 23004, "本场比赛未开放自测")
	case errors.Is(err, service.ErrSubmissionKindInvalid):
		response.BadRequest(c, 10001, "未知的提交类型")
	default:
		handleParticipationError(c, err)
	}
}
