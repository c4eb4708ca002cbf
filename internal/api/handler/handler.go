package handler

import "contest-core/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Contest       *ContestHandler
	Participation *ParticipationHandler
	Token         *TokenHandler
	Submission    *SubmissionHandler
	Export        *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Contest:       NewContestHandler(svc.Contest),
		Participation: NewParticipationHandler(svc.Participation),
		Token:         NewTokenHandler(svc.Token, svc.Participation),
		Submission:    NewSubmissionHandler(svc.Submission, svc.Participation),
		Export:        NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
