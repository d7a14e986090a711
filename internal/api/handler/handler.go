package handler

import "bookkeeping/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth      *AuthHandler
	Shift     *ShiftHandler
	EosReport *EosReportHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth, svc.User),
		Shift:     NewShiftHandler(svc.Shift, svc.Calendar),
		EosReport: NewEosReportHandler(svc.EosReport),
		Export:    NewExportHandler(svc.Export),
	}
}
