package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookkeeping/internal/dto"
	"bookkeeping/internal/service"
	"bookkeeping/pkg/response"
)

// EosReportHandler 交班报告模块 HTTP 处理器
type EosReportHandler struct {
	eosReportSvc service.EosReportService
}

// NewEosReportHandler 创建 EosReportHandler
func NewEosReportHandler(eosReportSvc service.EosReportService) *EosReportHandler {
	return &EosReportHandler{eosReportSvc: eosReportSvc}
}

// Create 创建交班报告
// POST /api/v1/eos-reports?reportType=ECS
func (h *EosReportHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var query dto.EosReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "报告类型无效")
		return
	}
	reportType, ok := mustParseReportType(c, query.ReportType)
	if !ok {
		return
	}

	var req dto.CreateEosReportRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.eosReportSvc.Create(c.Request.Context(), userID, reportType, &req)
	if err != nil {
		h.handleEosReportError(c, err)
		return
	}

	response.Created(c, result)
}

// Preview 预览交班报告
// POST /api/v1/eos-reports/preview?reportType=ECS
func (h *EosReportHandler) Preview(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var query dto.EosReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "报告类型无效")
		return
	}
	reportType, ok := mustParseReportType(c, query.ReportType)
	if !ok {
		return
	}

	var req dto.CreateEosReportRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.eosReportSvc.Preview(c.Request.Context(), userID, reportType, &req)
	if err != nil {
		h.handleEosReportError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *EosReportHandler) handleEosReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dto.ErrTypeSpecificMissing):
		response.BadRequest(c, 14001, "缺少报告类型专属数据")
	case errors.Is(err, dto.ErrInvalidRunComment):
		response.ErrorWithDetails(c, http.StatusBadRequest, 14002, "运行备注的键必须为运行号", err.Error())
	case errors.Is(err, dto.ErrInvalidMagnets):
		response.ErrorWithDetails(c, http.StatusBadRequest, 14003, "磁体快照缺少时间", err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	default:
		response.InternalError(c)
	}
}
