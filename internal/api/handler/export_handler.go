package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"bookkeeping/internal/dto"
	"bookkeeping/internal/service"
	"bookkeeping/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportShiftRuns 导出班次内的运行列表
// GET /api/v1/shifts/export?shiftType=QC/PDP&shiftStart=1679032800000
func (h *ExportHandler) ExportShiftRuns(c *gin.Context) {
	var query dto.ShiftExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	reportType, ok := mustParseReportType(c, query.ShiftType)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportShiftRuns(c.Request.Context(), reportType, query.ShiftStart)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, xlsxContentType, filename, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoRuns):
		response.NotFound(c, 15001, "该班次内没有运行")
	default:
		response.InternalError(c)
	}
}
