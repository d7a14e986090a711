package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookkeeping/internal/dto"
	"bookkeeping/internal/service"
	"bookkeeping/pkg/response"
)

// ShiftHandler 班次模块 HTTP 处理器
type ShiftHandler struct {
	shiftSvc    service.ShiftService
	calendarSvc service.CalendarService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService, calendarSvc service.CalendarService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc, calendarSvc: calendarSvc}
}

// Current 当前班次的问题日志与上一班次交接信息
// GET /api/v1/shifts/current?shiftType=ECS
func (h *ShiftHandler) Current(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var query dto.ShiftTypeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "班次类型无效")
		return
	}
	reportType, ok := mustParseReportType(c, query.ShiftType)
	if !ok {
		return
	}

	result, err := h.shiftSvc.GetShiftData(c.Request.Context(), userID, reportType)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 12001, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// At 时间戳所在班次窗口
// GET /api/v1/shifts/at?timestamp=1679032800000
func (h *ShiftHandler) At(c *gin.Context) {
	var query dto.ShiftAtQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "timestamp 必须为正的毫秒时间戳")
		return
	}

	response.OK(c, dto.NewShiftResponse(h.shiftSvc.At(query.Timestamp)))
}

// Calendar 导出连续班次的 iCalendar 文件
// GET /api/v1/shifts/calendar?from=1679032800000&count=21
func (h *ShiftHandler) Calendar(c *gin.Context) {
	var query dto.ShiftCalendarQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ics, err := h.calendarSvc.ICS(query.From, query.Count)
	if err != nil {
		if errors.Is(err, service.ErrCalendarTooLarge) {
			response.ErrorWithDetails(c, http.StatusBadRequest, 15101, "日历班次数量超出上限", err.Error())
			return
		}
		response.InternalError(c)
		return
	}

	response.Attachment(c, "text/calendar; charset=utf-8", "shifts.ics", []byte(ics))
}
