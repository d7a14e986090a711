package service

import (
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"bookkeeping/internal/shift"
)

var ErrCalendarTooLarge = errors.New("日历班次数量超出上限")

// DefaultCalendarSize 未指定数量时导出一周的班次
const DefaultCalendarSize = 21

// CalendarService 班次日历业务接口
type CalendarService interface {
	// Shifts 从 from 所在班次开始的 count 个连续班次
	Shifts(from int64, count int) ([]shift.Shift, error)
	// ICS 将连续班次导出为 iCalendar (RFC 5545)，事件时间使用 UTC
	ICS(from int64, count int) (string, error)
}

type calendarService struct {
	calc    *shift.Calculator
	maxSize int
	logger  *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(calc *shift.Calculator, maxSize int, logger *zap.Logger) CalendarService {
	return &calendarService{calc: calc, maxSize: maxSize, logger: logger}
}

func (s *calendarService) Shifts(from int64, count int) ([]shift.Shift, error) {
	if count <= 0 {
		count = DefaultCalendarSize
	}
	if s.maxSize > 0 && count > s.maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrCalendarTooLarge, count, s.maxSize)
	}
	return s.calc.Range(time.UnixMilli(from), count), nil
}

func (s *calendarService) ICS(from int64, count int) (string, error) {
	shifts, err := s.Shifts(from, count)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//bookkeeping//shifts//EN")
	cal.SetXWRCalName("Shifts")
	cal.SetXWRTimezone(s.calc.Location().String())

	stamp := time.Now().UTC()
	for _, sh := range shifts {
		event := cal.AddEvent(fmt.Sprintf("shift-%d@bookkeeping", sh.Start.Unix()))
		event.SetDtStampTime(stamp)
		event.SetStartAt(sh.Start)
		event.SetEndAt(sh.End)
		event.SetSummary(fmt.Sprintf("%s shift", sh.Period))
		event.SetDescription(fmt.Sprintf("%s %s shift (%s)",
			s.calc.FormatDate(sh.Start), sh.Period, sh.Duration()))
	}

	s.logger.Debug("生成班次日历", zap.Int("count", len(shifts)))
	return cal.Serialize(), nil
}
