// Package shift 计算值班班次时间窗口。
//
// 班次以值班人员所在时区的墙上时间为锚点：
// 夜班 23:00→07:00、早班 07:00→15:00、午班 15:00→23:00。
// 夏令时切换当晚的班次在 UTC 下为 7 或 9 小时，墙上时间边界保持不变。
package shift

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone 默认值班时区
const DefaultTimezone = "Europe/Zurich"

// Period 班次时段
type Period string

const (
	Night     Period = "Night"
	Morning   Period = "Morning"
	Afternoon Period = "Afternoon"
)

var periods = [3]Period{Night, Morning, Afternoon}

const shiftHours = 8

// Shift 班次时间窗口 [Start, End)
type Shift struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Period Period    `json:"period"`
}

// Contains 判断时刻是否落在班次内
func (s Shift) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// Duration 班次的实际时长（夏令时切换时为 7h 或 9h）
func (s Shift) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Calculator 基于固定时区的班次计算器，可并发使用
type Calculator struct {
	loc *time.Location
}

// NewCalculator 按 IANA 时区名创建计算器
func NewCalculator(timezone string) (*Calculator, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("加载时区 %q 失败: %w", timezone, err)
	}
	return &Calculator{loc: loc}, nil
}

// MustCalculator 同 NewCalculator，失败时 panic，供测试与初始化使用
func MustCalculator(timezone string) *Calculator {
	c, err := NewCalculator(timezone)
	if err != nil {
		panic(err)
	}
	return c
}

// Location 返回计算器使用的时区
func (c *Calculator) Location() *time.Location {
	return c.loc
}

// FromTimestamp 根据毫秒级 UNIX 时间戳计算所在班次
func (c *Calculator) FromTimestamp(ms int64) Shift {
	return c.FromTime(time.UnixMilli(ms))
}

// FromTime 计算时刻 t 所在班次
func (c *Calculator) FromTime(t time.Time) Shift {
	hour := t.UTC().Truncate(time.Hour)
	_, inputOffset := hour.In(c.loc).Zone()

	// 偏移 1 小时后班次边界落在 0/8/16 点
	shifted := (hour.In(c.loc).Hour() + 1) % 24
	since := shifted % shiftHours

	start := hour.Add(-time.Duration(since) * time.Hour)
	end := hour.Add(time.Duration(shiftHours-since) * time.Hour)

	// 起止时刻各自按自身的时区偏移修正
	start = start.Add(-c.offsetDelta(start, inputOffset))
	end = end.Add(-c.offsetDelta(end, inputOffset))

	return Shift{
		Start:  start,
		End:    end,
		Period: periods[shifted/shiftHours],
	}
}

func (c *Calculator) offsetDelta(t time.Time, reference int) time.Duration {
	_, offset := t.In(c.loc).Zone()
	return time.Duration(offset-reference) * time.Second
}

// Previous 返回 s 之前的一个班次
func (c *Calculator) Previous(s Shift) Shift {
	return c.FromTime(s.Start.Add(-time.Millisecond))
}

// Next 返回 s 之后的一个班次
func (c *Calculator) Next(s Shift) Shift {
	return c.FromTime(s.End)
}

// Range 从 from 所在班次开始，按时间顺序返回 n 个连续班次
func (c *Calculator) Range(from time.Time, n int) []Shift {
	if n <= 0 {
		return nil
	}
	shifts := make([]Shift, 0, n)
	current := c.FromTime(from)
	for i := 0; i < n; i++ {
		shifts = append(shifts, current)
		current = c.Next(current)
	}
	return shifts
}

// FormatDate 以 M/D/YYYY 格式输出 t 在班次时区下的日期
func (c *Calculator) FormatDate(t time.Time) string {
	return t.In(c.loc).Format("1/2/2006")
}
