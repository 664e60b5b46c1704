package service

import (
	"errors"
	"time"
)

var (
	// ErrInvalidSlotWindow 表示起止小时配置无法构成有效时间窗。
	ErrInvalidSlotWindow = errors.New("slot window start and end hours must differ")
	// ErrInvalidSlotInterval 表示间隔分钟数必须为正。
	ErrInvalidSlotInterval = errors.New("slot interval must be positive")
)

// SlotConfig 描述一次排期所使用的时间参数。
// MaxPerDay 为 0 时表示当天数量不设上限。
type SlotConfig struct {
	IntervalMinutes int
	StartHour       int
	EndHour         int
	MaxPerDay       int
}

// Validate 校验排期参数，非法配置直接拒绝而不是静默兜底。
func (c SlotConfig) Validate() error {
	if c.IntervalMinutes <= 0 {
		return ErrInvalidSlotInterval
	}
	if c.StartHour == c.EndHour {
		return ErrInvalidSlotWindow
	}
	if c.StartHour < 0 || c.StartHour > 23 || c.EndHour < 0 || c.EndHour > 24 {
		return ErrInvalidSlotWindow
	}
	if c.StartHour > c.EndHour {
		return ErrInvalidSlotWindow
	}
	if c.MaxPerDay < 0 {
		return ErrInvalidSlotInterval
	}
	return nil
}

// AllocateSlots 按调用方给定的顺序为每个条目分配一个未来时间点。
// 游标从 now 出发，始终落在 [StartHour, EndHour) 的营业窗口内；
// 当天窗口耗尽或达到 MaxPerDay 上限时滚动到次日窗口起点。
// 纯函数：相同输入必然产出相同结果，重复执行不会产生漂移。
func AllocateSlots(ids []uint, now time.Time, cfg SlotConfig) (map[uint]time.Time, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slots := make(map[uint]time.Time, len(ids))
	if len(ids) == 0 {
		return slots, nil
	}

	cursor := now
	perDay := make(map[string]int)

	for _, id := range ids {
		cursor = clampToWindow(cursor, cfg)

		if cfg.MaxPerDay > 0 {
			for perDay[dayKey(cursor)] >= cfg.MaxPerDay {
				cursor = windowStart(cursor.AddDate(0, 0, 1), cfg)
			}
		}

		slots[id] = cursor
		perDay[dayKey(cursor)]++
		cursor = cursor.Add(time.Duration(cfg.IntervalMinutes) * time.Minute)
	}

	return slots, nil
}

// clampToWindow 将游标移入最近的营业窗口。
func clampToWindow(cursor time.Time, cfg SlotConfig) time.Time {
	if cursor.Hour() < cfg.StartHour {
		return windowStart(cursor, cfg)
	}
	if cursor.Hour() >= cfg.EndHour {
		return windowStart(cursor.AddDate(0, 0, 1), cfg)
	}
	return cursor
}

func windowStart(day time.Time, cfg SlotConfig) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), cfg.StartHour, 0, 0, 0, day.Location())
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
