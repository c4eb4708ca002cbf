package service

import (
	"time"

	ics "github.com/arran4/golang-ical"

	"contest-core/internal/model"
)

// ── 比赛日历 ──────────────────────────────────────────────
//
// 将比赛时间窗口导出为标准 iCalendar (RFC 5545)：
//   - 比赛窗口一个 VEVENT，UID 固定为 <contest_id>-contest
//   - 分析模式启用且窗口非空时追加 <contest_id>-analysis
//   - 时间一律以 UTC 写出；比赛配置了时区时写入 X-WR-TIMEZONE 供客户端展示
// ─────────────────────────────────────────────────────────────

// calendarProductID 写入 .ics 的 PRODID
const calendarProductID = "-//contest-core//contest calendar//ZH"

// buildContestCalendar 生成比赛日历；stamp 为 DTSTAMP
func buildContestCalendar(c *model.Contest, stamp time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(c.Name)
	if c.Timezone != nil && *c.Timezone != "" {
		cal.SetXWRTimezone(*c.Timezone)
	}

	addWindowEvent(cal, c.ContestID+"-contest", c.Name, c.Description, c.Start, c.Stop, stamp)

	if c.AnalysisEnabled && c.AnalysisStop.After(c.AnalysisStart) {
		addWindowEvent(cal, c.ContestID+"-analysis", c.Name+"（分析模式）",
			"赛后分析：提交不计入正式成绩", c.AnalysisStart, c.AnalysisStop, stamp)
	}
	return cal
}

func addWindowEvent(cal *ics.Calendar, uid, summary, description string, start, end, stamp time.Time) {
	event := cal.AddEvent(uid)
	event.SetDtStampTime(stamp.UTC())
	event.SetStartAt(start.UTC())
	event.SetEndAt(end.UTC())
	event.SetSummary(summary)
	if description != "" {
		event.SetDescription(description)
	}
}
