package contest

import "time"

// History 某参赛者在某比赛中的历史使用时间戳（令牌使用、提交、自测等），按时间升序。
// 由调用方持有，本包只读。
type History []time.Time

// Latest 返回最近一次使用时间；为空时 ok=false
func (h History) Latest() (t time.Time, ok bool) {
	for _, ts := range h {
		if !ok || ts.After(t) {
			t, ok = ts, true
		}
	}
	return t, ok
}

// LimitReason 频率限制拒绝原因
type LimitReason string

const (
	LimitReasonNone             LimitReason = "none"
	LimitReasonMaxNumberReached LimitReason = "max_number_reached"
	LimitReasonTooSoon          LimitReason = "too_soon"
)

// LimitVerdict 频率限制判定结果
type LimitVerdict struct {
	Allowed bool
	Reason  LimitReason
}

// IntervalLimit 「最小间隔 + 可选总量上限」的通用频率限制。
// 令牌使用间隔、提交限制、自测限制是三个独立配置的实例。
type IntervalLimit struct {
	MaxNumber   *int          // nil 表示不限制总次数
	MinInterval time.Duration // 0 表示不限制间隔
}

// NewIntervalLimit 校验并创建 IntervalLimit
func NewIntervalLimit(field string, maxNumber *int, minInterval time.Duration) (IntervalLimit, error) {
	if maxNumber != nil && *maxNumber <= 0 {
		return IntervalLimit{}, configErr(field+"_max_number", "必须大于 0")
	}
	if minInterval < 0 {
		return IntervalLimit{}, configErr(field+"_min_interval", "不能为负数")
	}
	return IntervalLimit{MaxNumber: maxNumber, MinInterval: minInterval}, nil
}

// Check 判断 now 时刻是否允许再使用一次
func (l IntervalLimit) Check(history History, now time.Time) LimitVerdict {
	if l.MaxNumber != nil && len(history) >= *l.MaxNumber {
		return LimitVerdict{Allowed: false, Reason: LimitReasonMaxNumberReached}
	}
	if next, ok := l.NextAllowedAt(history); ok && now.Before(next) {
		return LimitVerdict{Allowed: false, Reason: LimitReasonTooSoon}
	}
	return LimitVerdict{Allowed: true, Reason: LimitReasonNone}
}

// NextAllowedAt 最小间隔约束下最早可再次使用的时刻；无约束时 ok=false
func (l IntervalLimit) NextAllowedAt(history History) (time.Time, bool) {
	if l.MinInterval <= 0 {
		return time.Time{}, false
	}
	last, ok := history.Latest()
	if !ok {
		return time.Time{}, false
	}
	return last.Add(l.MinInterval), true
}
