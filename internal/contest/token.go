package contest

import (
	"math"
	"time"
)

// TokenMode 令牌发放模式
type TokenMode string

const (
	TokenModeDisabled TokenMode = "disabled"
	TokenModeFinite   TokenMode = "finite"
	TokenModeInfinite TokenMode = "infinite"
)

// Valid 是否为已知模式
func (m TokenMode) Valid() bool {
	switch m {
	case TokenModeDisabled, TokenModeFinite, TokenModeInfinite:
		return true
	}
	return false
}

// TokenPolicy 令牌策略快照（构造后不可变）。
// GenInterval 在所有模式下都必须大于 0，仅有限模式实际使用。
// 有限模式下：开赛时发放 GenInitial 个，之后每隔 GenInterval 追加 GenNumber 个，
// 累计发放量不超过 GenMax；整场比赛使用总数不超过 MaxTotalNumber。
type TokenPolicy struct {
	Mode           TokenMode
	GenInitial     int
	GenNumber      int
	GenInterval    time.Duration
	GenMax         *int
	MaxTotalNumber *int
	MinInterval    time.Duration
}

// NewTokenPolicy 校验参数并创建 TokenPolicy
func NewTokenPolicy(p TokenPolicy) (TokenPolicy, error) {
	if !p.Mode.Valid() {
		return TokenPolicy{}, configErr("token_mode", "未知的令牌模式 "+string(p.Mode))
	}
	if p.GenInitial < 0 {
		return TokenPolicy{}, configErr("token_gen_initial", "不能为负数")
	}
	if p.GenNumber < 0 {
		return TokenPolicy{}, configErr("token_gen_number", "不能为负数")
	}
	// 任何模式下补充间隔都必须为正，与表约束一致
	if p.GenInterval <= 0 {
		return TokenPolicy{}, configErr("token_gen_interval", "必须大于 0")
	}
	if p.GenMax != nil {
		if *p.GenMax <= 0 {
			return TokenPolicy{}, configErr("token_gen_max", "必须大于 0")
		}
		if p.GenInitial > *p.GenMax {
			return TokenPolicy{}, configErr("token_gen_initial", "不能大于 token_gen_max")
		}
	}
	if p.MaxTotalNumber != nil && *p.MaxTotalNumber <= 0 {
		return TokenPolicy{}, configErr("token_max_number", "必须大于 0")
	}
	if p.MinInterval < 0 {
		return TokenPolicy{}, configErr("token_min_interval", "不能为负数")
	}
	return p, nil
}

// Availability 可用令牌数；Infinite 为 true 时 Count 无意义
type Availability struct {
	Count    int
	Infinite bool
}

// IsZero 是否没有可用令牌
func (a Availability) IsZero() bool {
	return !a.Infinite && a.Count == 0
}

// SpendReason 令牌使用被拒原因
type SpendReason string

const (
	SpendReasonNone                  SpendReason = "none"
	SpendReasonDisabled              SpendReason = "disabled"
	SpendReasonNoTokensAvailable     SpendReason = "no_tokens_available"
	SpendReasonTooSoonAfterLastSpend SpendReason = "too_soon_after_last_spend"
)

// SpendVerdict 令牌使用判定
type SpendVerdict struct {
	Allowed bool
	Reason  SpendReason
}

// generated 返回截至 now 累计发放的令牌数（已按 GenMax 截断）及已过的完整周期数
func (p TokenPolicy) generated(contestStart, now time.Time) (total int64, periods int64) {
	if elapsed := now.Sub(contestStart); elapsed > 0 {
		periods = int64(elapsed / p.GenInterval)
	}

	total = int64(p.GenInitial)
	if p.GenNumber > 0 {
		if periods > (math.MaxInt64-total)/int64(p.GenNumber) {
			total = math.MaxInt64
		} else {
			total += periods * int64(p.GenNumber)
		}
	}
	if p.GenMax != nil && total > int64(*p.GenMax) {
		total = int64(*p.GenMax)
	}
	return total, periods
}

// AvailableTokens 计算 now 时刻可用的令牌数
func AvailableTokens(p TokenPolicy, history History, contestStart, now time.Time) Availability {
	switch p.Mode {
	case TokenModeInfinite:
		return Availability{Infinite: true}
	case TokenModeFinite:
	default:
		return Availability{}
	}

	granted, _ := p.generated(contestStart, now)
	spent := int64(len(history))

	available := granted - spent
	if p.MaxTotalNumber != nil {
		if remaining := int64(*p.MaxTotalNumber) - spent; remaining < available {
			available = remaining
		}
	}
	if available < 0 {
		available = 0
	}
	if available > math.MaxInt32 {
		available = math.MaxInt32
	}
	return Availability{Count: int(available)}
}

// CanSpendNow 判断 now 时刻能否使用一个令牌。
// 纯函数，不记录使用；调用方须在同一参赛者维度串行化「判定 + 追加记录」。
func CanSpendNow(p TokenPolicy, history History, contestStart, now time.Time) SpendVerdict {
	if p.Mode != TokenModeFinite && p.Mode != TokenModeInfinite {
		return SpendVerdict{Allowed: false, Reason: SpendReasonDisabled}
	}
	if AvailableTokens(p, history, contestStart, now).IsZero() {
		return SpendVerdict{Allowed: false, Reason: SpendReasonNoTokensAvailable}
	}
	if v := p.intervalLimit().Check(history, now); !v.Allowed {
		return SpendVerdict{Allowed: false, Reason: SpendReasonTooSoonAfterLastSpend}
	}
	return SpendVerdict{Allowed: true, Reason: SpendReasonNone}
}

// NextGeneration 下一批令牌的发放时刻。
// 非有限模式、不再补充（GenNumber=0）或已达 GenMax 时 ok=false。
func NextGeneration(p TokenPolicy, contestStart, now time.Time) (time.Time, bool) {
	if p.Mode != TokenModeFinite || p.GenNumber == 0 {
		return time.Time{}, false
	}
	granted, periods := p.generated(contestStart, now)
	if p.GenMax != nil && granted >= int64(*p.GenMax) {
		return time.Time{}, false
	}
	return contestStart.Add(time.Duration(periods+1) * p.GenInterval), true
}

// SpendAllowedAt 最小间隔约束下最早可再次使用令牌的时刻；无约束时 ok=false
func SpendAllowedAt(p TokenPolicy, history History) (time.Time, bool) {
	return p.intervalLimit().NextAllowedAt(history)
}

// 令牌的间隔约束与提交限制共用同一实现；总量上限由 AvailableTokens 处理
func (p TokenPolicy) intervalLimit() IntervalLimit {
	return IntervalLimit{MinInterval: p.MinInterval}
}
