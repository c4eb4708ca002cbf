package contest

import (
	"errors"
	"testing"
	"time"
)

// ── 测试辅助 ──

func intPtr(n int) *int { return &n }

func finitePolicy() TokenPolicy {
	return TokenPolicy{
		Mode:        TokenModeFinite,
		GenInitial:  2,
		GenNumber:   2,
		GenInterval: 30 * time.Minute,
	}
}

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

// ── NewTokenPolicy 测试 ──

func TestNewTokenPolicy_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(p *TokenPolicy)
		field string
	}{
		{"未知模式", func(p *TokenPolicy) { p.Mode = "bogus" }, "token_mode"},
		{"初始数为负", func(p *TokenPolicy) { p.GenInitial = -1 }, "token_gen_initial"},
		{"补充数为负", func(p *TokenPolicy) { p.GenNumber = -1 }, "token_gen_number"},
		{"补充间隔为 0", func(p *TokenPolicy) { p.GenInterval = 0 }, "token_gen_interval"},
		{"累计上限为 0", func(p *TokenPolicy) { p.GenMax = intPtr(0) }, "token_gen_max"},
		{"初始数超过累计上限", func(p *TokenPolicy) { p.GenMax = intPtr(1) }, "token_gen_initial"},
		{"总数上限为 0", func(p *TokenPolicy) { p.MaxTotalNumber = intPtr(0) }, "token_max_number"},
		{"最小间隔为负", func(p *TokenPolicy) { p.MinInterval = -time.Second }, "token_min_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := finitePolicy()
			tt.edit(&p)
			_, err := NewTokenPolicy(p)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Field != tt.field {
				t.Errorf("期望字段=%s 的 ConfigError，实际: %v", tt.field, err)
			}
		})
	}
}

func TestNewTokenPolicy_IntervalRequiredInEveryMode(t *testing.T) {
	for _, mode := range []TokenMode{TokenModeDisabled, TokenModeFinite, TokenModeInfinite} {
		t.Run(string(mode), func(t *testing.T) {
			_, err := NewTokenPolicy(TokenPolicy{Mode: mode})
			var cfgErr *ConfigError
			if !errors.Is(err, ErrInvalidConfig) || !errors.As(err, &cfgErr) || cfgErr.Field != "token_gen_interval" {
				t.Errorf("补充间隔为 0 应报 token_gen_interval 错误，实际: %v", err)
			}
			if _, err := NewTokenPolicy(TokenPolicy{Mode: mode, GenInterval: time.Second}); err != nil {
				t.Errorf("补充间隔为正时应通过: %v", err)
			}
		})
	}
}

// ── AvailableTokens 测试 ──

func TestAvailableTokens_Disabled(t *testing.T) {
	p := TokenPolicy{Mode: TokenModeDisabled}
	for _, m := range []int{-10, 0, 31, 1000} {
		if got := AvailableTokens(p, nil, base, at(m)); got.Count != 0 || got.Infinite {
			t.Errorf("禁用模式应为 0，实际 %+v", got)
		}
		if v := CanSpendNow(p, nil, base, at(m)); v.Allowed || v.Reason != SpendReasonDisabled {
			t.Errorf("禁用模式应拒绝，实际 %+v", v)
		}
	}
}

func TestAvailableTokens_Infinite(t *testing.T) {
	p := TokenPolicy{Mode: TokenModeInfinite, MaxTotalNumber: intPtr(1)}
	history := History{at(0), at(1), at(2)}
	if got := AvailableTokens(p, history, base, at(5)); !got.Infinite {
		t.Errorf("无限模式应返回 Infinite，实际 %+v", got)
	}
	if v := CanSpendNow(p, history, base, at(5)); !v.Allowed {
		t.Errorf("无限模式无间隔限制时应允许，实际 %+v", v)
	}
}

func TestAvailableTokens_FiniteGeneration(t *testing.T) {
	p := finitePolicy()

	tests := []struct {
		name    string
		history History
		minute  int
		want    int
	}{
		{"开赛时", nil, 0, 2},
		{"31 分钟", nil, 31, 4},
		{"开赛前按初始量计算", nil, -30, 2},
		{"开赛时用过一次", History{at(0)}, 0, 1},
		{"31 分钟用过一次", History{at(0)}, 31, 3},
		{"用量超过发放量", History{at(0), at(0), at(0)}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AvailableTokens(p, tt.history, base, at(tt.minute))
			if got.Infinite || got.Count != tt.want {
				t.Errorf("期望 %d，实际 %+v", tt.want, got)
			}
		})
	}
}

func TestAvailableTokens_GenMax(t *testing.T) {
	p := finitePolicy()
	p.GenMax = intPtr(3)

	if got := AvailableTokens(p, nil, base, at(61)); got.Count != 3 {
		t.Errorf("GenMax=3 时 61 分钟应为 3，实际 %d", got.Count)
	}
}

func TestAvailableTokens_MaxTotalNumber(t *testing.T) {
	p := finitePolicy()
	p.MaxTotalNumber = intPtr(5)

	history := History{at(0), at(1), at(31), at(32), at(61)}
	if got := AvailableTokens(p, history, base, at(600)); got.Count != 0 {
		t.Errorf("已用满 5 次应为 0，实际 %d", got.Count)
	}
	if v := CanSpendNow(p, history, base, at(600)); v.Reason != SpendReasonNoTokensAvailable {
		t.Errorf("期望 no_tokens_available，实际 %+v", v)
	}

	// 还剩 1 次总额度，尽管已发放更多
	if got := AvailableTokens(p, history[:4], base, at(600)); got.Count != 1 {
		t.Errorf("剩余总额度应为 1，实际 %d", got.Count)
	}
}

func TestAvailableTokens_FixedPool(t *testing.T) {
	p := finitePolicy()
	p.GenInitial = 3
	p.GenNumber = 0

	if got := AvailableTokens(p, nil, base, at(100000)); got.Count != 3 {
		t.Errorf("GenNumber=0 时不应补充，实际 %d", got.Count)
	}
	if _, ok := NextGeneration(p, base, at(10)); ok {
		t.Error("GenNumber=0 时不应有下一次发放")
	}
}

func TestAvailableTokens_NoOverflow(t *testing.T) {
	p := finitePolicy()
	p.GenInterval = time.Nanosecond
	p.GenNumber = 1 << 30

	got := AvailableTokens(p, nil, base, base.Add(100*365*24*time.Hour))
	if got.Count <= 0 {
		t.Errorf("大量累计时不应溢出为非正数，实际 %d", got.Count)
	}
}

// ── CanSpendNow 测试 ──

func TestCanSpendNow_MinInterval(t *testing.T) {
	p := finitePolicy()
	p.MinInterval = 10 * time.Minute
	history := History{at(0)}

	if v := CanSpendNow(p, history, base, at(5)); v.Allowed || v.Reason != SpendReasonTooSoonAfterLastSpend {
		t.Errorf("5 分钟后应拒绝，实际 %+v", v)
	}
	if v := CanSpendNow(p, history, base, at(10)); !v.Allowed || v.Reason != SpendReasonNone {
		t.Errorf("10 分钟后应允许，实际 %+v", v)
	}
}

func TestCanSpendNow_InfiniteMinInterval(t *testing.T) {
	p := TokenPolicy{Mode: TokenModeInfinite, MinInterval: time.Minute}
	history := History{at(0)}

	if v := CanSpendNow(p, history, base, at(0).Add(30*time.Second)); v.Reason != SpendReasonTooSoonAfterLastSpend {
		t.Errorf("期望 too_soon_after_last_spend，实际 %+v", v)
	}
	if v := CanSpendNow(p, history, base, at(1)); !v.Allowed {
		t.Errorf("满 1 分钟应允许，实际 %+v", v)
	}
}

func TestCanSpendNow_NoTokensBeforeInterval(t *testing.T) {
	// 令牌不足优先于间隔判定
	p := finitePolicy()
	p.GenInitial = 1
	p.GenNumber = 0
	p.MinInterval = time.Hour

	v := CanSpendNow(p, History{at(0)}, base, at(1))
	if v.Reason != SpendReasonNoTokensAvailable {
		t.Errorf("期望 no_tokens_available，实际 %+v", v)
	}
}

func TestCanSpendNow_Idempotent(t *testing.T) {
	p := finitePolicy()
	history := History{at(0)}
	first := CanSpendNow(p, history, base, at(3))
	for i := 0; i < 5; i++ {
		if got := CanSpendNow(p, history, base, at(3)); got != first {
			t.Fatalf("重复调用结果应一致: %+v vs %+v", first, got)
		}
	}
	if len(history) != 1 {
		t.Error("CanSpendNow 不应修改历史")
	}
}

// ── NextGeneration / SpendAllowedAt 测试 ──

func TestNextGeneration(t *testing.T) {
	p := finitePolicy()

	next, ok := NextGeneration(p, base, at(31))
	if !ok || !next.Equal(at(60)) {
		t.Errorf("期望 %s，实际 %s ok=%v", at(60), next, ok)
	}

	next, ok = NextGeneration(p, base, at(-5))
	if !ok || !next.Equal(at(30)) {
		t.Errorf("开赛前下一次发放应为 %s，实际 %s", at(30), next)
	}

	p.GenMax = intPtr(4)
	if _, ok := NextGeneration(p, base, at(31)); ok {
		t.Error("已达 GenMax 时不应有下一次发放")
	}
	if _, ok := NextGeneration(TokenPolicy{Mode: TokenModeInfinite}, base, at(0)); ok {
		t.Error("无限模式不应有下一次发放")
	}
}

func TestSpendAllowedAt(t *testing.T) {
	p := finitePolicy()
	if _, ok := SpendAllowedAt(p, History{at(0)}); ok {
		t.Error("无最小间隔时不应返回时刻")
	}

	p.MinInterval = 10 * time.Minute
	if _, ok := SpendAllowedAt(p, nil); ok {
		t.Error("无历史时不应返回时刻")
	}
	got, ok := SpendAllowedAt(p, History{at(3), at(0)})
	if !ok || !got.Equal(at(13)) {
		t.Errorf("期望 %s，实际 %s", at(13), got)
	}
}
