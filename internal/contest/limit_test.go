package contest

import (
	"errors"
	"testing"
	"time"
)

func TestNewIntervalLimit_Invalid(t *testing.T) {
	if _, err := NewIntervalLimit("submission", intPtr(0), 0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("总数上限为 0 应报错，实际: %v", err)
	}
	_, err := NewIntervalLimit("user_test", nil, -time.Second)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "user_test_min_interval" {
		t.Errorf("期望 user_test_min_interval 错误，实际: %v", err)
	}
}

func TestIntervalLimit_Check(t *testing.T) {
	limit := IntervalLimit{MaxNumber: intPtr(2), MinInterval: time.Minute}

	tests := []struct {
		name    string
		history History
		now     time.Time
		want    LimitVerdict
	}{
		{"无历史", nil, at(0), LimitVerdict{true, LimitReasonNone}},
		{"间隔不足", History{at(0)}, at(0).Add(59 * time.Second), LimitVerdict{false, LimitReasonTooSoon}},
		{"恰好满间隔", History{at(0)}, at(1), LimitVerdict{true, LimitReasonNone}},
		{"达到总数上限", History{at(0), at(5)}, at(60), LimitVerdict{false, LimitReasonMaxNumberReached}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := limit.Check(tt.history, tt.now); got != tt.want {
				t.Errorf("期望 %+v，实际 %+v", tt.want, got)
			}
		})
	}
}

func TestIntervalLimit_Unlimited(t *testing.T) {
	var limit IntervalLimit
	history := History{at(0), at(0), at(0)}
	if v := limit.Check(history, at(0)); !v.Allowed {
		t.Errorf("零值限制应始终允许，实际 %+v", v)
	}
	if _, ok := limit.NextAllowedAt(history); ok {
		t.Error("零值限制不应返回下次时刻")
	}
}

func TestHistory_Latest(t *testing.T) {
	if _, ok := History(nil).Latest(); ok {
		t.Error("空历史不应有最近时间")
	}
	got, ok := History{at(5), at(9), at(2)}.Latest()
	if !ok || !got.Equal(at(9)) {
		t.Errorf("期望 %s，实际 %s", at(9), got)
	}
}

func TestNewIntervalLimit_ZeroAndShortIntervalsAccepted(t *testing.T) {
	for _, field := range []string{"submission", "user_test"} {
		for _, d := range []time.Duration{0, time.Second, 60 * time.Second} {
			l, err := NewIntervalLimit(field, nil, d)
			if err != nil {
				t.Errorf("%s 间隔 %v 应被接受: %v", field, d, err)
				continue
			}
			if l.MinInterval != d {
				t.Errorf("期望 MinInterval=%v，实际 %v", d, l.MinInterval)
			}
		}
	}
	l, _ := NewIntervalLimit("submission", nil, 0)
	if v := l.Check(History{at(0)}, at(0)); !v.Allowed {
		t.Errorf("间隔为 0 时不应限制连续提交，实际 %+v", v)
	}
}
