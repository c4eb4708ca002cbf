package contest

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig 所有配置校验失败的公共哨兵错误
var ErrInvalidConfig = errors.New("比赛配置无效")

// ConfigError 比赛时间表 / 令牌策略构造时的配置错误。
// 仅在构造阶段返回，查询函数从不返回错误。
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置项 %s 无效: %s", e.Field, e.Reason)
}

// Is 使 errors.Is(err, ErrInvalidConfig) 对所有 ConfigError 成立
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func configErr(field, reason string) error {
	return &ConfigError{Field: field, Reason: reason}
}
