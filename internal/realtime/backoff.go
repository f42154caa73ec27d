package realtime

import "time"

// BackoffPolicy 重连退避策略。通道本身不自动重连，
// 由调用方在收到 Offline 状态后按此策略驱动重连。
type BackoffPolicy struct {
	Initial     time.Duration // 首次等待，默认 1s
	Max         time.Duration // 等待上限，默认 30s
	Multiplier  float64       // 每次失败后的放大系数，设为 1 即固定间隔
	MaxAttempts int           // 0 表示不限次数
}

// DefaultBackoff 指数退避，30s 封顶，不限次数
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		Initial:    time.Second,
		Max:        30 * time.Second,
		Multiplier: 2,
	}
}

// Next 第 attempt 次重试（从 0 开始）前应等待的时长；
// 超出 MaxAttempts 时返回 false。
func (p BackoffPolicy) Next(attempt int) (time.Duration, bool) {
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		return 0, false
	}

	wait := p.Initial
	if wait <= 0 {
		wait = time.Second
	}
	max := p.Max
	if max <= 0 {
		max = 30 * time.Second
	}
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 2
	}

	for i := 0; i < attempt; i++ {
		wait = time.Duration(float64(wait) * multiplier)
		if wait >= max {
			return max, true
		}
	}
	if wait > max {
		wait = max
	}
	return wait, true
}
