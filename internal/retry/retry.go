package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Backoffは試行間の待機時間の伸ばし方です。
type Backoff string

const (
	Fixed  Backoff = "fixed"  // 毎回BaseDelayだけ待つ
	Linear Backoff = "linear" // BaseDelay × 試行回数だけ待つ
)

// Policyはリトライの設定です。
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Backoff     Backoff
	// OnRetryは次の試行の前に呼ばれます。attemptは失敗した試行の番号(1始まり)です。
	OnRetry func(attempt int, err error)
	// Sleepはテストで差し替えるための待機関数です。nilの場合はcontextを考慮して待ちます。
	Sleep func(ctx context.Context, d time.Duration) error
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanentはリトライしないエラーとして包みます。
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanentはPermanentで包まれたエラーかどうかを返します。
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Delayはattempt回目の失敗のあとに待つ時間を返します。
func (p Policy) Delay(attempt int) time.Duration {
	if p.Backoff == Linear {
		return p.BaseDelay * time.Duration(attempt)
	}
	return p.BaseDelay
}

// Doはfnが成功するか、Permanentなエラーを返すか、MaxAttemptsに達するまで実行します。
// 最後のエラーを包んで返します。
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if IsPermanent(lastErr) {
			var perm *permanentError
			errors.As(lastErr, &perm)
			return perm.err
		}
		if attempt == attempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr)
		}
		if err := sleep(ctx, p.Delay(attempt)); err != nil {
			return err
		}
	}

	return fmt.Errorf("%d回試行しましたが失敗しました: %w", attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
