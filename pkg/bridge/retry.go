package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/grovetools/ckanconsole/errors"
	"github.com/sirupsen/logrus"
)

// readCommands are idempotent and safe to repeat after a failure.
var readCommands = map[string]bool{
	CmdGetInstances:          true,
	CmdGetCompatiblePackages: true,
	CmdGetInstalledPackages:  true,
}

// IsReadCommand reports whether command is retried by WithRetry.
func IsReadCommand(command string) bool {
	return readCommands[command]
}

// RetryPolicy bounds the retries of read commands.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns 3 attempts with 200ms to 2s backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

type retryingBridge struct {
	Bridge
	policy RetryPolicy
	logger *logrus.Entry
}

// WithRetry wraps b so that read commands are retried with exponential
// backoff. Mutating commands pass through with a single attempt.
func WithRetry(b Bridge, policy RetryPolicy, logger *logrus.Entry) Bridge {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &retryingBridge{Bridge: b, policy: policy, logger: logger}
}

func (r *retryingBridge) Call(ctx context.Context, command string, args any) (json.RawMessage, error) {
	if !IsReadCommand(command) || r.policy.MaxAttempts == 1 {
		return r.Bridge.Call(ctx, command, args)
	}

	eb := backoff.NewExponentialBackOff()
	if r.policy.InitialInterval > 0 {
		eb.InitialInterval = r.policy.InitialInterval
	}
	if r.policy.MaxInterval > 0 {
		eb.MaxInterval = r.policy.MaxInterval
	}
	eb.MaxElapsedTime = 0

	var result json.RawMessage
	var lastErr error
	operation := func() error {
		res, err := r.Bridge.Call(ctx, command, args)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		result = res
		return nil
	}

	notify := func(err error, wait time.Duration) {
		r.logger.WithFields(logrus.Fields{
			"command": command,
			"wait":    wait,
		}).WithError(err).Warn("Retrying host command")
	}

	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(r.policy.MaxAttempts-1)), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		// A context expiring between attempts surfaces as the bare context
		// error; report the last host failure instead.
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, errors.HostCommandError(command, "no response from host", err)
	}
	return result, nil
}
