// server/internal/kyc/uploader.go
package kyc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"ev-fleet-rider-api-server/config"
	"ev-fleet-rider-api-server/internal/models"

	"go.uber.org/zap"
)

const (
	fallbackScheme = "fallback-s3://"
	mockScheme     = "mock-s3://"

	maxPutAttempts  = 3
	initialBackoff  = 200 * time.Millisecond
	defaultMimeType = "application/octet-stream"

	// A write that lost the timeout race keeps running on a detached context
	// for this many multiples of the caller-facing timeout.
	backgroundGraceFactor = 5
)

// FallbackReference builds the degraded reference returned when the backend
// is unavailable or too slow. The scheme makes fallback URLs recognizable
// without consulting the degraded flag.
func FallbackReference(key string) string {
	return fallbackScheme + key
}

func IsFallbackReference(ref string) bool {
	return strings.HasPrefix(ref, fallbackScheme)
}

// MockReference builds the deterministic reference used outside production.
// Identical bytes always produce the identical hash component, so repeated
// uploads of the same file are reproducible.
func MockReference(key string, data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s%s?sha256=%s", mockScheme, key, hex.EncodeToString(sum[:])[:16])
}

func IsMockReference(ref string) bool {
	return strings.HasPrefix(ref, mockScheme)
}

// Uploader stores document bytes with a bounded caller-visible latency. The
// backend put is raced against a timer; when the timer wins the put is not
// cancelled, it finishes on a detached context and its outcome is logged and
// counted.
type Uploader struct {
	store   ObjectStore
	env     config.Environment
	timeout time.Duration
	logger  *zap.Logger

	// notify, when set, is called after a write that lost the timeout race
	// finally completes. Used to push recovery events to reviewer dashboards.
	notify func(key, url string, err error)

	seq                   atomic.Int64
	backgroundCompletions atomic.Int64
	backgroundFailures    atomic.Int64
}

func NewUploader(store ObjectStore, env config.Environment, timeout time.Duration, logger *zap.Logger) *Uploader {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Uploader{
		store:   store,
		env:     env,
		timeout: timeout,
		logger:  logger,
	}
}

// OnBackgroundResult registers a callback for writes that complete after the
// caller has already received a fallback reference. Not safe to call once
// uploads are in flight.
func (u *Uploader) OnBackgroundResult(fn func(key, url string, err error)) {
	u.notify = fn
}

// BackgroundCompletions reports how many writes succeeded after their caller
// had already been answered with a fallback reference.
func (u *Uploader) BackgroundCompletions() int64 {
	return u.backgroundCompletions.Load()
}

func (u *Uploader) BackgroundFailures() int64 {
	return u.backgroundFailures.Load()
}

type putResult struct {
	url string
	err error
}

// Store persists document bytes and returns a reference plus a degraded flag.
// It returns within the configured timeout regardless of backend health and
// never errors for transient backend trouble; errors are reserved for
// invalid input and unusable configuration.
//
// Only fallback references set the degraded flag. Mock references report
// degraded=false: outside production they are the intended storage mode,
// not a loss of service.
func (u *Uploader) Store(ctx context.Context, riderID string, docType models.DocumentType, data []byte, mimeType string) (string, bool, error) {
	if riderID == "" {
		return "", false, ErrRiderIDRequired
	}
	if len(data) == 0 {
		return "", false, ErrEmptyDocument
	}
	if mimeType == "" {
		u.logger.Warn("upload without MIME type, defaulting",
			zap.String("riderID", riderID),
			zap.String("documentType", string(docType)),
			zap.String("default", defaultMimeType))
		mimeType = defaultMimeType
	}

	key := u.deriveKey(riderID, docType)

	if u.env == config.EnvDevelopment || !u.store.Configured() {
		if u.env.IsProduction() {
			return "", false, ErrStorageNotConfigured
		}
		ref := MockReference(key, data)
		u.logger.Debug("issued mock storage reference",
			zap.String("key", key),
			zap.String("reference", ref))
		return ref, false, nil
	}

	// Detached from the caller's cancellation so a disconnect does not drop
	// the write, but still bounded so nothing runs forever.
	bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.timeout*backgroundGraceFactor)

	done := make(chan putResult, 1)
	start := time.Now()
	go func() {
		defer cancel()
		url, err := u.putWithRetry(bgCtx, key, data, mimeType)
		done <- putResult{url: url, err: err}
	}()

	timer := time.NewTimer(u.timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			u.logger.Warn("object store upload failed, returning fallback reference",
				zap.String("key", key),
				zap.Error(r.err))
			return FallbackReference(key), true, nil
		}
		return r.url, false, nil
	case <-timer.C:
		u.logger.Warn("object store upload exceeded timeout, returning fallback reference",
			zap.String("key", key),
			zap.Duration("timeout", u.timeout))
		go u.reapBackground(done, key, start)
		return FallbackReference(key), true, nil
	}
}

// reapBackground waits for a write the caller abandoned and records its
// outcome, so a "lost" put is observable rather than a silently dropped
// goroutine.
func (u *Uploader) reapBackground(done <-chan putResult, key string, start time.Time) {
	r := <-done
	elapsed := time.Since(start)
	if r.err != nil {
		u.backgroundFailures.Add(1)
		u.logger.Error("abandoned upload failed in background",
			zap.String("key", key),
			zap.Duration("elapsed", elapsed),
			zap.Error(r.err))
	} else {
		u.backgroundCompletions.Add(1)
		u.logger.Info("abandoned upload completed in background",
			zap.String("key", key),
			zap.String("url", r.url),
			zap.Duration("elapsed", elapsed))
	}
	if u.notify != nil {
		u.notify(key, r.url, r.err)
	}
}

func (u *Uploader) putWithRetry(ctx context.Context, key string, data []byte, mimeType string) (string, error) {
	backoff := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxPutAttempts; attempt++ {
		url, err := u.store.Upload(ctx, key, data, mimeType)
		if err == nil {
			return url, nil
		}
		lastErr = err
		u.logger.Warn("object store put failed",
			zap.String("key", key),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < maxPutAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			backoff *= 2
		}
	}
	return "", lastErr
}

// deriveKey builds a storage key unique across repeated uploads of the same
// type. The sequence component breaks ties on coarse clocks.
func (u *Uploader) deriveKey(riderID string, docType models.DocumentType) string {
	return fmt.Sprintf("kyc/%s/%s-%d-%d", riderID, docType, time.Now().UnixNano(), u.seq.Add(1))
}
