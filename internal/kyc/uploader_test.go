package kyc

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ev-fleet-rider-api-server/config"
	"ev-fleet-rider-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestStoreRejectsInvalidInput(t *testing.T) {
	u := NewUploader(&mockObjectStore{configured: true}, config.EnvProduction, time.Second, zaptest.NewLogger(t))

	_, _, err := u.Store(context.Background(), "RDR-1", models.DocumentTypeAadhaar, nil, "image/jpeg")
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, _, err = u.Store(context.Background(), "", models.DocumentTypeAadhaar, []byte("x"), "image/jpeg")
	assert.ErrorIs(t, err, ErrRiderIDRequired)
}

func TestStoreMockModeIsContentAddressed(t *testing.T) {
	u := NewUploader(&mockObjectStore{configured: false}, config.EnvDevelopment, time.Second, zaptest.NewLogger(t))
	data := []byte("same bytes")

	ref1, degraded, err := u.Store(context.Background(), "RDR-1", models.DocumentTypeSelfie, data, "image/jpeg")
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.True(t, IsMockReference(ref1))

	ref2, _, err := u.Store(context.Background(), "RDR-1", models.DocumentTypeSelfie, data, "image/jpeg")
	require.NoError(t, err)

	// Keys differ (new upload event) but the content hash component is
	// identical for identical bytes.
	assert.NotEqual(t, ref1, ref2)
	assert.Equal(t, hashComponent(t, ref1), hashComponent(t, ref2))

	ref3, _, err := u.Store(context.Background(), "RDR-1", models.DocumentTypeSelfie, []byte("other bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.NotEqual(t, hashComponent(t, ref1), hashComponent(t, ref3))
}

func hashComponent(t *testing.T, ref string) string {
	t.Helper()
	i := strings.Index(ref, "?sha256=")
	require.GreaterOrEqual(t, i, 0, "mock reference must embed a content hash: %s", ref)
	return ref[i:]
}

func TestStoreProductionWithoutBackendFails(t *testing.T) {
	u := NewUploader(&mockObjectStore{configured: false}, config.EnvProduction, time.Second, zaptest.NewLogger(t))

	_, _, err := u.Store(context.Background(), "RDR-1", models.DocumentTypeAadhaar, []byte("x"), "image/jpeg")
	assert.ErrorIs(t, err, ErrStorageNotConfigured)
}

func TestStoreBoundedLatencyWhenBackendHangs(t *testing.T) {
	store := &mockObjectStore{
		configured: true,
		uploadFunc: func(ctx context.Context, key string, data []byte, contentType string) (string, error) {
			<-ctx.Done() // never answers on its own
			return "", ctx.Err()
		},
	}
	u := NewUploader(store, config.EnvProduction, 50*time.Millisecond, zaptest.NewLogger(t))

	start := time.Now()
	ref, degraded, err := u.Store(context.Background(), "RDR-1", models.DocumentTypeAadhaar, []byte("x"), "image/jpeg")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, degraded)
	assert.True(t, IsFallbackReference(ref))
	assert.Less(t, elapsed, time.Second, "caller must not wait for the backend")

	// The abandoned write eventually fails on the detached context and the
	// failure is still counted.
	require.Eventually(t, func() bool {
		return u.BackgroundFailures() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStoreBackgroundCompletionIsObservable(t *testing.T) {
	store := &mockObjectStore{
		configured: true,
		uploadFunc: func(ctx context.Context, key string, data []byte, contentType string) (string, error) {
			time.Sleep(120 * time.Millisecond) // slower than the caller-facing timeout
			return "https://cdn.example.com/" + key, nil
		},
	}
	u := NewUploader(store, config.EnvProduction, 30*time.Millisecond, zaptest.NewLogger(t))

	var notified atomic.Int64
	u.OnBackgroundResult(func(key, url string, err error) {
		if err == nil && url != "" {
			notified.Add(1)
		}
	})

	ref, degraded, err := u.Store(context.Background(), "RDR-1", models.DocumentTypeSelfie, []byte("x"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, degraded)
	assert.True(t, IsFallbackReference(ref))

	require.Eventually(t, func() bool {
		return u.BackgroundCompletions() == 1 && notified.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStoreRetriesExplicitErrorsThenFallsBack(t *testing.T) {
	var attempts atomic.Int64
	store := &mockObjectStore{
		configured: true,
		uploadFunc: func(ctx context.Context, key string, data []byte, contentType string) (string, error) {
			attempts.Add(1)
			return "", errors.New("connection reset")
		},
	}
	u := NewUploader(store, config.EnvProduction, 5*time.Second, zaptest.NewLogger(t))

	ref, degraded, err := u.Store(context.Background(), "RDR-1", models.DocumentTypeAadhaar, []byte("x"), "image/jpeg")
	require.NoError(t, err, "transient backend errors never surface to the caller")
	assert.True(t, degraded)
	assert.True(t, IsFallbackReference(ref))
	assert.EqualValues(t, maxPutAttempts, attempts.Load())
}

func TestStoreDefaultsMissingMimeType(t *testing.T) {
	var gotContentType string
	store := &mockObjectStore{
		configured: true,
		uploadFunc: func(ctx context.Context, key string, data []byte, contentType string) (string, error) {
			gotContentType = contentType
			return "https://cdn.example.com/" + key, nil
		},
	}
	u := NewUploader(store, config.EnvStaging, time.Second, zaptest.NewLogger(t))

	_, degraded, err := u.Store(context.Background(), "RDR-1", models.DocumentTypeAadhaar, []byte("x"), "")
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Equal(t, defaultMimeType, gotContentType)
}

func TestDeriveKeyIsUniquePerUpload(t *testing.T) {
	u := NewUploader(&mockObjectStore{configured: true}, config.EnvStaging, time.Second, zaptest.NewLogger(t))

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		key := u.deriveKey("RDR-1", models.DocumentTypeSelfie)
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
		assert.True(t, strings.HasPrefix(key, "kyc/RDR-1/selfie-"))
	}
}
