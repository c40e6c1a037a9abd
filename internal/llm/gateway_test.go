package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/credential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// scriptedBackend answers each credential index with a fixed result.
type scriptedBackend struct {
	results map[int]scriptedResult
	calls   []int
	mu      sync.Mutex
}

type scriptedResult struct {
	err  error
	text string
}

func (b *scriptedBackend) GenerateContent(_ context.Context, cred credential.Credential, _ Request) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, cred.Index)

	r, ok := b.results[cred.Index]
	if !ok {
		return "", fmt.Errorf("unexpected call for credential %d", cred.Index)
	}
	return r.text, r.err
}

func testPool(n int) credential.Pool {
	creds := make([]credential.Credential, n)
	for i := range creds {
		slot := credential.Slots[i%len(credential.Slots)]
		creds[i] = credential.New(slot, fmt.Sprintf("token-%d", i), i)
	}
	return credential.NewPool(creds...)
}

func testRequest() Request {
	return Request{Model: DefaultModel, Parts: []Part{TextPart("我買了珍奶50元")}}
}

func quotaErr() error {
	return genai.APIError{Code: 429, Message: "Resource has been exhausted", Status: "RESOURCE_EXHAUSTED"}
}

func TestGateway_FirstSuccessWins(t *testing.T) {
	backend := &scriptedBackend{results: map[int]scriptedResult{
		0: {text: "first"},
		1: {text: "second"},
	}}
	gw := NewGateway(testPool(2), backend)

	out, err := gw.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "first", out.Text)
	assert.Equal(t, 0, out.CredentialIndex)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, []int{0}, backend.calls, "second credential must never be invoked")
}

func TestGateway_RotatesOnQuota(t *testing.T) {
	backend := &scriptedBackend{results: map[int]scriptedResult{
		0: {err: quotaErr()},
		1: {text: "ok"},
	}}
	gw := NewGateway(testPool(3), backend)

	out, err := gw.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)
	assert.Equal(t, 1, out.CredentialIndex)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, []int{0, 1}, backend.calls)
}

func TestGateway_SeventhOfEightSucceeds(t *testing.T) {
	results := map[int]scriptedResult{}
	for i := 0; i < 6; i++ {
		results[i] = scriptedResult{err: quotaErr()}
	}
	results[6] = scriptedResult{text: `{"item":"珍奶","amount":50}`}
	results[7] = scriptedResult{text: "never"}

	backend := &scriptedBackend{results: results}
	gw := NewGateway(testPool(8), backend)

	out, err := gw.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 6, out.CredentialIndex)
	assert.Equal(t, "GEMINI_API_KEY_G", out.Slot)
	assert.Equal(t, 7, out.Attempts)
	assert.Len(t, backend.calls, 7)
}

func TestGateway_AllExhausted(t *testing.T) {
	last := genai.APIError{Code: 429, Message: "last one", Status: "RESOURCE_EXHAUSTED"}
	backend := &scriptedBackend{results: map[int]scriptedResult{
		0: {err: quotaErr()},
		1: {err: quotaErr()},
		2: {err: last},
	}}
	gw := NewGateway(testPool(3), backend)

	_, err := gw.Generate(context.Background(), testRequest())
	require.Error(t, err)

	var exhausted *common.AllCredentialsExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Contains(t, err.Error(), "last one")

	var apiErr genai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "last one", apiErr.Message)
}

func TestGateway_NonQuotaErrorStopsRotation(t *testing.T) {
	tests := []struct {
		err  error
		name string
	}{
		{name: "bad request", err: genai.APIError{Code: 400, Message: "invalid argument", Status: "INVALID_ARGUMENT"}},
		{name: "server fault", err: genai.APIError{Code: 500, Message: "internal", Status: "INTERNAL"}},
		{name: "auth fault", err: genai.APIError{Code: 403, Message: "permission denied", Status: "PERMISSION_DENIED"}},
		{name: "unstructured", err: errors.New("connection reset by peer")},
		{name: "safety block", err: ErrContentBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &scriptedBackend{results: map[int]scriptedResult{
				0: {err: quotaErr()},
				1: {err: tt.err},
				2: {text: "would have worked"},
			}}
			gw := NewGateway(testPool(3), backend)

			_, err := gw.Generate(context.Background(), testRequest())
			require.Error(t, err)

			var upstream *common.UpstreamError
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, []int{0, 1}, backend.calls)

			// genai.APIError holds a slice, so it never matches with errors.Is.
			if want, ok := tt.err.(genai.APIError); ok {
				var apiErr genai.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, want.Code, apiErr.Code)
				assert.Equal(t, want.Status, apiErr.Status)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestGateway_CanceledDuringAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	backend := BackendFunc(func(ctx context.Context, _ credential.Credential, _ Request) (string, error) {
		calls++
		cancel()
		return "", ctx.Err()
	})
	gw := NewGateway(testPool(3), backend)

	_, err := gw.Generate(ctx, testRequest())
	require.ErrorIs(t, err, context.Canceled)

	var upstream *common.UpstreamError
	assert.False(t, errors.As(err, &upstream))
	assert.Equal(t, 1, calls)
}

func TestGateway_EmptyPool(t *testing.T) {
	backend := &scriptedBackend{}
	gw := NewGateway(credential.Pool{}, backend)

	_, err := gw.Generate(context.Background(), testRequest())
	var cfgErr *common.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, credential.ErrNoCredentials)
	assert.Empty(t, backend.calls)
}

func TestGateway_InvalidRequest(t *testing.T) {
	backend := &scriptedBackend{}
	gw := NewGateway(testPool(1), backend)

	_, err := gw.Generate(context.Background(), Request{Model: DefaultModel})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = gw.Generate(context.Background(), Request{
		Model: DefaultModel,
		Parts: []Part{TextPart("listen"), {Data: []byte{1, 2}}},
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Empty(t, backend.calls)
}

func TestGateway_EachRequestStartsAtFirstCredential(t *testing.T) {
	backend := &scriptedBackend{results: map[int]scriptedResult{
		0: {err: quotaErr()},
		1: {text: "ok"},
	}}
	gw := NewGateway(testPool(2), backend)

	for i := 0; i < 3; i++ {
		_, err := gw.Generate(context.Background(), testRequest())
		require.NoError(t, err)
	}
	assert.Equal(t, []int{0, 1, 0, 1, 0, 1}, backend.calls)
}

func TestGateway_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	backend := BackendFunc(func(_ context.Context, cred credential.Credential, _ Request) (string, error) {
		cancel()
		return "", quotaErr()
	})
	gw := NewGateway(testPool(3), backend)

	_, err := gw.Generate(ctx, testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var upstream *common.UpstreamError
	assert.False(t, errors.As(err, &upstream))
}

func TestGateway_CooldownTracker(t *testing.T) {
	tracker := NewCooldownTracker(time.Minute)
	backend := &scriptedBackend{results: map[int]scriptedResult{
		0: {err: quotaErr()},
		1: {text: "ok"},
	}}
	gw := NewGateway(testPool(2), backend, WithCooldownTracker(tracker))

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	gw.now = func() time.Time { return now }

	_, err := gw.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, backend.calls)

	// Credential 0 is cooling down and is skipped on the next request.
	backend.calls = nil
	out, err := gw.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, backend.calls)
	assert.Equal(t, 1, out.Attempts)

	// After the window it is tried again.
	now = now.Add(2 * time.Minute)
	backend.calls = nil
	_, err = gw.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, backend.calls)
}

func TestGateway_AllCoolingDown(t *testing.T) {
	tracker := NewCooldownTracker(time.Hour)
	pool := testPool(2)
	now := time.Now()
	tracker.MarkExhausted(pool.At(0), now)
	tracker.MarkExhausted(pool.At(1), now)

	backend := &scriptedBackend{}
	gw := NewGateway(pool, backend, WithCooldownTracker(tracker))

	_, err := gw.Generate(context.Background(), testRequest())
	var exhausted *common.AllCredentialsExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.ErrorIs(t, err, ErrAllCoolingDown)
	assert.Equal(t, 0, exhausted.Attempts)
	assert.Empty(t, backend.calls)
}

func TestGateway_RateLimitCanceled(t *testing.T) {
	backend := &scriptedBackend{results: map[int]scriptedResult{0: {text: "ok"}}}
	gw := NewGateway(testPool(1), backend, WithRateLimit(1))

	_, err := gw.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = gw.Generate(ctx, testRequest())
	require.Error(t, err)
	assert.Len(t, backend.calls, 1)
}
