package reliability

import (
	"context"
	stderrors "errors"

	"droidcast/internal/core/ports"
	"droidcast/pkg/circuitbreaker"
	"droidcast/pkg/errors"
	"droidcast/pkg/retry"
	"droidcast/pkg/tracing"

	"go.uber.org/zap"
)

// ResilientTransport decorates a Transport with provisioning retries behind a
// circuit breaker. Only Provision is guarded: the open calls operate on an
// already provisioned handle, and once that handle is broken the session
// restart path, not a blind retry, is the correct recovery.
type ResilientTransport struct {
	inner   ports.Transport
	retry   retry.Config
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

// NewResilientTransport wraps inner with the given retry and breaker policy.
func NewResilientTransport(
	inner ports.Transport,
	retryCfg retry.Config,
	cbCfg circuitbreaker.Config,
	logger *zap.SugaredLogger,
) *ResilientTransport {
	t := &ResilientTransport{
		inner:   inner,
		retry:   retryCfg,
		breaker: circuitbreaker.New(cbCfg),
		logger:  logger,
	}
	t.breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Warnw("device connection breaker state changed",
			"from", from.String(),
			"to", to.String(),
		)
	})
	return t
}

// Provision establishes the device connection, retrying transient failures.
// Cancellations, invalid specs and an open breaker are permanent: retrying
// them either cannot succeed or would pile onto a device already refusing
// connections.
func (t *ResilientTransport) Provision(ctx context.Context, spec ports.ProvisionSpec) (ports.ConnectionHandle, error) {
	ctx, span := tracing.TraceTransportOperation(ctx, "provision", spec.BitRate)
	defer span.End()

	attempt := 0
	handle, err := retry.DoWithResult(ctx, t.retry, provisionRetryable, func() (ports.ConnectionHandle, error) {
		attempt++
		if err := t.breaker.Allow(); err != nil {
			return nil, err
		}
		handle, err := t.inner.Provision(ctx, spec)
		if err != nil {
			t.breaker.RecordFailure()
			t.logger.Warnw("device provisioning attempt failed",
				"attempt", attempt,
				"error", err,
			)
			return nil, err
		}
		t.breaker.RecordSuccess()
		return handle, nil
	})
	if err != nil {
		tracing.RecordError(ctx, err)
	}
	return handle, err
}

func provisionRetryable(err error) bool {
	if errors.IsExpectedCancellation(err) {
		return false
	}
	if stderrors.Is(err, circuitbreaker.ErrOpen) {
		return false
	}
	if appErr := errors.GetAppError(err); appErr != nil && appErr.Code == errors.ErrCodeInvalidInput {
		return false
	}
	return true
}

func (t *ResilientTransport) OpenVideoStream(ctx context.Context, handle ports.ConnectionHandle) (ports.StreamMetadata, ports.FrameStream, error) {
	return t.inner.OpenVideoStream(ctx, handle)
}

func (t *ResilientTransport) OpenController(handle ports.ConnectionHandle) (ports.DeviceController, error) {
	return t.inner.OpenController(handle)
}

func (t *ResilientTransport) OpenClipboardStream(ctx context.Context, handle ports.ConnectionHandle) (ports.ClipboardStream, error) {
	return t.inner.OpenClipboardStream(ctx, handle)
}

// BreakerState exposes the breaker for health reporting.
func (t *ResilientTransport) BreakerState() circuitbreaker.State {
	return t.breaker.State()
}
