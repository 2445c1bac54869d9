package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog"

	"healthwatch/internal/models"
)

// PushSink pushes a gatherer to a Pushgateway after every tick.
type PushSink struct {
	pusher   *push.Pusher
	endpoint string
}

// NewPushSink pushes gatherer to endpoint under job. The grouping key adds
// an instance label so several agents can share one gateway.
func NewPushSink(endpoint, job, instance string, gatherer prometheus.Gatherer, client *http.Client) *PushSink {
	pusher := push.New(endpoint, job).
		Gatherer(gatherer).
		Client(client)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	return &PushSink{pusher: pusher, endpoint: endpoint}
}

func (p *PushSink) Report(ctx context.Context, record models.TickRecord) error {
	if err := p.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push to %s: %w", p.endpoint, err)
	}
	return nil
}

// NewRetryingHTTPClient returns a client that retries transient failures a
// couple of times. Waits stay short because a push runs inside a tick.
func NewRetryingHTTPClient(logger zerolog.Logger) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.HTTPClient.Timeout = 5 * time.Second
	retryClient.Logger = retryLogger{logger: logger}
	return retryClient.StandardClient()
}

// retryLogger adapts zerolog to retryablehttp.LeveledLogger.
type retryLogger struct {
	logger zerolog.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}
