// Package keepalive pings the user database on a fixed interval so managed
// clusters that suspend idle deployments stay warm.
package keepalive

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinictrack/user-service/internal/pkg/metrics"
)

const defaultInterval = 15 * time.Minute

// Pinger is satisfied by the database adapters.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Run pings once immediately and then every interval until ctx is cancelled.
// Failures are logged and counted; they never stop the loop.
func Run(ctx context.Context, p Pinger, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		interval = defaultInterval
	}

	ping(ctx, p, log)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ping(ctx, p, log)
		}
	}
}

func ping(ctx context.Context, p Pinger, log zerolog.Logger) {
	if err := p.Ping(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.KeepAlivePingsTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Msg("keep-alive ping failed")
		return
	}
	metrics.KeepAlivePingsTotal.WithLabelValues("ok").Inc()
	log.Debug().Msg("keep-alive ping ok")
}
