package records

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hospital-records-server/internal/config"
	"hospital-records-server/internal/metrics"
)

// Open builds the source selected by cfg.RecordSource, wrapped with
// instrumentation. The returned close function releases backend connections
// and is never nil.
func Open(ctx context.Context, cfg *config.Config, db *gorm.DB, m *metrics.Collector, log *zap.Logger) (Source, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	var (
		src    Source
		closer = noop
	)
	switch cfg.RecordSource {
	case config.SourceMySQL:
		src = NewMySQLSource(db)
	case config.SourceMongo:
		ms, err := ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, noop, err
		}
		src, closer = ms, ms.Close
	case config.SourceHTTP:
		src = NewHTTPSource(cfg.Upstream, log)
	default:
		return nil, noop, fmt.Errorf("unknown record source %q", cfg.RecordSource)
	}

	log.Info("record source ready", zap.String("source", cfg.RecordSource))
	return NewInstrumented(src, cfg.RecordSource, m, log), closer, nil
}
