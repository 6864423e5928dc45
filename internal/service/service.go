package service

import (
	"context"

	"genealogy/internal/auth"
	"genealogy/internal/database"
	"genealogy/internal/logging"
	"genealogy/internal/metrics"
	"genealogy/internal/models"
)

// Options are the collaborators shared by every service
type Options struct {
	Logger  *logging.Logger
	Metrics *metrics.Metrics
	Clock   auth.Clock
}

type base struct {
	db      *database.DB
	logger  *logging.Logger
	metrics *metrics.Metrics
	now     auth.Clock
}

func newBase(db *database.DB, opts Options) base {
	b := base{db: db, logger: opts.Logger, metrics: opts.Metrics, now: opts.Clock}
	if b.logger == nil {
		b.logger = logging.Nop()
	}
	if b.now == nil {
		b.now = auth.UTC
	}
	return b
}

func (b *base) stamp(a auth.Actor) models.Stamp {
	return models.Stamp{ActorID: a.ID, At: b.now()}
}

// record counts a write and logs it. err is the classified error.
func (b *base) record(ctx context.Context, entity, op string, err error, keyvals ...interface{}) {
	result := metrics.ResultOK
	switch err.(type) {
	case nil:
	case *StorageError:
		result = metrics.ResultError
	default:
		result = metrics.ResultRejected
	}
	b.metrics.CountMutation(entity, op, result)

	if err == nil {
		b.logger.Info(ctx, entity+" "+op, keyvals...)
	} else if result == metrics.ResultRejected {
		b.logger.Debug(ctx, entity+" "+op+" rejected", append(keyvals, "reason", err.Error())...)
	}
}
