package observability

import (
	"context"
	"time"
)

// Recorder receives bus timings and node counts
type Recorder interface {
	RecordCommandExecution(ctx context.Context, commandName string, duration time.Duration, err error)
	RecordQueryExecution(ctx context.Context, queryName string, duration time.Duration, err error)
	RecordNodesCreated(ctx context.Context, n int)
	RecordNodesDeleted(ctx context.Context, n int)
}

// Recorders fans every observation out to each recorder
type Recorders []Recorder

// NewRecorders drops nil entries
func NewRecorders(recorders ...Recorder) Recorders {
	out := make(Recorders, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (rs Recorders) RecordCommandExecution(ctx context.Context, commandName string, duration time.Duration, err error) {
	for _, r := range rs {
		r.RecordCommandExecution(ctx, commandName, duration, err)
	}
}

func (rs Recorders) RecordQueryExecution(ctx context.Context, queryName string, duration time.Duration, err error) {
	for _, r := range rs {
		r.RecordQueryExecution(ctx, queryName, duration, err)
	}
}

func (rs Recorders) RecordNodesCreated(ctx context.Context, n int) {
	for _, r := range rs {
		r.RecordNodesCreated(ctx, n)
	}
}

func (rs Recorders) RecordNodesDeleted(ctx context.Context, n int) {
	for _, r := range rs {
		r.RecordNodesDeleted(ctx, n)
	}
}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = (*CloudWatchMetrics)(nil)
	_ Recorder = Recorders(nil)
)
