package worker

import (
	"context"
	"fmt"
	"time"

	"coursecrawler/internal/logger"

	"github.com/hibiken/asynq"
)

type Mux struct {
	mux *asynq.ServeMux
	log *logger.Logger
}

func NewMux() *Mux {
	m := &Mux{mux: asynq.NewServeMux(), log: logger.New("Worker")}
	m.mux.Use(m.logging)
	return m
}

func (m *Mux) HandleFunc(t string, h func(ctx context.Context, task *asynq.Task) error) {
	m.mux.HandleFunc(t, h)
}

func (m *Mux) Mux() *asynq.ServeMux { return m.mux }

func (m *Mux) logging(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		id, _ := asynq.GetTaskID(ctx)
		m.log.LogDebugf("task %s (%s) started", id, t.Type())
		err := next.ProcessTask(ctx, t)
		if err != nil {
			m.log.LogErrorf("task %s (%s) failed after %v: %v", id, t.Type(), time.Since(start), err)
			return err
		}
		m.log.LogDebugf("task %s (%s) done in %v", id, t.Type(), time.Since(start))
		return nil
	})
}

// NewServer builds the asynq server that executes crawl tasks. Concurrency
// bounds how many crawl jobs run at once.
func NewServer(opt asynq.RedisClientOpt, queue string, concurrency int) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 1
	}
	if queue == "" {
		queue = "default"
	}
	return asynq.NewServer(opt, asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{queue: 1},
		ShutdownTimeout: 30 * time.Second,
		Logger:          asynqLogger{logger.New("Asynq")},
	})
}

// asynqLogger routes asynq's own logging through the service logger.
type asynqLogger struct{ l *logger.Logger }

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug().Msg(sprint(args)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info().Msg(sprint(args)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn().Msg(sprint(args)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error().Msg(sprint(args)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal().Msg(sprint(args)) }

func sprint(args []interface{}) string { return fmt.Sprint(args...) }
