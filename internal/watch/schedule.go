package watch

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/brogergvhs/mangawatch/internal/providers"
)

// Run calls job right away and then on every tick of spec until ctx is
// done. A tick that comes while the previous job still runs is skipped.
func Run(ctx context.Context, spec string, log providers.Logger, job func(context.Context)) error {
	if log == nil {
		log = providers.NopLogger
	}

	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	cl := cronLogger{log}
	c := cron.New(cron.WithLogger(cl))

	j := cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).
		Then(cron.FuncJob(func() { job(ctx) }))
	c.Schedule(sched, j)

	log.Infof("watching (runs immediately, then %s)", spec)
	j.Run()

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	return nil
}

type cronLogger struct {
	log providers.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugf("cron: %s %v", msg, keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorf("cron: %s: %v %v", msg, err, keysAndValues)
}
