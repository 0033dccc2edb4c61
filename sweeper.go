package authgate

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// sweeper runs Store.Sweep on a cron schedule. It only removes sessions
// that already fail the usable predicate, so scheduled sweeps never
// change what validation would have decided anyway.
type sweeper struct {
	cron *cron.Cron
}

func newSweeper(schedule string, m *Manager) (*sweeper, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		_, _ = m.Sweep(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("authgate: invalid sweep schedule %q: %w", schedule, err)
	}
	return &sweeper{cron: c}, nil
}

func (s *sweeper) start() {
	s.cron.Start()
}

func (s *sweeper) stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
