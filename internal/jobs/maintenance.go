package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"serena/internal/services"
)

// sweepTimeout bounds one maintenance run.
const sweepTimeout = 2 * time.Minute

// Maintenance runs the nightly housekeeping: goals untouched past the idle
// window are soft-marked abandoned. Nothing is ever deleted.
type Maintenance struct {
	scheduler gocron.Scheduler
	goals     *services.GoalService
	idleFor   time.Duration
}

func NewMaintenance(goals *services.GoalService, idleFor time.Duration) (*Maintenance, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Maintenance{
		scheduler: scheduler,
		goals:     goals,
		idleFor:   idleFor,
	}, nil
}

// Start schedules the nightly sweep at 03:30 server time.
func (m *Maintenance) Start() error {
	_, err := m.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 30, 0))),
		gocron.NewTask(m.sweep),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance job: %w", err)
	}

	m.scheduler.Start()
	log.Printf("⏰ [MAINTENANCE] Nightly sweep scheduled (idle window %v)", m.idleFor)
	return nil
}

// sweep is the job body. Errors are logged; the next run retries naturally.
func (m *Maintenance) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := m.goals.AbandonIdle(ctx, m.idleFor); err != nil {
		log.Printf("❌ [MAINTENANCE] Idle goal sweep failed: %v", err)
	}
}

// Stop shuts the scheduler down, waiting for a running sweep.
func (m *Maintenance) Stop() error {
	return m.scheduler.Shutdown()
}
