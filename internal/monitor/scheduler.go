package monitor

import (
	"context"
	"sync"
	"time"

	"datapact/internal/config"
	"datapact/internal/logging"
	"datapact/internal/models"
)

// Task is one contract's one check, executed by a single worker.
type Task struct {
	ContractID string
	CheckType  string
}

// taskTimeLimit is the hard per-task deadline; a task past it is abandoned
// and left to the next scheduling pass.
const taskTimeLimit = 5 * time.Minute

// Scheduler fans out periodic compliance checks: three independent timers
// enumerate active contracts and enqueue one orchestrator task per
// qualifying contract. Enqueue is fire-and-forget.
type Scheduler struct {
	orch     *Orchestrator
	registry ContractSource
	logger   *logging.Logger
	cfg      config.Config
	tasks    chan Task
	ctx      context.Context
	cancel   context.CancelFunc
	wg       *sync.WaitGroup
}

// NewScheduler constructs a Scheduler with a bounded task queue.
func NewScheduler(orch *Orchestrator, reg ContractSource, logger *logging.Logger, cfg config.Config) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		orch:     orch,
		registry: reg,
		logger:   logger,
		cfg:      cfg,
		tasks:    make(chan Task, cfg.Monitor.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker pool and the three check timers.
func (s *Scheduler) Start(wg *sync.WaitGroup) {
	s.wg = wg
	for i := 0; i < s.cfg.Monitor.MaxWorkers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.startTicker(time.Duration(s.cfg.Monitor.SchemaIntervalSeconds)*time.Second, models.CheckTypeSchema)
	s.startTicker(time.Duration(s.cfg.Monitor.QualityIntervalSeconds)*time.Second, models.CheckTypeQuality)
	s.startTicker(time.Duration(s.cfg.Monitor.AvailabilityIntervalSeconds)*time.Second, models.CheckTypeAvailability)
}

// Stop cancels workers and timers.
func (s *Scheduler) Stop() {
	s.cancel()
}

// Enqueue adds a task, dropping it with a log line when the queue is full.
func (s *Scheduler) Enqueue(task Task) {
	select {
	case s.tasks <- task:
		s.logger.Debugf("Queued %s check for contract %s", task.CheckType, task.ContractID)
	default:
		s.logger.Errorf("Queue full, dropping %s check for contract %s", task.CheckType, task.ContractID)
	}
}

func (s *Scheduler) startTicker(interval time.Duration, checkType string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.scheduleAll(checkType)
			}
		}
	}()
}

// scheduleAll lists active contracts and enqueues one task per contract
// with the prerequisite configuration for the check type.
func (s *Scheduler) scheduleAll(checkType string) {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	contracts, err := s.registry.ListActiveContracts(ctx, s.cfg.Monitor.ContractPageLimit)
	if err != nil {
		s.logger.Errorf("Failed to fetch contracts for %s pass: %v", checkType, err)
		return
	}

	queued := 0
	for _, contract := range contracts {
		if !s.qualifies(contract, checkType) {
			continue
		}
		s.Enqueue(Task{ContractID: contract.ID, CheckType: checkType})
		queued++
	}

	s.logger.Infof("Queued %d %s checks out of %d contracts", queued, checkType, len(contracts))
}

func (s *Scheduler) qualifies(contract models.Contract, checkType string) bool {
	if contract.Endpoint() == "" {
		return false
	}
	if checkType == models.CheckTypeQuality && len(contract.QualityMetrics) == 0 {
		return false
	}
	return true
}

// worker executes tasks until the scheduler is stopped.
func (s *Scheduler) worker(id int) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Infof("Monitor worker %d stopped", id)
			return
		case task := <-s.tasks:
			s.run(task)
		}
	}
}

func (s *Scheduler) run(task Task) {
	ctx, cancel := context.WithTimeout(s.ctx, taskTimeLimit)
	defer cancel()

	var outcome Outcome
	switch task.CheckType {
	case models.CheckTypeSchema:
		outcome = s.orch.RunSchemaCheck(ctx, task.ContractID)
	case models.CheckTypeQuality:
		outcome = s.orch.RunQualityCheck(ctx, task.ContractID)
	case models.CheckTypeAvailability:
		outcome = s.orch.RunAvailabilityCheck(ctx, task.ContractID)
	default:
		s.logger.Errorf("Unknown check type %q for contract %s", task.CheckType, task.ContractID)
		return
	}

	s.logger.Debugf("%s check for %s finished: %s", task.CheckType, task.ContractID, outcome.Status)
}
