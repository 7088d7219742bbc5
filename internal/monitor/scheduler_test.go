package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"datapact/internal/config"
	"datapact/internal/logging"
	"datapact/internal/models"
)

func newTestScheduler(queueSize int) *Scheduler {
	var cfg config.Config
	cfg.Monitor.QueueSize = queueSize
	reg := &fakeRegistry{contracts: map[string]*models.Contract{}}
	orch := newTestOrchestrator(reg, &fakeProber{}, &fakePublisher{})
	return NewScheduler(orch, reg, logging.NewTest(), cfg)
}

func TestSchedulerQualifies(t *testing.T) {
	s := newTestScheduler(1)

	full := ordersContract()
	assert.True(t, s.qualifies(*full, models.CheckTypeSchema))
	assert.True(t, s.qualifies(*full, models.CheckTypeQuality))
	assert.True(t, s.qualifies(*full, models.CheckTypeAvailability))

	noEndpoint := ordersContract()
	noEndpoint.AccessConfig = nil
	assert.False(t, s.qualifies(*noEndpoint, models.CheckTypeSchema))

	noMetrics := ordersContract()
	noMetrics.QualityMetrics = nil
	assert.True(t, s.qualifies(*noMetrics, models.CheckTypeSchema))
	assert.False(t, s.qualifies(*noMetrics, models.CheckTypeQuality))
}

func TestSchedulerEnqueueDropsWhenFull(t *testing.T) {
	s := newTestScheduler(1)

	s.Enqueue(Task{ContractID: "c1", CheckType: models.CheckTypeSchema})
	// Queue is full; the second enqueue must not block.
	s.Enqueue(Task{ContractID: "c2", CheckType: models.CheckTypeSchema})

	assert.Len(t, s.tasks, 1)
	task := <-s.tasks
	assert.Equal(t, "c1", task.ContractID)
}
