// Package monitor runs per-contract compliance checks: fetch contract,
// probe the live service, evaluate checkers, record the result, and emit
// an alert event on failure.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"datapact/internal/checks"
	"datapact/internal/logging"
	"datapact/internal/models"
	"datapact/internal/probe"
	"datapact/internal/registry"
	"datapact/internal/utils"
)

// ContractSource is the slice of the Contract Service the monitor needs.
type ContractSource interface {
	GetContract(ctx context.Context, id string) (*models.Contract, error)
	ListActiveContracts(ctx context.Context, limit int) ([]models.Contract, error)
	RecordCompliance(ctx context.Context, result models.ComplianceResult) error
}

// Prober fetches probe endpoints of a target data service.
type Prober interface {
	FetchSchema(ctx context.Context, endpoint string) (map[string]any, error)
	FetchMetrics(ctx context.Context, endpoint string) (map[string]any, error)
	FetchHealth(ctx context.Context, endpoint string) probe.HealthResult
}

// AlertPublisher emits alert events toward the notification core.
type AlertPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// RetryPolicy models retries as data: attempt count and fixed backoff.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Default retry policies per check type.
var (
	SchemaRetry       = RetryPolicy{MaxAttempts: 3, Delay: 60 * time.Second}
	QualityRetry      = RetryPolicy{MaxAttempts: 3, Delay: 60 * time.Second}
	AvailabilityRetry = RetryPolicy{MaxAttempts: 2, Delay: 30 * time.Second}
)

// Outcome summarizes one orchestrator run.
type Outcome struct {
	Status  string
	Reason  string
	Details map[string]any
}

// Orchestrator executes one contract's one check end to end.
type Orchestrator struct {
	registry ContractSource
	prober   Prober
	alerts   AlertPublisher
	logger   *logging.Logger

	SchemaRetry       RetryPolicy
	QualityRetry      RetryPolicy
	AvailabilityRetry RetryPolicy
}

// NewOrchestrator wires an orchestrator with the default retry policies.
func NewOrchestrator(reg ContractSource, prober Prober, alerts AlertPublisher, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		registry:          reg,
		prober:            prober,
		alerts:            alerts,
		logger:            logger,
		SchemaRetry:       SchemaRetry,
		QualityRetry:      QualityRetry,
		AvailabilityRetry: AvailabilityRetry,
	}
}

// RunSchemaCheck validates a contract's declared schema against the live
// service's /schema response.
func (o *Orchestrator) RunSchemaCheck(ctx context.Context, contractID string) Outcome {
	contract, outcome := o.loadContract(ctx, contractID)
	if outcome != nil {
		return *outcome
	}
	endpoint := contract.Endpoint()

	var actualSchema map[string]any
	err := utils.Retry(ctx, o.logger, o.SchemaRetry.MaxAttempts, o.SchemaRetry.Delay, func() error {
		var ferr error
		actualSchema, ferr = o.prober.FetchSchema(ctx, endpoint)
		if ferr != nil {
			// Record the transport failure before the next attempt; retries
			// exhausted below become the terminal error result.
			o.record(ctx, models.ComplianceResult{
				ContractID:   contractID,
				CheckType:    models.CheckTypeSchema,
				Status:       models.CheckStatusError,
				Details:      map[string]any{"error": fmt.Sprintf("Failed to fetch schema: %v", ferr)},
				ErrorMessage: ferr.Error(),
			})
		}
		return ferr
	})
	if err != nil {
		o.logger.Errorf("Schema check for %s exhausted retries: %v", contractID, err)
		return Outcome{Status: models.CheckStatusError, Reason: err.Error()}
	}

	validation := checks.ValidateSchema(contract, actualSchema)
	status := models.CheckStatusPass
	if !validation.IsValid {
		status = models.CheckStatusFail
	}

	o.record(ctx, models.ComplianceResult{
		ContractID: contractID,
		CheckType:  models.CheckTypeSchema,
		Status:     status,
		Details:    validation.Details(),
	})

	if !validation.IsValid {
		o.emit(ctx, models.Event{
			EventType:       models.EventSchemaDrift,
			Timestamp:       time.Now().UTC(),
			ContractID:      contract.ID,
			ContractName:    contract.Name,
			ContractVersion: contract.Version,
			PublisherTeam:   contract.PublisherTeam,
			ContactEmail:    contract.ContactEmail,
			Errors:          validation.Errors,
			Warnings:        validation.Warnings,
			EndpointURL:     endpoint,
		})
		o.logger.Warnf("Schema validation failed for %s: %v", contract.Name, validation.Errors)
	} else {
		o.logger.Infof("Schema validation passed for %s", contract.Name)
	}

	return Outcome{Status: status, Details: validation.Details()}
}

// RunQualityCheck evaluates every quality metric declared on the contract
// against the live service's /metrics response.
func (o *Orchestrator) RunQualityCheck(ctx context.Context, contractID string) Outcome {
	contract, outcome := o.loadContract(ctx, contractID)
	if outcome != nil {
		return *outcome
	}
	endpoint := contract.Endpoint()

	var metricsData map[string]any
	err := utils.Retry(ctx, o.logger, o.QualityRetry.MaxAttempts, o.QualityRetry.Delay, func() error {
		var ferr error
		metricsData, ferr = o.prober.FetchMetrics(ctx, endpoint)
		if ferr != nil {
			o.record(ctx, models.ComplianceResult{
				ContractID:   contractID,
				CheckType:    models.CheckTypeQuality,
				Status:       models.CheckStatusError,
				Details:      map[string]any{"error": fmt.Sprintf("Failed to fetch metrics: %v", ferr)},
				ErrorMessage: ferr.Error(),
			})
		}
		return ferr
	})
	if err != nil {
		o.logger.Errorf("Quality check for %s exhausted retries: %v", contractID, err)
		return Outcome{Status: models.CheckStatusError, Reason: err.Error()}
	}

	var (
		checkResults []map[string]any
		failedChecks []map[string]any
		passed       int
		failed       int
		warnings     int
	)

	for _, metric := range contract.QualityMetrics {
		result := checkMetric(metric, metricsData)

		entry := map[string]any{
			"metric_type":  metric.MetricType,
			"threshold":    metric.Threshold,
			"status":       result.Status,
			"message":      result.Message,
			"actual_value": result.ActualValue,
		}
		for k, v := range result.Extra {
			entry[k] = v
		}
		checkResults = append(checkResults, entry)

		switch result.Status {
		case checks.StatusPass:
			passed++
		case checks.StatusFail:
			failed++
			failedChecks = append(failedChecks, entry)
		default:
			warnings++
		}
	}

	details := map[string]any{
		"checks":   checkResults,
		"passed":   passed,
		"failed":   failed,
		"warnings": warnings,
	}

	status := models.CheckStatusPass
	if failed > 0 {
		status = models.CheckStatusFail
	}

	o.record(ctx, models.ComplianceResult{
		ContractID: contractID,
		CheckType:  models.CheckTypeQuality,
		Status:     status,
		Details:    details,
	})

	if failed > 0 {
		event := models.Event{
			EventType:       models.EventQualityBreach,
			Timestamp:       time.Now().UTC(),
			ContractID:      contract.ID,
			ContractName:    contract.Name,
			ContractVersion: contract.Version,
			PublisherTeam:   contract.PublisherTeam,
			ContactEmail:    contract.ContactEmail,
			FailedChecks:    failedChecks,
			Metadata:        map[string]any{"failed": failed, "passed": passed},
		}
		// Surface the first breached metric in the event header.
		first := failedChecks[0]
		event.MetricType, _ = first["metric_type"].(string)
		event.Threshold, _ = first["threshold"].(string)
		event.ActualValue = fmt.Sprintf("%v", first["actual_value"])

		o.emit(ctx, event)
		o.logger.Warnf("Quality check failed for %s: %d metrics breached", contract.Name, failed)
	} else {
		o.logger.Infof("Quality check passed for %s", contract.Name)
	}

	return Outcome{Status: status, Details: details}
}

// RunAvailabilityCheck pings the live service's /health endpoint. A health
// payload whose status is not "healthy", or any transport error or timeout,
// counts as failed.
func (o *Orchestrator) RunAvailabilityCheck(ctx context.Context, contractID string) Outcome {
	var contract *models.Contract
	err := utils.Retry(ctx, o.logger, o.AvailabilityRetry.MaxAttempts, o.AvailabilityRetry.Delay, func() error {
		var ferr error
		contract, ferr = o.registry.GetContract(ctx, contractID)
		if errors.Is(ferr, registry.ErrNotFound) {
			return nil // handled below, no retry
		}
		return ferr
	})
	if err != nil {
		o.logger.Errorf("Availability check for %s exhausted retries: %v", contractID, err)
		return Outcome{Status: models.CheckStatusError, Reason: err.Error()}
	}
	if contract == nil {
		return Outcome{Status: models.CheckStatusSkipped, Reason: "Contract not found"}
	}

	endpoint := contract.Endpoint()
	if endpoint == "" {
		o.logger.Infof("Contract %s has no endpoint configured, skipping", contractID)
		return Outcome{Status: models.CheckStatusSkipped, Reason: "No endpoint configured"}
	}

	health := o.prober.FetchHealth(ctx, endpoint)

	details := map[string]any{
		"is_available":    health.Healthy,
		"health_response": health.Response,
		"endpoint":        endpoint,
	}
	if health.LatencyMS > 0 {
		details["response_time_ms"] = health.LatencyMS
	}

	status := models.CheckStatusPass
	if !health.Healthy {
		status = models.CheckStatusFail
	}

	o.record(ctx, models.ComplianceResult{
		ContractID: contractID,
		CheckType:  models.CheckTypeAvailability,
		Status:     status,
		Details:    details,
	})

	if !health.Healthy {
		errMsg, _ := health.Response["error"].(string)
		o.emit(ctx, models.Event{
			EventType:       models.EventAvailabilityFailure,
			Timestamp:       time.Now().UTC(),
			ContractID:      contract.ID,
			ContractName:    contract.Name,
			ContractVersion: contract.Version,
			PublisherTeam:   contract.PublisherTeam,
			ContactEmail:    contract.ContactEmail,
			EndpointURL:     endpoint,
			ErrorMessage:    errMsg,
		})
		o.logger.Warnf("Availability check failed for %s: endpoint %s is not healthy", contract.Name, endpoint)
	} else {
		o.logger.Debugf("Availability check passed for %s (response time: %.0fms)", contract.Name, health.LatencyMS)
	}

	return Outcome{Status: status, Details: details}
}

// loadContract fetches the contract and resolves the skip conditions shared
// by schema and quality checks. A non-nil Outcome short-circuits the run.
func (o *Orchestrator) loadContract(ctx context.Context, contractID string) (*models.Contract, *Outcome) {
	contract, err := o.registry.GetContract(ctx, contractID)
	if errors.Is(err, registry.ErrNotFound) {
		o.logger.Infof("Contract %s not found, skipping", contractID)
		return nil, &Outcome{Status: models.CheckStatusSkipped, Reason: "Contract not found"}
	}
	if err != nil {
		o.logger.Errorf("Failed to fetch contract %s: %v", contractID, err)
		return nil, &Outcome{Status: models.CheckStatusError, Reason: err.Error()}
	}

	if contract.Endpoint() == "" {
		o.logger.Infof("Contract %s has no access endpoint, skipping", contractID)
		return nil, &Outcome{Status: models.CheckStatusSkipped, Reason: "No endpoint configured"}
	}

	return contract, nil
}

func checkMetric(metric models.QualityMetric, metricsData map[string]any) checks.Result {
	checker := checks.ForMetric(metric.MetricType)
	if checker == nil {
		return checks.Result{
			Status:  checks.StatusWarning,
			Message: fmt.Sprintf("Unknown metric type: %s", metric.MetricType),
		}
	}

	section, _ := metricsData[metric.MetricType].(map[string]any)
	if section == nil {
		section = map[string]any{}
	}
	return checker.Check(metric.Threshold, section)
}

func (o *Orchestrator) record(ctx context.Context, result models.ComplianceResult) {
	result.CheckedAt = time.Now().UTC()
	if err := o.registry.RecordCompliance(ctx, result); err != nil {
		o.logger.Errorf("Failed to record compliance check for %s: %v", result.ContractID, err)
	}
}

func (o *Orchestrator) emit(ctx context.Context, event models.Event) {
	if o.alerts == nil {
		return
	}
	if err := o.alerts.Publish(ctx, event); err != nil {
		o.logger.Errorf("Failed to publish %s alert for %s: %v", event.EventType, event.ContractName, err)
	}
}
