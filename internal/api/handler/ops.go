// Package handler provides HTTP handlers for the TripForge API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/tripforge/tripforge/internal/api/models"
	"github.com/tripforge/tripforge/internal/api/response"
	"github.com/tripforge/tripforge/internal/provider/resilience"
)

// readinessTimeout bounds each dependency check.
const readinessTimeout = 2 * time.Second

// Dependency is a backing service the API needs to serve traffic.
type Dependency struct {
	Name  string
	Check func(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version      string
	buildTime    string
	registry     *resilience.Registry
	dependencies []Dependency
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, deps ...Dependency) *OpsHandler {
	return &OpsHandler{
		version:      version,
		buildTime:    buildTime,
		registry:     registry,
		dependencies: deps,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - 503 until every dependency answers.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	subsystems, status := h.checkDependencies(r.Context())

	details := make(map[string]any, len(subsystems))
	for _, s := range subsystems {
		details[s.Name] = s.Status
	}
	health := models.Health{
		Status:  status,
		Time:    models.Timestamp(time.Now()),
		Details: details,
	}

	code := http.StatusOK
	if status != models.HealthStatusOK {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, health)
}

// SystemStatus handles GET /v1/ops/status - producer and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	subsystems, status := h.checkDependencies(r.Context())

	producers := []models.ProducerStatus{}
	if h.registry != nil {
		for _, ph := range h.registry.AllHealth() {
			producers = append(producers, producerStatus(ph))
			if !ph.IsHealthy() && status == models.HealthStatusOK {
				status = models.HealthStatusDegraded
			}
		}
	}

	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:     status,
		Time:       models.Timestamp(time.Now()),
		Subsystems: subsystems,
		Producers:  producers,
	})
}

func (h *OpsHandler) checkDependencies(ctx context.Context) ([]models.SubsystemStatus, models.HealthStatus) {
	overall := models.HealthStatusOK
	subsystems := make([]models.SubsystemStatus, 0, len(h.dependencies))
	for _, dep := range h.dependencies {
		checkCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
		err := dep.Check(checkCtx)
		cancel()

		s := models.SubsystemStatus{Name: dep.Name, Status: models.HealthStatusOK}
		if err != nil {
			detail := err.Error()
			s.Status = models.HealthStatusFail
			s.Detail = &detail
			overall = models.HealthStatusFail
		}
		subsystems = append(subsystems, s)
	}
	return subsystems, overall
}

func producerStatus(ph *resilience.ProducerHealth) models.ProducerStatus {
	ps := models.ProducerStatus{
		Producer:            ph.Name,
		CircuitState:        ph.CircuitState.String(),
		ConsecutiveFailures: int(ph.Counts.ConsecutiveFailures),
		Trips:               ph.Trips,
	}
	switch ph.Status() {
	case resilience.StatusUnhealthy:
		ps.Status = models.HealthStatusFail
	case resilience.StatusDegraded:
		ps.Status = models.HealthStatusDegraded
	default:
		ps.Status = models.HealthStatusOK
	}
	if ph.LastSuccessAt != nil {
		ts := models.Timestamp(*ph.LastSuccessAt)
		ps.LastSuccessAt = &ts
	}
	if ph.LastFailureAt != nil {
		ts := models.Timestamp(*ph.LastFailureAt)
		ps.LastFailureAt = &ts
	}
	if ph.StateChangedAt != nil {
		ts := models.Timestamp(*ph.StateChangedAt)
		ps.StateChangedAt = &ts
	}
	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}
