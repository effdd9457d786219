package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Health status values reported for a producer.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// ProducerHealth represents the health of an upstream itinerary producer.
type ProducerHealth struct {
	Name          string
	CircuitState  gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string

	// StateChangedAt is when the circuit last changed state; nil if it never has.
	StateChangedAt *time.Time
	// Trips counts how often the circuit has opened.
	Trips int
}

// IsHealthy returns true if the producer circuit is closed.
func (h *ProducerHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// IsDegraded returns true if the producer circuit is half-open.
func (h *ProducerHealth) IsDegraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// IsUnhealthy returns true if the producer circuit is open.
func (h *ProducerHealth) IsUnhealthy() bool {
	return h.CircuitState == gobreaker.StateOpen
}

// Status maps the circuit state onto a status string.
func (h *ProducerHealth) Status() string {
	switch {
	case h.IsUnhealthy():
		return StatusUnhealthy
	case h.IsDegraded():
		return StatusDegraded
	default:
		return StatusHealthy
	}
}

// Registry tracks producer clients and the outcome of their latest calls.
type Registry struct {
	mu        sync.RWMutex
	producers map[string]*registeredProducer
}

type registeredProducer struct {
	client         *Client
	lastSuccessAt  *time.Time
	lastFailureAt  *time.Time
	lastError      string
	stateChangedAt *time.Time
	trips          int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		producers: make(map[string]*registeredProducer),
	}
}

// Register adds a client to the registry, replacing any previous entry.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.producers[name] = &registeredProducer{client: client}
}

// Unregister removes a producer from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.producers, name)
}

// RecordSuccess records a successful call.
func (r *Registry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.producers[name]; ok {
		now := time.Now()
		p.lastSuccessAt = &now
	}
}

// RecordFailure records a failed call and its error message.
func (r *Registry) RecordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.producers[name]; ok {
		now := time.Now()
		p.lastFailureAt = &now
		if err != nil {
			p.lastError = err.Error()
		}
	}
}

// RecordStateChange records a circuit transition for a producer.
func (r *Registry) RecordStateChange(name string, to gobreaker.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.producers[name]; ok {
		now := time.Now()
		p.stateChangedAt = &now
		if to == gobreaker.StateOpen {
			p.trips++
		}
	}
}

// Health returns the health of one producer, or nil if it is not registered.
func (r *Registry) Health(name string) *ProducerHealth {
	r.mu.RLock()
	p, ok := r.producers[name]
	var snap registeredProducer
	if ok {
		snap = *p
	}
	r.mu.RUnlock()

	if !ok {
		return nil
	}
	return snap.health(name)
}

// AllHealth returns the health of every registered producer ordered by name.
func (r *Registry) AllHealth() []*ProducerHealth {
	// Breaker state is read outside the lock: breakers call RecordStateChange
	// while holding their own mutex.
	r.mu.RLock()
	snaps := make(map[string]registeredProducer, len(r.producers))
	for name, p := range r.producers {
		snaps[name] = *p
	}
	r.mu.RUnlock()

	health := make([]*ProducerHealth, 0, len(snaps))
	for name, p := range snaps {
		health = append(health, p.health(name))
	}
	sort.Slice(health, func(i, j int) bool { return health[i].Name < health[j].Name })
	return health
}

// Names returns the registered producer names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.producers))
	for name := range r.producers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered producers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.producers)
}

func (p *registeredProducer) health(name string) *ProducerHealth {
	return &ProducerHealth{
		Name:          name,
		CircuitState:  p.client.CircuitBreakerState(),
		Counts:        p.client.CircuitBreakerCounts(),
		LastSuccessAt: p.lastSuccessAt,
		LastFailureAt: p.lastFailureAt,
		LastError:     p.lastError,

		StateChangedAt: p.stateChangedAt,
		Trips:          p.trips,
	}
}
