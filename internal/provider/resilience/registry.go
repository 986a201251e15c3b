package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Status summarises a provider's breaker state.
type Status string

// Provider statuses, from best to worst.
const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

func statusOf(state gobreaker.State) Status {
	switch state {
	case gobreaker.StateOpen:
		return StatusUnhealthy
	case gobreaker.StateHalfOpen:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}

// ProviderHealth is a point-in-time view of one classifier provider.
type ProviderHealth struct {
	Name          string
	CircuitState  gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	// LastError is the message of the most recent recorded failure.
	LastError string
	// ConsecutiveFailures counts recorded failures since the last recorded
	// success. Unlike Counts it survives the breaker tripping, which starts a
	// new generation with zeroed counts.
	ConsecutiveFailures uint32
}

// Status maps the circuit state: closed is healthy, half-open degraded and
// open unhealthy.
func (h *ProviderHealth) Status() Status {
	return statusOf(h.CircuitState)
}

// Registry tracks classifier providers, their breakers and the outcome of
// their most recent calls. The API's status endpoint and the worker's health
// probe both read and write it.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*registeredProvider
	now       func() time.Time
}

type registeredProvider struct {
	breaker       Breaker
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
	failures      uint32
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]*registeredProvider),
		now:       time.Now,
	}
}

// Register adds a provider. A nil breaker is allowed for providers without
// one; they always report closed. Registering a name again replaces the
// breaker and resets its history.
func (r *Registry) Register(name string, breaker Breaker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = &registeredProvider{breaker: breaker}
}

// RecordSuccess stamps the provider's last success and clears its failure
// streak. Unknown names are ignored.
func (r *Registry) RecordSuccess(name string) {
	r.update(name, func(p *registeredProvider, now time.Time) {
		p.lastSuccessAt = &now
		p.failures = 0
	})
}

// RecordFailure stamps the provider's last failure and keeps err's message.
// A nil err keeps the previous message. Unknown names are ignored.
func (r *Registry) RecordFailure(name string, err error) {
	r.update(name, func(p *registeredProvider, now time.Time) {
		p.lastFailureAt = &now
		p.failures++
		if err != nil {
			p.lastError = err.Error()
		}
	})
}

func (r *Registry) update(name string, fn func(*registeredProvider, time.Time)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		fn(p, r.now())
	}
}

// GetHealth returns the provider's health, or nil if it is not registered.
func (r *Registry) GetHealth(name string) *ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil
	}
	return p.health(name)
}

// GetAllHealth returns every provider's health sorted by name.
func (r *Registry) GetAllHealth() []*ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	health := make([]*ProviderHealth, 0, len(r.providers))
	for name, p := range r.providers {
		health = append(health, p.health(name))
	}
	sort.Slice(health, func(i, j int) bool { return health[i].Name < health[j].Name })
	return health
}

// Overall returns the worst status across providers. An empty registry is
// healthy.
func (r *Registry) Overall() Status {
	worst := StatusHealthy
	for _, h := range r.GetAllHealth() {
		switch h.Status() {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			worst = StatusDegraded
		}
	}
	return worst
}

func (p *registeredProvider) health(name string) *ProviderHealth {
	h := &ProviderHealth{
		Name:                name,
		CircuitState:        gobreaker.StateClosed,
		LastSuccessAt:       p.lastSuccessAt,
		LastFailureAt:       p.lastFailureAt,
		LastError:           p.lastError,
		ConsecutiveFailures: p.failures,
	}
	if p.breaker != nil {
		h.CircuitState = p.breaker.State()
		h.Counts = p.breaker.Counts()
	}
	return h
}
