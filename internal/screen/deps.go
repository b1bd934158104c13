package screen

import (
	"sync"

	"go.uber.org/zap"

	"github.com/gpteach/gpteach/internal/plan"
	"github.com/gpteach/gpteach/internal/store"
	"github.com/gpteach/gpteach/internal/wizard"
)

// Deps are the services shared by every screen.
type Deps struct {
	Plans     store.PlanRepo
	Events    store.EventRepo
	Generator wizard.Generator
	Outcomes  wizard.OutcomeSource
	Wizard    wizard.Config
	Logger    *zap.Logger

	// GeneratorErr explains why Generator is nil.
	GeneratorErr error

	mu        sync.RWMutex
	templates *plan.Registry
}

// Templates returns the current template registry.
func (d *Deps) Templates() *plan.Registry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.templates
}

// SetTemplates swaps in a reloaded registry.
func (d *Deps) SetTemplates(r *plan.Registry) {
	d.mu.Lock()
	d.templates = r
	d.mu.Unlock()
}
