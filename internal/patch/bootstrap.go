package patch

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-modelbake/internal/engine/model"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
)

// DiagnosticKind classifies a bootstrap problem.
type DiagnosticKind int

const (
	// MarkerMismatch: the first special registration was not the marker.
	MarkerMismatch DiagnosticKind = iota
	// MarkerNotObserved: Init finished without a special registration.
	MarkerNotObserved
)

func (k DiagnosticKind) String() string {
	switch k {
	case MarkerMismatch:
		return "marker_mismatch"
	case MarkerNotObserved:
		return "marker_not_observed"
	default:
		return fmt.Sprintf("diagnostic(%d)", int(k))
	}
}

// Diagnostic records a non-fatal bootstrap problem. Special models are not
// injected when one is recorded.
type Diagnostic struct {
	Kind     DiagnosticKind
	Expected modelid.Identifier
	Observed modelid.Identifier
}

func (d Diagnostic) String() string {
	if d.Kind == MarkerMismatch {
		return fmt.Sprintf("%s: expected %s, observed %s", d.Kind, d.Expected, d.Observed)
	}
	return fmt.Sprintf("%s: expected %s", d.Kind, d.Expected)
}

// Diagnostics returns every diagnostic recorded so far.
func (a *Adapter) Diagnostics() []Diagnostic {
	return slices.Clone(a.diagnostics)
}

// Phase implements model.Interceptor. Entering the special phase arms the
// detector for the next registration.
func (a *Adapter) Phase(name string) {
	if name == model.PhaseSpecial {
		a.armed = true
		a.fired = false
	}
}

// AddModel implements model.Interceptor. The native registration always
// happens first; the first one after arming decides whether to inject.
func (a *Adapter) AddModel(id modelid.Identifier, add func()) {
	add()
	if !a.armed {
		return
	}
	a.armed = false
	a.fired = true

	if id != a.opts.Marker {
		a.record(Diagnostic{Kind: MarkerMismatch, Expected: a.opts.Marker, Observed: id})
		return
	}
	a.log.Debug("Loading special models", zap.Int("count", len(a.opts.SpecialModels)))
	a.loadSpecialModels()
}

// InitDone implements model.Interceptor.
func (a *Adapter) InitDone() {
	if !a.fired {
		a.record(Diagnostic{Kind: MarkerNotObserved, Expected: a.opts.Marker})
	}
	a.armed = false
}

func (a *Adapter) loadSpecialModels() {
	a.injected = a.injected[:0]
	for _, id := range a.opts.SpecialModels {
		m := a.loader.GetOrLoadModel(id)
		a.loader.PutUnbakedModel(id, m)
		a.loader.PutModelToBake(id, m)
		a.injected = append(a.injected, id)
	}
}

func (a *Adapter) record(d Diagnostic) {
	a.diagnostics = append(a.diagnostics, d)
	a.log.Warn("Unable to load special models for extensions",
		zap.Stringer("kind", d.Kind),
		zap.Stringer("expected", d.Expected),
		zap.Stringer("observed", d.Observed))
}
