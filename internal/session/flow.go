package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"ambient-reader/internal/atmosphere"
	"ambient-reader/internal/config"
	"ambient-reader/internal/domain"
	"ambient-reader/internal/render"
)

// ErrTransitionInProgress is returned when a layout change is requested while
// another one is still rebuilding the rendition.
var ErrTransitionInProgress = errors.New("layout transition in progress")

// FlowPhase is the step a layout transition is in.
type FlowPhase string

const (
	FlowIdle       FlowPhase = "idle"
	FlowCapturing  FlowPhase = "capturing"
	FlowTearDown   FlowPhase = "tearing_down"
	FlowCreating   FlowPhase = "creating"
	FlowStyling    FlowPhase = "styling"
	FlowRendering  FlowPhase = "rendering"
	FlowFinalizing FlowPhase = "finalizing"
)

// FlowMachine switches the reader between paginated and scrolled layout. The
// rendition is rebuilt at the position it showed before the switch.
type FlowMachine struct {
	mu        sync.Mutex
	phase     FlowPhase
	rendition render.Rendition
	reader    *atmosphere.Reader
	prefs     *config.Live
	log       *zap.Logger
}

// NewFlowMachine creates an idle machine.
func NewFlowMachine(rendition render.Rendition, reader *atmosphere.Reader, prefs *config.Live, log *zap.Logger) *FlowMachine {
	if log == nil {
		log = zap.NewNop()
	}
	return &FlowMachine{
		phase:     FlowIdle,
		rendition: rendition,
		reader:    reader,
		prefs:     prefs,
		log:       log,
	}
}

// Phase returns the current step.
func (m *FlowMachine) Phase() FlowPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Transition stores the new flow and, when a document is showing, tears the
// rendition down and recreates it at the same position. Preferences are
// synced and flushed once the sequence is over.
func (m *FlowMachine) Transition(ctx context.Context, flow domain.LayoutFlow) error {
	flow = domain.NormalizeLayoutFlow(flow)
	if err := m.begin(); err != nil {
		return err
	}
	defer m.reset()

	previous := m.reader.Appearance().LayoutFlow
	m.reader.SetLayoutFlow(flow)

	var token string
	ok := false
	if m.rendition != nil && previous != flow {
		token, ok = m.rendition.CurrentResumeToken()
	}
	if !ok {
		return m.finish(ctx)
	}

	if err := m.rebuild(ctx, flow, token); err != nil {
		m.log.Warn("layout transition failed", zap.String("flow", string(flow)), zap.Error(err))
		_ = m.finish(ctx)
		return err
	}
	return m.finish(ctx)
}

func (m *FlowMachine) rebuild(ctx context.Context, flow domain.LayoutFlow, token string) error {
	if err := m.advance(FlowTearDown); err != nil {
		return err
	}
	if err := m.rendition.Destroy(ctx); err != nil {
		return fmt.Errorf("destroy rendition: %w", err)
	}

	if err := m.advance(FlowCreating); err != nil {
		return err
	}
	if err := m.rendition.Create(ctx, flow); err != nil {
		return fmt.Errorf("create rendition: %w", err)
	}

	if err := m.advance(FlowStyling); err != nil {
		return err
	}
	if err := m.rendition.SetTypography(ctx, m.reader.Appearance()); err != nil {
		return fmt.Errorf("apply typography: %w", err)
	}

	if err := m.advance(FlowRendering); err != nil {
		return err
	}
	if err := m.rendition.RenderAt(ctx, token); err != nil {
		m.log.Warn("resume position did not resolve, showing start", zap.Error(err))
		if err := m.rendition.RenderAt(ctx, ""); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	return nil
}

func (m *FlowMachine) finish(ctx context.Context) error {
	if err := m.advance(FlowFinalizing); err != nil {
		return err
	}
	appearance := m.reader.Appearance()
	m.prefs.Update(func(p *domain.Preferences) { p.SetAppearance(appearance) })
	return m.prefs.Flush(ctx)
}

func (m *FlowMachine) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != FlowIdle {
		return ErrTransitionInProgress
	}
	m.phase = FlowCapturing
	return nil
}

func (m *FlowMachine) advance(next FlowPhase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !isValidFlowStep(m.phase, next) {
		return fmt.Errorf("invalid transition: %s -> %s", m.phase, next)
	}
	m.phase = next
	return nil
}

func (m *FlowMachine) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = FlowIdle
}

// isValidFlowStep enforces the order of the rebuild sequence. Any step may
// jump to finalizing so a failure still records the chosen flow.
func isValidFlowStep(from, to FlowPhase) bool {
	if to == FlowFinalizing {
		return from != FlowIdle && from != FlowFinalizing
	}
	switch from {
	case FlowCapturing:
		return to == FlowTearDown
	case FlowTearDown:
		return to == FlowCreating
	case FlowCreating:
		return to == FlowStyling
	case FlowStyling:
		return to == FlowRendering
	default:
		return false
	}
}
