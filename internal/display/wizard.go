package display

import (
	"context"
	"strconv"

	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/internal/ui"
	"github.com/park285/arcadescore-live/internal/wizard"
	"go.uber.org/zap"
)

// Wizard message actions.
const (
	WizardStart     = "start"
	WizardName      = "name"
	WizardVPin      = "vpin"
	WizardTestVPin  = "test_vpin"
	WizardNext      = "next"
	WizardPrev      = "prev"
	WizardPlan      = "plan"
	WizardToggle    = "toggle"
	WizardSelectAll = "select_all"
	WizardPreset    = "preset"
	WizardFinish    = "finish"
)

// WithWizard enables the creation wizard. newWizard starts a fresh pass;
// b receives the step after every wizard message.
func WithWizard(newWizard func() *wizard.Wizard, b ui.Broadcaster) ActionOption {
	return func(a *Actions) { a.newWizard, a.wizardOut = newWizard, b }
}

// wizardStep runs one wizard command off the page loop. Only one pass is
// active at a time and commands run in the order they arrived.
func (a *Actions) wizardStep(m ClientMessage) error {
	if a.newWizard == nil {
		return ErrUnavailable
	}
	var run func(ctx context.Context, w *wizard.Wizard) error
	switch m.Action {
	case WizardStart:
		run = func(context.Context, *wizard.Wizard) error { return nil }
	case WizardName:
		run = func(_ context.Context, w *wizard.Wizard) error { w.SetName(m.Name); return nil }
	case WizardVPin:
		run = func(_ context.Context, w *wizard.Wizard) error { w.SetVPin(m.Enabled, m.URL); return nil }
	case WizardTestVPin:
		run = func(ctx context.Context, w *wizard.Wizard) error { return w.TestVPin(ctx) }
	case WizardNext:
		run = func(ctx context.Context, w *wizard.Wizard) error { return w.Next(ctx) }
	case WizardPrev:
		run = func(_ context.Context, w *wizard.Wizard) error { w.Prev(); return nil }
	case WizardPlan:
		run = func(ctx context.Context, w *wizard.Wizard) error { return w.ApplyPlan(ctx, m.Index) }
	case WizardToggle:
		if m.ID == "" {
			return ErrMissingID
		}
		run = func(_ context.Context, w *wizard.Wizard) error { w.Toggle(m.ID, m.On); return nil }
	case WizardSelectAll:
		run = func(_ context.Context, w *wizard.Wizard) error { w.SelectAll(m.On); return nil }
	case WizardPreset:
		run = func(_ context.Context, w *wizard.Wizard) error { w.SelectPreset(m.PresetID); return nil }
	case WizardFinish:
		run = func(ctx context.Context, w *wizard.Wizard) error { return w.Finish(ctx) }
	default:
		return ErrUnknownMessage
	}
	a.wizardMu.Lock()
	prev := a.wizardTail
	done := make(chan struct{})
	a.wizardTail = done
	a.wizardMu.Unlock()
	go a.background(func(ctx context.Context) {
		defer close(done)
		if prev != nil {
			<-prev
		}
		a.runWizard(ctx, m.Action, run)
	})
	return nil
}

func (a *Actions) runWizard(ctx context.Context, action string, run func(context.Context, *wizard.Wizard) error) {
	if a.pass == nil || action == WizardStart {
		a.pass = a.newWizard()
	}
	w := a.pass
	err := run(ctx, w)
	if err != nil {
		a.log.Debug("wizard_step_failed", zap.String("action", action), zap.Error(err))
	}
	a.announce(w)
	if action != WizardFinish || err != nil {
		return
	}
	a.pass = nil
	if a.reload != nil {
		_ = a.reload.ReloadScoreboards(ctx)
	}
}

func (a *Actions) announce(w *wizard.Wizard) {
	if a.wizardOut == nil {
		return
	}
	a.wizardOut.Broadcast(page.Frame{
		Type:    page.FrameWizard,
		Target:  strconv.Itoa(int(w.Step())),
		Message: w.Title(),
	})
}
