package display

import (
	"context"
	"testing"
	"time"

	"github.com/park285/arcadescore-live/internal/dom"
	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/internal/wizard"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wizardAPI struct {
	created chan wizard.CreateRequest
}

func (w *wizardAPI) FetchJSON(context.Context, string, any) error { return nil }
func (w *wizardAPI) CreateScoreboard(_ context.Context, req wizard.CreateRequest) error {
	w.created <- req
	return nil
}
func (w *wizardAPI) StylePresets(context.Context) ([]scoredto.StylePreset, error) {
	return []scoredto.StylePreset{{ID: "1", Name: "Neon"}}, nil
}
func (w *wizardAPI) Players(context.Context) ([]scoredto.Player, error) { return nil, nil }
func (w *wizardAPI) ImportVPinPlayer(context.Context, wizard.ImportPlayerRequest) error {
	return nil
}
func (w *wizardAPI) LinkVPinPlayers(context.Context, wizard.LinkRequest) error { return nil }

type frameSink chan page.Frame

func (s frameSink) Broadcast(f page.Frame) { s <- f }

func TestWizardMessagesRunInOrder(t *testing.T) {
	api := &wizardAPI{created: make(chan wizard.CreateRequest, 1)}
	frames := make(frameSink, 16)
	a := NewActions(page.Inline{}, dom.MustParse(page.Skeleton), WithWizard(func() *wizard.Wizard {
		return wizard.New(api, false, nil, nil, nil)
	}, frames))

	steps := []ClientMessage{
		{Type: MsgWizard, Action: WizardStart},
		{Type: MsgWizard, Action: WizardName, Name: "Friday League"},
		{Type: MsgWizard, Action: WizardNext},
		{Type: MsgWizard, Action: WizardNext},
		{Type: MsgWizard, Action: WizardPreset, PresetID: "1"},
		{Type: MsgWizard, Action: WizardNext},
		{Type: MsgWizard, Action: WizardFinish},
	}
	for _, m := range steps {
		require.NoError(t, a.Handle(m))
	}

	select {
	case req := <-api.created:
		assert.Equal(t, "Friday League", req.ScoreboardName)
		assert.Equal(t, "1", req.PresetID)
		assert.False(t, req.VPinAPIEnabled)
	case <-time.After(2 * time.Second):
		t.Fatal("scoreboard not created")
	}

	var last page.Frame
	for range steps {
		select {
		case last = <-frames:
			assert.Equal(t, page.FrameWizard, last.Type)
		case <-time.After(2 * time.Second):
			t.Fatal("missing wizard frame")
		}
	}
	assert.Equal(t, "Setup Complete", last.Message)
}

func TestWizardMessageValidation(t *testing.T) {
	a := NewActions(page.Inline{}, dom.MustParse(page.Skeleton))
	assert.ErrorIs(t, a.Handle(ClientMessage{Type: MsgWizard, Action: WizardNext}), ErrUnavailable)

	a = NewActions(page.Inline{}, dom.MustParse(page.Skeleton), WithWizard(func() *wizard.Wizard {
		return wizard.New(&wizardAPI{}, false, nil, nil, nil)
	}, nil))
	assert.ErrorIs(t, a.Handle(ClientMessage{Type: MsgWizard, Action: "jump"}), ErrUnknownMessage)
	assert.ErrorIs(t, a.Handle(ClientMessage{Type: MsgWizard, Action: WizardToggle}), ErrMissingID)
}
