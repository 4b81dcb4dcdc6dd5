package settings

import (
	"context"
	"errors"
	"strings"

	"github.com/park285/arcadescore-live/internal/msgcat"
	"github.com/park285/arcadescore-live/internal/ui"
	"go.uber.org/zap"
)

var (
	ErrPasswordRequired = errors.New("settings: password required")
	ErrNotConfirmed     = errors.New("settings: deletion not confirmed")
)

// AdminAPI is the backend surface used by the admin section.
type AdminAPI interface {
	SetPassword(ctx context.Context, roomID, password string) error
	DeleteScoreboard(ctx context.Context, roomID string) error
}

// Admin runs the direct admin actions of a room. Each failure is reported
// to the operator through the notifier.
type Admin struct {
	roomID string
	api    AdminAPI
	notify ui.Notifier
	msgs   *msgcat.Catalog
	log    *zap.Logger
}

func NewAdmin(roomID string, api AdminAPI, notify ui.Notifier, msgs *msgcat.Catalog, log *zap.Logger) *Admin {
	if log == nil {
		log = zap.NewNop()
	}
	if notify == nil {
		notify = ui.LogNotifier{Log: log}
	}
	return &Admin{roomID: roomID, api: api, notify: notify, msgs: msgs, log: log}
}

// SetPassword trims and saves a new room password.
func (a *Admin) SetPassword(ctx context.Context, password string) error {
	password = strings.TrimSpace(password)
	if password == "" {
		a.notify.Alert(a.msgs.T("settings.password_required", nil))
		return ErrPasswordRequired
	}
	if err := a.api.SetPassword(ctx, a.roomID, password); err != nil {
		a.log.Error("password_save_failed", zap.String("room_id", a.roomID), zap.Error(err))
		a.notify.Alert(a.msgs.T("settings.password_failed", nil))
		return err
	}
	a.notify.Alert(a.msgs.T("settings.password_saved", nil))
	return nil
}

// DeleteScoreboard removes the room. confirmed carries the operator's
// answer to the irreversible-action prompt.
func (a *Admin) DeleteScoreboard(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := a.api.DeleteScoreboard(ctx, a.roomID); err != nil {
		a.log.Error("scoreboard_delete_failed", zap.String("room_id", a.roomID), zap.Error(err))
		a.notify.Alert(a.msgs.T("settings.delete_failed", nil))
		return err
	}
	a.log.Info("scoreboard_deleted", zap.String("room_id", a.roomID))
	return nil
}

// SaveAlerts returns a WithOnSaved callback that reports each automatic
// save outcome to the operator.
func SaveAlerts(notify ui.Notifier, msgs *msgcat.Catalog) func(error) {
	return func(err error) {
		if err != nil {
			notify.Alert(msgs.T("settings.failed", nil))
			return
		}
		notify.Alert(msgs.T("settings.saved", nil))
	}
}
