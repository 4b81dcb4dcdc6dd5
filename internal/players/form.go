package players

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/park285/arcadescore-live/internal/msgcat"
	"github.com/park285/arcadescore-live/internal/ui"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"go.uber.org/zap"
)

var validate = validator.New()

var ErrNameRequired = errors.New("players: full name required")

const defaultAvatar = "/static/images/avatars/default-avatar.png"

// Form is the player editor. An empty ID creates a player.
type Form struct {
	ID           scoredto.ID
	FullName     string `validate:"required,max=120"`
	Aliases      []string
	DefaultAlias string
	LongNames    bool
	IconURL      string `validate:"omitempty,max=2048"`
	IconFile     *Upload
}

// Upload is a file attached to a multipart request.
type Upload struct {
	Name string
	Body io.Reader
}

// Submission is the multipart body of a player save.
type Submission struct {
	Fields [][2]string
	File   *Upload
}

// Field returns the first value of a form field.
func (s Submission) Field(name string) string {
	for _, f := range s.Fields {
		if f[0] == name {
			return f[1]
		}
	}
	return ""
}

// FormFor prefills the editor from a stored player. The stored default
// alias is selected, or the first alias when none matches.
func FormFor(p scoredto.Player) Form {
	f := Form{
		ID:        p.ID,
		FullName:  p.FullName,
		Aliases:   append([]string(nil), p.Aliases...),
		LongNames: strings.EqualFold(p.LongNames, scoredto.HiddenTrue),
		IconURL:   p.Icon,
	}
	for _, a := range p.Aliases {
		if a == p.DefaultAlias {
			f.DefaultAlias = a
			break
		}
	}
	if f.DefaultAlias == "" && len(p.Aliases) > 0 {
		f.DefaultAlias = p.Aliases[0]
	}
	return f
}

// Build trims and validates the form and produces the multipart fields.
// Blank aliases are dropped; the default alias falls back to the first
// remaining alias.
func (f Form) Build() (Submission, error) {
	f.FullName = strings.TrimSpace(f.FullName)
	f.IconURL = strings.TrimSpace(f.IconURL)
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "FullName" {
			return Submission{}, ErrNameRequired
		}
		return Submission{}, fmt.Errorf("players: %w", err)
	}
	if f.IconFile == nil && f.IconURL != "" {
		if err := ui.ValidateImageURL(f.IconURL); err != nil {
			return Submission{}, err
		}
	}

	aliases := make([]string, 0, len(f.Aliases))
	for _, a := range f.Aliases {
		if a = strings.TrimSpace(a); a != "" {
			aliases = append(aliases, a)
		}
	}
	def := strings.TrimSpace(f.DefaultAlias)
	if def == "" && len(aliases) > 0 {
		def = aliases[0]
	}
	raw, err := json.Marshal(aliases)
	if err != nil {
		return Submission{}, err
	}
	long := "FALSE"
	if f.LongNames {
		long = "TRUE"
	}

	sub := Submission{Fields: [][2]string{
		{"full_name", f.FullName},
		{"aliases", string(raw)},
		{"default_alias", def},
		{"long_names_enabled", long},
	}}
	switch {
	case f.IconFile != nil:
		sub.File = f.IconFile
	case f.IconURL != "":
		sub.Fields = append(sub.Fields, [2]string{"player_icon_url", f.IconURL})
	}
	return sub, nil
}

// API is the player REST surface.
type API interface {
	Player(ctx context.Context, id scoredto.ID) (scoredto.Player, error)
	SavePlayer(ctx context.Context, id scoredto.ID, sub Submission) error
	HidePlayer(ctx context.Context, id scoredto.ID) error
	DeletePlayer(ctx context.Context, id scoredto.ID) error
}

// Service runs the player form actions.
type Service struct {
	api    API
	notify ui.Notifier
	msgs   *msgcat.Catalog
	log    *zap.Logger
}

func NewService(api API, notify ui.Notifier, msgs *msgcat.Catalog, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if notify == nil {
		notify = ui.LogNotifier{Log: log}
	}
	return &Service{api: api, notify: notify, msgs: msgs, log: log}
}

// Edit loads a player into a form.
func (s *Service) Edit(ctx context.Context, id scoredto.ID) (Form, error) {
	p, err := s.api.Player(ctx, id)
	if err != nil {
		s.log.Error("player_load_failed", zap.String("player_id", id.String()), zap.Error(err))
		return Form{}, err
	}
	return FormFor(p), nil
}

// Save creates or updates a player. Validation failures alert and send
// nothing.
func (s *Service) Save(ctx context.Context, f Form) error {
	sub, err := f.Build()
	if err != nil {
		switch {
		case errors.Is(err, ErrNameRequired):
			s.notify.Alert(s.msgs.T("player.name_required", nil))
		case errors.Is(err, ui.ErrInvalidImageURL):
			s.notify.Alert(s.msgs.T("image.invalid_url", nil))
		default:
			s.notify.Alert(s.msgs.T("player.failed", nil))
		}
		return err
	}
	if err := s.api.SavePlayer(ctx, f.ID, sub); err != nil {
		s.log.Error("player_save_failed", zap.String("player_id", f.ID.String()), zap.Error(err))
		s.notify.Alert(s.msgs.T("player.failed", nil))
		return err
	}
	s.log.Info("player_saved", zap.String("player_id", f.ID.String()))
	return nil
}

func (s *Service) Hide(ctx context.Context, id scoredto.ID) error {
	if err := s.api.HidePlayer(ctx, id); err != nil {
		s.log.Error("player_hide_failed", zap.String("player_id", id.String()), zap.Error(err))
		return err
	}
	return nil
}

// Delete removes a player after the operator confirmed it.
func (s *Service) Delete(ctx context.Context, id scoredto.ID, confirmed bool) error {
	if !confirmed || id.IsZero() {
		return nil
	}
	if err := s.api.DeletePlayer(ctx, id); err != nil {
		s.log.Error("player_delete_failed", zap.String("player_id", id.String()), zap.Error(err))
		s.notify.Alert(s.msgs.T("player.delete_failed", nil))
		return err
	}
	return nil
}

// WinsLosses is the player view's record line.
func WinsLosses(p scoredto.Player) string {
	return fmt.Sprintf("%d Wins / %d Losses", p.TotalWins, p.TotalLosses)
}

// Avatar is the icon shown for a player.
func Avatar(p scoredto.Player) string {
	if strings.TrimSpace(p.Icon) == "" {
		return defaultAvatar
	}
	return p.Icon
}
