// Package transfer uploads room imports and starts exports.
package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/park285/arcadescore-live/internal/msgcat"
	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/internal/progress"
	"go.uber.org/zap"
)

// ImportResult is the /api/v1/import response.
type ImportResult struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ExportStart is the /api/v1/export response: either a job id whose
// completion arrives as file_ready, or the archive itself.
type ExportStart struct {
	TaskID string
	Blob   []byte
}

type API interface {
	Import(ctx context.Context, filename string, body io.Reader) (ImportResult, error)
	StartExport(ctx context.Context, sessionID string) (ExportStart, error)
}

// Sessions persists the export session id across restarts.
type Sessions interface {
	SessionID(ctx context.Context) (string, error)
	SetSessionID(ctx context.Context, id string) error
}

// Refresher reloads the scoreboard listing after an import.
type Refresher interface {
	ReloadScoreboards(ctx context.Context) error
}

type Service struct {
	api      API
	sessions Sessions
	modal    *progress.Modal
	poster   page.Poster
	refresh  Refresher
	dir      string
	msgs     *msgcat.Catalog
	log      *zap.Logger
}

type Option func(*Service)

func WithRefresher(r Refresher) Option { return func(s *Service) { s.refresh = r } }
func WithMessages(c *msgcat.Catalog) Option { return func(s *Service) { s.msgs = c } }
func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

func New(api API, sessions Sessions, modal *progress.Modal, poster page.Poster, exportDir string, opts ...Option) *Service {
	s := &Service{api: api, sessions: sessions, modal: modal, poster: poster, dir: exportDir, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Import uploads an archive. The result is shown in the import status
// line and the controls are re-enabled whatever the outcome.
func (s *Service) Import(ctx context.Context, filename string, size int64, body io.Reader) error {
	status := s.msgs.T("transfer.importing", map[string]any{
		"Name":   filename,
		"SizeMB": fmt.Sprintf("%.2f", float64(size)/1024/1024),
	})
	s.poster.Post(func() {
		s.modal.SetBusy(true)
		s.modal.Start(status)
	})

	res, err := s.api.Import(ctx, filename, body)
	var text string
	failed := false
	switch {
	case err != nil:
		s.log.Error("import_failed", zap.String("file", filename), zap.Error(err))
		text, failed = s.msgs.T("transfer.import_failed", nil), true
	case res.Message != "":
		text, failed = res.Message, res.Error != ""
	default:
		text, failed = s.msgs.T("transfer.import_done", nil), res.Error != ""
	}
	s.poster.Post(func() {
		s.modal.Finish(text, failed)
		s.modal.SetBusy(false)
	})
	if s.refresh != nil {
		if rerr := s.refresh.ReloadScoreboards(ctx); rerr != nil {
			s.log.Warn("scoreboards_reload_failed", zap.Error(rerr))
		}
	}
	return err
}

// SessionID returns the stored session id, creating one on first use.
func (s *Service) SessionID(ctx context.Context) (string, error) {
	sid, err := s.sessions.SessionID(ctx)
	if err != nil {
		return "", fmt.Errorf("read session id: %w", err)
	}
	if sid != "" {
		return sid, nil
	}
	sid = uuid.NewString()
	if err := s.sessions.SetSessionID(ctx, sid); err != nil {
		return "", fmt.Errorf("store session id: %w", err)
	}
	return sid, nil
}

// Export starts an export job. When the server answers with the archive
// directly it is saved at once; otherwise the controls stay disabled until
// file_ready arrives. It returns the saved path when there is one.
func (s *Service) Export(ctx context.Context) (string, error) {
	s.poster.Post(func() { s.modal.SetBusy(true) })
	sid, err := s.SessionID(ctx)
	if err != nil {
		s.log.Error("export_failed", zap.Error(err))
		s.poster.Post(func() { s.modal.SetBusy(false) })
		return "", err
	}
	start, err := s.api.StartExport(ctx, sid)
	if err != nil {
		s.log.Error("export_failed", zap.String("session_id", sid), zap.Error(err))
		s.poster.Post(func() { s.modal.SetBusy(false) })
		return "", err
	}
	if start.TaskID != "" {
		s.log.Info("export_started", zap.String("task_id", start.TaskID), zap.String("session_id", sid))
		return "", nil
	}
	defer s.poster.Post(func() { s.modal.SetBusy(false) })
	path, err := progress.SaveArchive(s.dir, progress.ArchiveName, func(w io.Writer) error {
		_, werr := io.Copy(w, bytes.NewReader(start.Blob))
		return werr
	})
	if err != nil {
		s.log.Error("export_save_failed", zap.Error(err))
		return "", err
	}
	s.log.Info("export_saved", zap.String("path", path))
	return path, nil
}
