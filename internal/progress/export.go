package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"go.uber.org/zap"
)

// ArchiveName is the file name a finished export is saved under.
const ArchiveName = "ArcadeScoreExport.7z"

// Downloader streams a server path into w.
type Downloader interface {
	Download(ctx context.Context, path string, w io.Writer) error
}

// SessionSource returns this agent's export session id, empty when none.
type SessionSource interface {
	SessionID(ctx context.Context) (string, error)
}

// Exports handles file_ready.
type Exports struct {
	dir      string
	dl       Downloader
	sessions SessionSource
	modal    *Modal
	poster   page.Poster
	log      *zap.Logger
}

func NewExports(dir string, dl Downloader, sessions SessionSource, modal *Modal, poster page.Poster, log *zap.Logger) *Exports {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exports{dir: dir, dl: dl, sessions: sessions, modal: modal, poster: poster, log: log}
}

// FileReady downloads the archive when the event belongs to this agent's
// session. The import and export buttons are re-enabled either way. It
// returns the saved path, empty when nothing was downloaded.
func (e *Exports) FileReady(ctx context.Context, fr scoredto.FileReady) (string, error) {
	defer e.poster.Post(func() { e.modal.SetBusy(false) })

	sid, err := e.sessions.SessionID(ctx)
	if err != nil {
		e.log.Error("session_id_read_failed", zap.Error(err))
		return "", err
	}
	if sid == "" || fr.SessionID != sid {
		e.log.Debug("file_ready_other_session", zap.String("session_id", fr.SessionID))
		return "", nil
	}
	if strings.TrimSpace(fr.FilePath) == "" {
		e.log.Warn("file_ready_without_path")
		return "", nil
	}

	path, err := SaveArchive(e.dir, ArchiveName, func(w io.Writer) error {
		return e.dl.Download(ctx, fr.FilePath, w)
	})
	if err != nil {
		e.log.Error("export_download_failed", zap.String("file_path", fr.FilePath), zap.Error(err))
		return "", err
	}
	e.log.Info("export_saved", zap.String("path", path))
	return path, nil
}

// SaveArchive writes an archive into dir through a temp file so a failed
// write never leaves a partial archive under name.
func SaveArchive(dir, name string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, name+".*.part")
	if err != nil {
		return "", fmt.Errorf("create temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close archive: %w", err)
	}
	dst := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("move archive: %w", err)
	}
	return dst, nil
}
