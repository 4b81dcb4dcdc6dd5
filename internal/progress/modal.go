// Package progress drives the loading modal from progress_update events
// and saves finished exports announced by file_ready.
package progress

import (
	"strconv"

	"github.com/park285/arcadescore-live/internal/dom"
	"github.com/park285/arcadescore-live/internal/msgcat"
	"github.com/park285/arcadescore-live/internal/page"
	"github.com/park285/arcadescore-live/pkg/scoredto"
	"go.uber.org/zap"
)

// ProgressError is the progress value that signals a failed job.
const ProgressError = -1

// Modal owns the global loading modal and the import/export buttons. Its
// methods must run on the page loop.
type Modal struct {
	doc  *dom.Document
	msgs *msgcat.Catalog
	log  *zap.Logger
}

func NewModal(doc *dom.Document, msgs *msgcat.Catalog, log *zap.Logger) *Modal {
	if log == nil {
		log = zap.NewNop()
	}
	return &Modal{doc: doc, msgs: msgs, log: log}
}

// Update applies one progress_update. The close button appears on
// completion and on error; an error also resets the bar.
func (m *Modal) Update(p scoredto.Progress) {
	modal := m.doc.ByID(page.LoadingModalID)
	if modal == nil {
		m.log.Warn("loading_modal_missing")
		return
	}
	m.doc.ToggleClass(modal, "hidden", false)
	status := m.doc.ByID(page.LoadingStatusID)
	bar := m.doc.ByID(page.ProgressBarID)

	if p.Progress == ProgressError {
		m.doc.SetText(status, m.msgs.T("progress.error", map[string]any{"Message": p.Message}))
		m.doc.SetStyleProp(bar, "width", "0%")
		m.showClose(true)
		m.log.Warn("progress_error", zap.String("message", p.Message))
		return
	}
	if p.Message != "" {
		m.doc.SetText(status, p.Message)
	}
	m.doc.SetStyleProp(bar, "width", strconv.Itoa(clamp(p.Progress))+"%")
	if p.Progress >= 100 {
		m.showClose(true)
	}
}

// Start opens the modal with a status line and an indeterminate bar.
func (m *Modal) Start(status string) {
	m.doc.ToggleClass(m.doc.ByID(page.LoadingModalID), "hidden", false)
	m.doc.SetText(m.doc.ByID(page.LoadingStatusID), status)
	m.doc.ToggleClass(m.doc.ByID(page.ProgressBarID), "indeterminate", true)
	m.showClose(false)
}

// Finish closes the modal and reports a result in the import status line.
func (m *Modal) Finish(result string, failed bool) {
	m.doc.ToggleClass(m.doc.ByID(page.ProgressBarID), "indeterminate", false)
	m.doc.ToggleClass(m.doc.ByID(page.LoadingModalID), "hidden", true)
	st := m.doc.ByID(page.ImportStatusID)
	m.doc.ToggleClass(st, "hidden", false)
	m.doc.SetText(st, result)
	color := "green"
	if failed {
		color = "red"
	}
	m.doc.SetStyleProp(st, "color", color)
	m.showClose(true)
}

// SetBusy disables or re-enables the import and export buttons.
func (m *Modal) SetBusy(busy bool) {
	for _, id := range []string{page.ImportButtonID, page.ExportButtonID} {
		btn := m.doc.ByID(id)
		if busy {
			m.doc.SetAttr(btn, "disabled", "disabled")
		} else {
			m.doc.RemoveAttr(btn, "disabled")
		}
	}
}

func (m *Modal) showClose(on bool) {
	display := "none"
	if on {
		display = "block"
	}
	m.doc.SetStyleProp(m.doc.ByID(page.ModalCloseID), "display", display)
}

func clamp(n int) int {
	switch {
	case n < 0:
		return 0
	case n > 100:
		return 100
	}
	return n
}
