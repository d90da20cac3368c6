package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/thywilljoshua/pdf-toolkit/internal/pdf"
	"github.com/thywilljoshua/pdf-toolkit/internal/workspace"
)

const jsonBodyLimit = 1 << 20

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ws.Snapshot())
}

// handleUpload splits each uploaded file, stores its pages and adds it as a
// new section. Files keep their upload order, also when inserted mid-way.
// All files are split and stored before the workspace changes, so one bad
// file rejects the whole upload.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.parseUpload(w, r); err != nil {
		s.fail(w, r, "Failed to read upload", err)
		return
	}
	files := r.MultipartForm.File[formField]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No PDF file provided", nil)
		return
	}

	var (
		docs   []workspace.Document
		stored []string
	)
	abort := func(msg string, err error) {
		s.dropBlobs(r.Context(), stored)
		s.fail(w, r, msg, err)
	}
	for i, fh := range files {
		log := s.log.WithField("file", fh.Filename)
		log.Infof("processing %s (%d/%d)", fh.Filename, i+1, len(files))

		data, err := readPart(fh)
		if err != nil {
			abort(fmt.Sprintf("Failed to process %s", fh.Filename), err)
			return
		}
		pages, err := s.storePages(r.Context(), data)
		if err != nil {
			abort(fmt.Sprintf("Failed to process %s", fh.Filename), err)
			return
		}
		stored = append(stored, pageIDs(pages)...)
		s.checkPageCount(log, data, len(pages))
		docs = append(docs, workspace.Document{FileName: fh.Filename, Pages: pages})
	}

	snap, err := s.ws.AddDocuments(docs, r.FormValue("insertAfter"))
	if err != nil {
		abort("Failed to add documents", err)
		return
	}
	for _, d := range docs {
		s.log.WithFields(logrus.Fields{"file": d.FileName, "pages": len(d.Pages)}).Info("added document")
	}
	writeJSON(w, http.StatusCreated, snap)
}

// storePages splits data and saves each page's bytes under a fresh id.
func (s *Server) storePages(ctx context.Context, data []byte) ([]workspace.NewPage, error) {
	docs, err := pdf.Split(bytes.NewReader(data), s.pdfOpts)
	if err != nil {
		return nil, err
	}
	pages := make([]workspace.NewPage, 0, len(docs))
	for _, d := range docs {
		p := workspace.NewPage{
			ID:         uuid.NewString(),
			PageNumber: d.Number,
			Preview:    pdf.PreviewText(d.Data, previewRunes),
		}
		if err := s.blobs.Put(ctx, p.ID, d.Data); err != nil {
			s.dropBlobs(ctx, pageIDs(pages))
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}

func (s *Server) dropBlobs(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	if err := s.blobs.Delete(ctx, ids...); err != nil {
		s.log.WithError(err).WithField("pages", len(ids)).Warn("failed to delete page blobs")
	}
}

func pageIDs(pages []workspace.NewPage) []string {
	ids := make([]string, len(pages))
	for i, p := range pages {
		ids[i] = p.ID
	}
	return ids
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	removed, snap := s.ws.Clear()
	s.dropBlobs(r.Context(), removed)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteSection(w http.ResponseWriter, r *http.Request) {
	removed, snap, err := s.ws.DeleteSection(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "Failed to delete section", err)
		return
	}
	s.dropBlobs(r.Context(), removed)
	writeJSON(w, http.StatusOK, snap)
}

type sectionResponse struct {
	Section workspace.Section `json:"section"`
	Pages   []workspace.Page  `json:"pages"`
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	sec, err := s.ws.Section(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "Section not found", err)
		return
	}
	pages, err := s.ws.SectionPages(sec.ID)
	if err != nil {
		s.fail(w, r, "Section not found", err)
		return
	}
	writeJSON(w, http.StatusOK, sectionResponse{Section: sec, Pages: pages})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, jsonBodyLimit, &req); err != nil {
		s.fail(w, r, "Failed to rename section", err)
		return
	}
	snap, err := s.ws.RenameSection(r.PathValue("id"), req.Name)
	if err != nil {
		s.fail(w, r, "Failed to rename section", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PageID string `json:"pageId"`
	}
	if err := decodeJSON(w, r, jsonBodyLimit, &req); err != nil {
		s.fail(w, r, "Failed to split section", err)
		return
	}
	page, err := s.ws.Page(req.PageID)
	if err != nil {
		s.fail(w, r, "Failed to split section", err)
		return
	}
	if id := r.PathValue("id"); page.SectionID != id {
		s.fail(w, r, "Failed to split section",
			fmt.Errorf("%w: page %s is not in section %s", workspace.ErrInvalidMove, page.ID, id))
		return
	}
	snap, err := s.ws.SplitSection(req.PageID)
	if err != nil {
		s.fail(w, r, "Failed to split section", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleMergeSections(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceID string `json:"sourceId"`
	}
	if err := decodeJSON(w, r, jsonBodyLimit, &req); err != nil {
		s.fail(w, r, "Failed to merge sections", err)
		return
	}
	snap, err := s.ws.MergeSections(r.PathValue("id"), req.SourceID)
	if err != nil {
		s.fail(w, r, "Failed to merge sections", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSuggestName(w http.ResponseWriter, r *http.Request) {
	pages, err := s.ws.SectionPages(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "Failed to suggest a name", err)
		return
	}
	previews := make([]string, len(pages))
	for i, p := range pages {
		previews[i] = p.Preview
	}
	name, err := s.namer.SuggestName(r.Context(), pages[0].FileName, previews)
	if err != nil {
		s.fail(w, r, "Failed to suggest a name", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

func (s *Server) handleMoveSection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := decodeJSON(w, r, jsonBodyLimit, &req); err != nil {
		s.fail(w, r, "Failed to move section", err)
		return
	}
	snap, err := s.ws.MoveSection(req.From, req.To)
	if err != nil {
		s.fail(w, r, "Failed to move section", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleMoveSectionUp(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ws.MoveSectionUp(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "Failed to move section", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleMoveSectionDown(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ws.MoveSectionDown(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "Failed to move section", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleMovePage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PageID     string `json:"pageId"`
		DropPageID string `json:"dropPageId"`
	}
	if err := decodeJSON(w, r, jsonBodyLimit, &req); err != nil {
		s.fail(w, r, "Failed to move page", err)
		return
	}
	snap, err := s.ws.MovePage(req.PageID, req.DropPageID)
	if err != nil {
		s.fail(w, r, "Failed to move page", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handlePagePDF serves one stored page so the client can render a thumbnail.
func (s *Server) handlePagePDF(w http.ResponseWriter, r *http.Request) {
	page, err := s.ws.Page(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "Page not found", err)
		return
	}
	data, err := s.blobs.Get(r.Context(), page.ID)
	if err != nil {
		s.fail(w, r, "Failed to load page", err)
		return
	}
	writePDF(w, data, "inline", fmt.Sprintf("%s-p%d.pdf", slugify(page.FileName), page.PageNumber))
}

// handleExport merges the selected sections, in selection order, into one
// downloadable PDF.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SectionIDs []string `json:"sectionIds"`
		FileName   string   `json:"fileName"`
	}
	if err := decodeJSON(w, r, jsonBodyLimit, &req); err != nil {
		s.fail(w, r, "Export failed", err)
		return
	}
	pages, err := s.ws.ExportPages(req.SectionIDs)
	if err != nil {
		s.fail(w, r, "Export failed", err)
		return
	}

	docs := make([][]byte, 0, len(pages))
	for _, p := range pages {
		data, err := s.blobs.Get(r.Context(), p.ID)
		if err != nil {
			s.fail(w, r, "Export failed", err)
			return
		}
		docs = append(docs, data)
	}

	var out bytes.Buffer
	report, err := pdf.Merge(docs, &out, s.pdfOpts)
	if err != nil {
		s.fail(w, r, "Export failed", err)
		return
	}
	s.log.WithField("sections", len(req.SectionIDs)).WithField("pages", report.Merged).Info("exported")
	writePDF(w, out.Bytes(), "attachment", exportFileName(req.FileName))
}
