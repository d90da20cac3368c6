package server

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/thywilljoshua/pdf-toolkit/internal/pdf"
)

const (
	formField      = "pdf"
	mergedFileName = "merged-document.pdf"
	multipartMem   = 32 << 20
)

type extractedPage struct {
	ID         string  `json:"id"`
	PageNumber int     `json:"pageNumber"`
	FileName   string  `json:"fileName"`
	PDFData    string  `json:"pdfData"`
	Thumbnail  *string `json:"thumbnail"`
}

type extractResponse struct {
	Success   bool            `json:"success"`
	FileName  string          `json:"fileName"`
	PageCount int             `json:"pageCount"`
	Pages     []extractedPage `json:"pages"`
}

type mergeRequest struct {
	Pages []struct {
		ID      string `json:"id"`
		PDFData string `json:"pdfData"`
	} `json:"pages"`
}

// parseUpload reads the multipart body within the upload limit.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMem); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return fmt.Errorf("%w: limit is %d bytes", errTooLarge, tooBig.Limit)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// checkPageCount compares the page tree count read by rsc.io/pdf with the
// number of pages pdfcpu split out, and logs any disagreement.
func (s *Server) checkPageCount(log *logrus.Entry, data []byte, split int) {
	n, err := pdf.PageCount(data)
	if err != nil {
		log.WithError(err).Debug("page count unavailable")
		return
	}
	if n != split {
		log.WithFields(logrus.Fields{"page_count": n, "split": split}).Warn("page count mismatch")
	}
}

// handleExtract splits one uploaded PDF and returns every page inline as
// base64. Nothing is kept on the server.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if err := s.parseUpload(w, r); err != nil {
		if statusFor(err) == http.StatusRequestEntityTooLarge {
			s.fail(w, r, "PDF file too large", err)
			return
		}
		writeError(w, http.StatusBadRequest, "No PDF file provided", nil)
		return
	}
	files := r.MultipartForm.File[formField]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No PDF file provided", nil)
		return
	}
	fh := files[0]
	data, err := readPart(fh)
	if err != nil {
		s.fail(w, r, "Failed to extract PDF pages", err)
		return
	}

	docs, err := pdf.Split(bytes.NewReader(data), s.pdfOpts)
	if err != nil {
		s.log.WithError(err).WithField("file", fh.Filename).Error("PDF extraction error")
		writeError(w, http.StatusInternalServerError, "Failed to extract PDF pages", err)
		return
	}

	s.checkPageCount(s.log.WithField("file", fh.Filename), data, len(docs))

	resp := extractResponse{
		Success:   true,
		FileName:  fh.Filename,
		PageCount: len(docs),
		Pages:     make([]extractedPage, 0, len(docs)),
	}
	for _, d := range docs {
		resp.Pages = append(resp.Pages, extractedPage{
			ID:         uuid.NewString(),
			PageNumber: d.Number,
			FileName:   fh.Filename,
			PDFData:    base64.StdEncoding.EncodeToString(d.Data),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMerge combines client-held page PDFs. Pages that cannot be decoded
// are skipped rather than failing the whole merge.
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := decodeJSON(w, r, s.maxUpload, &req); err != nil {
		s.fail(w, r, "Failed to merge PDFs", err)
		return
	}
	if len(req.Pages) == 0 {
		writeError(w, http.StatusBadRequest, "No pages provided for merging", nil)
		return
	}

	docs := make([][]byte, 0, len(req.Pages))
	for _, p := range req.Pages {
		b, err := base64.StdEncoding.DecodeString(p.PDFData)
		if err != nil {
			s.log.WithError(err).WithField("page", p.ID).Warn("error processing page")
			continue
		}
		docs = append(docs, b)
	}

	var out bytes.Buffer
	report, err := pdf.Merge(docs, &out, s.pdfOpts)
	if err != nil {
		s.fail(w, r, "Failed to merge PDFs", err)
		return
	}
	s.log.WithFields(logrus.Fields{
		"merged":  report.Merged,
		"skipped": len(report.Skipped) + len(req.Pages) - len(docs),
	}).Debug("merged pages")
	writePDF(w, out.Bytes(), "attachment", mergedFileName)
}
