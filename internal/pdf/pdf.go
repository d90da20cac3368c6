// Package pdf splits documents into single-page PDFs and merges page
// documents back together. Page surgery is done by pdfcpu; text previews
// come from rsc.io/pdf.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoPages    = errors.New("no pages")
	ErrInvalidPDF = errors.New("invalid pdf")
)

func init() {
	// pdfcpu would otherwise install a config dir under the user's home.
	api.DisableConfigDir()
}

// Options controls how strictly input documents are validated. The zero
// value validates relaxed, which accepts most real-world files.
type Options struct {
	Strict bool
	Logger *logrus.Logger
}

func (o Options) configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if o.Strict {
		conf.ValidationMode = model.ValidationStrict
	}
	return conf
}

func (o Options) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// PageDoc is one page of a source document, re-serialized as its own PDF.
type PageDoc struct {
	Number int
	Data   []byte
}

// Split extracts every page of the document into a standalone PDF.
func Split(rs io.ReadSeeker, opts Options) ([]PageDoc, error) {
	ctx, err := api.ReadValidateAndOptimize(rs, opts.configuration())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPDF, err)
	}
	if ctx.PageCount == 0 {
		return nil, ErrNoPages
	}

	pages := make([]PageDoc, 0, ctx.PageCount)
	for i := 1; i <= ctx.PageCount; i++ {
		pageCtx, err := pdfcpu.ExtractPages(ctx, []int{i}, false)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		var buf bytes.Buffer
		if err := api.WriteContext(pageCtx, &buf); err != nil {
			return nil, fmt.Errorf("write page %d: %w", i, err)
		}
		pages = append(pages, PageDoc{Number: i, Data: buf.Bytes()})
	}
	opts.logger().WithField("pages", len(pages)).Debug("split document")
	return pages, nil
}

// MergeReport lists the inputs Merge had to leave out.
type MergeReport struct {
	Merged  int   `json:"merged"`
	Skipped []int `json:"skipped,omitempty"`
}

// Merge writes all pages of docs, in order, as one PDF to w. Inputs that do
// not validate are skipped and reported by index.
func Merge(docs [][]byte, w io.Writer, opts Options) (MergeReport, error) {
	var report MergeReport
	if len(docs) == 0 {
		return report, ErrNoPages
	}

	conf := opts.configuration()
	log := opts.logger()
	var readers []io.ReadSeeker
	for i, d := range docs {
		if err := api.Validate(bytes.NewReader(d), conf); err != nil {
			log.WithError(err).WithField("index", i).Warn("skipping page that failed validation")
			report.Skipped = append(report.Skipped, i)
			continue
		}
		readers = append(readers, bytes.NewReader(d))
	}
	if len(readers) == 0 {
		return report, fmt.Errorf("%w: every input failed validation", ErrNoPages)
	}

	if err := api.MergeRaw(readers, w, false, conf); err != nil {
		return report, fmt.Errorf("merge: %w", err)
	}
	report.Merged = len(readers)
	return report, nil
}
