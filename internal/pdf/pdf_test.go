package pdf

import (
	"bytes"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/pdf-toolkit/internal/pdf/pdftest"
)

func pageCountOf(t *testing.T, data []byte) int {
	t.Helper()
	n, err := api.PageCount(bytes.NewReader(data), nil)
	require.NoError(t, err)
	return n
}

func TestSplitProducesOneDocumentPerPage(t *testing.T) {
	src := pdftest.Pages("Chapter", 3)

	pages, err := Split(bytes.NewReader(src), Options{})
	require.NoError(t, err)
	require.Len(t, pages, 3)

	for i, p := range pages {
		assert.Equal(t, i+1, p.Number)
		assert.Equal(t, 1, pageCountOf(t, p.Data), "page %d", p.Number)
	}
}

func TestSplitRejectsGarbage(t *testing.T) {
	_, err := Split(bytes.NewReader([]byte("not a pdf at all")), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPDF)

	var joined interface{ Unwrap() []error }
	require.ErrorAs(t, err, &joined)
	causes := joined.Unwrap()
	require.Len(t, causes, 2)
	assert.NotErrorIs(t, causes[1], ErrInvalidPDF)
}

func TestMergeConcatenatesInOrder(t *testing.T) {
	a := pdftest.Pages("A", 2)
	b := pdftest.Pages("B", 1)

	var out bytes.Buffer
	report, err := Merge([][]byte{a, b}, &out, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Merged)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, 3, pageCountOf(t, out.Bytes()))
}

func TestMergeSkipsInvalidInputs(t *testing.T) {
	good := pdftest.Pages("Good", 1)

	var out bytes.Buffer
	report, err := Merge([][]byte{[]byte("junk"), good}, &out, Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, report.Skipped)
	assert.Equal(t, 1, report.Merged)
	assert.Equal(t, 1, pageCountOf(t, out.Bytes()))
}

func TestMergeWithNothingUsable(t *testing.T) {
	var out bytes.Buffer

	_, err := Merge(nil, &out, Options{})
	assert.ErrorIs(t, err, ErrNoPages)

	_, err = Merge([][]byte{[]byte("junk")}, &out, Options{})
	assert.ErrorIs(t, err, ErrNoPages)
	assert.Zero(t, out.Len())
}

func TestPageCount(t *testing.T) {
	n, err := PageCount(pdftest.Pages("P", 4))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = PageCount([]byte("%PDF-1.4 truncated"))
	assert.ErrorIs(t, err, ErrInvalidPDF)
}

func TestPreviewText(t *testing.T) {
	doc := pdftest.Document("Quarterly   report", "Appendix")

	assert.Equal(t, "Quarterly report", PreviewText(doc, 0))
	assert.Equal(t, "Quarterly", PreviewText(doc, 10))
	assert.Equal(t, "", PreviewText([]byte("junk"), 10))
}

func TestPreviewTextWordBreaks(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"wide kerning", "BT /F1 12 Tf 72 720 Td [(Annual)-250(review)] TJ ET", "Annual review"},
		{"tight kerning", "BT /F1 12 Tf 72 720 Td [(Wo)80(rd)-30(s)] TJ ET", "Words"},
		{"new line", "BT /F1 12 Tf 14 TL 72 720 Td (Title) Tj T* (Body) Tj 0 -14 Td (End) Tj ET", "Title Body End"},
		{"same line move", "BT /F1 12 Tf 72 720 Td (Cont) Tj 30 0 Td (inued) Tj ET", "Continued"},
		{"next line operator", "BT /F1 12 Tf 14 TL 72 720 Td (One) Tj (Two) ' ET", "One Two"},
		{"separate blocks", "BT /F1 12 Tf 72 720 Td (Left) Tj ET BT /F1 12 Tf 300 720 Td (Right) Tj ET", "Left Right"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PreviewText(pdftest.Streams(tt.content), 0))
		})
	}
}

func TestPreviewTextAfterSplit(t *testing.T) {
	docs, err := Split(bytes.NewReader(pdftest.Document("Quarterly report", "Appendix")), Options{})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "Quarterly report", PreviewText(docs[0].Data, 160))
	assert.Equal(t, "Appendix", PreviewText(docs[1].Data, 160))
}
