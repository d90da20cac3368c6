package workspace

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkspace() *Workspace {
	w := New()
	n := 0
	w.newID = func() string {
		n++
		return fmt.Sprintf("%d", n)
	}
	return w
}

func newPages(prefix string, n int) []NewPage {
	out := make([]NewPage, n)
	for i := range out {
		out[i] = NewPage{ID: fmt.Sprintf("%s%d", prefix, i+1), PageNumber: i + 1}
	}
	return out
}

// pageOrder flattens a snapshot into page ids.
func pageOrder(s Snapshot) []string {
	var ids []string
	for _, p := range s.Pages {
		ids = append(ids, p.ID)
	}
	return ids
}

func sectionNames(s Snapshot) []string {
	var names []string
	for _, sec := range s.Sections {
		names = append(names, sec.Name)
	}
	return names
}

// seed builds a.pdf (a1,a2,a3) followed by b.pdf (b1,b2).
func seed(t *testing.T) *Workspace {
	t.Helper()
	w := newTestWorkspace()
	_, err := w.AddDocument("a.pdf", newPages("a", 3), "")
	require.NoError(t, err)
	_, err = w.AddDocument("b.pdf", newPages("b", 2), "")
	require.NoError(t, err)
	require.NoError(t, w.Validate())
	return w
}

func TestAddDocumentAppends(t *testing.T) {
	w := seed(t)
	s := w.Snapshot()

	assert.Equal(t, []string{"a.pdf", "b.pdf"}, sectionNames(s))
	assert.Equal(t, []string{"a1", "a2", "a3", "b1", "b2"}, pageOrder(s))
	assert.Equal(t, uint64(2), s.Revision)
	for _, p := range s.Pages[:3] {
		assert.Equal(t, "a.pdf", p.FileName)
		assert.Equal(t, s.Sections[0].ID, p.SectionID)
	}
}

func TestAddDocumentInsertAfterPage(t *testing.T) {
	w := seed(t)

	s, err := w.AddDocument("c.pdf", newPages("c", 1), "a2")
	require.NoError(t, err)
	require.NoError(t, w.Validate())

	assert.Equal(t, []string{"a.pdf", "c.pdf", "b.pdf"}, sectionNames(s))
	assert.Equal(t, []string{"a1", "a2", "a3", "c1", "b1", "b2"}, pageOrder(s))
}

func TestAddDocumentErrors(t *testing.T) {
	w := seed(t)

	_, err := w.AddDocument("c.pdf", newPages("c", 1), "missing")
	assert.ErrorIs(t, err, ErrPageNotFound)

	_, err = w.AddDocument("empty.pdf", nil, "")
	assert.ErrorIs(t, err, ErrNoPages)
	assert.Len(t, w.Snapshot().Sections, 2)
}

func TestAddDocumentsKeepsOrderAsOneChange(t *testing.T) {
	w := seed(t)
	rev := w.Snapshot().Revision

	s, err := w.AddDocuments([]Document{
		{FileName: "c.pdf", Pages: newPages("c", 2)},
		{FileName: "d.pdf", Pages: newPages("d", 1)},
	}, "a1")
	require.NoError(t, err)
	require.NoError(t, w.Validate())

	assert.Equal(t, rev+1, s.Revision)
	assert.Equal(t, []string{"a.pdf", "c.pdf", "d.pdf", "b.pdf"}, sectionNames(s))
	assert.Equal(t, []string{"a1", "a2", "a3", "c1", "c2", "d1", "b1", "b2"}, pageOrder(s))
}

func TestAddDocumentsAllOrNothing(t *testing.T) {
	w := seed(t)
	before := w.Snapshot()

	_, err := w.AddDocuments([]Document{
		{FileName: "c.pdf", Pages: newPages("c", 1)},
		{FileName: "empty.pdf"},
	}, "")
	assert.ErrorIs(t, err, ErrNoPages)

	_, err = w.AddDocuments([]Document{
		{FileName: "c.pdf", Pages: newPages("c", 1)},
	}, "missing")
	assert.ErrorIs(t, err, ErrPageNotFound)

	assert.Equal(t, before, w.Snapshot())
}

func TestSplitSection(t *testing.T) {
	w := seed(t)

	s, err := w.SplitSection("a1")
	require.NoError(t, err)
	require.NoError(t, w.Validate())

	assert.Equal(t, []string{"a.pdf", "a.pdf (split)", "b.pdf"}, sectionNames(s))
	assert.Equal(t, []string{"a1"}, s.Sections[0].PageIDs)
	assert.Equal(t, []string{"a2", "a3"}, s.Sections[1].PageIDs)
	assert.Equal(t, []string{"a1", "a2", "a3", "b1", "b2"}, pageOrder(s))
	assert.Equal(t, s.Sections[1].ID, s.Pages[1].SectionID)
}

func TestSplitSectionAtLastPage(t *testing.T) {
	w := seed(t)
	before := w.Snapshot()

	_, err := w.SplitSection("a3")
	assert.ErrorIs(t, err, ErrNothingToSplit)
	assert.Equal(t, before, w.Snapshot())

	_, err = w.SplitSection("nope")
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestMergeSections(t *testing.T) {
	w := seed(t)
	s := w.Snapshot()
	a, b := s.Sections[0].ID, s.Sections[1].ID

	s, err := w.MergeSections(b, a)
	require.NoError(t, err)
	require.NoError(t, w.Validate())

	require.Len(t, s.Sections, 1)
	assert.Equal(t, "b.pdf", s.Sections[0].Name)
	assert.Equal(t, []string{"b1", "b2", "a1", "a2", "a3"}, pageOrder(s))

	_, err = w.MergeSections(b, b)
	assert.ErrorIs(t, err, ErrInvalidMove)
	_, err = w.MergeSections(b, a)
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestDeleteSectionAndClear(t *testing.T) {
	w := seed(t)
	a := w.Snapshot().Sections[0].ID

	removed, s, err := w.DeleteSection(a)
	require.NoError(t, err)
	require.NoError(t, w.Validate())
	assert.Equal(t, []string{"a1", "a2", "a3"}, removed)
	assert.Equal(t, []string{"b1", "b2"}, pageOrder(s))

	_, _, err = w.DeleteSection(a)
	assert.ErrorIs(t, err, ErrSectionNotFound)

	removed, s = w.Clear()
	assert.Equal(t, []string{"b1", "b2"}, removed)
	assert.Empty(t, s.Sections)
	assert.Empty(t, s.Pages)

	rev := s.Revision
	removed, s = w.Clear()
	assert.Empty(t, removed)
	assert.Equal(t, rev, s.Revision)
}

func TestRenameSection(t *testing.T) {
	w := seed(t)
	id := w.Snapshot().Sections[1].ID

	s, err := w.RenameSection(id, "  Appendix  ")
	require.NoError(t, err)
	assert.Equal(t, "Appendix", s.Sections[1].Name)

	_, err = w.RenameSection(id, "   ")
	assert.ErrorIs(t, err, ErrEmptyName)
	_, err = w.RenameSection("missing", "x")
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestMoveSection(t *testing.T) {
	w := seed(t)
	_, err := w.AddDocument("c.pdf", newPages("c", 1), "")
	require.NoError(t, err)

	s, err := w.MoveSection(2, 0)
	require.NoError(t, err)
	require.NoError(t, w.Validate())
	assert.Equal(t, []string{"c.pdf", "a.pdf", "b.pdf"}, sectionNames(s))
	assert.Equal(t, []string{"c1", "a1", "a2", "a3", "b1", "b2"}, pageOrder(s))

	_, err = w.MoveSection(0, 3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestMoveSectionUpDown(t *testing.T) {
	w := seed(t)
	s := w.Snapshot()
	a, b := s.Sections[0].ID, s.Sections[1].ID
	rev := s.Revision

	s, err := w.MoveSectionUp(a)
	require.NoError(t, err)
	assert.Equal(t, rev, s.Revision)

	s, err = w.MoveSectionDown(b)
	require.NoError(t, err)
	assert.Equal(t, rev, s.Revision)

	s, err = w.MoveSectionDown(a)
	require.NoError(t, err)
	require.NoError(t, w.Validate())
	assert.Equal(t, []string{"b.pdf", "a.pdf"}, sectionNames(s))
	assert.Equal(t, []string{"b1", "b2", "a1", "a2", "a3"}, pageOrder(s))

	s, err = w.MoveSectionUp(a)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, sectionNames(s))

	_, err = w.MoveSectionUp("missing")
	assert.ErrorIs(t, err, ErrSectionNotFound)
	_, err = w.MoveSectionDown("missing")
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestMovePage(t *testing.T) {
	tests := []struct {
		name     string
		dragged  string
		drop     string
		order    []string
		sections [][]string
	}{
		{
			name:     "forward within section",
			dragged:  "a1",
			drop:     "a3",
			order:    []string{"a2", "a3", "a1", "b1", "b2"},
			sections: [][]string{{"a2", "a3", "a1"}, {"b1", "b2"}},
		},
		{
			name:     "backward within section",
			dragged:  "a3",
			drop:     "a1",
			order:    []string{"a3", "a1", "a2", "b1", "b2"},
			sections: [][]string{{"a3", "a1", "a2"}, {"b1", "b2"}},
		},
		{
			name:     "into next section",
			dragged:  "a2",
			drop:     "b2",
			order:    []string{"a1", "a3", "b1", "b2", "a2"},
			sections: [][]string{{"a1", "a3"}, {"b1", "b2", "a2"}},
		},
		{
			name:     "into previous section",
			dragged:  "b1",
			drop:     "a1",
			order:    []string{"b1", "a1", "a2", "a3", "b2"},
			sections: [][]string{{"b1", "a1", "a2", "a3"}, {"b2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := seed(t)
			s, err := w.MovePage(tt.dragged, tt.drop)
			require.NoError(t, err)
			require.NoError(t, w.Validate())

			assert.Equal(t, tt.order, pageOrder(s))
			require.Len(t, s.Sections, len(tt.sections))
			for i, ids := range tt.sections {
				assert.Equal(t, ids, s.Sections[i].PageIDs)
			}
		})
	}
}

func TestMovePageEmptiesSection(t *testing.T) {
	w := newTestWorkspace()
	_, err := w.AddDocument("a.pdf", newPages("a", 2), "")
	require.NoError(t, err)
	_, err = w.AddDocument("solo.pdf", newPages("s", 1), "")
	require.NoError(t, err)

	s, err := w.MovePage("s1", "a1")
	require.NoError(t, err)
	require.NoError(t, w.Validate())

	assert.Equal(t, []string{"a.pdf"}, sectionNames(s))
	assert.Equal(t, []string{"s1", "a1", "a2"}, pageOrder(s))
}

func TestMovePageNoopAndMissing(t *testing.T) {
	w := seed(t)
	rev := w.Snapshot().Revision

	s, err := w.MovePage("a1", "a1")
	require.NoError(t, err)
	assert.Equal(t, rev, s.Revision)

	_, err = w.MovePage("a1", "zz")
	assert.ErrorIs(t, err, ErrPageNotFound)
	_, err = w.MovePage("zz", "a1")
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestExportPagesFollowsSelectionOrder(t *testing.T) {
	w := seed(t)
	s := w.Snapshot()
	a, b := s.Sections[0].ID, s.Sections[1].ID

	pages, err := w.ExportPages([]string{b, "gone", a})
	require.NoError(t, err)

	var ids []string
	for _, p := range pages {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"b1", "b2", "a1", "a2", "a3"}, ids)

	_, err = w.ExportPages([]string{"gone"})
	assert.ErrorIs(t, err, ErrNothingSelected)
	_, err = w.ExportPages(nil)
	assert.ErrorIs(t, err, ErrNothingSelected)
}

func TestExportPagesSkipsRepeatedSections(t *testing.T) {
	w := seed(t)
	s := w.Snapshot()
	a, b := s.Sections[0].ID, s.Sections[1].ID

	pages, err := w.ExportPages([]string{b, a, b})
	require.NoError(t, err)

	var ids []string
	for _, p := range pages {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"b1", "b2", "a1", "a2", "a3"}, ids)
}

func TestSnapshotIsDetached(t *testing.T) {
	w := seed(t)
	s := w.Snapshot()
	s.Sections[0].PageIDs[0] = "mutated"
	s.Pages[0].ID = "mutated"

	require.NoError(t, w.Validate())
	assert.Equal(t, "a1", w.Snapshot().Pages[0].ID)
}
