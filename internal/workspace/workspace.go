// Package workspace holds the editable arrangement of uploaded pages into
// named sections.
//
// Pages are kept in one flat display order and sections list the page ids
// they own. Every mutation leaves the two views consistent: page order is
// always the concatenation of the sections' page lists, every page belongs
// to exactly one section, and no section is empty.
package workspace

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type Workspace struct {
	mu       sync.RWMutex
	pages    []Page
	sections []Section
	revision uint64
	newID    func() string
}

func New() *Workspace {
	return &Workspace{newID: uuid.NewString}
}

func (w *Workspace) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshotLocked()
}

func (w *Workspace) Page(id string) (Page, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	i := w.pageIndex(id)
	if i < 0 {
		return Page{}, fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	return w.pages[i], nil
}

func (w *Workspace) Section(id string) (Section, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	i := w.sectionIndex(id)
	if i < 0 {
		return Section{}, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	return copySection(w.sections[i]), nil
}

// SectionPages returns the pages of a section in display order.
func (w *Workspace) SectionPages(id string) ([]Page, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.sectionIndex(id) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	return w.pagesOf(id), nil
}

// AddDocument creates a section named fileName holding pages. With an empty
// insertAfterPageID the section goes last; otherwise it is placed right after
// the section that contains that page.
func (w *Workspace) AddDocument(fileName string, pages []NewPage, insertAfterPageID string) (Snapshot, error) {
	return w.AddDocuments([]Document{{FileName: fileName, Pages: pages}}, insertAfterPageID)
}

// AddDocuments adds one section per document, keeping the given order, as a
// single change. Nothing is added unless every document can be.
func (w *Workspace) AddDocuments(docs []Document, insertAfterPageID string) (Snapshot, error) {
	if len(docs) == 0 {
		return Snapshot{}, ErrNoPages
	}
	for _, d := range docs {
		if len(d.Pages) == 0 {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrNoPages, d.FileName)
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	at := len(w.sections)
	if insertAfterPageID != "" {
		pi := w.pageIndex(insertAfterPageID)
		if pi < 0 {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrPageNotFound, insertAfterPageID)
		}
		at = w.sectionIndex(w.pages[pi].SectionID) + 1
	}

	for _, d := range docs {
		sec := Section{ID: "section-" + w.newID(), Name: d.FileName}
		for _, np := range d.Pages {
			sec.PageIDs = append(sec.PageIDs, np.ID)
			w.pages = append(w.pages, Page{
				ID:         np.ID,
				PageNumber: np.PageNumber,
				FileName:   d.FileName,
				SectionID:  sec.ID,
				Preview:    np.Preview,
			})
		}
		w.sections = insertSection(w.sections, at, sec)
		at++
	}
	w.reorderPagesFromSections()
	return w.commit(), nil
}

// SplitSection moves every page after pageID into a new section placed
// directly after the original one.
func (w *Workspace) SplitSection(pageID string) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	pi := w.pageIndex(pageID)
	if pi < 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}
	si := w.sectionIndex(w.pages[pi].SectionID)
	cur := w.sections[si]
	pos := indexOf(cur.PageIDs, pageID)
	if pos == len(cur.PageIDs)-1 {
		return Snapshot{}, ErrNothingToSplit
	}

	split := Section{
		ID:      "section-" + w.newID(),
		Name:    cur.Name + " (split)",
		PageIDs: append([]string(nil), cur.PageIDs[pos+1:]...),
	}
	w.sections[si].PageIDs = append([]string(nil), cur.PageIDs[:pos+1]...)
	for _, id := range split.PageIDs {
		w.pages[w.pageIndex(id)].SectionID = split.ID
	}
	w.sections = insertSection(w.sections, si+1, split)
	return w.commit(), nil
}

// MergeSections appends the source section's pages to target and drops the
// source section.
func (w *Workspace) MergeSections(targetID, sourceID string) (Snapshot, error) {
	if targetID == sourceID {
		return Snapshot{}, fmt.Errorf("%w: cannot merge a section into itself", ErrInvalidMove)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	ti, si := w.sectionIndex(targetID), w.sectionIndex(sourceID)
	if ti < 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSectionNotFound, targetID)
	}
	if si < 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSectionNotFound, sourceID)
	}

	moved := w.sections[si].PageIDs
	w.sections[ti].PageIDs = append(w.sections[ti].PageIDs, moved...)
	for _, id := range moved {
		w.pages[w.pageIndex(id)].SectionID = targetID
	}
	w.sections = append(w.sections[:si], w.sections[si+1:]...)
	w.reorderPagesFromSections()
	return w.commit(), nil
}

// DeleteSection removes a section with all of its pages and returns the
// removed page ids.
func (w *Workspace) DeleteSection(id string) ([]string, Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	si := w.sectionIndex(id)
	if si < 0 {
		return nil, Snapshot{}, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	removed := append([]string(nil), w.sections[si].PageIDs...)
	w.sections = append(w.sections[:si], w.sections[si+1:]...)

	kept := w.pages[:0]
	for _, p := range w.pages {
		if p.SectionID != id {
			kept = append(kept, p)
		}
	}
	w.pages = kept
	return removed, w.commit(), nil
}

// Clear drops every section and page and returns the removed page ids.
func (w *Workspace) Clear() ([]string, Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	removed := make([]string, 0, len(w.pages))
	for _, p := range w.pages {
		removed = append(removed, p.ID)
	}
	if len(removed) == 0 && len(w.sections) == 0 {
		return nil, w.snapshotLocked()
	}
	w.pages, w.sections = nil, nil
	return removed, w.commit()
}

func (w *Workspace) RenameSection(id, name string) (Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Snapshot{}, ErrEmptyName
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	si := w.sectionIndex(id)
	if si < 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	if w.sections[si].Name == name {
		return w.snapshotLocked(), nil
	}
	w.sections[si].Name = name
	return w.commit(), nil
}

// MoveSection takes the section at index from out of the list and reinserts
// it at index to, the way a drag and drop onto another section's slot does.
func (w *Workspace) MoveSection(from, to int) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.moveSectionLocked(from, to)
}

// MoveSectionUp swaps the section with the one before it. The first section
// stays put.
func (w *Workspace) MoveSectionUp(id string) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.sectionIndex(id)
	if i < 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	if i == 0 {
		return w.snapshotLocked(), nil
	}
	return w.moveSectionLocked(i, i-1)
}

// MoveSectionDown swaps the section with the one after it. The last section
// stays put.
func (w *Workspace) MoveSectionDown(id string) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.sectionIndex(id)
	if i < 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	if i == len(w.sections)-1 {
		return w.snapshotLocked(), nil
	}
	return w.moveSectionLocked(i, i+1)
}

func (w *Workspace) moveSectionLocked(from, to int) (Snapshot, error) {
	n := len(w.sections)
	if from < 0 || from >= n || to < 0 || to >= n {
		return Snapshot{}, fmt.Errorf("%w: %d -> %d of %d", ErrIndexOutOfRange, from, to, n)
	}
	if from == to {
		return w.snapshotLocked(), nil
	}
	sec := w.sections[from]
	w.sections = append(w.sections[:from], w.sections[from+1:]...)
	w.sections = insertSection(w.sections, to, sec)
	w.reorderPagesFromSections()
	return w.commit(), nil
}

// MovePage drops the dragged page onto the position of the drop page. The
// dragged page joins the drop page's section; a section left without pages
// disappears.
func (w *Workspace) MovePage(draggedID, dropID string) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if draggedID == dropID {
		if w.pageIndex(draggedID) < 0 {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrPageNotFound, draggedID)
		}
		return w.snapshotLocked(), nil
	}
	di, ti := w.pageIndex(draggedID), w.pageIndex(dropID)
	if di < 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrPageNotFound, draggedID)
	}
	if ti < 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrPageNotFound, dropID)
	}

	dragged := w.pages[di]
	dragged.SectionID = w.pages[ti].SectionID
	pages := append(w.pages[:di:di], w.pages[di+1:]...)
	pages = append(pages[:ti], append([]Page{dragged}, pages[ti:]...)...)
	w.pages = pages

	w.rebuildSectionsFromPages()
	w.reorderPagesFromSections()
	return w.commit(), nil
}

// ExportPages resolves sections in the order given and returns their pages.
// Ids that no longer exist, or were already listed, are ignored.
func (w *Workspace) ExportPages(sectionIDs []string) ([]Page, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []Page
	seen := make(map[string]bool, len(sectionIDs))
	for _, id := range sectionIDs {
		if seen[id] || w.sectionIndex(id) < 0 {
			continue
		}
		seen[id] = true
		out = append(out, w.pagesOf(id)...)
	}
	if len(out) == 0 {
		return nil, ErrNothingSelected
	}
	return out, nil
}

// Validate reports the first broken consistency rule, if any.
func (w *Workspace) Validate() error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	owner := make(map[string]string, len(w.pages))
	var order []string
	for _, s := range w.sections {
		if len(s.PageIDs) == 0 {
			return fmt.Errorf("section %s is empty", s.ID)
		}
		for _, id := range s.PageIDs {
			if prev, dup := owner[id]; dup {
				return fmt.Errorf("page %s is in sections %s and %s", id, prev, s.ID)
			}
			owner[id] = s.ID
			order = append(order, id)
		}
	}
	if len(order) != len(w.pages) {
		return fmt.Errorf("sections reference %d pages, workspace has %d", len(order), len(w.pages))
	}
	for i, p := range w.pages {
		if order[i] != p.ID {
			return fmt.Errorf("page %s at position %d is out of section order", p.ID, i)
		}
		if owner[p.ID] != p.SectionID {
			return fmt.Errorf("page %s claims section %s but belongs to %s", p.ID, p.SectionID, owner[p.ID])
		}
	}
	return nil
}

func (w *Workspace) commit() Snapshot {
	w.revision++
	return w.snapshotLocked()
}

func (w *Workspace) snapshotLocked() Snapshot {
	s := Snapshot{
		Revision: w.revision,
		Sections: make([]Section, len(w.sections)),
		Pages:    append([]Page{}, w.pages...),
	}
	for i, sec := range w.sections {
		s.Sections[i] = copySection(sec)
	}
	return s
}

func (w *Workspace) pageIndex(id string) int {
	for i, p := range w.pages {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (w *Workspace) sectionIndex(id string) int {
	for i, s := range w.sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (w *Workspace) pagesOf(sectionID string) []Page {
	var out []Page
	for _, p := range w.pages {
		if p.SectionID == sectionID {
			out = append(out, p)
		}
	}
	return out
}

// reorderPagesFromSections lays pages out in section order.
func (w *Workspace) reorderPagesFromSections() {
	byID := make(map[string]Page, len(w.pages))
	for _, p := range w.pages {
		byID[p.ID] = p
	}
	ordered := make([]Page, 0, len(w.pages))
	for _, s := range w.sections {
		for _, id := range s.PageIDs {
			ordered = append(ordered, byID[id])
		}
	}
	w.pages = ordered
}

// rebuildSectionsFromPages regroups page ids by section in page order.
// Sections come out in order of first appearance; sections with no pages
// left are dropped.
func (w *Workspace) rebuildSectionsFromPages() {
	members := make(map[string][]string)
	var order []string
	for _, p := range w.pages {
		if _, seen := members[p.SectionID]; !seen {
			order = append(order, p.SectionID)
		}
		members[p.SectionID] = append(members[p.SectionID], p.ID)
	}
	rebuilt := make([]Section, 0, len(order))
	for _, id := range order {
		si := w.sectionIndex(id)
		if si < 0 {
			continue
		}
		sec := w.sections[si]
		sec.PageIDs = members[id]
		rebuilt = append(rebuilt, sec)
	}
	w.sections = rebuilt
}

func insertSection(list []Section, at int, s Section) []Section {
	list = append(list, Section{})
	copy(list[at+1:], list[at:])
	list[at] = s
	return list
}

func copySection(s Section) Section {
	s.PageIDs = append([]string{}, s.PageIDs...)
	return s
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
