package workspace

import "errors"

var (
	ErrPageNotFound    = errors.New("page not found")
	ErrSectionNotFound = errors.New("section not found")
	ErrNothingToSplit  = errors.New("nothing after this page to split off")
	ErrEmptyName       = errors.New("section name is empty")
	ErrInvalidMove     = errors.New("invalid move")
	ErrIndexOutOfRange = errors.New("section index out of range")
	ErrNothingSelected = errors.New("no sections selected")
	ErrNoPages         = errors.New("document has no pages")
)

type Page struct {
	ID         string `json:"id"`
	PageNumber int    `json:"pageNumber"`
	FileName   string `json:"fileName"`
	SectionID  string `json:"sectionId"`
	Preview    string `json:"preview,omitempty"`
}

type Section struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	PageIDs []string `json:"pageIds"`
}

// NewPage describes a page about to be added. Its id must already be the key
// its bytes were stored under.
type NewPage struct {
	ID         string
	PageNumber int
	Preview    string
}

// Document is one source file's pages, added as a section of its own.
type Document struct {
	FileName string
	Pages    []NewPage
}

// Snapshot is a deep copy of the workspace at one revision.
type Snapshot struct {
	Revision uint64    `json:"revision"`
	Sections []Section `json:"sections"`
	Pages    []Page    `json:"pages"`
}
