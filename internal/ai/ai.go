package ai

import (
	"context"
	"path/filepath"
	"strings"
)

// Namer proposes a display name for a section from the file it came from
// and the preview text of its pages.
type Namer interface {
	SuggestName(ctx context.Context, fileName string, previews []string) (string, error)
}

type Noop struct{}

func (Noop) SuggestName(ctx context.Context, fileName string, previews []string) (string, error) {
	return baseName(fileName), nil
}

func baseName(fileName string) string {
	name := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if name == "" || name == "." {
		return "Untitled"
	}
	return name
}
