package pdf

import (
	"bytes"
	"fmt"
	"strings"

	rpdf "rsc.io/pdf"
)

// wordKern is the TJ adjustment, in thousandths of an em, treated as a gap
// between words.
const wordKern = 200

// PageCount reports the number of pages in data.
func PageCount(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()
	doc, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidPDF, err)
	}
	return doc.NumPage(), nil
}

// PreviewText returns the leading text of the first page, collapsed to single
// spaces and cut to limit runes. rsc.io/pdf panics on some malformed content
// streams, so any failure yields "".
func PreviewText(data []byte, limit int) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()
	doc, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil || doc.NumPage() == 0 {
		return ""
	}
	page := doc.Page(1)
	if page.V.IsNull() {
		return ""
	}
	text := strings.Join(strings.Fields(pageText(page)), " ")
	if limit > 0 {
		if r := []rune(text); len(r) > limit {
			text = strings.TrimSpace(string(r[:limit]))
		}
	}
	return text
}

// pageText runs the page's content streams and keeps the shown strings in
// stream order. Page.Content drops space glyphs, so word breaks are taken
// from the strings themselves, from line moves, and from wide TJ kerning.
func pageText(p rpdf.Page) string {
	var b strings.Builder
	var enc rpdf.TextEncoding
	show := func(raw string) {
		if enc == nil {
			b.WriteString(raw)
			return
		}
		b.WriteString(enc.Decode(raw))
	}
	run := func(strm rpdf.Value) {
		rpdf.Interpret(strm, func(stk *rpdf.Stack, op string) {
			n := stk.Len()
			args := make([]rpdf.Value, n)
			for i := n - 1; i >= 0; i-- {
				args[i] = stk.Pop()
			}
			switch op {
			case "Tf":
				if n == 2 {
					enc = p.Font(args[0].Name()).Encoder()
				}
			case "Tj":
				if n == 1 {
					show(args[0].RawString())
				}
			case "'", "\"":
				b.WriteByte(' ')
				if n > 0 {
					show(args[n-1].RawString())
				}
			case "TJ":
				if n != 1 {
					return
				}
				for i := 0; i < args[0].Len(); i++ {
					x := args[0].Index(i)
					if x.Kind() == rpdf.String {
						show(x.RawString())
					} else if x.Float64() <= -wordKern {
						b.WriteByte(' ')
					}
				}
			case "Td", "TD":
				if n == 2 && args[1].Float64() != 0 {
					b.WriteByte(' ')
				}
			case "T*", "Tm", "ET":
				b.WriteByte(' ')
			}
		})
	}

	contents := p.V.Key("Contents")
	if contents.Kind() == rpdf.Array {
		for i := 0; i < contents.Len(); i++ {
			run(contents.Index(i))
		}
	} else {
		run(contents)
	}
	return b.String()
}
