package ai

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	genai "google.golang.org/genai"
)

const maxPromptPreview = 600

type Gemini struct {
	client *genai.Client
	model  string
	log    *logrus.Logger
}

func NewGemini(ctx context.Context, apiKey, model string, log *logrus.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: c, model: model, log: log}, nil
}

func (g *Gemini) prompt(ctx context.Context, text string) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}, nil)
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

// SuggestName never fails: when the model is unavailable or answers with
// nothing usable, the file's base name is returned.
func (g *Gemini) SuggestName(ctx context.Context, fileName string, previews []string) (string, error) {
	fallback := baseName(fileName)
	if g.client == nil {
		return fallback, nil
	}
	out, err := g.prompt(ctx, namePrompt(fileName, previews))
	if err != nil {
		if g.log != nil {
			g.log.WithError(err).WithField("file", fileName).Warn("gemini name suggestion failed")
		}
		return fallback, nil
	}
	if name := cleanName(out); name != "" {
		return name, nil
	}
	return fallback, nil
}

func namePrompt(fileName string, previews []string) string {
	var b strings.Builder
	b.WriteString("Propose a short section title (max 6 words) for these PDF pages. ")
	b.WriteString("Return ONLY the title, no quotes, no explanation.\n\n")
	b.WriteString("File: " + fileName + "\n")
	used := 0
	for i, p := range previews {
		if p == "" {
			continue
		}
		if used+len(p) > maxPromptPreview {
			break
		}
		used += len(p)
		b.WriteString("Page ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(": ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String()
}

// cleanName keeps the first non-empty line of a model answer and strips
// code fences, markdown emphasis and quotes around it.
func cleanName(s string) string {
	s = stripCodeFences(s)
	for _, ln := range strings.Split(s, "\n") {
		ln = strings.TrimSpace(ln)
		ln = strings.TrimLeft(ln, "#*- ")
		ln = strings.Trim(ln, "\"'`*")
		ln = strings.TrimSpace(ln)
		if ln != "" {
			return ln
		}
	}
	return ""
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
