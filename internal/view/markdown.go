package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

//go:embed pages/*.md
var pageFiles embed.FS

// StaticPage is an atelier story page written in Markdown with a YAML header
type StaticPage struct {
	Slug        string        `yaml:"-"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Banner      string        `yaml:"banner"`
	Body        template.HTML `yaml:"-"`
}

// StaticPages are the routed story pages, by slug
var StaticPages = []string{"about", "commission", "credits", "jewelry-care"}

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Typographer),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// LoadStaticPages renders every embedded page once
func LoadStaticPages() (map[string]*StaticPage, error) {
	out := make(map[string]*StaticPage, len(StaticPages))
	for _, slug := range StaticPages {
		raw, err := pageFiles.ReadFile("pages/" + slug + ".md")
		if err != nil {
			return nil, err
		}
		p, err := ParseStaticPage(raw)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", slug, err)
		}
		p.Slug = slug
		out[slug] = p
	}
	return out, nil
}

// ParseStaticPage splits the "---" delimited YAML header from the Markdown body
func ParseStaticPage(raw []byte) (*StaticPage, error) {
	var p StaticPage
	body := raw
	text := string(raw)
	if strings.HasPrefix(text, "---\n") {
		header, rest, ok := strings.Cut(strings.TrimPrefix(text, "---\n"), "\n---\n")
		if !ok {
			return nil, fmt.Errorf("unterminated page header")
		}
		if err := yaml.Unmarshal([]byte(header), &p); err != nil {
			return nil, fmt.Errorf("failed to decode page header: %w", err)
		}
		body = []byte(rest)
	}

	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return nil, err
	}
	p.Body = template.HTML(buf.String())
	return &p, nil
}
