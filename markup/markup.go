// Package markup translates text that may carry inline HTML-like markup.
//
// The input is tokenized with golang.org/x/net/html and assembled into a
// light tree of elements and text runs. Every token keeps its raw bytes, so
// rendering an untouched tree reproduces the input byte for byte. Only the
// text runs are sent to the translation service; tag names, attribute
// values, comments and the contents of <script>/<style> are never touched.
package markup

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/minios-linux/resxlate/service"
)

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// NodeKind identifies the type of a tree node.
type NodeKind int

const (
	// KindText is a plain-text run.
	KindText NodeKind = iota
	// KindElement is an element with (possibly empty) children.
	KindElement
	// KindRaw is anything kept verbatim: comments, doctypes, stray end tags,
	// text inside raw-text elements.
	KindRaw
)

// Node is one element, text run or verbatim token.
type Node struct {
	Kind NodeKind
	// Tag is the lower-cased element name (KindElement only).
	Tag string
	// Open is the raw start tag, or the raw token for KindText/KindRaw.
	Open string
	// Close is the raw end tag. Empty for void, self-closing and
	// implicitly closed elements.
	Close    string
	Children []*Node
}

// Document is a parsed markup fragment.
type Document struct {
	Nodes []*Node
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// rawTextElements hold content that is code, not prose.
var rawTextElements = map[string]bool{
	"script": true, "style": true,
}

// Parse builds a Document from s. It never fails: unbalanced or broken
// markup is kept as verbatim tokens.
func Parse(s string) *Document {
	doc := &Document{}
	z := html.NewTokenizer(strings.NewReader(s))

	var stack []*Node
	appendNode := func(n *Node) {
		if len(stack) == 0 {
			doc.Nodes = append(doc.Nodes, n)
			return
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, n)
	}

	for {
		tt := z.Next()
		// Raw must be copied before TagName, which lower-cases the buffer in place.
		raw := string(z.Raw())

		switch tt {
		case html.ErrorToken:
			// A truncated tag at EOF is reported as an error token; keep its bytes.
			if z.Err() == io.EOF && raw != "" {
				appendNode(&Node{Kind: KindRaw, Open: raw})
			}
			return doc

		case html.TextToken:
			kind := KindText
			if len(stack) > 0 && rawTextElements[stack[len(stack)-1].Tag] {
				kind = KindRaw
			}
			appendNode(&Node{Kind: kind, Open: raw})

		case html.StartTagToken:
			name, _ := z.TagName()
			n := &Node{Kind: KindElement, Tag: string(name), Open: raw}
			appendNode(n)
			if !voidElements[n.Tag] {
				stack = append(stack, n)
			}

		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			appendNode(&Node{Kind: KindElement, Tag: string(name), Open: raw})

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			idx := -1
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].Tag == tag {
					idx = i
					break
				}
			}
			if idx < 0 {
				appendNode(&Node{Kind: KindRaw, Open: raw})
				continue
			}
			stack[idx].Close = raw
			stack = stack[:idx]

		default:
			// Comments and doctypes.
			appendNode(&Node{Kind: KindRaw, Open: raw})
		}
	}
}

// Render serializes the document back to markup.
func (d *Document) Render() string {
	var b strings.Builder
	for _, n := range d.Nodes {
		renderNode(&b, n)
	}
	return b.String()
}

func renderNode(b *strings.Builder, n *Node) {
	b.WriteString(n.Open)
	for _, c := range n.Children {
		renderNode(b, c)
	}
	b.WriteString(n.Close)
}

// TextRuns returns the translatable text runs in document order.
// Whitespace-only runs are left out.
func (d *Document) TextRuns() []*Node {
	var runs []*Node
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			switch n.Kind {
			case KindText:
				if strings.TrimSpace(n.Open) != "" {
					runs = append(runs, n)
				}
			case KindElement:
				walk(n.Children)
			}
		}
	}
	walk(d.Nodes)
	return runs
}

// CountRuns returns how many service calls translating s would take.
func CountRuns(s string) int {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	return len(Parse(s).TextRuns())
}

// ---------------------------------------------------------------------------
// Translation
// ---------------------------------------------------------------------------

// Translator translates marked-up text through a Service.
type Translator struct {
	svc service.Service
}

// New returns a Translator that sends text runs to svc.
func New(svc service.Service) *Translator {
	return &Translator{svc: svc}
}

// Translate translates every text run of text into targetLang and returns
// the reassembled markup. An empty or whitespace-only text is returned
// unchanged without calling the service. The first failing run aborts the
// whole text; no partially translated text is ever returned.
func (t *Translator) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	sourceLang = service.SourceOrAuto(sourceLang)

	doc := Parse(text)
	runs := doc.TextRuns()
	for i, run := range runs {
		translated, err := t.translateRun(ctx, run.Open, targetLang, sourceLang)
		if err != nil {
			return "", fmt.Errorf("text run %d of %d: %w", i+1, len(runs), service.Wrap(err))
		}
		run.Open = translated
	}
	return doc.Render(), nil
}

// translateRun sends the entity-decoded core of a raw text run, keeping the
// surrounding whitespace the service would otherwise trim. The result is
// escaped again only when the run itself was written with entities; plain
// text such as "Save & exit" comes back exactly as the service returned it.
func (t *Translator) translateRun(ctx context.Context, raw, targetLang, sourceLang string) (string, error) {
	lead, core, trail := splitSpace(raw)
	plain := html.UnescapeString(core)

	out, err := t.svc.Translate(ctx, plain, targetLang, sourceLang)
	if err != nil {
		return "", err
	}
	if out == plain {
		// Keep the original spelling of entities.
		return raw, nil
	}
	if plain != core {
		out = textEscaper.Replace(out)
	}
	return lead + out + trail, nil
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func splitSpace(s string) (lead, core, trail string) {
	core = strings.TrimLeftFunc(s, unicode.IsSpace)
	lead = s[:len(s)-len(core)]
	trimmed := strings.TrimRightFunc(core, unicode.IsSpace)
	trail = core[len(trimmed):]
	return lead, trimmed, trail
}
