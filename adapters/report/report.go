// Package report renders stored plot runs as a markdown document and as
// HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gostatsplot/domain/run"
)

// Report is a titled list of runs, newest first as given
type Report struct {
	Title string
	Runs  []*run.Run
	// ImageURL maps a run to the link of its image; runs without one get no
	// image. Defaults to the stored ImagePath.
	ImageURL func(r *run.Run) string
}

// New creates a report over runs
func New(title string, runs []*run.Run) *Report {
	return &Report{
		Title:    title,
		Runs:     runs,
		ImageURL: func(r *run.Run) string { return r.ImagePath },
	}
}

// heading is the section title of a run
func heading(r *run.Run) string {
	if r.Title != "" {
		return r.Title
	}
	return r.Operation + " (" + strings.Join(r.Variables, ", ") + ")"
}

// codeSpan wraps s in backticks, widening the fence when s contains one
func codeSpan(s string) string {
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

// Markdown renders the report source. Subtitles and captions are code
// spans so their underscores and brackets are not read as markup.
func (r *Report) Markdown() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	if len(r.Runs) == 0 {
		b.WriteString("No runs recorded.\n")
		return b.Bytes()
	}
	for _, rn := range r.Runs {
		fmt.Fprintf(&b, "## %s\n\n", heading(rn))
		fmt.Fprintf(&b, "%s, %s, seed %d, %s\n\n", rn.Operation, rn.TestType, rn.Seed, rn.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
		if rn.Subtitle != "" {
			fmt.Fprintf(&b, "%s\n\n", codeSpan(rn.Subtitle))
		}
		for _, line := range strings.Split(rn.Caption, "\n") {
			if line != "" {
				fmt.Fprintf(&b, "- %s\n", codeSpan(line))
			}
		}
		if rn.Caption != "" {
			b.WriteString("\n")
		}
		if url := r.imageURL(rn); url != "" {
			fmt.Fprintf(&b, "![%s](%s)\n\n", heading(rn), url)
		}
	}
	return b.Bytes()
}

func (r *Report) imageURL(rn *run.Run) string {
	if r.ImageURL == nil {
		return ""
	}
	return r.ImageURL(rn)
}

func render(md []byte, flags html.Flags, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(md)
	renderer := html.NewRenderer(html.RendererOptions{Flags: flags, Title: title})
	return markdown.Render(doc, renderer)
}

// HTML renders the report as a complete HTML page
func (r *Report) HTML() []byte {
	return render(r.Markdown(), html.CommonFlags|html.SkipHTML|html.HrefTargetBlank|html.CompletePage, r.Title)
}

// Fragment renders the report body without the page wrapper
func (r *Report) Fragment() []byte {
	return render(r.Markdown(), html.CommonFlags|html.SkipHTML|html.HrefTargetBlank, r.Title)
}
