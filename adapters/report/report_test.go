package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gostatsplot/domain/run"
)

func sampleRun() *run.Run {
	r := run.NewRun("ggbetweenstats", []string{"group", "score"}, "parametric", false, 42)
	r.Title = "Scores by group"
	r.Subtitle = "F_Welch(2, 92.21) = 3.10, p = 0.05, ω²_p = 0.02, CI95% [NA, 1.00], n_obs = 150"
	r.Caption = "log_e(BF01) = 1.20, δ_difference^posterior = 0.10\nPairwise test: Games-Howell; Adjustment (p-value): Holm"
	r.ImagePath = "out/between.png"
	r.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return r
}

func TestMarkdown(t *testing.T) {
	md := string(New("Gallery", []*run.Run{sampleRun()}).Markdown())

	assert.True(t, strings.HasPrefix(md, "# Gallery\n\n## Scores by group\n\n"), md)
	assert.Contains(t, md, "ggbetweenstats, parametric, seed 42, 2026-03-01 12:00:00 UTC")
	assert.Contains(t, md, "`F_Welch(2, 92.21) = 3.10, p = 0.05, ω²_p = 0.02, CI95% [NA, 1.00], n_obs = 150`")
	assert.Contains(t, md, "- `Pairwise test: Games-Howell; Adjustment (p-value): Holm`")
	assert.Contains(t, md, "![Scores by group](out/between.png)")
}

func TestMarkdownWithoutRuns(t *testing.T) {
	md := string(New("Empty", nil).Markdown())
	assert.Equal(t, "# Empty\n\nNo runs recorded.\n", md)
}

func TestHTMLKeepsSubtitleLiteral(t *testing.T) {
	rep := New("Gallery", []*run.Run{sampleRun()})
	rep.ImageURL = func(r *run.Run) string { return "/images/" + r.ID.String() }

	page := string(rep.HTML())
	assert.Contains(t, page, "<title>Gallery</title>")
	assert.Contains(t, page, "<code>F_Welch(2, 92.21) = 3.10")
	assert.NotContains(t, page, "<em>")
	assert.Contains(t, page, `src="/images/`)

	frag := string(rep.Fragment())
	assert.NotContains(t, frag, "<html")
	assert.Contains(t, frag, "<h2")
}

func TestHeadingFallsBackToOperation(t *testing.T) {
	r := sampleRun()
	r.Title = ""
	assert.Equal(t, "ggbetweenstats (group, score)", heading(r))
}

func TestCodeSpan(t *testing.T) {
	assert.Equal(t, "`a_b`", codeSpan("a_b"))
	assert.Equal(t, "``a`b``", codeSpan("a`b"))
	assert.Equal(t, "`` `x ``", codeSpan("`x"))
}
