// Package render turns a ranked leaderboard page into a self-contained HTML
// document.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/headdrop/leaderboard-web/internal/logic"
	"github.com/headdrop/leaderboard-web/internal/models"
)

//go:embed templates/leaderboard.html
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/leaderboard.html"))

var nameEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes the five HTML-significant characters. Player names go
// through it before reaching the template.
func EscapeHTML(s string) string {
	return nameEscaper.Replace(s)
}

// RankClass returns the CSS class for a global rank.
func RankClass(rank int) string {
	switch rank {
	case 1:
		return "rank-first"
	case 2:
		return "rank-second"
	case 3:
		return "rank-third"
	default:
		return "rank-other"
	}
}

type row struct {
	Rank  int
	Class string
	Name  template.HTML
	Count int64
}

type pageData struct {
	Rows        []row
	Page        int
	TotalPages  int
	HasPrev     bool
	HasNext     bool
	PrevPage    int
	NextPage    int
	GeneratedAt string
}

// Render builds the leaderboard document for window.Page of snapshot.
// Ranks are global, so page 2 starts at rank 11. Pagination controls appear
// only when the snapshot spans more than one page.
func Render(snapshot models.Snapshot, window models.PageWindow, generatedAt time.Time) (string, error) {
	page := max(window.Page, 1)
	total := logic.TotalPages(len(snapshot), models.PageSize)

	data := pageData{
		Page:        page,
		TotalPages:  total,
		HasPrev:     page > 1,
		HasNext:     page < total,
		PrevPage:    page - 1,
		NextPage:    page + 1,
		GeneratedAt: generatedAt.Format(time.RFC1123),
	}
	for _, r := range snapshot.Rows(window) {
		data.Rows = append(data.Rows, row{
			Rank:  r.Rank,
			Class: RankClass(r.Rank),
			// Pre-escaped: html/template would write &#34; for a quote.
			Name:  template.HTML(EscapeHTML(r.PlayerName)),
			Count: r.Count,
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render leaderboard: %w", err)
	}
	return buf.String(), nil
}
