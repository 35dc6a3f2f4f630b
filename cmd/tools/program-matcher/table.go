// cmd/tools/program-matcher/table.go
package main

import (
	"fmt"
	"strconv"
	"strings"

	"program-matcher/internal/api"
	"program-matcher/internal/models"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column over rows of T.
type column[T any] struct {
	title   string
	numeric bool
	cell    func(rank int, v T) string
}

var matchColumns = []column[api.MatchView]{
	{title: "#", numeric: true, cell: func(rank int, _ api.MatchView) string { return strconv.Itoa(rank) }},
	{title: "Course", cell: func(_ int, m api.MatchView) string { return m.CourseName }},
	{title: "University", cell: func(_ int, m api.MatchView) string { return m.University }},
	{title: "Country", cell: func(_ int, m api.MatchView) string { return m.Country }},
	{title: "Fee", numeric: true, cell: func(_ int, m api.MatchView) string { return m.FormattedFee }},
	{title: "Score", numeric: true, cell: func(_ int, m api.MatchView) string { return strconv.FormatFloat(m.Score, 'f', 1, 64) }},
	{title: "Match", numeric: true, cell: func(_ int, m api.MatchView) string { return fmt.Sprintf("%.0f%%", m.MatchPercent) }},
}

var leadColumns = []column[models.Lead]{
	{title: "Submitted", cell: func(_ int, l models.Lead) string { return l.Timestamp.Local().Format("2006-01-02 15:04") }},
	{title: "ID", cell: func(_ int, l models.Lead) string { return l.ID }},
	{title: "Field", cell: func(_ int, l models.Lead) string { return l.StudyField }},
	{title: "Level", cell: func(_ int, l models.Lead) string { return l.DegreeLevel }},
	{title: "Countries", cell: func(_ int, l models.Lead) string { return strings.Join(l.PreferredCountries, ", ") }},
	{title: "Score", numeric: true, cell: func(_ int, l models.Lead) string { return l.MatchScore }},
}

// renderRows draws items with a rounded border. Ranks start at 1.
func renderRows[T any](cols []column[T], items []T) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, 0, len(cols))
	configs := make([]table.ColumnConfig, 0, len(cols))
	for i, c := range cols {
		header = append(header, c.title)
		cfg := table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft}
		if c.numeric {
			cfg.Align = text.AlignRight
		}
		configs = append(configs, cfg)
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for n, item := range items {
		row := make(table.Row, 0, len(cols))
		for _, c := range cols {
			row = append(row, c.cell(n+1, item))
		}
		tw.AppendRow(row)
	}
	return tw.Render()
}
