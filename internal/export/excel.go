// Package export writes batch analysis results to spreadsheet workbooks.
package export

import (
	"fmt"
	"io"

	"resumescore/internal/errors"
	"resumescore/internal/scoring"
	"resumescore/internal/types"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the batch workbook
const (
	SummarySheet = "Summary"
	RankedSheet  = "Ranked Resumes"
)

// ContentType is the MIME type of the workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RankedHeaders are the column titles of the ranked sheet
var RankedHeaders = []string{
	"Rank", "Filename", "Overall Score", "Level",
	"Format", "Keywords", "Content", "Grammar", "Structure",
	"Error",
}

// levelFills colours rows of the ranked sheet by level
var levelFills = map[string]string{
	"Exceptional": "C6EFCE",
	"Excellent":   "C6EFCE",
	"Good":        "DDEBF7",
	"Fair":        "FFEB9C",
	"Poor":        "FFC7CE",
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// WriteBatchWorkbook writes result as an xlsx workbook with a summary sheet
// and a sheet of resumes ranked by overall score.
func WriteBatchWorkbook(w io.Writer, result types.BatchResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return exportError("rename summary sheet", err)
	}
	if _, err := f.NewSheet(RankedSheet); err != nil {
		return exportError("create ranked sheet", err)
	}

	if err := writeSummary(f, result); err != nil {
		return exportError("write summary sheet", err)
	}
	if err := writeRanked(f, result); err != nil {
		return exportError("write ranked sheet", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return exportError("write workbook", err)
	}
	return nil
}

func exportError(step string, err error) error {
	return errors.NewInternalError(errors.ErrCodeRenderFailed,
		fmt.Sprintf("Failed to %s", step), err)
}

func writeSummary(f *excelize.File, result types.BatchResult) error {
	sheet := SummarySheet
	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 24); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 13, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	row := 1
	heading := func(title string) error {
		a, b := cell("A", row), cell("B", row)
		if err := f.SetCellValue(sheet, a, title); err != nil {
			return err
		}
		if err := f.MergeCell(sheet, a, b); err != nil {
			return err
		}
		row++
		return f.SetCellStyle(sheet, a, b, headerStyle)
	}
	pair := func(label string, value any) error {
		if err := f.SetCellValue(sheet, cell("A", row), label); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell("A", row), cell("A", row), labelStyle); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell("B", row), value); err != nil {
			return err
		}
		row++
		return nil
	}

	stats := summarize(result)

	steps := []func() error{
		func() error { return heading("Batch Analysis Report") },
		func() error {
			return pair("Generated:", result.AnalysisTimestamp.UTC().Format("2006-01-02 15:04:05 MST"))
		},
		func() error { return pair("Resumes Submitted:", result.TotalAnalyzed) },
		func() error { return pair("Analyzed:", result.TotalAnalyzed-result.Failed) },
		func() error { return pair("Failed:", result.Failed) },
		func() error { row++; return heading("Score Levels") },
	}
	for _, l := range scoring.Levels {
		steps = append(steps, func() error { return pair(l.Name+":", stats.levels[l.Name]) })
	}
	steps = append(steps,
		func() error { row++; return heading("Averages") },
		func() error { return pair("Overall Score:", stats.mean(stats.overall)) },
	)
	for _, category := range types.Categories {
		steps = append(steps, func() error {
			return pair(title(category)+" Score:", stats.mean(stats.category[category]))
		})
	}
	steps = append(steps,
		func() error { return pair("Highest Score:", stats.max) },
		func() error { return pair("Lowest Score:", stats.min) },
	)

	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func writeRanked(f *excelize.File, result types.BatchResult) error {
	sheet := RankedSheet
	widths := []float64{8, 32, 14, 14, 11, 11, 11, 11, 11, 40}
	for i, width := range widths {
		col := column(i)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}
	for i, header := range RankedHeaders {
		c := cell(column(i), 1)
		if err := f.SetCellValue(sheet, c, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, c, c, headerStyle); err != nil {
			return err
		}
	}

	styles := make(map[string]int)
	styleFor := func(fill string) (int, error) {
		if id, ok := styles[fill]; ok {
			return id, nil
		}
		s := &excelize.Style{Border: thinBorder}
		if fill != "" {
			s.Fill = excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1}
		}
		id, err := f.NewStyle(s)
		if err != nil {
			return 0, err
		}
		styles[fill] = id
		return id, nil
	}

	rank := 0
	for i, entry := range result.Results {
		row := i + 2
		values := []any{"", entry.Filename}
		fill := ""
		if entry.Report != nil {
			rank++
			values[0] = rank
			values = append(values, entry.Report.OverallScore, entry.Report.ScoreLevel)
			for _, category := range types.Categories {
				values = append(values, entry.Report.DetailedScores[category])
			}
			values = append(values, "")
			fill = levelFills[entry.Report.ScoreLevel]
		} else {
			values = append(values, "", "", "", "", "", "", "", entry.Error)
		}

		if err := f.SetSheetRow(sheet, cell("A", row), &values); err != nil {
			return err
		}
		style, err := styleFor(fill)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell("A", row), cell(column(len(RankedHeaders)-1), row), style); err != nil {
			return err
		}
	}

	last := column(len(RankedHeaders) - 1)
	if len(result.Results) > 0 {
		ref := fmt.Sprintf("A1:%s%d", last, len(result.Results)+1)
		if err := f.AutoFilter(sheet, ref, []excelize.AutoFilterOptions{}); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// batchStats holds the aggregates shown on the summary sheet
type batchStats struct {
	count    int
	levels   map[string]int
	overall  float64
	category map[string]float64
	max, min float64
}

func summarize(result types.BatchResult) batchStats {
	stats := batchStats{levels: make(map[string]int), category: make(map[string]float64)}
	for _, entry := range result.Results {
		if entry.Report == nil {
			continue
		}
		r := entry.Report
		if stats.count == 0 || r.OverallScore > stats.max {
			stats.max = r.OverallScore
		}
		if stats.count == 0 || r.OverallScore < stats.min {
			stats.min = r.OverallScore
		}
		stats.count++
		stats.levels[r.ScoreLevel]++
		stats.overall += r.OverallScore
		for _, category := range types.Categories {
			stats.category[category] += r.DetailedScores[category]
		}
	}
	return stats
}

// mean divides total by the number of analyzed resumes
func (s batchStats) mean(total float64) float64 {
	if s.count == 0 {
		return 0
	}
	return round2(total / float64(s.count))
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func title(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func column(i int) string {
	name, _ := excelize.ColumnNumberToName(i + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
