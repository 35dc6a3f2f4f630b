// internal/catalog/xlsx.go
package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"program-matcher/internal/models"

	"github.com/xuri/excelize/v2"
)

// Column headers of the course workbook.
const (
	ColCourseName     = "Abroad Course Name"
	ColUniversity     = "Abroad University"
	ColDegreeType     = "Abroad Course Type"
	ColDuration       = "Abroad Course Duration"
	ColFee            = "Abroad Course Fee"
	ColOnlineCourse   = "Online Course Name"
	ColOnlineDuration = "Online Course Duration"
	ColOnlineFee      = "Online Course Fee"
	ColCourseLevel    = "Course Level"
)

var columnSetters = map[string]func(*models.Program, string){
	ColCourseName:     func(p *models.Program, v string) { p.CourseName = v },
	ColUniversity:     func(p *models.Program, v string) { p.University = v },
	ColDegreeType:     func(p *models.Program, v string) { p.DegreeType = v },
	ColDuration:       func(p *models.Program, v string) { p.Duration = v },
	ColFee:            func(p *models.Program, v string) { p.Fee = v },
	ColOnlineCourse:   func(p *models.Program, v string) { p.OnlineCourse = v },
	ColOnlineDuration: func(p *models.Program, v string) { p.OnlineDuration = v },
	ColOnlineFee:      func(p *models.Program, v string) { p.OnlineFee = v },
	ColCourseLevel:    func(p *models.Program, v string) { p.CourseLevel = v },
}

// XLSXSource reads a workbook with one sheet per country.
type XLSXSource struct {
	Path string
}

func NewXLSXSource(path string) *XLSXSource {
	return &XLSXSource{Path: path}
}

func (s *XLSXSource) Name() string {
	return "xlsx:" + s.Path
}

func (s *XLSXSource) Load(ctx context.Context) ([]models.Program, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	return ReadWorkbook(ctx, f)
}

// ReadWorkbook decodes every sheet of the workbook in r. The first row of a
// sheet is its header; unknown columns are ignored and blank rows skipped.
func ReadWorkbook(ctx context.Context, r io.Reader) ([]models.Program, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	defer wb.Close()

	var programs []models.Program
	for _, sheet := range wb.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := wb.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		programs = append(programs, decodeSheet(sheet, rows)...)
	}
	return programs, nil
}

func decodeSheet(country string, rows [][]string) []models.Program {
	if len(rows) == 0 {
		return nil
	}

	header := make([]func(*models.Program, string), len(rows[0]))
	for i, name := range rows[0] {
		header[i] = columnSetters[strings.TrimSpace(name)]
	}

	programs := make([]models.Program, 0, len(rows)-1)
	for _, row := range rows[1:] {
		p := models.Program{Country: country}
		blank := true
		for i, cell := range row {
			if i >= len(header) || header[i] == nil {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			header[i](&p, cell)
			blank = false
		}
		if !blank {
			programs = append(programs, p)
		}
	}
	return programs
}

// WriteWorkbook renders programs as a workbook grouped by country, the
// inverse of ReadWorkbook.
func WriteWorkbook(w io.Writer, programs []models.Program) error {
	wb := excelize.NewFile()
	defer wb.Close()

	headers := []interface{}{
		ColCourseName, ColUniversity, ColDegreeType, ColDuration, ColFee,
		ColOnlineCourse, ColOnlineDuration, ColOnlineFee, ColCourseLevel,
	}

	rowIndex := make(map[string]int)
	for _, p := range programs {
		next, ok := rowIndex[p.Country]
		if !ok {
			if _, err := wb.NewSheet(p.Country); err != nil {
				return fmt.Errorf("create sheet %q: %w", p.Country, err)
			}
			if err := wb.SetSheetRow(p.Country, "A1", &headers); err != nil {
				return err
			}
			next = 2
		}

		row := []interface{}{
			p.CourseName, p.University, p.DegreeType, p.Duration, p.Fee,
			p.OnlineCourse, p.OnlineDuration, p.OnlineFee, p.CourseLevel,
		}
		if err := wb.SetSheetRow(p.Country, fmt.Sprintf("A%d", next), &row); err != nil {
			return err
		}
		rowIndex[p.Country] = next + 1
	}

	if _, ok := rowIndex["Sheet1"]; !ok && len(rowIndex) > 0 {
		if err := wb.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}
	return wb.Write(w)
}
