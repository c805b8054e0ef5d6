package storage

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/mrwillibald/nuliga-helper/internal/config"
	"github.com/mrwillibald/nuliga-helper/internal/game"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the roster is written to
const SheetName = "Heimspielplan"

// numFmtText is the built-in "@" number format. Contact columns use it so
// spreadsheet programs keep the leading "+" of phone numbers.
const numFmtText = 49

// Workbook reads and writes the roster as an xlsx file
type Workbook struct {
	columns config.Columns
}

// NewWorkbook creates a Workbook using the given column headers
func NewWorkbook(columns config.Columns) *Workbook {
	return &Workbook{columns: columns}
}

// Load reads the roster at path. It returns ErrNotFound when the file
// doesn't exist.
func (w *Workbook) Load(path string) (game.Table, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading roster: %w", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening roster: %w", err)
	}
	defer f.Close()

	sheet := SheetName
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("roster %s has no worksheet", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return game.Table{}, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[normalizeHeader(name)] = i
	}
	col := func(name string) int {
		if i, ok := header[normalizeHeader(name)]; ok {
			return i
		}
		return -1
	}

	numberCol := col(w.columns.Number)
	if numberCol < 0 {
		return nil, fmt.Errorf("roster %s: missing column %q", path, w.columns.Number)
	}

	schedule := []struct {
		col   int
		field func(*game.Record) *string
	}{
		{col(w.columns.Day), func(r *game.Record) *string { return &r.Day }},
		{col(w.columns.Date), func(r *game.Record) *string { return &r.Date }},
		{col(w.columns.Time), func(r *game.Record) *string { return &r.Time }},
		{col(w.columns.Hall), func(r *game.Record) *string { return &r.Hall }},
		{col(w.columns.Category), func(r *game.Record) *string { return &r.Category }},
		{col(w.columns.Home), func(r *game.Record) *string { return &r.Home }},
		{col(w.columns.Guest), func(r *game.Record) *string { return &r.Guest }},
		{col(w.columns.Referee), func(r *game.Record) *string { return &r.RefereeStatus }},
		{col(w.columns.DutyTeam), func(r *game.Record) *string { return &r.DutyTeam }},
	}

	type roleCols struct{ name, contact int }
	roles := make([]roleCols, len(game.Roles))
	for i, role := range game.Roles {
		cols := w.columns.Role(role)
		roles[i] = roleCols{name: col(cols.Name), contact: col(cols.Contact)}
	}

	table := make(game.Table, 0, len(rows)-1)
	for _, row := range rows[1:] {
		number, ok := parseNumber(cell(row, numberCol))
		if !ok {
			// blank or hand-written rows without a game number
			continue
		}

		rec := game.Record{Number: number}
		for _, s := range schedule {
			*s.field(&rec) = cell(row, s.col)
		}
		for i, role := range game.Roles {
			rec.Assign(role, game.Assignment{
				Name:    cell(row, roles[i].name),
				Contact: game.ParseContact(cell(row, roles[i].contact)),
			})
		}
		table = append(table, rec)
	}

	return table, nil
}

// Save writes table to path, replacing any existing file
func (w *Workbook) Save(table game.Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	headers := w.columns.Headers()
	for i, header := range headers {
		if err := f.SetCellStr(SheetName, cellName(i, 0), header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for r, rec := range table {
		row := r + 1
		values := []any{
			rec.Day, rec.Date, rec.Time, rec.Hall, rec.Number, rec.Category,
			rec.Home, rec.Guest, rec.RefereeStatus, rec.DutyTeam,
		}
		for i, value := range values {
			if err := f.SetCellValue(SheetName, cellName(i, row), value); err != nil {
				return fmt.Errorf("writing game %d: %w", rec.Number, err)
			}
		}

		i := len(values)
		for _, role := range game.Roles {
			a := rec.Assignment(role)
			if err := f.SetCellStr(SheetName, cellName(i, row), a.Name); err != nil {
				return fmt.Errorf("writing game %d: %w", rec.Number, err)
			}
			if err := f.SetCellStr(SheetName, cellName(i+1, row), a.Contact.Raw()); err != nil {
				return fmt.Errorf("writing game %d: %w", rec.Number, err)
			}
			i += 2
		}
	}

	if err := w.format(f, len(headers), len(table)); err != nil {
		return fmt.Errorf("formatting roster: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving roster: %w", err)
	}
	return nil
}

// format sets column widths, keeps contact columns as text and adds an
// autofilter over the whole table
func (w *Workbook) format(f *excelize.File, columns, rows int) error {
	last := columnName(columns - 1)
	if err := f.SetColWidth(SheetName, "A", last, 16); err != nil {
		return err
	}
	// home and guest team names
	if err := f.SetColWidth(SheetName, columnName(6), columnName(7), 30); err != nil {
		return err
	}

	textStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtText})
	if err != nil {
		return err
	}
	// role columns start after the schedule and duty team columns
	for i := len(w.columns.Schedule()) + 2; i < columns; i += 2 {
		name := columnName(i)
		if err := f.SetColStyle(SheetName, name, textStyle); err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, name, name, 26); err != nil {
			return err
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	return f.AutoFilter(SheetName, fmt.Sprintf("A1:%s", cellName(columns-1, rows)), []excelize.AutoFilterOptions{})
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// cell returns the trimmed value at i. GetRows drops trailing empty cells.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseNumber(text string) (int, bool) {
	if text == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(text); err == nil {
		return n, true
	}
	// hand-edited sheets sometimes store the number as a float
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// cellName converts zero-based column and row indices to an A1 reference
func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row+1)
	return name
}

func columnName(col int) string {
	name, _ := excelize.ColumnNumberToName(col + 1)
	return name
}
