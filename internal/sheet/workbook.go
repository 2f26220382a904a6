package sheet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet = "Sheet1"
	maxSheetName = 31
)

// Workbook is a Table backed by one sheet of an .xlsx file. Every mutating call saves
// the file.
type Workbook struct {
	path  string
	sheet string
	file  *excelize.File
}

// OpenWorkbook opens path, creating the file and the sheet when missing.
func OpenWorkbook(path, sheet string) (*Workbook, error) {
	if sheet == "" {
		return nil, errors.New("sheet name is required")
	}

	f, err := excelize.OpenFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f, err = newWorkbookFile(path, sheet)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}

	w := &Workbook{path: path, sheet: sheet, file: f}
	if ensureErr := w.ensureSheet(); ensureErr != nil {
		_ = f.Close()
		return nil, ensureErr
	}
	return w, nil
}

func newWorkbookFile(path, sheet string) (*excelize.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create workbook directory: %w", err)
		}
	}

	f := excelize.NewFile()
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("rename default sheet: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create workbook %s: %w", path, err)
	}
	return f, nil
}

func (w *Workbook) ensureSheet() error {
	idx, err := w.file.GetSheetIndex(w.sheet)
	if err != nil {
		return fmt.Errorf("look up sheet %s: %w", w.sheet, err)
	}
	if idx >= 0 {
		return nil
	}

	if _, err = w.file.NewSheet(w.sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", w.sheet, err)
	}
	return w.save()
}

func (w *Workbook) RowCount(_ context.Context) (int, error) {
	rows, err := w.file.GetRows(w.sheet)
	if err != nil {
		return 0, fmt.Errorf("read sheet %s: %w", w.sheet, err)
	}
	return len(rows), nil
}

// Clear replaces the sheet with an empty one of the same name.
func (w *Workbook) Clear(_ context.Context) error {
	tmp, err := w.replacementName()
	if err != nil {
		return err
	}
	if _, err = w.file.NewSheet(tmp); err != nil {
		return fmt.Errorf("create replacement sheet: %w", err)
	}
	if err = w.file.DeleteSheet(w.sheet); err != nil {
		return fmt.Errorf("delete sheet %s: %w", w.sheet, err)
	}
	if err = w.file.SetSheetName(tmp, w.sheet); err != nil {
		return fmt.Errorf("rename replacement sheet: %w", err)
	}

	idx, err := w.file.GetSheetIndex(w.sheet)
	if err != nil {
		return fmt.Errorf("look up sheet %s: %w", w.sheet, err)
	}
	w.file.SetActiveSheet(idx)

	return w.save()
}

// replacementName returns a sheet name derived from the target that the workbook
// does not contain yet. NewSheet returns an existing sheet of the same name.
func (w *Workbook) replacementName() (string, error) {
	base := []rune(w.sheet)
	for i := 1; ; i++ {
		suffix := "~" + strconv.Itoa(i)
		name := string(base[:min(len(base), maxSheetName-len(suffix))]) + suffix

		idx, err := w.file.GetSheetIndex(name)
		if err != nil {
			return "", fmt.Errorf("look up sheet %s: %w", name, err)
		}
		if idx < 0 {
			return name, nil
		}
	}
}

// WriteRows sets every row then saves once.
func (w *Workbook) WriteRows(_ context.Context, startRow int, rows [][]any) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			return fmt.Errorf("cell for row %d: %w", startRow+i, err)
		}
		if err = w.file.SetSheetRow(w.sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("set row %d: %w", startRow+i, err)
		}
	}
	return w.save()
}

func (w *Workbook) Locator() string {
	path := w.path
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return fmt.Sprintf("file://%s#%s", path, w.sheet)
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.file.Close()
}

func (w *Workbook) save() error {
	if err := w.file.Save(); err != nil {
		return fmt.Errorf("save workbook %s: %w", w.path, err)
	}
	return nil
}
