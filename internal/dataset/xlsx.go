package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readXLSX returns the rows of the selected sheet. SheetName wins over
// SheetIndex; SheetIndex is 1-based and defaults to the first sheet.
func readXLSX(path string, opt Options) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("workbook has no sheets")}
	}
	target := ""
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				target = s
				break
			}
		}
		if target == "" {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("sheet '%s' not found in workbook '%s'; available sheets: %s",
				opt.SheetName, filepath.Base(path), strings.Join(sheets, ", "))}
		}
	} else {
		idx := opt.SheetIndex
		if idx <= 0 {
			idx = 1
		}
		if idx > len(sheets) {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", idx, len(sheets))}
		}
		target = sheets[idx-1]
	}

	rows, err := f.GetRows(target)
	if err != nil {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("read sheet %s: %w", target, err)}
	}
	if len(rows) > 0 {
		for i := range rows[0] {
			rows[0][i] = strings.TrimSpace(strings.TrimPrefix(rows[0][i], "\ufeff"))
		}
	}
	return rows, nil
}
