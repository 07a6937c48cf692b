package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/ecomenu/internal/utils"
)

// DefaultRelPath is where the dataset lives relative to the project root.
var DefaultRelPath = filepath.Join("data", "raw", "Agribalyse_Synthese.csv")

// Options controls how a dataset file is read.
type Options struct {
	// Delimiter for CSV. If 0, sniffed from the extension and header line.
	Delimiter rune
	// DecimalSeparator for numbers. If 0, auto-detect per value.
	DecimalSeparator rune
	// XLSX: sheet name, else 1-based index (default first sheet).
	SheetName  string
	SheetIndex int
	// Headers overrides the default header of individual columns.
	Headers map[Column]string
}

// DefaultOptions returns options matching the reference export.
func DefaultOptions() Options {
	return Options{SheetIndex: 1}
}

// DefaultPath resolves the default dataset location by walking up from the
// working directory. When nothing is found the relative path is returned so
// that the open error names it.
func DefaultPath() string {
	if p, err := utils.FindUp("", DefaultRelPath); err == nil {
		return p
	}
	return DefaultRelPath
}

// Load reads the dataset at path (DefaultPath when empty), drops rows without
// a product name and projects the allow-list columns that exist. Missing
// allow-list columns are reported on the Table, not as an error; only a
// missing name column is fatal.
func Load(path string, opt Options) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	var (
		rows [][]string
		err  error
	)
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		rows, err = readXLSX(path, opt)
	} else {
		rows, err = readCSV(path, opt)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &ParseError{Path: path, Err: errors.New("empty file: no header row")}
	}
	return build(path, rows[0], rows[1:], opt)
}

func build(path string, header []string, records [][]string, opt Options) (*Table, error) {
	t := &Table{
		Source:     path,
		RawRows:    len(records),
		RawColumns: len(header),
		Headers:    make(map[Column]string, len(AllColumns)),
	}
	index := make(map[Column]int, len(AllColumns))
	for _, c := range AllColumns {
		want := c.DefaultHeader()
		if h, ok := opt.Headers[c]; ok && strings.TrimSpace(h) != "" {
			want = strings.TrimSpace(h)
		}
		t.Headers[c] = want
		if i := headerIndex(header, want); i >= 0 {
			index[c] = i
			t.Columns = append(t.Columns, c)
		} else {
			t.Missing = append(t.Missing, c)
		}
	}
	if _, ok := index[ColName]; !ok {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("required column %q not found", t.Headers[ColName])}
	}
	if len(t.Missing) > 0 {
		t.Warnings = append(t.Warnings, fmt.Sprintf("missing columns: %s", strings.Join(t.MissingHeaders(), ", ")))
	}

	cell := func(rec []string, c Column) string {
		i, ok := index[c]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	number := func(rec []string, c Column) *float64 {
		v := cell(rec, c)
		if v == "" {
			return nil
		}
		x, ok := parseNumeric(v, opt.DecimalSeparator)
		if !ok {
			return nil
		}
		return &x
	}

	t.Products = make([]Product, 0, len(records))
	unparsed := 0
	for _, rec := range records {
		name := cell(rec, ColName)
		if name == "" {
			t.Dropped++
			continue
		}
		p := Product{
			Name:             name,
			FoodGroup:        cell(rec, ColFoodGroup),
			FoodSubgroup:     cell(rec, ColFoodSubgroup),
			ClimateImpact:    number(rec, ColClimateImpact),
			DataQuality:      number(rec, ColDataQuality),
			SeasonCode:       cell(rec, ColSeasonCode),
			AirTransportCode: cell(rec, ColAirTransportCode),
		}
		if p.ClimateImpact == nil && cell(rec, ColClimateImpact) != "" {
			unparsed++
		}
		t.Products = append(t.Products, p)
	}
	if unparsed > 0 {
		t.Warnings = append(t.Warnings, fmt.Sprintf("%d climate impact values could not be parsed as numbers", unparsed))
	}
	return t, nil
}

func headerIndex(header []string, want string) int {
	for i, h := range header {
		if h == want {
			return i
		}
	}
	for i, h := range header {
		if strings.EqualFold(h, want) {
			return i
		}
	}
	return -1
}

func readCSV(path string, opt Options) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path, data)
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &ParseError{Path: path, Row: len(rows), Err: err}
		}
		if len(rows) == 0 {
			for i := range rec {
				rec[i] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func sniffDelimiter(path string, data []byte) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	if !sc.Scan() {
		return ','
	}
	line := sc.Text()
	best, bestN := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
