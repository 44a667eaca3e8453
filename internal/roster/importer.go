package roster

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ssafy/baperang/backend/internal/contracts"
)

// RowError describes a spreadsheet row that could not be read
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// header aliases, Korean first
var columnAliases = map[string][]string{
	"id":     {"학번", "studentid", "id"},
	"name":   {"이름", "성명", "name"},
	"grade":  {"학년", "grade"},
	"class":  {"반", "classnum", "class"},
	"number": {"번호", "number"},
	"gender": {"성별", "gender"},
}

// ParseXLSX reads students from the first sheet of an xlsx workbook.
// The first row is a header; unreadable rows are reported, not fatal.
func ParseXLSX(r io.Reader) ([]*contracts.Student, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, workbookError("cannot open workbook: " + err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, workbookError("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, workbookError("cannot read rows: " + err.Error())
	}
	if len(rows) == 0 {
		return nil, nil, workbookError(fmt.Sprintf("sheet %q is empty", sheets[0]))
	}

	cols, err := mapColumns(rows[0])
	if err != nil {
		return nil, nil, err
	}

	var students []*contracts.Student
	var rowErrs []RowError
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after header
		if isBlank(row) {
			continue
		}

		s, err := parseRow(row, cols)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		students = append(students, s)
	}

	return students, rowErrs, nil
}

func workbookError(msg string) error {
	return &contracts.ValidationError{Field: "file", Message: msg}
}

func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int)
	for idx, cell := range header {
		normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(cell), " ", ""))
		for key, aliases := range columnAliases {
			for _, alias := range aliases {
				if normalized == alias {
					cols[key] = idx
				}
			}
		}
	}

	for _, required := range []string{"id", "name", "grade", "class", "number"} {
		if _, ok := cols[required]; !ok {
			return nil, workbookError(fmt.Sprintf("missing required column %q", columnAliases[required][0]))
		}
	}
	return cols, nil
}

func parseRow(row []string, cols map[string]int) (*contracts.Student, error) {
	cell := func(key string) string {
		idx, ok := cols[key]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	id, err := strconv.ParseInt(cell("id"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid student id %q", cell("id"))
	}

	ints := make(map[string]int, 3)
	for _, key := range []string{"grade", "class", "number"} {
		v, err := strconv.Atoi(cell(key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", key, cell(key))
		}
		ints[key] = v
	}

	s := &contracts.Student{
		ID:       id,
		Name:     cell("name"),
		Grade:    ints["grade"],
		ClassNum: ints["class"],
		Number:   ints["number"],
		Gender:   cell("gender"),
	}
	if err := contracts.ValidateStruct(s); err != nil {
		return nil, err
	}
	return s, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
