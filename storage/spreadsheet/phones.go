// Package spreadsheet reads & writes the xlsx workbooks of the bulk guardian phone update.
package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/shule/core/reconcile"
)

const (
	maxRows = 5000

	learnersSheet     = "Learners"
	instructionsSheet = "Instructions"
	rejectedSheet     = "Rejected"
)

var (
	ErrNoData       = errors.New("the workbook has no data rows (the first row is the header)")
	ErrTooManyRows  = fmt.Errorf("the workbook has more than %d data rows", maxRows)
	ErrBadHeader    = errors.New("the header must have an admission_no and a guardian_phone_1 column")
	ErrUnreadable   = errors.New("the file is not a valid xlsx workbook")
	templateHeaders = []string{"admission_no", "first_name", "last_name", "class", "guardian_phone_1", "guardian_phone_2"}
	instructions    = []string{
		"1. Fill in guardian_phone_1 and/or guardian_phone_2 for each learner",
		"2. Accepted formats: 0712345678, 254712345678 or +254712345678",
		"3. Leave a phone cell empty to clear that number",
		"4. Rows without an admission_no are skipped",
		"5. Do NOT change the admission_no, first_name, last_name or class columns",
	}
)

type column int

const (
	colAdmissionNo column = iota
	colFirstName
	colLastName
	colClass
	colPhone1
	colPhone2
)

// parseHeaderIndex maps each known column to its index in `header`, -1 when absent.
func parseHeaderIndex(header []string) map[column]int {
	idx := map[column]int{
		colAdmissionNo: -1,
		colFirstName:   -1,
		colLastName:    -1,
		colClass:       -1,
		colPhone1:      -1,
		colPhone2:      -1,
	}
	for i, h := range header {
		switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_") {
		case "admission_no", "admission_number", "adm_no":
			idx[colAdmissionNo] = i
		case "first_name":
			idx[colFirstName] = i
		case "last_name":
			idx[colLastName] = i
		case "class", "class_name":
			idx[colClass] = i
		case "guardian_phone_1", "guardian_phone", "phone_1", "phone":
			idx[colPhone1] = i
		case "guardian_phone_2", "phone_2":
			idx[colPhone2] = i
		}
	}
	return idx
}

// ParsePhoneRows reads the first sheet of an uploaded workbook. Blank rows are skipped.
func ParsePhoneRows(r io.Reader) ([]reconcile.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(ErrUnreadable, err.Error())
	}
	defer func() { _ = f.Close() }()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, errors.Wrap(err, "reading sheet")
	}
	if len(excelRows) < 2 {
		return nil, ErrNoData
	}

	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex[colAdmissionNo] < 0 || colIndex[colPhone1] < 0 {
		return nil, ErrBadHeader
	}

	cellAt := func(row []string, col column) string {
		if idx := colIndex[col]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []reconcile.Row
	for i := 1; i < len(excelRows); i++ {
		raw := excelRows[i]
		row := reconcile.Row{
			Line:        i + 1,
			AdmissionNo: cellAt(raw, colAdmissionNo),
			FirstName:   cellAt(raw, colFirstName),
			LastName:    cellAt(raw, colLastName),
			ClassName:   cellAt(raw, colClass),
			Phone1:      cellAt(raw, colPhone1),
			Phone2:      cellAt(raw, colPhone2),
		}
		if row == (reconcile.Row{Line: row.Line}) {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrNoData
	}
	if len(rows) > maxRows {
		return nil, ErrTooManyRows
	}
	return rows, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func newWorkbook(sheetName string, headers []string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	// text cells keep the leading zero of typed-in phone numbers
	textStyle, err := f.NewStyle(&excelize.Style{NumFmt: 49})
	if err != nil {
		return nil, err
	}
	if err = f.SetColStyle(sheetName, "E:F", textStyle); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	for i, h := range headers {
		if err = f.SetCellStr(sheetName, cell(i+1, 1), h); err != nil {
			return nil, err
		}
	}
	if err = f.SetCellStyle(sheetName, cell(1, 1), cell(len(headers), 1), headerStyle); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(sheetName, "A", "A", 16)
	_ = f.SetColWidth(sheetName, "B", "D", 14)
	_ = f.SetColWidth(sheetName, "E", "F", 18)
	return f, nil
}

func writeRow(f *excelize.File, sheetName string, line int, values ...string) error {
	for i, v := range values {
		if err := f.SetCellStr(sheetName, cell(i+1, line), v); err != nil {
			return err
		}
	}
	return nil
}

// WriteTemplate writes the upload template, prefilled with `rows`.
func WriteTemplate(w io.Writer, rows []reconcile.Row) error {
	f, err := newWorkbook(learnersSheet, templateHeaders)
	if err != nil {
		return errors.Wrap(err, "creating workbook")
	}
	defer func() { _ = f.Close() }()

	for i, row := range rows {
		err = writeRow(f, learnersSheet, i+2, row.AdmissionNo, row.FirstName, row.LastName, row.ClassName, row.Phone1, row.Phone2)
		if err != nil {
			return errors.Wrap(err, "writing row")
		}
	}

	if _, err = f.NewSheet(instructionsSheet); err != nil {
		return errors.Wrap(err, "creating instructions")
	}
	for i, line := range instructions {
		if err = f.SetCellStr(instructionsSheet, cell(1, i+1), line); err != nil {
			return errors.Wrap(err, "writing instructions")
		}
	}
	_ = f.SetColWidth(instructionsSheet, "A", "A", 80)

	return errors.Wrap(f.Write(w), "writing workbook")
}

// WriteRejected writes the invalid & not found records, with the reason of each rejection,
// so they can be fixed and uploaded again.
func WriteRejected(w io.Writer, records []reconcile.Record) error {
	f, err := newWorkbook(rejectedSheet, append(append([]string{}, templateHeaders...), "line", "error"))
	if err != nil {
		return errors.Wrap(err, "creating workbook")
	}
	defer func() { _ = f.Close() }()

	for i, rec := range records {
		err = writeRow(f, rejectedSheet, i+2,
			rec.AdmissionNo, rec.FirstName, rec.LastName, rec.ClassName, rec.Phone1, rec.Phone2,
			fmt.Sprint(rec.Line), rec.Message,
		)
		if err != nil {
			return errors.Wrap(err, "writing row")
		}
	}
	_ = f.SetColWidth(rejectedSheet, "H", "H", 48)

	return errors.Wrap(f.Write(w), "writing workbook")
}
