package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/shule/core/reconcile"
)

func buildWorkbook(t *testing.T, rows ...[]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for r, row := range rows {
		for c, v := range row {
			if err := f.SetCellStr("Sheet1", cell(c+1, r+1), v); err != nil {
				t.Fatalf("SetCellStr() failed: %v", err)
			}
		}
	}
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	return buf
}

func TestParsePhoneRows(t *testing.T) {
	buf := buildWorkbook(t,
		[]string{"Adm No", "Phone", "Phone 2", "Class"},
		[]string{" LAA/2025/0001 ", "0712345678", "", "Grade 1"},
		[]string{"", "", "", ""},
		[]string{"LAA/2025/0002", "", "254722000111"},
	)

	rows, err := ParsePhoneRows(buf)
	if err != nil {
		t.Fatalf("ParsePhoneRows() unexpected error = %v", err)
	}
	want := []reconcile.Row{
		{Line: 2, AdmissionNo: "LAA/2025/0001", Phone1: "0712345678", ClassName: "Grade 1"},
		{Line: 4, AdmissionNo: "LAA/2025/0002", Phone2: "254722000111"},
	}
	if len(rows) != len(want) {
		t.Fatalf("ParsePhoneRows() = %+v, want %+v", rows, want)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("ParsePhoneRows()[%d] = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestParsePhoneRows_errors(t *testing.T) {
	tests := []struct {
		name string
		data *bytes.Buffer
		want error
	}{
		{
			name: "header only",
			data: buildWorkbook(t, templateHeaders),
			want: ErrNoData,
		},
		{
			name: "blank rows only",
			data: buildWorkbook(t, templateHeaders, []string{" ", ""}),
			want: ErrNoData,
		},
		{
			name: "no phone column",
			data: buildWorkbook(t, []string{"admission_no", "class"}, []string{"LAA/2025/0001", "Grade 1"}),
			want: ErrBadHeader,
		},
		{
			name: "no admission column",
			data: buildWorkbook(t, []string{"name", "phone"}, []string{"Amani", "0712345678"}),
			want: ErrBadHeader,
		},
		{
			name: "not a workbook",
			data: bytes.NewBufferString("admission_no,phone\nLAA/2025/0001,0712345678\n"),
			want: ErrUnreadable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePhoneRows(tt.data)
			if errors.Cause(err) != tt.want {
				t.Errorf("ParsePhoneRows() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWriteTemplate_canBeUploaded(t *testing.T) {
	rows := []reconcile.Row{
		{Line: 2, AdmissionNo: "LAA/2025/0001", FirstName: "Amani", LastName: "Otieno", ClassName: "Grade 1", Phone1: "0712345678"},
		{Line: 3, AdmissionNo: "LAA/2025/0002", FirstName: "Baraka", LastName: "Mwangi", ClassName: "N/A", Phone2: "0722000111"},
	}
	buf := new(bytes.Buffer)
	if err := WriteTemplate(buf, rows); err != nil {
		t.Fatalf("WriteTemplate() unexpected error = %v", err)
	}

	got, err := ParsePhoneRows(buf)
	if err != nil {
		t.Fatalf("ParsePhoneRows() unexpected error = %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("ParsePhoneRows() = %d rows, want %d", len(got), len(rows))
	}
	for i := range rows {
		if got[i] != rows[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], rows[i])
		}
	}
}

func TestWriteRejected(t *testing.T) {
	records := []reconcile.Record{
		{Row: reconcile.Row{Line: 4, AdmissionNo: "LAA/2025/0003", Phone1: "0712"}, Message: "phone_1: too short"},
		{Row: reconcile.Row{Line: 6, AdmissionNo: "LAA/2030/0001", Phone1: "0712345678"}, Message: "learner not found"},
	}
	buf := new(bytes.Buffer)
	if err := WriteRejected(buf, records); err != nil {
		t.Fatalf("WriteRejected() unexpected error = %v", err)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("OpenReader() failed: %v", err)
	}
	defer func() { _ = f.Close() }()

	if name := f.GetSheetName(0); name != rejectedSheet {
		t.Errorf("sheet = %q, want %q", name, rejectedSheet)
	}
	got, err := f.GetRows(rejectedSheet)
	if err != nil {
		t.Fatalf("GetRows() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("GetRows() = %d rows, want 3", len(got))
	}
	if header := strings.Join(got[0], ","); !strings.HasSuffix(header, "guardian_phone_2,line,error") {
		t.Errorf("header = %s", header)
	}
	if row := got[1]; row[0] != "LAA/2025/0003" || row[6] != "4" || row[7] != "phone_1: too short" {
		t.Errorf("first rejected row = %v", row)
	}
	if row := got[2]; row[7] != "learner not found" {
		t.Errorf("second rejected row = %v", row)
	}
}
