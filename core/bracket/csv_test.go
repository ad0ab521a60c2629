package bracket

import (
	"strings"
	"testing"
)

const sampleCSV = `grade,std_rem,min_amount,max_amount,health_no_care,health_care,pension
1,58000,0,63000,4969.40,5904.40,8052.00
2,68000,63000,73000,5826.20,6922.40,9440.00
32,650000,635000,665000,49200.00,58200.00,59475.00
`

func TestReadScheduleCSV(t *testing.T) {
	rows, err := ReadScheduleCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadScheduleCSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[2].Grade != "32" || rows[2].StdRem != 650000 {
		t.Errorf("row 3 = grade %s std_rem %d, want 32/650000", rows[2].Grade, rows[2].StdRem)
	}
	if rows[2].HealthCare.StringFixed(2) != "58200.00" {
		t.Errorf("health_care = %s, want 58200.00", rows[2].HealthCare)
	}
}

func TestReadScheduleCSVWithoutHeader(t *testing.T) {
	body := "1,58000,0,63000,4969.40,5904.40,8052.00\n"
	rows, err := ReadScheduleCSV(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ReadScheduleCSV: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
}

func TestReadScheduleCSVRejectsInvalidTable(t *testing.T) {
	overlapping := `grade,std_rem,min_amount,max_amount,health_no_care,health_care,pension
1,58000,0,63000,4969.40,5904.40,8052.00
2,68000,60000,73000,5826.20,6922.40,9440.00
`
	if _, err := ReadScheduleCSV(strings.NewReader(overlapping)); err == nil {
		t.Fatal("expected overlapping schedule to be rejected")
	}
}

func TestReadScheduleCSVRejectsBadDecimal(t *testing.T) {
	bad := "1,58000,0,63000,abc,5904.40,8052.00\n"
	if _, err := ReadScheduleCSV(strings.NewReader(bad)); err == nil {
		t.Fatal("expected bad decimal to be rejected")
	}
}

func TestReadScheduleCSVRejectsEmpty(t *testing.T) {
	if _, err := ReadScheduleCSV(strings.NewReader("grade,std_rem,min_amount,max_amount,health_no_care,health_care,pension\n")); err == nil {
		t.Fatal("expected empty schedule to be rejected")
	}
}
