package bracket

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// csv column order for a bracket schedule file
const csvColumns = "grade,std_rem,min_amount,max_amount,health_no_care,health_care,pension"

// ReadScheduleCSV parses a full bracket schedule from CSV. The expected
// columns are grade, std_rem, min_amount, max_amount, health_no_care,
// health_care, pension; a header row is skipped when present. The parsed
// rows are validated as one table before being returned.
func ReadScheduleCSV(r io.Reader) ([]PremiumBracket, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	var rows []PremiumBracket
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "grade") {
			continue
		}
		if len(record) != 7 {
			return nil, fmt.Errorf("line %d: expected 7 columns (%s), got %d", line, csvColumns, len(record))
		}

		b, err := parseCSVRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, *b)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("schedule file contains no rows")
	}
	if err := Validate(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func parseCSVRecord(record []string) (*PremiumBracket, error) {
	stdRem, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return nil, fmt.Errorf("std_rem: %w", err)
	}
	minAmount, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return nil, fmt.Errorf("min_amount: %w", err)
	}
	maxAmount, err := strconv.Atoi(strings.TrimSpace(record[3]))
	if err != nil {
		return nil, fmt.Errorf("max_amount: %w", err)
	}
	healthNoCare, err := decimal.NewFromString(strings.TrimSpace(record[4]))
	if err != nil {
		return nil, fmt.Errorf("health_no_care: %w", err)
	}
	healthCare, err := decimal.NewFromString(strings.TrimSpace(record[5]))
	if err != nil {
		return nil, fmt.Errorf("health_care: %w", err)
	}
	pension, err := decimal.NewFromString(strings.TrimSpace(record[6]))
	if err != nil {
		return nil, fmt.Errorf("pension: %w", err)
	}

	return &PremiumBracket{
		Grade:        strings.TrimSpace(record[0]),
		StdRem:       stdRem,
		MinAmount:    minAmount,
		MaxAmount:    maxAmount,
		HealthNoCare: healthNoCare,
		HealthCare:   healthCare,
		Pension:      pension,
	}, nil
}
