package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/domain"
)

// ParseMPesaCSV parses the M-Pesa settlement statement export.
//
// Expected header:
//
//	receipt,completion_time,amount,details
//
// Amounts are Tanzanian shillings with an optional two-decimal fraction
// ("85000" or "85000.00") and are returned in minor units as written; the
// details column is carried by the statement but ignored here.
func ParseMPesaCSV(r io.Reader) ([]domain.StatementLine, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("statement is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 3 {
		return nil, fmt.Errorf("expected at least 3 columns, got %d", len(header))
	}
	if got := strings.ToLower(strings.TrimSpace(header[0])); got != "receipt" {
		return nil, fmt.Errorf("unexpected first column %q, want \"receipt\"", header[0])
	}

	var lines []domain.StatementLine
	lineNum := 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 columns, got %d", lineNum, len(row))
		}

		receipt := strings.TrimSpace(row[0])
		if receipt == "" {
			return nil, fmt.Errorf("line %d: empty receipt", lineNum)
		}

		completedAt, err := parseCompletionTime(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d completion_time: %w", lineNum, err)
		}

		amount, err := parseAmount(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, fmt.Errorf("line %d amount: %w", lineNum, err)
		}

		lines = append(lines, domain.StatementLine{
			Reference: receipt,
			Amount:    amount,
			Timestamp: completedAt,
		})
	}

	return lines, nil
}

func parseCompletionTime(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// parseAmount converts a decimal string to whole shillings using integer
// arithmetic only. A fractional part, when present, must be exactly two
// digits and is rejected unless it is zero; M-Pesa settles whole amounts.
func parseAmount(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
		if len(frac) != 2 {
			return 0, fmt.Errorf("malformed amount %q", s)
		}
	}
	if whole == "" {
		return 0, fmt.Errorf("malformed amount %q", s)
	}
	// 18 digits is the most that always fits in an int64.
	if len(whole) > 18 {
		return 0, fmt.Errorf("amount %q out of range", s)
	}

	var n int64
	for _, c := range whole {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("malformed amount %q", s)
		}
		n = n*10 + int64(c-'0')
	}
	for _, c := range frac {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("malformed amount %q", s)
		}
		if c != '0' {
			return 0, fmt.Errorf("fractional amount %q not supported", s)
		}
	}

	return n, nil
}
