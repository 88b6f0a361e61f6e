package graph

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Column names used in MalformedInputError.Field.
const (
	FieldNodeA  = "node_a"
	FieldNodeB  = "node_b"
	FieldWeight = "weight"
)

// MalformedInputError reports an edge-list record that cannot be turned
// into an edge: wrong arity, a non-numeric column or a non-positive weight.
type MalformedInputError struct {
	Line   int    // 1-based line in the source, header lines included
	Field  string // offending column, empty for arity and syntax errors
	Value  string
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d, %s %q: %s", e.Line, e.Field, e.Value, e.Reason)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// Build reads comma-separated (node_a, node_b, weight) records from r and
// returns the resulting graph. The first headerSkip lines are discarded
// unread. Extra columns beyond the third are ignored. When a pair appears
// more than once the last record's weight wins.
//
// No partial graph is returned on error.
func Build(r io.Reader, headerSkip int) (*Graph, error) {
	if headerSkip < 0 {
		return nil, fmt.Errorf("header skip must be set explicitly and be >= 0, got %d", headerSkip)
	}

	br := bufio.NewReader(r)
	for i := 0; i < headerSkip; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				// Source shorter than its header: nothing to parse.
				return NewGraph(), nil
			}
			return nil, fmt.Errorf("failed to skip header line %d: %w", i+1, err)
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	g := NewGraph()
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &MalformedInputError{
					Line:   parseErr.Line + headerSkip,
					Reason: parseErr.Err.Error(),
					Err:    err,
				}
			}
			return nil, fmt.Errorf("error reading edge list: %w", err)
		}

		line, _ := reader.FieldPos(0)
		line += headerSkip

		if len(record) < 3 {
			return nil, &MalformedInputError{
				Line:   line,
				Reason: fmt.Sprintf("expected 3 columns, got %d", len(record)),
			}
		}

		a, err := parseField(record[0], FieldNodeA, line)
		if err != nil {
			return nil, err
		}
		b, err := parseField(record[1], FieldNodeB, line)
		if err != nil {
			return nil, err
		}
		w, err := parseField(record[2], FieldWeight, line)
		if err != nil {
			return nil, err
		}
		if w <= 0 {
			return nil, &MalformedInputError{
				Line:   line,
				Field:  FieldWeight,
				Value:  record[2],
				Reason: "weight must be positive",
			}
		}

		if err := g.AddEdge(a, b, w); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	return g, nil
}

// BuildFromFile opens path and delegates to Build.
func BuildFromFile(path string, headerSkip int) (*Graph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open edge list: %w", err)
	}
	defer file.Close()

	g, err := Build(file, headerSkip)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func parseField(raw, field string, line int) (int64, error) {
	value := strings.TrimSpace(raw)
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &MalformedInputError{
			Line:   line,
			Field:  field,
			Value:  value,
			Reason: "not an integer",
			Err:    err,
		}
	}
	return v, nil
}
