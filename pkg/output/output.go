// Package output writes partitioning results to files or streams.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/graph-partition-service/pkg/pipeline"
)

// Supported report formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted values for WriteReport.
var Formats = []string{FormatCSV, FormatJSON, FormatYAML}

// Extension returns the file extension used for format.
func Extension(format string) string {
	if format == FormatCSV {
		return "partitions"
	}
	return format
}

// WritePartitions writes one line per partition with comma-separated node
// ids. An empty partition is an empty line.
func WritePartitions(w io.Writer, partitions [][]int64) error {
	cw := csv.NewWriter(w)
	for _, p := range partitions {
		record := make([]string, len(p))
		for i, node := range p {
			record[i] = strconv.FormatInt(node, 10)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReport writes report in the given format. The csv format carries
// only the partitions.
func WriteReport(w io.Writer, report *pipeline.Report, format string) error {
	switch format {
	case FormatCSV, "":
		return WritePartitions(w, report.Partitions)
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Writer persists reports under a directory.
type Writer interface {
	WriteReport(report *pipeline.Report, format string) (string, error)
	WriteAll(report *pipeline.Report) ([]string, error)
}

// FileWriter implements Writer for file-based output. Files are named
// <prefix>.<extension>.
type FileWriter struct {
	Dir    string
	Prefix string
}

// NewFileWriter creates a new file-based output writer
func NewFileWriter(dir, prefix string) Writer {
	return &FileWriter{Dir: dir, Prefix: prefix}
}

// WriteReport writes report in one format and returns the file path.
func (fw *FileWriter) WriteReport(report *pipeline.Report, format string) (string, error) {
	if err := os.MkdirAll(fw.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(fw.Dir, fmt.Sprintf("%s.%s", fw.Prefix, Extension(format)))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if err := WriteReport(file, report, format); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to write %s report: %w", format, err)
	}
	return path, file.Close()
}

// WriteAll writes the report in every format.
func (fw *FileWriter) WriteAll(report *pipeline.Report) ([]string, error) {
	paths := make([]string, 0, len(Formats))
	for _, format := range Formats {
		path, err := fw.WriteReport(report, format)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
