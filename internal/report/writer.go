// Package report renders deletion plans to JSON, CSV and HTML files and
// manages the report directory.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/plexsweep/plexsweep/internal/config"
	"github.com/plexsweep/plexsweep/internal/media"
)

// stampLayout orders report filenames chronologically.
const stampLayout = "20060102_150405"

// Writer renders deletion plans into the report directory.
type Writer struct {
	cfg    config.ReportingConfig
	logger zerolog.Logger
}

// NewWriter creates a report writer.
func NewWriter(cfg config.ReportingConfig, logger zerolog.Logger) *Writer {
	return &Writer{
		cfg:    cfg,
		logger: logger.With().Str("component", "report").Logger(),
	}
}

// Write renders the plan in every enabled format and returns the files
// written. The JSON report is the canonical one the execute endpoint
// reads back.
func (w *Writer) Write(plan *media.DeletionPlan) ([]string, error) {
	if err := os.MkdirAll(w.cfg.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	stamp := plan.Timestamp.Format(stampLayout)
	var written []string

	if w.cfg.GenerateJSON {
		path := filepath.Join(w.cfg.OutputDir, "deletion_plan_"+stamp+".json")
		if err := w.writeJSON(path, plan); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if w.cfg.GenerateCSV {
		path := filepath.Join(w.cfg.OutputDir, "deletion_plan_"+stamp+".csv")
		if err := w.writeCSV(path, plan); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if w.cfg.GenerateHTML {
		path := filepath.Join(w.cfg.OutputDir, "deletion_plan_"+stamp+".html")
		if err := w.writeHTML(path, plan); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	w.logger.Info().Int("files", len(written)).Int("items", plan.TotalItems).Msg("reports written")
	return written, nil
}

func (w *Writer) writeJSON(path string, plan *media.DeletionPlan) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create JSON report: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plan); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}

func (w *Writer) writeCSV(path string, plan *media.DeletionPlan) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV report: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{"title", "year", "library", "type", "size_gb", "reason", "priority", "auto_recommended", "manual_review", "file_path"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, it := range plan.Items {
		row := []string{
			it.Title,
			strconv.Itoa(it.Year),
			it.LibraryName,
			string(it.MediaType),
			strconv.FormatFloat(it.FileSizeGB, 'f', 2, 64),
			it.DeleteReason,
			strconv.Itoa(it.DeletePriority),
			strconv.FormatBool(it.AutoRecommended),
			strconv.FormatBool(it.RequiresManualReview),
			it.FilePath,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Deletion Plan {{.Timestamp.Format "2006-01-02 15:04"}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
th { background: #f0f0f0; }
tr.auto { background: #fff3f3; }
.summary { margin-bottom: 1.5em; }
</style>
</head>
<body>
<h1>Deletion Plan</h1>
<div class="summary">
<p>Generated {{.Timestamp.Format "2006-01-02 15:04:05 MST"}}</p>
<p><strong>{{.TotalItems}}</strong> items, <strong>{{printf "%.2f" .TotalSizeGB}} GB</strong> reclaimable</p>
<ul>
{{range $reason, $count := .ItemsByReason}}<li>{{$count}}&times; {{$reason}}</li>
{{end}}</ul>
</div>
<table>
<tr><th>Title</th><th>Year</th><th>Library</th><th>Size (GB)</th><th>Reason</th><th>Priority</th><th>Auto</th></tr>
{{range .Items}}<tr{{if .AutoRecommended}} class="auto"{{end}}>
<td>{{.Title}}</td><td>{{.Year}}</td><td>{{.LibraryName}}</td>
<td>{{printf "%.2f" .FileSizeGB}}</td><td>{{.DeleteReason}}</td>
<td>{{.DeletePriority}}</td><td>{{if .AutoRecommended}}yes{{else}}review{{end}}</td>
</tr>
{{end}}</table>
</body>
</html>
`))

func (w *Writer) writeHTML(path string, plan *media.DeletionPlan) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create HTML report: %w", err)
	}
	defer f.Close()

	if err := htmlTemplate.Execute(f, plan); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}

// ParseStamp extracts the timestamp from a report filename.
func ParseStamp(filename string) (time.Time, bool) {
	base := filepath.Base(filename)
	if len(base) < len("deletion_plan_")+len(stampLayout) {
		return time.Time{}, false
	}
	stamp := base[len("deletion_plan_") : len("deletion_plan_")+len(stampLayout)]
	t, err := time.ParseInLocation(stampLayout, stamp, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
