// Package report renders human readable summaries of trained models.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"risk-model/internal/ml"
	"risk-model/internal/storage"

	"github.com/olekukonko/tablewriter"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// WriteSummary prints the coefficients, holdout metrics and training
// provenance of a model artifact.
func WriteSummary(w io.Writer, a ml.ModelArtifact) error {
	if _, err := fmt.Fprintf(w, "Model %s (%s -> %s)\n", a.RunID, a.ModelType, a.Target); err != nil {
		return err
	}

	coef := newTable(w, []string{"Term", "Coefficient"})
	coef.Append([]string{"intercept", formatFloat(a.Coefficients.Intercept)})
	values := a.Coefficients.Coefficients()
	for i, name := range a.Features {
		// values[0] is the intercept
		if i+1 < len(values) {
			coef.Append([]string{name, formatFloat(values[i+1])})
		}
	}
	coef.Render()

	metrics := newTable(w, []string{"Metric", "Value"})
	metrics.AppendBulk([][]string{
		{"MAE", formatFloat(a.Metrics.MAE)},
		{"RMSE", formatFloat(a.Metrics.RMSE)},
		{"R2", formatFloat(a.Metrics.R2)},
		{"Train rows", strconv.Itoa(a.Metrics.TrainRows)},
		{"Test rows", strconv.Itoa(a.Metrics.TestRows)},
	})
	metrics.Render()

	_, err := fmt.Fprintf(w, "Trained on %s with %s (%d epochs, lr %g, %s scaling), %s, generated %s\n",
		a.Training.Source,
		a.Training.Algorithm,
		a.Training.Epochs,
		a.Training.LearningRate,
		a.Training.FeatureScaling,
		a.Training.Split,
		a.GeneratedAt.Format(time.RFC3339),
	)
	return err
}

// WriteVersions prints the model version history, newest first.
func WriteVersions(w io.Writer, versions []ml.ModelVersion) {
	table := newTable(w, []string{"Version", "Run", "Created", "MAE", "R2", "Active"})
	for _, v := range versions {
		active := ""
		if v.IsActive {
			active = "*"
		}
		table.Append([]string{
			v.Version,
			v.RunID,
			v.CreatedAt.Format(time.RFC3339),
			formatFloat(v.Metrics.MAE),
			formatFloat(v.Metrics.R2),
			active,
		})
	}
	table.Render()
}

// WriteHistory prints archived training runs in the order given. Runs whose
// payload no longer parses as an artifact are listed without metrics.
func WriteHistory(w io.Writer, records []storage.ArtifactRecord) {
	table := newTable(w, []string{"Run", "Generated", "Source", "MAE", "R2"})
	for _, rec := range records {
		a, err := ml.ParseArtifact(rec.Payload)
		if err != nil {
			table.Append([]string{rec.RunID, rec.GeneratedAt.Format(time.RFC3339), "invalid", "-", "-"})
			continue
		}
		table.Append([]string{
			rec.RunID,
			rec.GeneratedAt.Format(time.RFC3339),
			a.Training.Source,
			formatFloat(a.Metrics.MAE),
			formatFloat(a.Metrics.R2),
		})
	}
	table.Render()
}
