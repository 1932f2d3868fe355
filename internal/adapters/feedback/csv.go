package feedback

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/mikey/spam-scanner/internal/core"
)

// CSVHeader is the first row of every export
var CSVHeader = []string{"Message", "Category", "Prediction", "Feedback", "Terms", "Reason", "Timestamp"}

const placeholder = "unknown"

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

// Export writes every record in repo as CSV
func Export(ctx context.Context, repo core.FeedbackRepository, w io.Writer) (int, error) {
	records, err := repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list feedback: %w", err)
	}
	if err := WriteCSV(w, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// WriteCSV writes the header and one row per record. Text fields are always
// quoted; enum and numeric fields are written as-is.
func WriteCSV(w io.Writer, records []core.FeedbackRecord) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(strings.Join(CSVHeader, ",") + "\n"); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range records {
		fields := []string{
			quoteField(r.Text),
			enumField(string(r.EffectiveLabel())),
			enumField(string(r.PredictedLabel)),
			enumField(string(r.Judgment)),
			quoteField(strings.Join(r.InfluentialTerms, " ")),
			quoteField(r.Reason),
			timestampField(r),
		}
		if _, err := bw.WriteString(strings.Join(fields, ",") + "\n"); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func quoteField(s string) string {
	s = strings.TrimSpace(lineBreaks.ReplaceAllString(s, " "))
	if s == "" {
		s = placeholder
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func enumField(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func timestampField(r core.FeedbackRecord) string {
	if r.Timestamp.IsZero() {
		return "0"
	}
	return strconv.FormatInt(r.Timestamp.UnixMilli(), 10)
}
