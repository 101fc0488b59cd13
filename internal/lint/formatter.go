package lint

import (
	"encoding/json"
	"fmt"
	"io"
)

// FormatText writes a human-readable report.
func FormatText(w io.Writer, result *Result) error {
	for _, issue := range result.Issues {
		if _, err := fmt.Fprintf(w, "%s: %s [%s] %s\n", issue.Severity, issue.FilePath, issue.Rule, issue.Message); err != nil {
			return err
		}
		if issue.Fix != "" {
			if _, err := fmt.Fprintf(w, "  fix: %s\n", issue.Fix); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d chapters, %d assets checked: %d errors, %d warnings\n",
		result.ChaptersTotal, result.AssetsTotal, result.ErrorCount(), result.WarningCount())
	return err
}

// FormatJSON writes the report as indented JSON.
func FormatJSON(w io.Writer, result *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
