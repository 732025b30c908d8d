package health

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/jonwraymond/datasentry/check"
	"github.com/jonwraymond/datasentry/export"
)

// ChecksResponse is the JSON body of the checks endpoint.
type ChecksResponse struct {
	ConfigStatus string       `json:"configStatus"`
	Checks       []export.Row `json:"checks"`
}

// ChecksHandler reports a snapshot of every configured check.
func ChecksHandler(reg *check.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, ChecksResponse{
			ConfigStatus: reg.ConfigStatus(),
			Checks:       export.Rows(reg.Snapshots()),
		})
	}
}

// SummaryHandler reports aggregate counts.
func SummaryHandler(reg *check.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, reg.Summary())
	}
}

// ExportHandler serves the results as a download in the requested format.
func ExportHandler(reg *check.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := exportFormat(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		var buf bytes.Buffer
		if err := export.Export(&buf, reg.Snapshots(), f); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", export.DefaultFileName(time.Now(), f)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}
