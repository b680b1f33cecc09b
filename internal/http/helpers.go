package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"studiostats/internal/core"
	"studiostats/internal/dataset"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encoding failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Kind: kind})
}

// writeReportError maps engine errors to responses: recognized kinds are
// client errors on an otherwise well-formed request, everything else is a 500.
func writeReportError(w http.ResponseWriter, err error) {
	if kind := core.KindOf(err); kind != "" {
		writeError(w, http.StatusUnprocessableEntity, kind, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "", err.Error())
}

// reportWindow resolves the reporting window from start/end query parameters,
// defaulting to the dataset's full observed span.
func reportWindow(q url.Values, meta dataset.Meta) (core.Period, core.Period, error) {
	var start, end core.Period
	var err error

	if v := strings.TrimSpace(q.Get("start")); v != "" {
		start, err = core.ParsePeriod(v)
		if err != nil {
			return start, end, err
		}
	} else if len(meta.Periods) > 0 {
		start, err = core.ParsePeriod(meta.Periods[0])
		if err != nil {
			return start, end, err
		}
	} else {
		start = core.PeriodOf(time.Now())
	}

	if v := strings.TrimSpace(q.Get("end")); v != "" {
		end, err = core.ParsePeriod(v)
		if err != nil {
			return start, end, err
		}
	} else if len(meta.Periods) > 0 {
		end, err = core.ParsePeriod(meta.Periods[len(meta.Periods)-1])
		if err != nil {
			return start, end, err
		}
	} else {
		end = start
	}

	return start, end, nil
}

// parseIntList reads a repeatable query parameter that also accepts
// comma-separated values, e.g. ?t=3&t=5 or ?t=3,5.
func parseIntList(q url.Values, name string) ([]int, error) {
	var out []int
	for _, raw := range q[name] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid %s value %q", name, part)
			}
			out = append(out, n)
		}
	}
	return out, nil
}

// parseStringList reads a repeatable query parameter that also accepts
// comma-separated values.
func parseStringList(q url.Values, name string) []string {
	var out []string
	for _, raw := range q[name] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseIntParam(q url.Values, name string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q", name, v)
	}
	return n, nil
}

func parseBoolParam(q url.Values, name string) bool {
	switch strings.ToLower(strings.TrimSpace(q.Get(name))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func wantsXLSX(q url.Values) bool {
	return strings.EqualFold(strings.TrimSpace(q.Get("format")), "xlsx")
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// writeWorkbook streams a workbook as a file download.
func writeWorkbook(w http.ResponseWriter, f *excelize.File, filename string) {
	defer f.Close()
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(w); err != nil {
		slog.Error("Workbook write failed", "error", err, "filename", filename)
	}
}
