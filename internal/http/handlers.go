package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"studiostats/internal/core"
	"studiostats/internal/dataset"
	applog "studiostats/internal/log"
	"studiostats/internal/report"
	"studiostats/internal/xlsx"
)

// defaultMaxUpper bounds the explicit frequency bins when the client does not
// ask for a specific range.
const defaultMaxUpper = 10

// defaultThresholds is the threshold set used when no t parameter is given.
var defaultThresholds = []int{3, 5, 10}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "", "upload too large or malformed multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "", "missing file field in upload")
		return
	}
	defer file.Close()

	structured := applog.NewStructuredLogger(applog.FromContext(r.Context()))

	rows, err := xlsx.ParseWorkbook(file)
	if err != nil {
		if kind := core.KindOf(err); kind != "" {
			writeError(w, http.StatusUnprocessableEntity, kind, err.Error())
			return
		}
		structured.LogError(r.Context(), "Upload parse failed", err,
			applog.ComponentXLSX, applog.OpParse,
			applog.LogFields{"filename": header.Filename})
		writeError(w, http.StatusBadRequest, "", "file is not a readable workbook")
		return
	}

	meta := s.store.Put(rows)
	structured.LogDatasetUploaded(r.Context(), meta.ID, meta.RowCount)
	writeJSON(w, http.StatusCreated, meta)
}

func (s *Server) handleDatasetMeta(w http.ResponseWriter, r *http.Request) {
	meta, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_dataset", "dataset not found or expired")
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleDatasetDelete(w http.ResponseWriter, r *http.Request) {
	s.store.Delete(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// datasetRows resolves the dataset referenced by the request path, writing the
// 404 itself when the dataset is gone.
func (s *Server) datasetRows(w http.ResponseWriter, r *http.Request) ([]core.Booking, dataset.Meta, bool) {
	id := r.PathValue("id")
	meta, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_dataset", "dataset not found or expired")
		return nil, dataset.Meta{}, false
	}
	rows, ok := s.store.Rows(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_dataset", "dataset not found or expired")
		return nil, dataset.Meta{}, false
	}
	return rows, meta, true
}

// logReport records which report a request asked for and over which window.
func logReport(r *http.Request, name, op string, start, end core.Period, extras applog.LogFields) {
	fields := applog.NewFields().
		WithComponent(applog.ComponentReport).
		WithOperation(op).
		WithReport(name).
		WithWindow(start.String(), end.String())
	if wantsXLSX(r.URL.Query()) {
		fields[applog.FieldFormat] = "xlsx"
	}
	for k, v := range extras {
		fields[k] = v
	}
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Report requested", fields.ToSlice()...)
}

// cachedJSON serves a report response from the LRU cache, building and
// storing it on a miss.
func (s *Server) cachedJSON(w http.ResponseWriter, r *http.Request, build func() (any, error)) {
	key := r.URL.Path + "?" + r.URL.Query().Encode()
	if body, ok := s.reportCache.Get(key); ok {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Report cache hit", "key", key)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	v, err := build()
	if err != nil {
		writeReportError(w, err)
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "", err.Error())
		return
	}
	s.reportCache.Set(key, body)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleFrequency(w http.ResponseWriter, r *http.Request) {
	rows, meta, ok := s.datasetRows(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	start, end, err := reportWindow(q, meta)
	if err != nil {
		writeReportError(w, err)
		return
	}
	maxUpper, err := parseIntParam(q, "max_upper", defaultMaxUpper)
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}
	logReport(r, "frequency", applog.OpQuery, start, end, nil)

	if wantsXLSX(q) {
		bins, err := report.FrequencyTable(rows, start, end, maxUpper)
		if err != nil {
			writeReportError(w, err)
			return
		}
		f, err := xlsx.FrequencyWorkbook(bins)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "", err.Error())
			return
		}
		writeWorkbook(w, f, fmt.Sprintf("frequency_%s_%s.xlsx", start, end))
		return
	}

	s.cachedJSON(w, r, func() (any, error) {
		bins, err := report.FrequencyTable(rows, start, end, maxUpper)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"start": start.String(),
			"end":   end.String(),
			"rows":  bins,
		}, nil
	})
}

func (s *Server) handleThresholds(w http.ResponseWriter, r *http.Request) {
	rows, meta, ok := s.datasetRows(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	start, end, err := reportWindow(q, meta)
	if err != nil {
		writeReportError(w, err)
		return
	}
	thresholds, err := parseIntList(q, "t")
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}
	if len(thresholds) == 0 {
		thresholds = defaultThresholds
	}
	logReport(r, "thresholds", applog.OpQuery, start, end,
		applog.LogFields{applog.FieldThresholds: thresholds})

	if wantsXLSX(q) {
		rep, err := report.MonthlyThresholds(rows, start, end, thresholds)
		if err != nil {
			writeReportError(w, err)
			return
		}
		f, err := xlsx.ThresholdWorkbook(rep)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "", err.Error())
			return
		}
		writeWorkbook(w, f, fmt.Sprintf("thresholds_%s_%s.xlsx", start, end))
		return
	}

	s.cachedJSON(w, r, func() (any, error) {
		rep, err := report.MonthlyThresholds(rows, start, end, thresholds)
		if err != nil {
			return nil, err
		}
		columns := []string{"Month"}
		for _, n := range rep.Thresholds {
			columns = append(columns, report.ColumnName(n))
		}
		columns = append(columns, "Total_Bookings")

		jsonRows := make([]map[string]any, 0, len(rep.Rows))
		for _, row := range rep.Rows {
			m := map[string]any{"Month": row.Month, "Total_Bookings": row.TotalBookings}
			for i, n := range rep.Thresholds {
				m[report.ColumnName(n)] = row.Counts[i]
			}
			jsonRows = append(jsonRows, m)
		}
		return map[string]any{
			"start":   start.String(),
			"end":     end.String(),
			"columns": columns,
			"rows":    jsonRows,
		}, nil
	})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	rows, meta, ok := s.datasetRows(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	start, end, err := reportWindow(q, meta)
	if err != nil {
		writeReportError(w, err)
		return
	}
	students := parseStringList(q, "student")
	logReport(r, "series", applog.OpQuery, start, end,
		applog.LogFields{applog.FieldStudents: students})

	if wantsXLSX(q) {
		points, err := report.StudentMonthlySeries(rows, students, start, end)
		if err != nil {
			writeReportError(w, err)
			return
		}
		f, err := xlsx.SeriesWorkbook(points)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "", err.Error())
			return
		}
		writeWorkbook(w, f, fmt.Sprintf("series_%s_%s.xlsx", start, end))
		return
	}

	s.cachedJSON(w, r, func() (any, error) {
		points, err := report.StudentMonthlySeries(rows, students, start, end)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"start":  start.String(),
			"end":    end.String(),
			"points": points,
		}, nil
	})
}

func (s *Server) handleTopBookers(w http.ResponseWriter, r *http.Request) {
	rows, meta, ok := s.datasetRows(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	start, end, err := reportWindow(q, meta)
	if err != nil {
		writeReportError(w, err)
		return
	}
	limit, err := parseIntParam(q, "limit", report.DefaultTopLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}
	logReport(r, "top_bookers", applog.OpQuery, start, end, nil)

	if wantsXLSX(q) {
		entries, err := report.TopBookers(rows, start, end, limit)
		if err != nil {
			writeReportError(w, err)
			return
		}
		f, err := xlsx.TopBookersWorkbook(entries)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "", err.Error())
			return
		}
		writeWorkbook(w, f, fmt.Sprintf("top_bookers_%s_%s.xlsx", start, end))
		return
	}

	s.cachedJSON(w, r, func() (any, error) {
		entries, err := report.TopBookers(rows, start, end, limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"start":   start.String(),
			"end":     end.String(),
			"entries": entries,
		}, nil
	})
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	rows, meta, ok := s.datasetRows(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	start, end, err := reportWindow(q, meta)
	if err != nil {
		writeReportError(w, err)
		return
	}

	logReport(r, "distribution", applog.OpQuery, start, end, nil)

	if wantsXLSX(q) {
		rep, err := report.CategoryDistribution(rows, start, end)
		if err != nil {
			writeReportError(w, err)
			return
		}
		f, err := xlsx.DistributionWorkbook(rep)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "", err.Error())
			return
		}
		writeWorkbook(w, f, fmt.Sprintf("distribution_%s_%s.xlsx", start, end))
		return
	}

	s.cachedJSON(w, r, func() (any, error) {
		rep, err := report.CategoryDistribution(rows, start, end)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"start":  start.String(),
			"end":    end.String(),
			"report": rep,
		}, nil
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	rows, meta, ok := s.datasetRows(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	start, end, err := reportWindow(q, meta)
	if err != nil {
		writeReportError(w, err)
		return
	}
	excludeSingle := parseBoolParam(q, "exclude_single")
	logReport(r, "stats", applog.OpQuery, start, end, nil)

	if wantsXLSX(q) {
		stats, err := report.MonthlyStats(rows, start, end, excludeSingle)
		if err != nil {
			writeReportError(w, err)
			return
		}
		f, err := xlsx.StatsWorkbook(stats)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "", err.Error())
			return
		}
		writeWorkbook(w, f, fmt.Sprintf("stats_%s_%s.xlsx", start, end))
		return
	}

	s.cachedJSON(w, r, func() (any, error) {
		stats, err := report.MonthlyStats(rows, start, end, excludeSingle)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"start": start.String(),
			"end":   end.String(),
			"rows":  stats,
		}, nil
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rows, meta, ok := s.datasetRows(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	start, end, err := reportWindow(q, meta)
	if err != nil {
		writeReportError(w, err)
		return
	}
	maxUpper, err := parseIntParam(q, "max_upper", defaultMaxUpper)
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}
	thresholds, err := parseIntList(q, "t")
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}
	if len(thresholds) == 0 {
		thresholds = defaultThresholds
	}
	limit, err := parseIntParam(q, "limit", report.DefaultTopLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}
	logReport(r, "full", applog.OpExport, start, end, nil)

	f, err := xlsx.FullWorkbook(rows, xlsx.ExportOptions{
		Start:         start,
		End:           end,
		MaxUpper:      maxUpper,
		Thresholds:    thresholds,
		TopLimit:      limit,
		ExcludeSingle: parseBoolParam(q, "exclude_single"),
	})
	if err != nil {
		writeReportError(w, err)
		return
	}
	writeWorkbook(w, f, fmt.Sprintf("report_%s_%s.xlsx", start, end))
}
