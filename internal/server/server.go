package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/finance-dashboard/internal/config"
	"github.com/iwvelando/finance-dashboard/internal/merges"
	"github.com/iwvelando/finance-dashboard/internal/report"
	"github.com/iwvelando/finance-dashboard/internal/sheets"
	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/delta"
	"github.com/iwvelando/finance-dashboard/pkg/entity"
	"github.com/iwvelando/finance-dashboard/pkg/output"
	"github.com/iwvelando/finance-dashboard/pkg/period"
	"github.com/iwvelando/finance-dashboard/pkg/table"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	defaults      *config.Configuration
	store         merges.Store
}

// NewHandler constructs the HTTP handler that serves the dashboard API.
//
// defaults supplies divisions, periods and report settings for uploads that
// do not carry their own configuration; store supplies confirmed merges.
// Either may be nil.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, defaults *config.Configuration, store merges.Store) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	if defaults == nil {
		defaults = &config.Configuration{}
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		defaults:      defaults,
		store:         store,
	}

	mux := http.NewServeMux()

	// Dashboard API endpoint (workbook upload)
	mux.HandleFunc("/api/report", h.handleReport)

	// Sheet listing for an uploaded workbook
	mux.HandleFunc("/api/sheets", h.handleSheets)

	// Default configuration, as YAML
	mux.HandleFunc("/api/config", h.handleConfig)

	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

type reportResponse struct {
	Dashboard *report.Dashboard `json:"dashboard"`
	CSV       string            `json:"csv"`
	Warnings  []string          `json:"warnings,omitempty"`
	Duration  string            `json:"duration"`
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	provider, ok := h.readWorkbook(w, r, op)
	if !ok {
		return
	}

	cfg, err := h.requestConfiguration(r)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err), op)
		return
	}
	warnings := cfg.ValidateConfiguration()

	division, err := cfg.SelectedDivision()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	confirmed, err := h.confirmedGroups(r)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to load merges: %v", err), op)
		return
	}

	dashboard, err := report.Build(h.logger, provider, division, cfg.Periods, confirmed, cfg.Report.TopN)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), fmt.Sprintf("failed to build report: %v", err), op)
		return
	}

	csvData, err := output.CsvString(dashboard, output.Options{
		Decimals:      cfg.Report.Decimals,
		InfiniteStyle: delta.InfiniteStyle(cfg.Report.InfiniteStyle),
	})
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("report computed",
		zap.String("op", op),
		zap.String("division", dashboard.Division),
		zap.Int("periods", len(cfg.Periods)),
		zap.Int("rankings", len(dashboard.Rankings)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, reportResponse{
		Dashboard: dashboard,
		CSV:       csvData,
		Warnings:  warnings,
		Duration:  elapsed.String(),
	})
}

func (h *handler) handleSheets(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSheets"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	provider, ok := h.readWorkbook(w, r, op)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"sheets": provider.Sheets()})
}

func (h *handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	data, err := yaml.Marshal(h.defaults)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode configuration: %v", err), "server.handleConfig")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"configYaml": string(data)})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// readWorkbook parses the multipart upload and opens its "file" part as a
// workbook. It writes the error response itself and reports false on failure.
func (h *handler) readWorkbook(w http.ResponseWriter, r *http.Request, op string) (*sheets.ExcelProvider, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return nil, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing workbook file", op)
		return nil, false
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	provider, err := sheets.OpenReader(h.logger, file, header.Filename)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read workbook: %v", err), op)
		return nil, false
	}
	return provider, true
}

// requestConfiguration returns the configuration for one request: the
// uploaded "config" field layered over the server defaults, with the
// "division" field selecting the division when present.
func (h *handler) requestConfiguration(r *http.Request) (*config.Configuration, error) {
	cfg := *h.defaults

	if raw := strings.TrimSpace(r.FormValue("config")); raw != "" {
		uploaded, err := config.LoadConfigurationFromReader(strings.NewReader(raw))
		if err != nil {
			return nil, err
		}
		cfg = mergeConfiguration(h.defaults, uploaded)
	}

	if division := strings.TrimSpace(r.FormValue("division")); division != "" {
		cfg.Report.Division = division
	}
	return &cfg, nil
}

// mergeConfiguration fills the sections missing from uploaded with those of
// defaults.
func mergeConfiguration(defaults, uploaded *config.Configuration) config.Configuration {
	cfg := *uploaded
	if len(cfg.Divisions) == 0 {
		cfg.Divisions = defaults.Divisions
	}
	if len(cfg.Periods) == 0 {
		cfg.Periods = append([]period.Spec(nil), defaults.Periods...)
	}
	if cfg.Report.Division == "" {
		cfg.Report.Division = defaults.Report.Division
	}
	if cfg.MergesFile == "" {
		cfg.MergesFile = defaults.MergesFile
	}
	return cfg
}

// confirmedGroups combines merges uploaded with the request, which win, with
// those of the configured store.
func (h *handler) confirmedGroups(r *http.Request) ([]entity.ConfirmedGroup, error) {
	var groups []entity.ConfirmedGroup
	if raw := strings.TrimSpace(r.FormValue("merges")); raw != "" {
		uploaded, err := merges.Parse([]byte(raw))
		if err != nil {
			return nil, err
		}
		groups = append(groups, uploaded...)
	}
	if h.store != nil {
		stored, err := h.store.Load()
		if err != nil {
			return nil, err
		}
		groups = append(groups, stored...)
	}
	return groups, nil
}

// statusFor maps report errors caused by the uploaded workbook or
// configuration to 400 and everything else to 500.
func statusFor(err error) int {
	var shapeErr *table.ShapeError
	switch {
	case errors.Is(err, sheets.ErrSheetNotFound),
		errors.Is(err, period.ErrEmptyCustomRange),
		errors.As(err, &shapeErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("report request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
