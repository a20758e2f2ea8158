package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/lychee-technology/rhizo"
	"github.com/lychee-technology/rhizo/factory"
	"go.uber.org/zap"
)

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleBridge handles POST /api/v1/bridge. The body is a JSON object or
// an array of objects; each one is bridged into a native record.
func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read body: %v", err))
		return
	}

	items, isSingleObject, err := splitJSONObjects(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "empty array not allowed")
		return
	}

	records := make([]rhizo.NativeRecord, len(items))
	for i, item := range items {
		record, err := s.texts.Bridge(string(item))
		if err != nil {
			writeRhizoError(w, fmt.Errorf("object %d: %w", i, err))
			return
		}
		records[i] = record
	}

	if isSingleObject {
		writeSuccess(w, http.StatusOK, records[0])
		return
	}
	writeSuccess(w, http.StatusOK, records)
}

// handleSchema handles POST /api/v1/schema. The body carries a model type
// and a meta model; the response is the JSON Schema of its records.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var ds rhizo.Dataset
	if err := readJSONBody(r, &ds); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}
	if ds.ModelType == "" {
		writeError(w, http.StatusBadRequest, "modelType is required")
		return
	}

	writeSuccess(w, http.StatusOK, factory.JSONSchema(&ds))
}

// handleExport handles POST /api/v1/datasets. Records without an id get
// one before the dataset is handed to the exporter.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var ds rhizo.Dataset
	if err := readJSONBody(r, &ds); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}
	if ds.ModelType == "" {
		writeError(w, http.StatusBadRequest, "modelType is required")
		return
	}
	if len(ds.Records) == 0 {
		writeError(w, http.StatusBadRequest, "records must not be empty")
		return
	}
	if ds.MetaModel == nil {
		ds.MetaModel = rhizo.NewMetaModel()
	}

	for i, raw := range ds.Records {
		record, err := s.objects.Bridge(map[string]any(raw))
		if err != nil {
			writeRhizoError(w, fmt.Errorf("record %d: %w", i, err))
			return
		}
		ds.Records[i] = record
	}

	if err := s.exporter.Export(r.Context(), &ds); err != nil {
		zap.S().Warnw("dataset export failed", "model", ds.ModelType, "records", ds.Len(), "error", err)
		writeRhizoError(w, err)
		return
	}

	writeSuccess(w, http.StatusAccepted, map[string]any{
		"modelType": ds.ModelType,
		"records":   ds.Len(),
	})
}
