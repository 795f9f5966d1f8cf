package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/medintake/form-extractor/constants"
	"github.com/medintake/form-extractor/internal/acquire"
	"github.com/medintake/form-extractor/internal/async"
	"github.com/medintake/form-extractor/internal/common"
	"github.com/medintake/form-extractor/internal/pipeline"
	"github.com/medintake/form-extractor/internal/store"
)

type extractResponse struct {
	Status        string             `json:"status"`
	RunID         string             `json:"run_id"`
	Data          map[string]any     `json:"data,omitempty"`
	ScreenshotURL string             `json:"screenshot_url,omitempty"`
	Stage         constants.Stage    `json:"stage,omitempty"`
	Reason        string             `json:"reason,omitempty"`
	Violations    []common.Violation `json:"violations,omitempty"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Healthcare Form Data Extraction API",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadMB<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload: "+err.Error())
		return
	}
	defer file.Close()

	media := constants.MapExtToMediaType(filepath.Ext(header.Filename))
	if media == "" {
		writeError(w, http.StatusBadRequest, "unsupported file type: "+filepath.Ext(header.Filename))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	id := uuid.New().String()
	if err := s.saveUpload(id, header.Filename, data); err != nil {
		s.logger.Error("upload.save_failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "save upload")
		return
	}

	out, err := s.queue.Submit(r.Context(), acquire.Document{
		Data:  data,
		Media: media,
		Name:  header.Filename,
	})
	if err != nil {
		if errors.Is(err, async.ErrQueueClosed) {
			writeError(w, http.StatusServiceUnavailable, "server is shutting down")
			return
		}
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	resp := extractResponse{
		RunID:      out.RunID,
		Stage:      out.Stage,
		Reason:     out.Reason,
		Violations: out.Violations,
	}
	status := http.StatusUnprocessableEntity
	if out.OK {
		resp.Status = "ok"
		resp.Data = out.Record
		status = http.StatusOK
		if path, rerr := s.renderer.Render(r.Context(), out.Record, id); rerr != nil {
			// rendering is best-effort; the extraction result stands on its own
			s.logger.Warn("render.failed", "id", id, "error", rerr)
		} else if path != "" {
			resp.ScreenshotURL = "/screenshots/" + filepath.Base(path)
		}
	} else {
		resp.Status = "error"
	}

	s.recordRun(r, id, header.Filename, media, out, resp.ScreenshotURL)
	writeJSON(w, status, resp)
}

func (s *Server) handleListExtractions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "history store disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("history.list_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list extractions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"extractions": runs})
}

func (s *Server) handleExportExtractions(w http.ResponseWriter, r *http.Request) {
	if s.export == nil {
		writeError(w, http.StatusNotFound, "export disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	b, err := s.export.ExtractionsXLSX(r.Context(), limit)
	if err != nil {
		s.logger.Error("history.export_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export extractions")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="extractions.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// saveUpload keeps the raw document under a UUID name in the uploads dir;
// the pipeline itself only ever sees the in-memory bytes.
func (s *Server) saveUpload(id, filename string, data []byte) error {
	path := filepath.Join(s.cfg.Paths.UploadDir, id+filepath.Ext(filename))
	return os.WriteFile(path, data, 0o644)
}

func (s *Server) recordRun(r *http.Request, id, filename string, media constants.MediaType, out pipeline.Outcome, screenshotURL string) {
	if s.store == nil {
		return
	}
	e := store.Extraction{
		ID:             id,
		Filename:       filename,
		Media:          media,
		Status:         constants.RunStatusOK,
		Stage:          out.Stage,
		Reason:         out.Reason,
		ScreenshotPath: screenshotURL,
	}
	if !out.OK {
		e.Status = constants.RunStatusFailed
	} else if b, err := json.Marshal(out.Record); err == nil {
		e.RecordJSON = string(b)
	}
	if err := s.store.Record(r.Context(), e); err != nil {
		s.logger.Warn("history.record_failed", "id", id, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": "error", "reason": msg})
}
