package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/tabletinfo/internal/ingest"
	"github.com/vbonduro/tabletinfo/internal/service"
)

// maxUploadSize bounds the whole multipart body: the image plus the hint and
// multipart framing.
const maxUploadSize = ingest.MaxImageSize + 1<<20

const msgAnalysisFailed = "Could not analyse the image. Please try again."

var pageFiles = []string{"base.html", "pages/index.html", "partials/report.html"}

type indexPage struct {
	Mode   string
	Report *service.Report
}

// uploadError carries the HTTP status for a rejected upload.
type uploadError struct {
	status int
	msg    string
}

func (e *uploadError) Error() string { return e.msg }

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	if err := s.renderPage(w, http.StatusOK, indexPage{Mode: s.service.Mode()}, pageFiles...); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// handleAnalyze runs one submission from the browser form. htmx requests get
// only the report fragment; plain form posts get the whole page back.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	htmx := r.Header.Get("HX-Request") == "true"

	sub, err := s.readSubmission(w, r)
	if err != nil {
		status, msg := http.StatusInternalServerError, "failed to read upload"
		var ue *uploadError
		if errors.As(err, &ue) {
			status, msg = ue.status, ue.msg
		} else {
			s.logger.Error("read upload failed", "error", err)
		}
		s.failAnalyze(w, htmx, status, msg)
		return
	}

	report, err := s.service.Submit(r.Context(), sub)
	if err != nil {
		s.logger.Error("analysis failed", "error", err)
		s.failAnalyze(w, htmx, submitStatus(err), msgAnalysisFailed)
		return
	}

	if htmx {
		s.renderReport(w, report)
		return
	}
	page := indexPage{Mode: s.service.Mode(), Report: report}
	if err := s.renderPage(w, http.StatusOK, page, pageFiles...); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// failAnalyze answers a failed browser submission. htmx only swaps 2xx
// responses, so htmx requests get the report fragment with the message as its
// notice; plain form posts get the status code.
func (s *Server) failAnalyze(w http.ResponseWriter, htmx bool, status int, msg string) {
	if htmx {
		s.renderReport(w, &service.Report{State: service.StateIdle, Notice: msg})
		return
	}
	http.Error(w, msg, status)
}

func (s *Server) renderReport(w http.ResponseWriter, report *service.Report) {
	if err := s.renderPartial(w, "partials/report.html", report); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

type apiError struct {
	Error string `json:"error"`
}

// handleAPIAnalyze accepts the same multipart form as handleAnalyze and
// answers with the report as JSON.
func (s *Server) handleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	sub, err := s.readSubmission(w, r)
	if err != nil {
		var ue *uploadError
		if errors.As(err, &ue) {
			s.writeJSON(w, ue.status, apiError{Error: ue.msg})
			return
		}
		s.logger.Error("read upload failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to read upload"})
		return
	}

	report, err := s.service.Submit(r.Context(), sub)
	if err != nil {
		s.logger.Error("analysis failed", "error", err)
		s.writeJSON(w, submitStatus(err), apiError{Error: msgAnalysisFailed})
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// readSubmission parses the multipart form. A form without a file is not an
// error: the service answers it with the upload notice.
func (s *Server) readSubmission(w http.ResponseWriter, r *http.Request) (service.Submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return service.Submission{}, &uploadError{status: http.StatusRequestEntityTooLarge, msg: "image too large"}
		}
		return service.Submission{}, &uploadError{status: http.StatusBadRequest, msg: "failed to parse form"}
	}

	sub := service.Submission{Hint: r.FormValue("hint")}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return sub, nil
	}
	if err != nil {
		return service.Submission{}, &uploadError{status: http.StatusBadRequest, msg: "failed to read image field"}
	}
	defer closeWithLog(file, "upload file", s.logger)

	payload, err := ingest.FromMultipart(file, header)
	if errors.Is(err, ingest.ErrTooLarge) {
		return service.Submission{}, &uploadError{status: http.StatusRequestEntityTooLarge, msg: "image too large"}
	}
	if err != nil {
		return service.Submission{}, err
	}

	mimeType, ok := ingest.DetectMIME(payload.Data())
	if !ok {
		return service.Submission{}, &uploadError{status: http.StatusBadRequest, msg: "unsupported image format"}
	}
	if payload.MIMEType() != mimeType {
		s.logger.Debug("declared content type overridden", "declared", payload.MIMEType(), "detected", mimeType)
		payload = payload.WithMIMEType(mimeType)
	}
	sub.Image = payload
	return sub, nil
}

// submitStatus maps a Submit error to a response status. Failures of the
// extraction backend are upstream failures.
func submitStatus(err error) int {
	if errors.Is(err, service.ErrModelRequestFailed) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write json failed", "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
