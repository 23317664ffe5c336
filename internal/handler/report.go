package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/phumzea/reports/internal/mailer"
	"github.com/phumzea/reports/internal/media"
	"github.com/phumzea/reports/internal/model"
	"github.com/phumzea/reports/internal/report"
)

// MaxFiles is the most files accepted in one submission.
const MaxFiles = 5

const maxFieldLength = 10000

// formOverhead leaves room for text fields and multipart framing on top of
// MaxFiles full-size uploads.
const formOverhead = 1 << 20

// maxFormMemory is held in memory while parsing; larger parts spill to disk.
const maxFormMemory = 32 << 20

var errTooManyFiles = errors.New("too many files")

type reportSubmitter interface {
	Send(ctx context.Context, fields model.ReportFields) report.SubmissionResult
	SendWithAttachments(ctx context.Context, fields model.ReportFields, files []model.FileHandle) report.SubmissionResult
}

// ReportHandler accepts bug report submissions.
type ReportHandler struct {
	BaseHandler
	submitter   reportSubmitter
	maxBodySize int64
}

// NewReportHandler caps request bodies at maxUploadSizeMB, raised if needed so
// that MaxFiles files at media.MaxFileSize always fit.
func NewReportHandler(logger *slog.Logger, submitter reportSubmitter, maxUploadSizeMB int) *ReportHandler {
	return &ReportHandler{
		BaseHandler: BaseHandler{Logger: logger},
		submitter:   submitter,
		maxBodySize: bodyLimit(maxUploadSizeMB),
	}
}

func bodyLimit(maxUploadSizeMB int) int64 {
	return max(int64(maxUploadSizeMB)<<20, MaxFiles*media.MaxFileSize+formOverhead)
}

// Submit validates the uploaded files and sends the report.
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	fields := extractFields(r)
	if fields.Description == "" {
		h.badRequestResponse(w, r, "description is required")
		return
	}

	files, err := h.formFiles(r)
	if err != nil {
		h.badRequestResponse(w, r, err.Error())
		return
	}

	if problems := media.Validate(files); len(problems) > 0 {
		_ = h.writeJSON(w, http.StatusUnprocessableEntity, envelope{"errors": problems}, nil)
		return
	}

	var result report.SubmissionResult
	if len(files) == 0 {
		result = h.submitter.Send(r.Context(), fields)
	} else {
		result = h.submitter.SendWithAttachments(r.Context(), fields, files)
	}

	if !result.Success {
		// Log the cause, do not expose it to the reporter.
		h.logError(r, result.Err)
		_ = h.writeJSON(w, http.StatusBadGateway, envelope{
			"success":  false,
			"reportId": result.ID,
			"error":    "submission failed, please try again",
		}, nil)
		return
	}

	_ = h.writeJSON(w, http.StatusAccepted, envelope{
		"success":         true,
		"reportId":        result.ID,
		"attachmentCount": len(result.Attachments),
		"attachmentsSent": min(len(result.Attachments), mailer.MaxAttachments),
	}, nil)
}

// Validate reports file policy violations without sending anything.
func (h *ReportHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	files, err := h.formFiles(r)
	if err != nil {
		h.badRequestResponse(w, r, err.Error())
		return
	}

	_ = h.writeJSON(w, http.StatusOK, envelope{"errors": media.Validate(files)}, nil)
}

func (h *ReportHandler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorResponse(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request too large (max %s)", humanize.IBytes(uint64(tooLarge.Limit))))
			return false
		}
		h.badRequestResponse(w, r, "invalid form")
		return false
	}
	return true
}

func (h *ReportHandler) formFiles(r *http.Request) ([]model.FileHandle, error) {
	headers := r.MultipartForm.File["attachments"]
	if len(headers) > MaxFiles {
		return nil, errTooManyFiles
	}

	files := make([]model.FileHandle, 0, len(headers))
	for _, fh := range headers {
		f, err := newFormFile(fh)
		if err != nil {
			h.Logger.Warn("report: unreadable upload", "name", fh.Filename, "err", err)
			return nil, errors.New("error processing attachments")
		}
		files = append(files, f)
	}
	return files, nil
}

func extractFields(r *http.Request) model.ReportFields {
	return model.ReportFields{
		Username:    sanitizeInput(r.FormValue("username")),
		BugType:     sanitizeInput(r.FormValue("bug_type")),
		Description: sanitizeInput(r.FormValue("description")),
	}
}

// sanitizeInput trims whitespace and caps the length. The text is otherwise
// passed through as typed.
func sanitizeInput(s string) string {
	return truncate(strings.TrimSpace(s), maxFieldLength)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
