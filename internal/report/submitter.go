package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phumzea/reports/internal/mailer"
	"github.com/phumzea/reports/internal/media"
	"github.com/phumzea/reports/internal/model"
)

// DefaultTimestampLayout renders times the way an en-US browser locale does.
const DefaultTimestampLayout = "1/2/2006, 3:04:05 PM"

type Config struct {
	ServiceID       string
	TemplateID      string
	Destination     string
	TimestampLayout string
	Location        *time.Location
}

// SubmissionResult is the outcome of one submission. Transport failures are
// reported through Err with Success false; they are never returned as Go
// errors.
type SubmissionResult struct {
	ID          string
	Success     bool
	Response    *mailer.Response
	Err         error
	Attachments []model.EncodedAttachment
	// EncodeErr lists files that could not be read. They were left out of
	// Attachments but did not stop the send.
	EncodeErr error
}

// Submitter turns bug reports into a single transport call each. It holds
// no per-call state and is safe for concurrent use.
type Submitter struct {
	transport mailer.Transport
	encoder   *media.Encoder
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

func NewSubmitter(transport mailer.Transport, encoder *media.Encoder, cfg Config, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	if encoder == nil {
		encoder = media.NewEncoder(logger)
	}
	if cfg.TimestampLayout == "" {
		cfg.TimestampLayout = DefaultTimestampLayout
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Submitter{
		transport: transport,
		encoder:   encoder,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Send submits a report without attachments.
func (s *Submitter) Send(ctx context.Context, fields model.ReportFields) SubmissionResult {
	id := uuid.NewString()
	params := s.baseParams(id, fields)
	params[mailer.ParamAttachments] = []model.EncodedAttachment{}

	resp, err := s.transport.Send(ctx, s.cfg.ServiceID, s.cfg.TemplateID, params)
	if err != nil {
		s.logger.Error("report: email sending failed", "report_id", id, "err", err)
		return SubmissionResult{ID: id, Err: err}
	}

	s.logger.Info("report: sent", "report_id", id, "bug_type", fields.BugType)
	return SubmissionResult{ID: id, Success: true, Response: resp}
}

// SendWithAttachments encodes files, then submits the report with the first
// encoded file attached. Every encoded file is returned in the result
// whatever the transport outcome.
func (s *Submitter) SendWithAttachments(ctx context.Context, fields model.ReportFields, files []model.FileHandle) SubmissionResult {
	id := uuid.NewString()

	attachments, encodeErr := s.encoder.EncodeAll(ctx, files)
	if errors.Is(encodeErr, context.Canceled) || errors.Is(encodeErr, context.DeadlineExceeded) {
		s.logger.Warn("report: encoding interrupted", "report_id", id, "err", encodeErr)
		return SubmissionResult{ID: id, Err: encodeErr, Attachments: attachments}
	}
	if encodeErr != nil {
		s.logger.Warn("report: some attachments could not be read", "report_id", id, "err", encodeErr)
	}

	params := s.baseParams(id, fields)
	params[mailer.ParamHasAttachments] = len(attachments) > 0
	params[mailer.ParamAttachmentCount] = len(attachments)
	if len(attachments) > 0 {
		params[mailer.ParamAttachment] = attachments[0].Data
		params[mailer.ParamAttachmentName] = attachments[0].Name
	}
	if len(attachments) > mailer.MaxAttachments {
		s.logger.Debug("report: extra attachments counted but not sent",
			"report_id", id, "count", len(attachments), "sent", mailer.MaxAttachments)
	}

	resp, err := s.transport.Send(ctx, s.cfg.ServiceID, s.cfg.TemplateID, params)
	if err != nil {
		s.logger.Error("report: email with attachments failed", "report_id", id, "err", err)
		return SubmissionResult{ID: id, Err: err, Attachments: attachments, EncodeErr: encodeErr}
	}

	s.logger.Info("report: sent", "report_id", id, "bug_type", fields.BugType, "attachments", len(attachments))
	return SubmissionResult{
		ID:          id,
		Success:     true,
		Response:    resp,
		Attachments: attachments,
		EncodeErr:   encodeErr,
	}
}

func (s *Submitter) baseParams(id string, fields model.ReportFields) mailer.Params {
	return mailer.Params{
		mailer.ParamToEmail:     s.cfg.Destination,
		mailer.ParamReportID:    id,
		mailer.ParamUsername:    fields.Username,
		mailer.ParamBugType:     fields.BugType,
		mailer.ParamDescription: fields.Description,
		mailer.ParamTimestamp:   s.now().In(s.cfg.Location).Format(s.cfg.TimestampLayout),
	}
}
