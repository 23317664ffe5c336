package mailer

import "context"

// MaxAttachments is the number of encoded files a single request can carry.
// Hosted template APIs cap the request payload at a size that fits one
// encoded file, so further attachments are counted but not transmitted.
const MaxAttachments = 1

// Template parameter names understood by the bug report template.
const (
	ParamToEmail         = "to_email"
	ParamReportID        = "report_id"
	ParamUsername        = "username"
	ParamBugType         = "bug_type"
	ParamDescription     = "description"
	ParamTimestamp       = "timestamp"
	ParamAttachments     = "attachments"
	ParamHasAttachments  = "has_attachments"
	ParamAttachmentCount = "attachment_count"
	ParamAttachment      = "attachment1"
	ParamAttachmentName  = "attachment1_name"
)

// Params are the template variables sent with a request.
type Params map[string]any

// Response is what the transport reported for an accepted request.
type Response struct {
	Status int    `json:"status"`
	Text   string `json:"text"`
}

// Transport delivers a templated email. Implementations do not retry.
type Transport interface {
	Send(ctx context.Context, serviceID, templateID string, params Params) (*Response, error)
}

// Pinger is implemented by transports that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

func stringParam(params Params, key string) string {
	s, _ := params[key].(string)
	return s
}
