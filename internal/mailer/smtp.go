package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-gomail/gomail"
	"github.com/phumzea/reports/internal/media"
)

type SMTPConfig struct {
	Host        string
	Port        int
	User        string
	Pass        string
	FromAddress string
	FromName    string

	// BodyTemplate overrides DefaultBodyTemplate.
	BodyTemplate string
}

// SMTPTransport renders the bug report template parameters into a plain text
// email and delivers it over SMTP. It can be used in place of a hosted
// template API.
type SMTPTransport struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
	sendFn func(m *gomail.Message) error
}

func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	t := &SMTPTransport{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
	}
	t.sendFn = func(m *gomail.Message) error {
		return t.dialer.DialAndSend(m)
	}
	return t
}

// Send builds and delivers the message. serviceID and templateID are kept in
// an X-Report-Template header.
func (t *SMTPTransport) Send(ctx context.Context, serviceID, templateID string, params Params) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := t.buildMessage(params)
	if err != nil {
		return nil, err
	}
	m.SetHeader("X-Report-Template", serviceID+"/"+templateID)

	if err := t.sendFn(m); err != nil {
		return nil, fmt.Errorf("mailer: smtp send: %w", err)
	}
	return &Response{Status: 250, Text: "OK"}, nil
}

// Ping dials the SMTP server and closes the connection.
func (t *SMTPTransport) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s, err := t.dialer.Dial()
	if err != nil {
		return fmt.Errorf("mailer: smtp dial: %w", err)
	}
	return s.Close()
}

func (t *SMTPTransport) buildMessage(params Params) (*gomail.Message, error) {
	to := stringParam(params, ParamToEmail)
	if to == "" {
		return nil, errors.New("mailer: missing " + ParamToEmail + " parameter")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", t.cfg.FromAddress, t.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Bug report: %s from %s",
		valueOrDefault(stringParam(params, ParamBugType)),
		valueOrDefault(stringParam(params, ParamUsername))))
	m.SetBody("text/plain", t.renderBody(params))

	if uri := stringParam(params, ParamAttachment); uri != "" {
		contentType, data, err := media.DecodeDataURI(uri)
		if err != nil {
			return nil, fmt.Errorf("mailer: attachment: %w", err)
		}
		name := stringParam(params, ParamAttachmentName)
		if name == "" {
			name = "attachment"
		}
		m.Attach(name,
			gomail.SetHeader(map[string][]string{"Content-Type": {contentType}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		)
	}
	return m, nil
}

func (t *SMTPTransport) renderBody(params Params) string {
	tmpl := t.cfg.BodyTemplate
	if tmpl == "" {
		tmpl = DefaultBodyTemplate
	}

	values := make(Params, len(params)+1)
	values[ParamAttachmentCount] = 0
	for k, v := range params {
		values[k] = v
	}
	return RenderTemplate(tmpl, values)
}

// valueOrDefault returns the value or "Not provided"
func valueOrDefault(s string) string {
	if s == "" {
		return "Not provided"
	}
	return s
}
