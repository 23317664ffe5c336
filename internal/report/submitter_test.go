package report

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phumzea/reports/internal/mailer"
	"github.com/phumzea/reports/internal/media"
	"github.com/phumzea/reports/internal/model"
)

type sentRequest struct {
	serviceID  string
	templateID string
	params     mailer.Params
}

type stubTransport struct {
	mu   sync.Mutex
	sent []sentRequest
	resp *mailer.Response
	err  error
}

func (s *stubTransport) Send(_ context.Context, serviceID, templateID string, params mailer.Params) (*mailer.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentRequest{serviceID: serviceID, templateID: templateID, params: params})
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *stubTransport) last(t *testing.T) sentRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) != 1 {
		t.Fatalf("expected exactly one transport call, got %d", len(s.sent))
	}
	return s.sent[0]
}

type unreadableFile struct{ name string }

func (f unreadableFile) Name() string                 { return f.name }
func (f unreadableFile) ContentType() string          { return "image/png" }
func (f unreadableFile) Size() int64                  { return 4 }
func (f unreadableFile) Open() (io.ReadCloser, error) { return nil, errors.New("permission denied") }

type bigFile struct{ name string }

func (f bigFile) Name() string        { return f.name }
func (f bigFile) ContentType() string { return "video/mp4" }
func (f bigFile) Size() int64         { return media.MaxFileSize + 1 }
func (f bigFile) Open() (io.ReadCloser, error) {
	return nil, errors.New("oversized files must not be opened")
}

var testFields = model.ReportFields{Username: "a", BugType: "crash", Description: "x"}

func newTestSubmitter(tr mailer.Transport) *Submitter {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewSubmitter(tr, media.NewEncoder(logger), Config{
		ServiceID:   "service_bugs",
		TemplateID:  "template_bug_report",
		Destination: "triage@example.org",
		Location:    time.UTC,
	}, logger)
	s.now = func() time.Time { return time.Date(2026, 3, 7, 15, 4, 5, 0, time.UTC) }
	return s
}

func TestSendSuccess(t *testing.T) {
	want := &mailer.Response{Status: 200, Text: "OK"}
	tr := &stubTransport{resp: want}

	res := newTestSubmitter(tr).Send(context.Background(), testFields)
	if !res.Success {
		t.Fatalf("expected success, got error %v", res.Err)
	}
	if res.Response != want {
		t.Errorf("expected stub response, got %+v", res.Response)
	}
	if res.Err != nil || res.ID == "" {
		t.Errorf("unexpected result: %+v", res)
	}

	req := tr.last(t)
	if req.serviceID != "service_bugs" || req.templateID != "template_bug_report" {
		t.Errorf("unexpected ids: %s %s", req.serviceID, req.templateID)
	}

	cases := []struct {
		key  string
		want any
	}{
		{mailer.ParamToEmail, "triage@example.org"},
		{mailer.ParamUsername, "a"},
		{mailer.ParamBugType, "crash"},
		{mailer.ParamDescription, "x"},
		{mailer.ParamTimestamp, "3/7/2026, 3:04:05 PM"},
		{mailer.ParamReportID, res.ID},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			if got := req.params[tc.key]; got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}

	attachments, ok := req.params[mailer.ParamAttachments].([]model.EncodedAttachment)
	if !ok || len(attachments) != 0 {
		t.Errorf("expected an empty attachments list, got %#v", req.params[mailer.ParamAttachments])
	}
}

func TestSendTransportFailure(t *testing.T) {
	stubErr := errors.New("rate limited")
	tr := &stubTransport{err: stubErr}

	res := newTestSubmitter(tr).Send(context.Background(), testFields)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Err != stubErr {
		t.Errorf("expected stub error, got %v", res.Err)
	}
	if res.Response != nil {
		t.Errorf("expected no response, got %+v", res.Response)
	}
}

func TestSendWithAttachmentsTransmitsFirstOnly(t *testing.T) {
	tr := &stubTransport{resp: &mailer.Response{Status: 200, Text: "OK"}}
	files := []model.FileHandle{
		model.NewFile("first.png", "image/png", []byte("one")),
		model.NewFile("second.gif", "image/gif", []byte("two")),
		model.NewFile("third.webm", "video/webm", []byte("three")),
	}

	res := newTestSubmitter(tr).SendWithAttachments(context.Background(), testFields, files)
	if !res.Success {
		t.Fatalf("expected success, got %v", res.Err)
	}
	if len(res.Attachments) != 3 {
		t.Fatalf("expected 3 encoded attachments, got %d", len(res.Attachments))
	}

	params := tr.last(t).params
	if params[mailer.ParamHasAttachments] != true {
		t.Errorf("expected has_attachments true, got %v", params[mailer.ParamHasAttachments])
	}
	if params[mailer.ParamAttachmentCount] != 3 {
		t.Errorf("expected attachment_count 3, got %v", params[mailer.ParamAttachmentCount])
	}
	if params[mailer.ParamAttachment] != media.DataURI("image/png", []byte("one")) {
		t.Errorf("unexpected attachment payload: %v", params[mailer.ParamAttachment])
	}
	if params[mailer.ParamAttachmentName] != "first.png" {
		t.Errorf("unexpected attachment name: %v", params[mailer.ParamAttachmentName])
	}
	for _, key := range []string{"attachment2", "attachment2_name", "attachment3", mailer.ParamAttachments} {
		if _, ok := params[key]; ok {
			t.Errorf("unexpected parameter %s", key)
		}
	}
}

func TestSendWithAttachmentsAllOversized(t *testing.T) {
	tr := &stubTransport{resp: &mailer.Response{Status: 200}}
	files := []model.FileHandle{bigFile{"a.mp4"}, bigFile{"b.mp4"}}

	res := newTestSubmitter(tr).SendWithAttachments(context.Background(), testFields, files)
	if !res.Success {
		t.Fatalf("expected success, got %v", res.Err)
	}
	if len(res.Attachments) != 0 || res.EncodeErr != nil {
		t.Errorf("expected silent skip, got %+v", res)
	}

	params := tr.last(t).params
	if params[mailer.ParamHasAttachments] != false {
		t.Errorf("expected has_attachments false, got %v", params[mailer.ParamHasAttachments])
	}
	if params[mailer.ParamAttachmentCount] != 0 {
		t.Errorf("expected attachment_count 0, got %v", params[mailer.ParamAttachmentCount])
	}
	for _, key := range []string{mailer.ParamAttachment, mailer.ParamAttachmentName} {
		if _, ok := params[key]; ok {
			t.Errorf("expected %s to be omitted", key)
		}
	}
}

func TestSendWithAttachmentsKeepsAttachmentsOnFailure(t *testing.T) {
	stubErr := errors.New("payload too large")
	tr := &stubTransport{err: stubErr}
	files := []model.FileHandle{model.NewFile("a.png", "image/png", []byte("a"))}

	res := newTestSubmitter(tr).SendWithAttachments(context.Background(), testFields, files)
	if res.Success || res.Err != stubErr {
		t.Fatalf("expected stub failure, got %+v", res)
	}
	if len(res.Attachments) != 1 {
		t.Errorf("expected encoded attachments in the result, got %d", len(res.Attachments))
	}
}

func TestSendWithAttachmentsIsolatesUnreadableFile(t *testing.T) {
	tr := &stubTransport{resp: &mailer.Response{Status: 200}}
	files := []model.FileHandle{
		unreadableFile{"locked.png"},
		model.NewFile("ok.png", "image/png", []byte("ok")),
	}

	res := newTestSubmitter(tr).SendWithAttachments(context.Background(), testFields, files)
	if !res.Success {
		t.Fatalf("expected success, got %v", res.Err)
	}
	var fileErr *media.FileError
	if !errors.As(res.EncodeErr, &fileErr) || fileErr.Name != "locked.png" {
		t.Errorf("expected locked.png in EncodeErr, got %v", res.EncodeErr)
	}
	if params := tr.last(t).params; params[mailer.ParamAttachmentName] != "ok.png" {
		t.Errorf("expected ok.png to be sent, got %v", params[mailer.ParamAttachmentName])
	}
}

func TestSendWithAttachmentsCancelled(t *testing.T) {
	tr := &stubTransport{resp: &mailer.Response{Status: 200}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestSubmitter(tr).SendWithAttachments(ctx, testFields,
		[]model.FileHandle{model.NewFile("a.png", "image/png", []byte("a"))})
	if res.Success || !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("expected cancellation, got %+v", res)
	}
	if len(tr.sent) != 0 {
		t.Error("transport must not be called before encoding settles")
	}
}

func TestConcurrentSendsAreIndependent(t *testing.T) {
	tr := &stubTransport{resp: &mailer.Response{Status: 200}}
	s := newTestSubmitter(tr)

	const n = 8
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i] = s.Send(context.Background(), testFields).ID
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate report id %s", id)
		}
		seen[id] = true
	}
	if len(tr.sent) != n {
		t.Errorf("expected %d transport calls, got %d", n, len(tr.sent))
	}
}

func TestTransportFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	s := NewSubmitter(&stubTransport{err: errors.New("boom")}, nil, Config{}, logger)

	s.Send(context.Background(), testFields)
	if !bytes.Contains(logs.Bytes(), []byte("email sending failed")) {
		t.Errorf("expected error log, got: %s", logs.String())
	}
}
