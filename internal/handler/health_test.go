package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phumzea/reports/internal/mailer"
)

type plainTransport struct{}

func (plainTransport) Send(context.Context, string, string, mailer.Params) (*mailer.Response, error) {
	return &mailer.Response{Status: 200}, nil
}

type pingTransport struct {
	plainTransport
	err error
}

func (p pingTransport) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	cases := []struct {
		name      string
		transport mailer.Transport
		code      int
		status    string
	}{
		{"no ping support", plainTransport{}, http.StatusOK, "ok"},
		{"ping ok", pingTransport{}, http.StatusOK, "ok"},
		{"ping fails", pingTransport{err: errors.New("refused")}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Health(tc.transport)(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
			if rr.Code != tc.code {
				t.Errorf("expected status %d, got %d", tc.code, rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tc.status) {
				t.Errorf("expected %q in body, got %s", tc.status, rr.Body.String())
			}
		})
	}
}
