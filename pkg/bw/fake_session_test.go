package bw

import (
	"context"
	"net/http"
	"time"

	"github.com/erpl/erpl-adt/pkg/adt/session"
)

type fakeCall struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    []byte
}

type queued struct {
	resp *session.Response
	poll *session.PollResult
	err  error
}

// fakeSession replays queued responses in order and records every call.
type fakeSession struct {
	queue    []queued
	calls    []fakeCall
	stateful bool
}

var _ session.Session = (*fakeSession)(nil)

func (f *fakeSession) reply(status int, body string, headers map[string]string) {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	f.queue = append(f.queue, queued{resp: &session.Response{
		StatusCode: status, Header: h, Body: []byte(body),
	}})
}

func (f *fakeSession) replyErr(err error) {
	f.queue = append(f.queue, queued{err: err})
}

func (f *fakeSession) replyPoll(status session.PollStatus, body string) {
	f.queue = append(f.queue, queued{poll: &session.PollResult{Status: status, Body: []byte(body)}})
}

func (f *fakeSession) next() queued {
	if len(f.queue) == 0 {
		return queued{resp: &session.Response{StatusCode: http.StatusOK, Header: http.Header{}}}
	}
	q := f.queue[0]
	f.queue = f.queue[1:]
	return q
}

func (f *fakeSession) roundTrip(method, path string, body []byte, headers map[string]string) (*session.Response, error) {
	f.calls = append(f.calls, fakeCall{Method: method, Path: path, Headers: headers, Body: body})
	q := f.next()
	if q.err != nil {
		return nil, q.err
	}
	return q.resp, nil
}

func (f *fakeSession) Get(_ context.Context, path string, headers map[string]string) (*session.Response, error) {
	return f.roundTrip(http.MethodGet, path, nil, headers)
}

func (f *fakeSession) Post(_ context.Context, path string, body []byte, _ string, headers map[string]string) (*session.Response, error) {
	return f.roundTrip(http.MethodPost, path, body, headers)
}

func (f *fakeSession) Put(_ context.Context, path string, body []byte, _ string, headers map[string]string) (*session.Response, error) {
	return f.roundTrip(http.MethodPut, path, body, headers)
}

func (f *fakeSession) Delete(_ context.Context, path string, headers map[string]string) (*session.Response, error) {
	return f.roundTrip(http.MethodDelete, path, nil, headers)
}

func (f *fakeSession) FetchCsrfToken(context.Context) error { return nil }

func (f *fakeSession) SetStateful(stateful bool) { f.stateful = stateful }

func (f *fakeSession) IsStateful() bool { return f.stateful }

func (f *fakeSession) PollUntilComplete(_ context.Context, location string, _ time.Duration) (*session.PollResult, error) {
	f.calls = append(f.calls, fakeCall{Method: "POLL", Path: location})
	q := f.next()
	if q.err != nil {
		return nil, q.err
	}
	if q.poll != nil {
		return q.poll, nil
	}
	return &session.PollResult{Status: session.PollCompleted, Body: q.resp.Body}, nil
}

func (f *fakeSession) Save(string) error { return nil }

func (f *fakeSession) Load(string) error { return nil }
