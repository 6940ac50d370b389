package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/erpl/erpl-adt/pkg/adt/session"
)

// recordedCall is one request the fake session observed.
type recordedCall struct {
	Method string
	Path   string
	Body   string
}

// queuedReply is the next canned response the fake session hands out.
type queuedReply struct {
	resp *session.Response
	err  error
}

// fakeSession is a queue-backed Session for workflow tests. Responses are
// served strictly in order; running out of queue is a test bug.
type fakeSession struct {
	calls     []recordedCall
	queue     []queuedReply
	pollQueue []queuedPoll
	stateful  bool
}

type queuedPoll struct {
	result *session.PollResult
	err    error
}

func newFakeSession() *fakeSession {
	return &fakeSession{}
}

func (f *fakeSession) reply(status int, body string, headers map[string]string) {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	f.queue = append(f.queue, queuedReply{resp: &session.Response{
		StatusCode: status,
		Header:     h,
		Body:       []byte(body),
	}})
}

func (f *fakeSession) replyErr(err error) {
	f.queue = append(f.queue, queuedReply{err: err})
}

func (f *fakeSession) replyPoll(result *session.PollResult, err error) {
	f.pollQueue = append(f.pollQueue, queuedPoll{result: result, err: err})
}

func (f *fakeSession) next(method, path string, body []byte) (*session.Response, error) {
	f.calls = append(f.calls, recordedCall{Method: method, Path: path, Body: string(body)})
	if len(f.queue) == 0 {
		return nil, fmt.Errorf("fake session queue exhausted on %s %s", method, path)
	}
	reply := f.queue[0]
	f.queue = f.queue[1:]
	return reply.resp, reply.err
}

func (f *fakeSession) Get(_ context.Context, path string, _ map[string]string) (*session.Response, error) {
	return f.next(http.MethodGet, path, nil)
}

func (f *fakeSession) Post(_ context.Context, path string, body []byte, _ string, _ map[string]string) (*session.Response, error) {
	return f.next(http.MethodPost, path, body)
}

func (f *fakeSession) Put(_ context.Context, path string, body []byte, _ string, _ map[string]string) (*session.Response, error) {
	return f.next(http.MethodPut, path, body)
}

func (f *fakeSession) Delete(_ context.Context, path string, _ map[string]string) (*session.Response, error) {
	return f.next(http.MethodDelete, path, nil)
}

func (f *fakeSession) FetchCsrfToken(context.Context) error { return nil }

func (f *fakeSession) SetStateful(stateful bool) { f.stateful = stateful }

func (f *fakeSession) IsStateful() bool { return f.stateful }

func (f *fakeSession) PollUntilComplete(_ context.Context, location string, _ time.Duration) (*session.PollResult, error) {
	f.calls = append(f.calls, recordedCall{Method: "POLL", Path: location})
	if len(f.pollQueue) == 0 {
		return nil, fmt.Errorf("fake session poll queue exhausted on %s", location)
	}
	next := f.pollQueue[0]
	f.pollQueue = f.pollQueue[1:]
	return next.result, next.err
}

func (f *fakeSession) Save(string) error { return nil }

func (f *fakeSession) Load(string) error { return nil }

// callsMatching returns the recorded calls whose method and path prefix
// match.
func (f *fakeSession) callsMatching(method, pathPrefix string) []recordedCall {
	var out []recordedCall
	for _, call := range f.calls {
		if call.Method == method && len(call.Path) >= len(pathPrefix) && call.Path[:len(pathPrefix)] == pathPrefix {
			out = append(out, call)
		}
	}
	return out
}
