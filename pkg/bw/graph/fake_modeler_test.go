package graph

import (
	"context"
	"fmt"

	"github.com/erpl/erpl-adt/pkg/bw"
)

// fakeModeler answers assembler calls from injected functions and feeds
// the installed recorder the way the real client does.
type fakeModeler struct {
	rec bw.Recorder

	nodes  func(objectType, objectName string, opts bw.NodeOptions) ([]bw.Node, error)
	search func(query string, opts bw.SearchOptions) ([]bw.SearchHit, error)
	adso   func(name string) (*bw.ADSODetail, error)
	rsds   func(name, sourceSystem string) (*bw.RSDSDetail, error)
	dtp    func(name string) (*bw.DTPDetail, error)
	trfn   func(name string) (*bw.TRFNDetail, error)
	query  func(compType bw.ComponentType, name string) (*bw.QueryComponent, error)
	xref   func(objectType, objectName string) ([]bw.XrefEntry, error)
}

var _ Modeler = (*fakeModeler)(nil)

func (f *fakeModeler) SetRecorder(r bw.Recorder) { f.rec = r }

func (f *fakeModeler) record(operation, endpoint string, err error) {
	if f.rec == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	f.rec.Record(bw.ProvenanceEntry{Operation: operation, Endpoint: endpoint, Status: status})
}

func notWired[T any](what string) (T, error) {
	var zero T
	return zero, fmt.Errorf("fake modeler: %s not wired", what)
}

func (f *fakeModeler) GetNodes(_ context.Context, objectType, objectName string, opts bw.NodeOptions) ([]bw.Node, error) {
	if f.nodes == nil {
		return notWired[[]bw.Node]("GetNodes")
	}
	out, err := f.nodes(objectType, objectName, opts)
	f.record("GetNodes", "/nodes/"+objectName, err)
	return out, err
}

func (f *fakeModeler) Search(_ context.Context, query string, opts bw.SearchOptions) ([]bw.SearchHit, error) {
	if f.search == nil {
		return notWired[[]bw.SearchHit]("Search")
	}
	out, err := f.search(query, opts)
	f.record("BWSearch", "/bwsearch", err)
	return out, err
}

func (f *fakeModeler) GetADSO(_ context.Context, name, _ string) (*bw.ADSODetail, error) {
	if f.adso == nil {
		return notWired[*bw.ADSODetail]("GetADSO")
	}
	out, err := f.adso(name)
	f.record("GetADSO", "/adso/"+name, err)
	return out, err
}

func (f *fakeModeler) GetRSDS(_ context.Context, name, sourceSystem, _ string) (*bw.RSDSDetail, error) {
	if f.rsds == nil {
		return notWired[*bw.RSDSDetail]("GetRSDS")
	}
	out, err := f.rsds(name, sourceSystem)
	f.record("GetRSDS", "/rsds/"+name, err)
	return out, err
}

func (f *fakeModeler) GetDTP(_ context.Context, name, _ string) (*bw.DTPDetail, error) {
	if f.dtp == nil {
		return notWired[*bw.DTPDetail]("GetDTP")
	}
	out, err := f.dtp(name)
	f.record("GetDTP", "/dtpa/"+name, err)
	return out, err
}

func (f *fakeModeler) GetTRFN(_ context.Context, name, _ string) (*bw.TRFNDetail, error) {
	if f.trfn == nil {
		return notWired[*bw.TRFNDetail]("GetTRFN")
	}
	out, err := f.trfn(name)
	f.record("GetTRFN", "/trfn/"+name, err)
	return out, err
}

func (f *fakeModeler) GetQueryComponent(_ context.Context, compType bw.ComponentType, name, _ string) (*bw.QueryComponent, error) {
	if f.query == nil {
		return notWired[*bw.QueryComponent]("GetQueryComponent")
	}
	out, err := f.query(compType, name)
	f.record("GetQueryComponent", "/query/"+name, err)
	return out, err
}

func (f *fakeModeler) Xref(_ context.Context, objectType, objectName string) ([]bw.XrefEntry, error) {
	if f.xref == nil {
		return notWired[[]bw.XrefEntry]("Xref")
	}
	out, err := f.xref(objectType, objectName)
	f.record("Xref", "/xref/"+objectName, err)
	return out, err
}
