package bw

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/codec"
	"github.com/erpl/erpl-adt/pkg/adt/session"
	"github.com/erpl/erpl-adt/pkg/logger"
)

// BW modeling URL roots.
const (
	modelingRoot  = "/sap/bw/modeling"
	repoIsRoot    = modelingRoot + "/repo/is"
	structureRoot = modelingRoot + "/repo/infoproviderstructure"
)

// ProvenanceEntry records one endpoint call made during graph assembly.
type ProvenanceEntry struct {
	Operation string `json:"operation"`
	Endpoint  string `json:"endpoint"`
	Status    string `json:"status"`
}

// Recorder receives a provenance entry for every endpoint call. Graph
// assemblers install one to build the provenance trail.
type Recorder interface {
	Record(entry ProvenanceEntry)
}

// ProvenanceLog is a Recorder that appends entries in call order.
type ProvenanceLog struct {
	Entries []ProvenanceEntry
}

// Record appends one entry.
func (l *ProvenanceLog) Record(entry ProvenanceEntry) {
	l.Entries = append(l.Entries, entry)
}

// Client talks to the BW modeling REST surface over an established
// session. Not safe for concurrent use, like the session it wraps.
type Client struct {
	sess         session.Session
	rec          Recorder
	asyncTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithRecorder installs a provenance recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.rec = r }
}

// WithAsyncTimeout overrides the poll deadline for BW activation.
func WithAsyncTimeout(d time.Duration) Option {
	return func(c *Client) { c.asyncTimeout = d }
}

// New builds a BW client over sess.
func New(sess session.Session, opts ...Option) *Client {
	c := &Client{sess: sess, asyncTimeout: 5 * time.Minute}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetRecorder swaps the provenance recorder. Assemblers install their own
// log for the duration of a walk.
func (c *Client) SetRecorder(r Recorder) {
	c.rec = r
}

func (c *Client) record(operation, endpoint string, err error) {
	if c.rec == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.rec.Record(ProvenanceEntry{Operation: operation, Endpoint: endpoint, Status: status})
}

// statusErr maps a non-2xx BW response onto the error taxonomy. Statuses
// without a natural kind become Internal with the SAP message attached.
func statusErr(operation, endpoint string, resp *session.Response) error {
	kind := aerr.KindInternal
	msg := fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode)
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = aerr.KindAuthentication
		msg = "authentication failed"
	case http.StatusNotFound:
		kind = aerr.KindNotFound
		msg = "object not found"
	case http.StatusForbidden:
		kind = aerr.KindAuthentication
		msg = "access denied"
	}
	e := aerr.New(kind, operation, msg).WithEndpoint(endpoint).WithStatus(resp.StatusCode)
	if sap := codec.ExtractSAPError(resp.Body); sap != "" {
		e = e.WithSAPError(sap)
	}
	return e
}

func ok2xx(status int) bool {
	return status >= 200 && status < 300
}

// get performs a GET, records provenance and enforces a 2xx status.
func (c *Client) get(ctx context.Context, operation, endpoint string, headers map[string]string) (*session.Response, error) {
	resp, err := c.sess.Get(ctx, endpoint, headers)
	if err != nil {
		c.record(operation, endpoint, err)
		return nil, err
	}
	if !ok2xx(resp.StatusCode) {
		err = statusErr(operation, endpoint, resp)
		c.record(operation, endpoint, err)
		return nil, err
	}
	c.record(operation, endpoint, nil)
	return resp, nil
}

// NodeOptions narrows an infoprovider structure request.
type NodeOptions struct {
	ChildName string
	ChildType string
	// EndpointOverride replaces the computed structure URL. Semantical
	// folder children carry their own URI and have no standalone
	// structure endpoint.
	EndpointOverride string
}

// GetNodes lists the repository structure below one object as an Atom
// feed of nodes.
func (c *Client) GetNodes(ctx context.Context, objectType, objectName string, opts NodeOptions) ([]Node, error) {
	endpoint := opts.EndpointOverride
	if endpoint == "" {
		if objectType == "" || objectName == "" {
			return nil, aerr.New(aerr.KindInternal, "GetNodes", "object type and name are required")
		}
		endpoint = fmt.Sprintf("%s/%s/%s", structureRoot,
			url.PathEscape(strings.ToLower(objectType)), url.PathEscape(strings.ToLower(objectName)))
	}
	params := url.Values{}
	if opts.ChildName != "" {
		params.Set("childName", opts.ChildName)
	}
	if opts.ChildType != "" {
		params.Set("childType", opts.ChildType)
	}
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint += sep + params.Encode()
	}
	resp, err := c.get(ctx, "GetNodes", endpoint, nil)
	if err != nil {
		return nil, err
	}
	nodes, err := ParseNodesFeed(resp.Body)
	if err != nil {
		return nil, err
	}
	logger.Debugf("BW nodes: %d entries below %s %s", len(nodes), objectType, objectName)
	return nodes, nil
}

// SearchOptions narrows a BW repository search.
type SearchOptions struct {
	MaxResults int
	Types      []string
}

// Search runs the BW repository search.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, aerr.New(aerr.KindInternal, "BWSearch", "search query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	if opts.MaxResults > 0 {
		params.Set("maxResults", strconv.Itoa(opts.MaxResults))
	}
	for _, t := range opts.Types {
		params.Add("type", t)
	}
	endpoint := repoIsRoot + "/bwsearch?" + params.Encode()
	resp, err := c.get(ctx, "BWSearch", endpoint, nil)
	if err != nil {
		return nil, err
	}
	return ParseSearchResults(resp.Body)
}

func objectVersion(version string) string {
	if version == "" {
		return "a"
	}
	return strings.ToLower(version)
}

func detailEndpoint(kind, name, version string) string {
	return fmt.Sprintf("%s/%s/%s/%s", modelingRoot, kind,
		url.PathEscape(strings.ToLower(name)), url.PathEscape(objectVersion(version)))
}

// GetADSO reads an advanced DataStore object definition.
func (c *Client) GetADSO(ctx context.Context, name, version string) (*ADSODetail, error) {
	endpoint := detailEndpoint("adso", name, version)
	resp, err := c.get(ctx, "GetADSO", endpoint, map[string]string{"Accept": "application/xml"})
	if err != nil {
		return nil, err
	}
	detail, err := ParseADSO(resp.Body)
	if err != nil {
		return nil, err
	}
	if detail.Name == "" {
		detail.Name = strings.ToUpper(name)
	}
	return detail, nil
}

// GetRSDS reads a DataSource definition. The source system is part of the
// resource path.
func (c *Client) GetRSDS(ctx context.Context, name, sourceSystem, version string) (*RSDSDetail, error) {
	if sourceSystem == "" {
		return nil, aerr.New(aerr.KindInternal, "GetRSDS", "source system is required")
	}
	endpoint := fmt.Sprintf("%s/rsds/%s/%s/%s", modelingRoot,
		url.PathEscape(strings.ToLower(name)), url.PathEscape(strings.ToLower(sourceSystem)),
		url.PathEscape(objectVersion(version)))
	resp, err := c.get(ctx, "GetRSDS", endpoint, map[string]string{"Accept": "application/xml"})
	if err != nil {
		return nil, err
	}
	detail, err := ParseRSDS(resp.Body, strings.ToUpper(sourceSystem))
	if err != nil {
		return nil, err
	}
	if detail.Name == "" {
		detail.Name = strings.ToUpper(name)
	}
	return detail, nil
}

// GetDTP reads a data transfer process definition.
func (c *Client) GetDTP(ctx context.Context, name, version string) (*DTPDetail, error) {
	endpoint := detailEndpoint("dtpa", name, version)
	resp, err := c.get(ctx, "GetDTP", endpoint, map[string]string{"Accept": "application/xml"})
	if err != nil {
		return nil, err
	}
	detail, err := ParseDTP(resp.Body)
	if err != nil {
		return nil, err
	}
	if detail.Name == "" {
		detail.Name = strings.ToUpper(name)
	}
	return detail, nil
}

// GetTRFN reads a transformation definition including its rules.
func (c *Client) GetTRFN(ctx context.Context, name, version string) (*TRFNDetail, error) {
	endpoint := detailEndpoint("trfn", name, version)
	resp, err := c.get(ctx, "GetTRFN", endpoint, map[string]string{"Accept": "application/xml"})
	if err != nil {
		return nil, err
	}
	detail, err := ParseTRFN(resp.Body)
	if err != nil {
		return nil, err
	}
	if detail.Name == "" {
		detail.Name = strings.ToUpper(name)
	}
	return detail, nil
}

// SourceSystemFromURI extracts the source system segment from an RSDS node
// URI of the form .../rsds/<name>/<source_system>/... Empty when the URI
// does not follow that shape.
func SourceSystemFromURI(uri string) string {
	trimmed := uri
	if idx := strings.IndexByte(trimmed, '?'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	for i, part := range parts {
		if strings.EqualFold(part, "rsds") && i+2 < len(parts) {
			if seg, err := url.PathUnescape(parts[i+2]); err == nil {
				return strings.ToUpper(seg)
			}
			return strings.ToUpper(parts[i+2])
		}
	}
	return ""
}
