package bw

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/codec"
)

// The subsidiary BW endpoints below share one shape: GET, percent-encoded
// query parameters, and a flat or list-like XML body normalized by the
// parsers in this package.

func typedNameQuery(objectType, objectName string) string {
	params := url.Values{}
	params.Set("type", strings.ToUpper(objectType))
	params.Set("name", strings.ToUpper(objectName))
	return params.Encode()
}

// SystemInfo reads the BW system metadata.
func (c *Client) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	resp, err := c.get(ctx, "SystemInfo", repoIsRoot+"/systeminfo", nil)
	if err != nil {
		return nil, err
	}
	return ParseSystemInfo(resp.Body)
}

// DBInfo reads the database platform properties.
func (c *Client) DBInfo(ctx context.Context) (map[string]string, error) {
	resp, err := c.get(ctx, "DBInfo", repoIsRoot+"/dbinfo", nil)
	if err != nil {
		return nil, err
	}
	return ParseProperties(resp.Body)
}

// Changeability reads the system changeability settings.
func (c *Client) Changeability(ctx context.Context) (map[string]string, error) {
	resp, err := c.get(ctx, "Changeability", repoIsRoot+"/chginfo", nil)
	if err != nil {
		return nil, err
	}
	return ParseProperties(resp.Body)
}

// AdtURI resolves the ADT resource URI for a BW object.
func (c *Client) AdtURI(ctx context.Context, objectType, objectName string) (string, error) {
	endpoint := repoIsRoot + "/adturi?" + typedNameQuery(objectType, objectName)
	resp, err := c.get(ctx, "AdtURI", endpoint, nil)
	if err != nil {
		return "", err
	}
	root, err := codec.ParseXML(resp.Body)
	if err != nil {
		return "", err
	}
	uri := prop(root, "uri", "href")
	if uri == "" {
		uri = strings.TrimSpace(root.ChildText("uri"))
	}
	if uri == "" {
		return "", aerr.New(aerr.KindInternal, "AdtURI", "response carries no URI").
			WithEndpoint(endpoint)
	}
	return uri, nil
}

// ValueHelp lists the value-help entries of a BW object's field as
// value -> text pairs.
func (c *Client) ValueHelp(ctx context.Context, objectType, objectName, field string) (map[string]string, error) {
	params := url.Values{}
	params.Set("type", strings.ToUpper(objectType))
	params.Set("name", strings.ToUpper(objectName))
	params.Set("field", strings.ToUpper(field))
	endpoint := repoIsRoot + "/valuehelp?" + params.Encode()
	resp, err := c.get(ctx, "ValueHelp", endpoint, nil)
	if err != nil {
		return nil, err
	}
	root, err := codec.ParseXML(resp.Body)
	if err != nil {
		return nil, err
	}
	values := map[string]string{}
	for _, el := range root.FindAll("entry") {
		key := prop(el, "value", "key", "name")
		if key == "" {
			continue
		}
		values[key] = prop(el, "text", "description")
	}
	if len(values) > 0 {
		return values, nil
	}
	return ParseProperties(resp.Body)
}

// Xref lists the consumers of an infoprovider.
func (c *Client) Xref(ctx context.Context, objectType, objectName string) ([]XrefEntry, error) {
	endpoint := repoIsRoot + "/xref?" + typedNameQuery(objectType, objectName)
	resp, err := c.get(ctx, "Xref", endpoint, nil)
	if err != nil {
		return nil, err
	}
	return ParseXrefEntries(resp.Body)
}

// ApplicationLog reads the messages of one application log.
func (c *Client) ApplicationLog(ctx context.Context, handle string) ([]LogMessage, error) {
	params := url.Values{}
	params.Set("handle", handle)
	endpoint := repoIsRoot + "/applicationlog?" + params.Encode()
	resp, err := c.get(ctx, "ApplicationLog", endpoint, nil)
	if err != nil {
		return nil, err
	}
	root, err := codec.ParseXML(resp.Body)
	if err != nil {
		return nil, err
	}
	var msgs []LogMessage
	for _, el := range root.FindAll("message") {
		m := LogMessage{
			Severity:  prop(el, "type", "severity"),
			Text:      prop(el, "text"),
			Timestamp: prop(el, "timestamp", "time"),
		}
		if m.Text == "" {
			m.Text = strings.TrimSpace(el.Text)
		}
		if m.Text != "" {
			msgs = append(msgs, m)
		}
	}
	return msgs, nil
}

// MessageText resolves a message class and number to its text.
func (c *Client) MessageText(ctx context.Context, class, number string) (string, error) {
	endpoint := fmt.Sprintf("%s/message/%s/%s", repoIsRoot,
		url.PathEscape(strings.ToUpper(class)), url.PathEscape(number))
	resp, err := c.get(ctx, "MessageText", endpoint, nil)
	if err != nil {
		return "", err
	}
	root, err := codec.ParseXML(resp.Body)
	if err != nil {
		// Some systems answer with a plain text body.
		return strings.TrimSpace(string(resp.Body)), nil
	}
	if text := prop(root, "text", "message"); text != "" {
		return text, nil
	}
	return strings.TrimSpace(root.Text), nil
}

// SearchMetadata lists the object types the BW search supports.
func (c *Client) SearchMetadata(ctx context.Context) ([]SearchType, error) {
	resp, err := c.get(ctx, "SearchMetadata", repoIsRoot+"/bwsearch/metadata", nil)
	if err != nil {
		return nil, err
	}
	root, err := codec.ParseXML(resp.Body)
	if err != nil {
		return nil, err
	}
	var out []SearchType
	for _, el := range root.FindAll("type") {
		t := SearchType{
			ID:          prop(el, "id", "name"),
			Description: prop(el, "description", "text"),
		}
		if t.ID == "" {
			t.ID = strings.TrimSpace(el.Text)
		}
		if t.ID != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// BackendFavorites lists the user's backend favorites as nodes.
func (c *Client) BackendFavorites(ctx context.Context) ([]Node, error) {
	resp, err := c.get(ctx, "BackendFavorites", repoIsRoot+"/backendfavorites", nil)
	if err != nil {
		return nil, err
	}
	return ParseNodesFeed(resp.Body)
}

// NodePath resolves the repository path from the root infoarea down to an
// object.
func (c *Client) NodePath(ctx context.Context, objectType, objectName string) ([]Node, error) {
	endpoint := repoIsRoot + "/nodepath?" + typedNameQuery(objectType, objectName)
	resp, err := c.get(ctx, "NodePath", endpoint, nil)
	if err != nil {
		return nil, err
	}
	return ParseNodesFeed(resp.Body)
}

// VirtualFolders lists the virtual folder contents below a path.
func (c *Client) VirtualFolders(ctx context.Context, path string) ([]Node, error) {
	params := url.Values{}
	if path != "" {
		params.Set("path", path)
	}
	endpoint := repoIsRoot + "/virtualfolders"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	resp, err := c.get(ctx, "VirtualFolders", endpoint, nil)
	if err != nil {
		return nil, err
	}
	return ParseNodesFeed(resp.Body)
}

// DataVolumes reads the data volume statistics.
func (c *Client) DataVolumes(ctx context.Context) ([]DataVolume, error) {
	resp, err := c.get(ctx, "DataVolumes", repoIsRoot+"/datavolumes", nil)
	if err != nil {
		return nil, err
	}
	root, err := codec.ParseXML(resp.Body)
	if err != nil {
		return nil, err
	}
	var out []DataVolume
	for _, el := range root.FindAll("volume") {
		v := DataVolume{
			Object:  prop(el, "objectName", "object", "name"),
			Type:    prop(el, "objectType", "type"),
			Records: prop(el, "records", "rowCount"),
			SizeKB:  prop(el, "sizeKB", "size"),
		}
		if v.Object != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

// QueryProperties reads the query rule properties.
func (c *Client) QueryProperties(ctx context.Context, queryName string) (map[string]string, error) {
	params := url.Values{}
	params.Set("query", strings.ToUpper(queryName))
	endpoint := modelingRoot + "/rules/qprops?" + params.Encode()
	resp, err := c.get(ctx, "QueryProperties", endpoint, nil)
	if err != nil {
		return nil, err
	}
	return ParseProperties(resp.Body)
}

// ReportingProperties reads the reporting component properties.
func (c *Client) ReportingProperties(ctx context.Context, componentName string) (map[string]string, error) {
	params := url.Values{}
	params.Set("name", strings.ToUpper(componentName))
	endpoint := modelingRoot + "/comp/reporting?" + params.Encode()
	resp, err := c.get(ctx, "ReportingProperties", endpoint, nil)
	if err != nil {
		return nil, err
	}
	return ParseProperties(resp.Body)
}

// Validate runs the server-side validation of one object and returns its
// messages.
func (c *Client) Validate(ctx context.Context, objectType, objectName string) ([]ActivationMessage, error) {
	endpoint := modelingRoot + "/validation?" + typedNameQuery(objectType, objectName)
	resp, err := c.get(ctx, "Validate", endpoint, nil)
	if err != nil {
		return nil, err
	}
	return ParseActivationMessages(resp.Body)
}

// MoveRequests lists the transport requests available for moving objects.
func (c *Client) MoveRequests(ctx context.Context, target string) (map[string]string, error) {
	params := url.Values{}
	if target != "" {
		params.Set("target", strings.ToUpper(target))
	}
	endpoint := modelingRoot + "/move_requests"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	resp, err := c.get(ctx, "MoveRequests", endpoint, nil)
	if err != nil {
		return nil, err
	}
	return ParseProperties(resp.Body)
}

// JobStatus reads the state of a background activation job.
func (c *Client) JobStatus(ctx context.Context, guid string) (string, error) {
	endpoint := modelingRoot + "/jobs/" + url.PathEscape(guid)
	resp, err := c.get(ctx, "JobStatus", endpoint, nil)
	if err != nil {
		return "", err
	}
	root, err := codec.ParseXML(resp.Body)
	if err != nil {
		return "", err
	}
	if status := prop(root, "status", "state"); status != "" {
		return status, nil
	}
	return strings.TrimSpace(root.Text), nil
}

// ComponentLocks lists the locks held on a reporting component.
func (c *Client) ComponentLocks(ctx context.Context, componentName string) ([]LockEntry, error) {
	params := url.Values{}
	params.Set("name", strings.ToUpper(componentName))
	endpoint := modelingRoot + "/comp/locks?" + params.Encode()
	resp, err := c.get(ctx, "ComponentLocks", endpoint, nil)
	if err != nil {
		return nil, err
	}
	root, err := codec.ParseXML(resp.Body)
	if err != nil {
		return nil, err
	}
	var out []LockEntry
	for _, el := range root.FindAll("lock") {
		l := LockEntry{
			Object: prop(el, "objectName", "object", "name"),
			Owner:  prop(el, "owner", "user"),
			Mode:   prop(el, "mode", "accessMode"),
		}
		if l.Object != "" || l.Owner != "" {
			out = append(out, l)
		}
	}
	return out, nil
}
