package bw

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/logger"
)

// ComponentType is a reporting component family.
type ComponentType string

// Reporting component families.
const (
	CompQuery     ComponentType = "QUERY"
	CompVariable  ComponentType = "VARIABLE"
	CompRKF       ComponentType = "RKF"
	CompCKF       ComponentType = "CKF"
	CompFilter    ComponentType = "FILTER"
	CompStructure ComponentType = "STRUCTURE"
)

// queryFamilyTypes are the component types the graph assembler follows
// recursively.
var queryFamilyTypes = map[string]ComponentType{
	"QUERY":     CompQuery,
	"VARIABLE":  CompVariable,
	"RKF":       CompRKF,
	"CKF":       CompCKF,
	"FILTER":    CompFilter,
	"STRUCTURE": CompStructure,
}

// ComponentTypeFor maps a raw type label to a component family, reporting
// whether the label belongs to the query family at all.
func ComponentTypeFor(raw string) (ComponentType, bool) {
	t, ok := queryFamilyTypes[strings.ToUpper(raw)]
	return t, ok
}

// pathSegment is the modeling URL segment for the family. Queries and
// variables share the query resource endpoint; only the media type tells
// them apart.
func (t ComponentType) pathSegment() string {
	switch t {
	case CompQuery, CompVariable:
		return "query"
	default:
		return strings.ToLower(string(t))
	}
}

// mediaFamily is the token inside the vendor media type.
func (t ComponentType) mediaFamily() string {
	return strings.ToLower(string(t))
}

// acceptLadder is the ordered list of Accept values tried for a component
// fetch. Each HTTP 415 means "retry with the next entry".
func (t ComponentType) acceptLadder() []string {
	family := t.mediaFamily()
	return []string{
		fmt.Sprintf("application/vnd.sap.bw.modeling.%s-v1_10_0+xml", family),
		fmt.Sprintf("application/vnd.sap.bw.modeling.%s-v1_9_0+xml", family),
		"application/xml",
	}
}

// GetQueryComponent reads a reporting component definition, walking the
// Accept ladder across HTTP 415 responses. The result records how many
// attempts were spent.
func (c *Client) GetQueryComponent(ctx context.Context, compType ComponentType, name, version string) (*QueryComponent, error) {
	endpoint := detailEndpoint(compType.pathSegment(), name, version)
	ladder := compType.acceptLadder()
	for attempt, accept := range ladder {
		resp, err := c.sess.Get(ctx, endpoint, map[string]string{"Accept": accept})
		if err != nil {
			c.record("GetQueryComponent", endpoint, err)
			return nil, err
		}
		if resp.StatusCode == http.StatusUnsupportedMediaType {
			logger.Debugf("BW component %s %s: media type %q rejected, trying next", compType, name, accept)
			continue
		}
		if !ok2xx(resp.StatusCode) {
			err = statusErr("GetQueryComponent", endpoint, resp)
			c.record("GetQueryComponent", endpoint, err)
			return nil, err
		}
		c.record("GetQueryComponent", endpoint, nil)
		comp, err := ParseQueryResource(resp.Body, string(compType))
		if err != nil {
			return nil, err
		}
		if comp.Name == "" {
			comp.Name = strings.ToUpper(name)
		}
		comp.RequestCount = attempt + 1
		return comp, nil
	}
	err := aerr.New(aerr.KindInternal, "GetQueryComponent",
		"server rejected every supported media type").
		WithEndpoint(endpoint).
		WithStatus(http.StatusUnsupportedMediaType).
		WithHint("Accept types tried: " + strings.Join(ladder, ", "))
	c.record("GetQueryComponent", endpoint, err)
	return nil, err
}
