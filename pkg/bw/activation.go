package bw

import (
	"bytes"
	"context"
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/codec"
	"github.com/erpl/erpl-adt/pkg/adt/session"
	"github.com/erpl/erpl-adt/pkg/logger"
)

// ActivationMode selects how the BW activation endpoint treats the
// submitted objects.
type ActivationMode string

// Activation modes.
const (
	// ActivationValidate only checks the objects.
	ActivationValidate ActivationMode = "validate"
	// ActivationSimulate runs activation in simulation mode.
	ActivationSimulate ActivationMode = "simulate"
	// ActivationJob schedules activation as a background job.
	ActivationJob ActivationMode = "job"
	// ActivationExecute activates directly.
	ActivationExecute ActivationMode = "execute"
)

// query is the literal mode query string the endpoint expects.
func (m ActivationMode) query() string {
	switch m {
	case ActivationValidate:
		return "mode=validate"
	case ActivationSimulate:
		return "mode=activate&simu=true"
	case ActivationJob:
		return "mode=activate&asjob=true"
	default:
		return "mode=activate&simu=false"
	}
}

// ActivationMessage is one message returned by validation or activation.
type ActivationMessage struct {
	Severity string `json:"severity"`
	Object   string `json:"object,omitempty"`
	Text     string `json:"text"`
}

// ActivationResult is the outcome of a BW activation call. Success is
// false when any message has severity E.
type ActivationResult struct {
	Success  bool                `json:"success"`
	Mode     ActivationMode      `json:"mode"`
	JobGUID  string              `json:"job_guid,omitempty"`
	Messages []ActivationMessage `json:"messages,omitempty"`
}

const nsBWActivation = "http://www.sap.com/bw/modeling/activation"

// BuildActivationXML renders the activation request body.
func BuildActivationXML(objects []ObjectPointer) string {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	root := xml.StartElement{
		Name: xml.Name{Local: "act:objects"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns:act"}, Value: nsBWActivation}},
	}
	if err := enc.EncodeToken(root); err != nil {
		panic(err)
	}
	for _, obj := range objects {
		el := xml.StartElement{
			Name: xml.Name{Local: "act:object"},
			Attr: []xml.Attr{
				{Name: xml.Name{Local: "act:type"}, Value: obj.Type},
				{Name: xml.Name{Local: "act:name"}, Value: obj.Name},
			},
		}
		if obj.SourceSystem != "" {
			el.Attr = append(el.Attr, xml.Attr{Name: xml.Name{Local: "act:sourceSystem"}, Value: obj.SourceSystem})
		}
		if err := enc.EncodeToken(el); err != nil {
			panic(err)
		}
		if err := enc.EncodeToken(el.End()); err != nil {
			panic(err)
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		panic(err)
	}
	if err := enc.Flush(); err != nil {
		panic(err)
	}
	return xml.Header + buf.String()
}

// ParseActivationMessages extracts messages from an activation or
// validation response body.
func ParseActivationMessages(body []byte) ([]ActivationMessage, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	root, err := codec.ParseFragment(body)
	if err != nil {
		return nil, err
	}
	candidates := root.FindAll("msg")
	candidates = append(candidates, root.FindAll("message")...)
	var msgs []ActivationMessage
	for _, el := range candidates {
		m := ActivationMessage{
			Severity: prop(el, "type", "severity"),
			Object:   prop(el, "objectName", "object"),
			Text:     prop(el, "text", "shortText"),
		}
		if m.Text == "" {
			m.Text = strings.TrimSpace(el.Text)
		}
		if m.Text == "" && m.Severity == "" {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Activate submits objects to the BW activation endpoint. A 202 response
// is polled to completion; the final body carries the messages.
func (c *Client) Activate(ctx context.Context, objects []ObjectPointer, mode ActivationMode) (*ActivationResult, error) {
	if len(objects) == 0 {
		return nil, aerr.New(aerr.KindInternal, "BWActivate", "no objects to activate")
	}
	endpoint := modelingRoot + "/activation?" + mode.query()
	body := BuildActivationXML(objects)
	resp, err := c.sess.Post(ctx, endpoint, []byte(body), "application/xml", nil)
	if err != nil {
		c.record("BWActivate", endpoint, err)
		return nil, err
	}

	final := resp.Body
	jobGUID := ""
	switch {
	case resp.StatusCode == http.StatusAccepted:
		location := resp.Header.Get("Location")
		if location == "" {
			err = aerr.New(aerr.KindInternal, "BWActivate",
				"202 response is missing the Location header").WithEndpoint(endpoint)
			c.record("BWActivate", endpoint, err)
			return nil, err
		}
		jobGUID = location[strings.LastIndexByte(location, '/')+1:]
		poll, pollErr := c.sess.PollUntilComplete(ctx, location, c.asyncTimeout)
		if pollErr != nil {
			c.record("BWActivate", endpoint, pollErr)
			if e := aerr.As(pollErr); e != nil && e.Kind == aerr.KindTimeout {
				return nil, aerr.New(aerr.KindTimeout, "BWActivate", e.Message).WithEndpoint(endpoint)
			}
			return nil, pollErr
		}
		if poll.Status == session.PollFailed {
			e := aerr.New(aerr.KindActivationError, "BWActivate", "activation failed").
				WithEndpoint(endpoint)
			if sap := codec.ExtractSAPError(poll.Body); sap != "" {
				e = e.WithSAPError(sap)
			}
			c.record("BWActivate", endpoint, e)
			return nil, e
		}
		final = poll.Body
	case !ok2xx(resp.StatusCode):
		err = statusErr("BWActivate", endpoint, resp)
		c.record("BWActivate", endpoint, err)
		return nil, err
	}
	c.record("BWActivate", endpoint, nil)

	msgs, err := ParseActivationMessages(final)
	if err != nil {
		return nil, err
	}
	result := &ActivationResult{Success: true, Mode: mode, JobGUID: jobGUID, Messages: msgs}
	for _, m := range msgs {
		if m.Severity == "E" {
			result.Success = false
			break
		}
	}
	logger.Infof("BW activation (%s): %d objects, %d messages, success=%t",
		mode, len(objects), len(msgs), result.Success)
	return result, nil
}
