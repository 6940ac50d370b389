package codec

import (
	"net/http"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
)

// LockAccept is the Accept header the lock endpoint requires.
const LockAccept = "application/vnd.sap.as+xml;charset=UTF-8;dataname=com.sap.adt.lock.result"

// LockInfo is the parsed result of a LOCK action.
type LockInfo struct {
	Handle           string `json:"lock_handle"`
	Transport        string `json:"transport,omitempty"`
	TransportOwner   string `json:"transport_owner,omitempty"`
	TransportText    string `json:"transport_text,omitempty"`
	Timestamp        string `json:"timestamp,omitempty"`
	DevelopmentClass string `json:"development_class,omitempty"`
}

// ParseLockResponse parses a lock body. The server answers with a top-less
// element set, so the body is wrapped in a synthetic root first. A missing
// LOCK_HANDLE is a LockConflict. Timestamp and Development-Class are
// lifted from the response headers (case-insensitive).
func ParseLockResponse(data []byte, headers http.Header) (*LockInfo, error) {
	root, err := ParseFragment(data)
	if err != nil {
		return nil, err
	}
	info := &LockInfo{
		Handle:         root.ChildText("LOCK_HANDLE"),
		Transport:      root.ChildText("CORRNR"),
		TransportOwner: root.ChildText("CORRUSER"),
		TransportText:  root.ChildText("CORRTEXT"),
	}
	if headers != nil {
		info.Timestamp = headers.Get("timestamp")
		info.DevelopmentClass = headers.Get("Development-Class")
	}
	if info.Handle == "" {
		return nil, aerr.New(aerr.KindLockConflict, "LockObject", "lock response carries no LOCK_HANDLE")
	}
	return info, nil
}
