// Package types defines the validated value types used across the ADT and
// BW clients. Every type wraps a string, is constructed through a
// validating constructor, and is immutable and comparable afterwards.
package types

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
)

var (
	plainPackageRe = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	tmpPackageRe   = regexp.MustCompile(`^\$[A-Z][A-Z0-9_]*$`)
	nsPackageRe    = regexp.MustCompile(`^/[A-Z0-9_]+/[A-Z0-9_]+$`)
	sapClientRe    = regexp.MustCompile(`^[0-9]{3}$`)
	objectTypeRe   = regexp.MustCompile(`^[A-Z0-9_]+/[A-Z0-9_]+$`)
	transportIDRe  = regexp.MustCompile(`^[A-Z]{4}[0-9]{6}$`)
	sapLanguageRe  = regexp.MustCompile(`^[A-Z]{2}$`)
)

func validationError(operation, format string, args ...any) error {
	return aerr.New(aerr.KindInternal, operation, fmt.Sprintf(format, args...))
}

// PackageName is a validated ABAP development package name.
type PackageName string

// NewPackageName validates and wraps an ABAP package name. Accepted forms
// are plain names starting with a letter, temporary names starting with
// `$`, and namespaced names `/NS/NAME`. Maximum length is 30 characters.
func NewPackageName(s string) (PackageName, error) {
	if s == "" {
		return "", validationError("PackageName", "package name must not be empty")
	}
	if len(s) > 30 {
		return "", validationError("PackageName", "package name %q exceeds 30 characters", s)
	}
	if !plainPackageRe.MatchString(s) && !tmpPackageRe.MatchString(s) && !nsPackageRe.MatchString(s) {
		return "", validationError("PackageName", "invalid package name %q", s)
	}
	return PackageName(s), nil
}

// String returns the package name.
func (p PackageName) String() string { return string(p) }

// IsLocal reports whether the package is a local ($-prefixed) package.
func (p PackageName) IsLocal() bool { return strings.HasPrefix(string(p), "$") }

// RepoUrl is a validated abapGit repository URL.
type RepoUrl string

// NewRepoUrl validates and wraps a repository URL. Only https URLs with a
// non-empty host are accepted.
func NewRepoUrl(s string) (RepoUrl, error) {
	const scheme = "https://"
	if !strings.HasPrefix(s, scheme) || len(s) == len(scheme) {
		return "", validationError("RepoUrl", "repository URL %q must start with https:// and name a host", s)
	}
	return RepoUrl(s), nil
}

// String returns the URL.
func (r RepoUrl) String() string { return string(r) }

// BranchRef is a git branch reference, e.g. refs/heads/main.
type BranchRef string

// DefaultBranch is the branch used when none is configured.
const DefaultBranch = BranchRef("refs/heads/main")

// NewBranchRef validates and wraps a branch reference.
func NewBranchRef(s string) (BranchRef, error) {
	if s == "" {
		return "", validationError("BranchRef", "branch reference must not be empty")
	}
	return BranchRef(s), nil
}

// String returns the branch reference.
func (b BranchRef) String() string { return string(b) }

// RepoKey is the opaque key the abapGit backend assigns to a linked repo.
type RepoKey string

// NewRepoKey validates and wraps a repo key.
func NewRepoKey(s string) (RepoKey, error) {
	if s == "" {
		return "", validationError("RepoKey", "repository key must not be empty")
	}
	return RepoKey(s), nil
}

// String returns the key.
func (k RepoKey) String() string { return string(k) }

// SapClient is a three-digit SAP client number.
type SapClient string

// NewSapClient validates and wraps a SAP client number.
func NewSapClient(s string) (SapClient, error) {
	if !sapClientRe.MatchString(s) {
		return "", validationError("SapClient", "SAP client %q must be exactly 3 digits", s)
	}
	return SapClient(s), nil
}

// String returns the client number.
func (c SapClient) String() string { return string(c) }

// ObjectUri is an ADT repository object URI under /sap/bc/adt/.
type ObjectUri string

// NewObjectUri validates and wraps an ADT object URI.
func NewObjectUri(s string) (ObjectUri, error) {
	const prefix = "/sap/bc/adt/"
	if !strings.HasPrefix(s, prefix) || len(s) == len(prefix) {
		return "", validationError("ObjectUri", "object URI %q must start with /sap/bc/adt/", s)
	}
	return ObjectUri(s), nil
}

// String returns the URI.
func (u ObjectUri) String() string { return string(u) }

// ObjectType is an ADT object type of the form CATEGORY/SUBCATEGORY,
// e.g. CLAS/OC or DEVC/K.
type ObjectType string

// NewObjectType validates and wraps an ADT object type.
func NewObjectType(s string) (ObjectType, error) {
	if !objectTypeRe.MatchString(s) {
		return "", validationError("ObjectType", "object type %q must be CATEGORY/SUBCATEGORY", s)
	}
	return ObjectType(s), nil
}

// String returns the type.
func (t ObjectType) String() string { return string(t) }

// Category returns the part before the slash.
func (t ObjectType) Category() string {
	s := string(t)
	return s[:strings.IndexByte(s, '/')]
}

// TransportId is a transport request number, e.g. DEVK900123.
type TransportId string

// NewTransportId validates and wraps a transport request number: four
// uppercase letters followed by six digits.
func NewTransportId(s string) (TransportId, error) {
	if !transportIDRe.MatchString(s) {
		return "", validationError("TransportId", "transport ID %q must be 4 letters followed by 6 digits", s)
	}
	return TransportId(s), nil
}

// String returns the transport number.
func (t TransportId) String() string { return string(t) }

// LockHandle is the opaque handle issued by the lock endpoint.
type LockHandle string

// NewLockHandle validates and wraps a lock handle.
func NewLockHandle(s string) (LockHandle, error) {
	if s == "" {
		return "", validationError("LockHandle", "lock handle must not be empty")
	}
	return LockHandle(s), nil
}

// String returns the handle.
func (h LockHandle) String() string { return string(h) }

// SapLanguage is a two-letter SAP logon language, e.g. EN.
type SapLanguage string

// NewSapLanguage validates and wraps a logon language.
func NewSapLanguage(s string) (SapLanguage, error) {
	if !sapLanguageRe.MatchString(s) {
		return "", validationError("SapLanguage", "language %q must be exactly 2 uppercase letters", s)
	}
	return SapLanguage(s), nil
}

// String returns the language.
func (l SapLanguage) String() string { return string(l) }

// CheckVariant is an ATC check variant name.
type CheckVariant string

// NewCheckVariant validates and wraps an ATC check variant name.
func NewCheckVariant(s string) (CheckVariant, error) {
	if s == "" {
		return "", validationError("CheckVariant", "check variant must not be empty")
	}
	return CheckVariant(s), nil
}

// String returns the variant name.
func (v CheckVariant) String() string { return string(v) }
