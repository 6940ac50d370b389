package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageName(t *testing.T) {
	t.Parallel()

	valid := []string{"ZTEST", "$TMP", "Z_BW_FLOWS", "/NS/NAME", "ZPKG1", strings.Repeat("Z", 30)}
	for _, s := range valid {
		p, err := NewPackageName(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, p.String())
	}

	invalid := []string{
		"",
		strings.Repeat("Z", 31),
		"ztest",        // lowercase
		"1ZTEST",       // starts with digit
		"/NS/",         // empty after namespace
		"/NS/NAME/SUB", // two inner slashes
		"Z TEST",
		"$",
	}
	for _, s := range invalid {
		_, err := NewPackageName(s)
		assert.Error(t, err, s)
	}

	local, err := NewPackageName("$TMP")
	require.NoError(t, err)
	assert.True(t, local.IsLocal())
}

func TestRepoUrl(t *testing.T) {
	t.Parallel()

	u, err := NewRepoUrl("https://github.com/org/repo.git")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/org/repo.git", u.String())

	for _, s := range []string{"", "http://github.com/org/repo", "https://", "github.com/org/repo"} {
		_, err := NewRepoUrl(s)
		assert.Error(t, err, s)
	}
}

func TestBranchRefAndRepoKey(t *testing.T) {
	t.Parallel()

	b, err := NewBranchRef("refs/heads/develop")
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/develop", b.String())
	_, err = NewBranchRef("")
	assert.Error(t, err)
	assert.Equal(t, "refs/heads/main", DefaultBranch.String())

	k, err := NewRepoKey("000000000001")
	require.NoError(t, err)
	assert.Equal(t, "000000000001", k.String())
	_, err = NewRepoKey("")
	assert.Error(t, err)
}

func TestSapClient(t *testing.T) {
	t.Parallel()

	c, err := NewSapClient("100")
	require.NoError(t, err)
	assert.Equal(t, "100", c.String())

	for _, s := range []string{"", "1", "1000", "10a"} {
		_, err := NewSapClient(s)
		assert.Error(t, err, s)
	}
}

func TestObjectUri(t *testing.T) {
	t.Parallel()

	u, err := NewObjectUri("/sap/bc/adt/oo/classes/zcl_test")
	require.NoError(t, err)
	assert.Equal(t, "/sap/bc/adt/oo/classes/zcl_test", u.String())

	for _, s := range []string{"", "/sap/bc/adt/", "/other/path", "sap/bc/adt/x"} {
		_, err := NewObjectUri(s)
		assert.Error(t, err, s)
	}
}

func TestObjectType(t *testing.T) {
	t.Parallel()

	ot, err := NewObjectType("CLAS/OC")
	require.NoError(t, err)
	assert.Equal(t, "CLAS", ot.Category())

	for _, s := range []string{"", "CLAS", "CLAS/OC/X", "clas/oc", "CLAS/"} {
		_, err := NewObjectType(s)
		assert.Error(t, err, s)
	}
}

func TestTransportId(t *testing.T) {
	t.Parallel()

	tr, err := NewTransportId("ABCD123456")
	require.NoError(t, err)
	assert.Equal(t, "ABCD123456", tr.String())

	for _, s := range []string{"ABC1234567", "abcd123456", "ABCD12345", "ABCD1234567", ""} {
		_, err := NewTransportId(s)
		assert.Error(t, err, s)
	}
}

func TestLockHandleLanguageVariant(t *testing.T) {
	t.Parallel()

	h, err := NewLockHandle("lock_handle_abc123")
	require.NoError(t, err)
	assert.Equal(t, "lock_handle_abc123", h.String())
	_, err = NewLockHandle("")
	assert.Error(t, err)

	l, err := NewSapLanguage("EN")
	require.NoError(t, err)
	assert.Equal(t, "EN", l.String())
	for _, s := range []string{"en", "E", "ENG", ""} {
		_, err := NewSapLanguage(s)
		assert.Error(t, err, s)
	}

	v, err := NewCheckVariant("DEFAULT")
	require.NoError(t, err)
	assert.Equal(t, "DEFAULT", v.String())
	_, err = NewCheckVariant("")
	assert.Error(t, err)
}
