package codec

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/types"
)

const discoveryDoc = `<?xml version="1.0" encoding="utf-8"?>
<app:service xmlns:app="http://www.w3.org/2007/app" xmlns:atom="http://www.w3.org/2005/Atom">
  <app:workspace>
    <atom:title>ABAP</atom:title>
    <app:collection href="/sap/bc/adt/abapgit/repos">
      <atom:title>abapGit Repositories</atom:title>
    </app:collection>
    <app:collection href="/sap/bc/adt/packages">
      <atom:title>Packages</atom:title>
    </app:collection>
    <app:collection href="/sap/bc/adt/activation">
      <atom:title>Activation</atom:title>
    </app:collection>
  </app:workspace>
</app:service>`

func TestParseDiscovery(t *testing.T) {
	t.Parallel()

	info, err := ParseDiscovery([]byte(discoveryDoc))
	require.NoError(t, err)
	assert.Len(t, info.Collections, 3)
	assert.True(t, info.SupportsAbapGit)
	assert.True(t, info.SupportsPackages)
	assert.True(t, info.SupportsActivation)
	assert.Equal(t, "abapGit Repositories", info.Collections[0].Title)
}

func TestParseXMLErrorCarriesLine(t *testing.T) {
	t.Parallel()

	_, err := ParseXML([]byte("<a>\n<b>\n</a>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

const repoListDoc = `<?xml version="1.0"?>
<abapgitrepo:repositories xmlns:abapgitrepo="http://www.sap.com/adt/abapgit/repositories">
  <abapgitrepo:repository>
    <abapgitrepo:key>KEY1</abapgitrepo:key>
    <abapgitrepo:url>https://github.com/org/repo.git</abapgitrepo:url>
    <abapgitrepo:package>ZTEST</abapgitrepo:package>
    <abapgitrepo:branchName>refs/heads/main</abapgitrepo:branchName>
    <abapgitrepo:status>A</abapgitrepo:status>
  </abapgitrepo:repository>
  <abapgitrepo:repository>
    <abapgitrepo:key>KEY2</abapgitrepo:key>
    <abapgitrepo:url>https://github.com/org/other.git</abapgitrepo:url>
    <abapgitrepo:package>ZOTHER</abapgitrepo:package>
    <abapgitrepo:status>E</abapgitrepo:status>
    <abapgitrepo:statusText>pull failed</abapgitrepo:statusText>
  </abapgitrepo:repository>
  <abapgitrepo:repository>
    <abapgitrepo:key>KEY3</abapgitrepo:key>
    <abapgitrepo:url>https://github.com/org/third.git</abapgitrepo:url>
    <abapgitrepo:package>ZTHIRD</abapgitrepo:package>
    <abapgitrepo:status>C</abapgitrepo:status>
  </abapgitrepo:repository>
</abapgitrepo:repositories>`

func TestParseRepoListStatusMapping(t *testing.T) {
	t.Parallel()

	repos, err := ParseRepoList([]byte(repoListDoc))
	require.NoError(t, err)
	require.Len(t, repos, 3)
	assert.Equal(t, RepoActive, repos[0].Status)
	assert.Equal(t, "KEY1", repos[0].Key)
	assert.Equal(t, RepoError, repos[1].Status)
	assert.Equal(t, "pull failed", repos[1].StatusText)
	assert.Equal(t, RepoInactive, repos[2].Status)
}

const activationDoc = `<?xml version="1.0"?>
<chkl:messages xmlns:chkl="http://www.sap.com/abapxml/checklist">
  <msg type="W" objDescr="/sap/bc/adt/oo/classes/zcl_a"><shortText>warning text</shortText></msg>
  <msg type="E" objDescr="/sap/bc/adt/oo/classes/zcl_b"><shortText>syntax error</shortText></msg>
  <msg type="S"><shortText>activated</shortText></msg>
</chkl:messages>`

func TestParseActivationResultCounts(t *testing.T) {
	t.Parallel()

	result, err := ParseActivationResult([]byte(activationDoc))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Activated)
	assert.Equal(t, 1, result.Failed)
	assert.False(t, result.Success())
	// activated + failed = total
	assert.Equal(t, len(result.Messages), result.Activated+result.Failed)

	empty, err := ParseActivationResult([]byte(""))
	require.NoError(t, err)
	assert.True(t, empty.Success())
}

const inactiveDoc = `<?xml version="1.0"?>
<ioc:inactiveObjects xmlns:ioc="http://www.sap.com/abapxml/inactiveCtsObjects"
  xmlns:adtcore="http://www.sap.com/adt/core">
  <ioc:entry>
    <ioc:object>
      <ioc:ref adtcore:uri="/sap/bc/adt/oo/classes/zcl_a" adtcore:type="CLAS/OC" adtcore:name="ZCL_A"/>
    </ioc:object>
  </ioc:entry>
  <ioc:entry>
    <ioc:object>
      <ioc:ref adtcore:uri="/sap/bc/adt/programs/programs/zprog" adtcore:type="PROG/P" adtcore:name="ZPROG"/>
    </ioc:object>
  </ioc:entry>
</ioc:inactiveObjects>`

func TestParseInactiveObjects(t *testing.T) {
	t.Parallel()

	refs, err := ParseInactiveObjects([]byte(inactiveDoc))
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "ZCL_A", refs[0].Name)
	assert.Equal(t, "CLAS/OC", refs[0].Type)
	assert.Equal(t, "/sap/bc/adt/programs/programs/zprog", refs[1].URI)

	none, err := ParseInactiveObjects([]byte("  "))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParsePollStatus(t *testing.T) {
	t.Parallel()

	completed := `<status xmlns:adtcore="http://www.sap.com/adt/core" adtcore:status="completed"/>`
	state, err := ParsePollStatus([]byte(completed))
	require.NoError(t, err)
	assert.Equal(t, "completed", state.Status)

	failed := `<run xmlns:adtcore="http://www.sap.com/adt/core" adtcore:status="failed">
  <adtcore:progress>step 3 of 5 aborted</adtcore:progress>
</run>`
	state, err = ParsePollStatus([]byte(failed))
	require.NoError(t, err)
	assert.Equal(t, "failed", state.Status)
	assert.Contains(t, state.Description, "step 3 of 5 aborted")
}

func TestParseLockResponseSyntheticRoot(t *testing.T) {
	t.Parallel()

	// The server returns a top-less fragment.
	body := `<?xml version="1.0"?><DATA><LOCK_HANDLE>lock_handle_abc123</LOCK_HANDLE><CORRNR>DEVK900123</CORRNR><CORRUSER>DEVELOPER</CORRUSER><CORRTEXT>fix</CORRTEXT></DATA><EXTRA/>`
	headers := http.Header{}
	headers.Set("Timestamp", "20260826120000")
	headers.Set("development-class", "ZTEST")

	info, err := ParseLockResponse([]byte(body), headers)
	require.NoError(t, err)
	assert.Equal(t, "lock_handle_abc123", info.Handle)
	assert.Equal(t, "DEVK900123", info.Transport)
	assert.Equal(t, "DEVELOPER", info.TransportOwner)
	assert.Equal(t, "20260826120000", info.Timestamp)
	assert.Equal(t, "ZTEST", info.DevelopmentClass)
}

func TestParseLockResponseMissingHandle(t *testing.T) {
	t.Parallel()

	_, err := ParseLockResponse([]byte(`<DATA><CORRNR>DEVK900123</CORRNR></DATA>`), nil)
	require.Error(t, err)
	assert.Equal(t, aerr.KindLockConflict, aerr.As(err).Kind)
}

func TestBuildActivationXMLRoundTrip(t *testing.T) {
	t.Parallel()

	objects := []ObjectRef{
		{Type: "CLAS/OC", Name: "ZCL_A", URI: "/sap/bc/adt/oo/classes/zcl_a"},
		{Type: "PROG/P", Name: "ZPROG", URI: "/sap/bc/adt/programs/programs/zprog"},
	}
	body := BuildActivationXML(objects)
	parsed, err := ParseActivationXML([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, objects, parsed)
}

func TestBuildPackageCreateXML(t *testing.T) {
	t.Parallel()

	name, err := types.NewPackageName("ZTEST")
	require.NoError(t, err)
	body := BuildPackageCreateXML(name, "test package", "")

	root, err := ParseXML([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "ZTEST", root.Attr("adtcore:name"))
	assert.Equal(t, "DEVC/K", root.Attr("adtcore:type"))
	assert.Equal(t, "development", root.Find("attributes").Attr("pak:packageType"))
	assert.Equal(t, "$TMP", root.Find("superPackage").Attr("adtcore:name"))
	for _, el := range []string{"subPackages", "packageInterfaces", "translation", "useAccesses"} {
		assert.NotNil(t, root.Find(el), el)
	}
}

func TestBuildRepoCloneXML(t *testing.T) {
	t.Parallel()

	pkg, err := types.NewPackageName("ZTEST")
	require.NoError(t, err)
	repoURL, err := types.NewRepoUrl("https://github.com/org/repo.git")
	require.NoError(t, err)

	body := BuildRepoCloneXML(pkg, repoURL, "")
	root, err := ParseXML([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "ZTEST", root.ChildText("package"))
	assert.Equal(t, "https://github.com/org/repo.git", root.ChildText("url"))
	assert.Equal(t, "refs/heads/main", root.ChildText("branchName"))
	assert.NotNil(t, root.Find("transportRequest"))
	assert.NotNil(t, root.Find("remoteUser"))
	assert.NotNil(t, root.Find("remotePassword"))
}

func TestExtractSAPError(t *testing.T) {
	t.Parallel()

	xmlBody := `<?xml version="1.0"?><exc:exception xmlns:exc="http://www.sap.com/abapxml/types/communicationframework">
  <localizedMessage>Package ZMISSING does not exist</localizedMessage>
</exc:exception>`
	assert.Equal(t, "Package ZMISSING does not exist", ExtractSAPError([]byte(xmlBody)))
	assert.Equal(t, "plain failure", ExtractSAPError([]byte("  plain failure\n")))
	assert.Empty(t, ExtractSAPError(nil))
}

func TestAttrNamespacedThenPlain(t *testing.T) {
	t.Parallel()

	doc := `<node xmlns:bwModel="http://sap.com/bw" bwModel:objectName="ZADSO1" objectType="ADSO"/>`
	root, err := ParseXML([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "ZADSO1", root.Attr("bwModel:objectName", "objectName"))
	// Implicit local-name fallback.
	assert.Equal(t, "ZADSO1", root.Attr("objectName"))
	assert.Equal(t, "ADSO", root.Attr("bwModel:objectType", "objectType"))
}
