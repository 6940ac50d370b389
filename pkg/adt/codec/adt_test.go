package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erpl/erpl-adt/pkg/adt/types"
)

const searchDoc = `<?xml version="1.0"?>
<adtcore:objectReferences xmlns:adtcore="http://www.sap.com/adt/core">
  <adtcore:objectReference adtcore:uri="/sap/bc/adt/oo/classes/zcl_demo" adtcore:type="CLAS/OC"
    adtcore:name="ZCL_DEMO" adtcore:packageName="ZDEMO" adtcore:description="Demo class"/>
  <adtcore:objectReference adtcore:uri="/sap/bc/adt/programs/programs/zreport" adtcore:type="PROG/P"
    adtcore:name="ZREPORT" adtcore:packageName="ZDEMO"/>
</adtcore:objectReferences>`

func TestParseSearchResults(t *testing.T) {
	t.Parallel()

	results, err := ParseSearchResults([]byte(searchDoc))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "ZCL_DEMO", results[0].Name)
	assert.Equal(t, "CLAS/OC", results[0].Type)
	assert.Equal(t, "Demo class", results[0].Description)
	assert.Equal(t, "ZDEMO", results[1].Package)
}

const nodeStructureDoc = `<?xml version="1.0"?>
<asx:abap xmlns:asx="http://www.sap.com/abapxml" version="1.0">
  <asx:values>
    <DATA>
      <TREE_CONTENT>
        <SEU_ADT_REPOSITORY_OBJ_NODE>
          <OBJECT_TYPE>CLAS/OC</OBJECT_TYPE>
          <OBJECT_NAME>ZCL_DEMO</OBJECT_NAME>
          <OBJECT_URI>/sap/bc/adt/oo/classes/zcl_demo</OBJECT_URI>
          <DESCRIPTION>Demo class</DESCRIPTION>
        </SEU_ADT_REPOSITORY_OBJ_NODE>
        <SEU_ADT_REPOSITORY_OBJ_NODE>
          <OBJECT_TYPE>DEVC/K</OBJECT_TYPE>
          <OBJECT_NAME>ZDEMO_SUB</OBJECT_NAME>
        </SEU_ADT_REPOSITORY_OBJ_NODE>
        <SEU_ADT_REPOSITORY_OBJ_NODE>
          <OBJECT_TYPE>PROG/P</OBJECT_TYPE>
          <OBJECT_NAME/>
        </SEU_ADT_REPOSITORY_OBJ_NODE>
      </TREE_CONTENT>
    </DATA>
  </asx:values>
</asx:abap>`

func TestParseNodeStructure(t *testing.T) {
	t.Parallel()

	content, err := ParseNodeStructure([]byte(nodeStructureDoc), "ZDEMO")
	require.NoError(t, err)
	assert.Equal(t, "ZDEMO", content.Name)
	require.Len(t, content.Objects, 1)
	assert.Equal(t, "ZCL_DEMO", content.Objects[0].Name)
	assert.Equal(t, []string{"ZDEMO_SUB"}, content.SubPackages)

	empty, err := ParseNodeStructure(nil, "ZNEW")
	require.NoError(t, err)
	assert.Empty(t, empty.Objects)
	assert.Empty(t, empty.SubPackages)
}

const aunitDoc = `<?xml version="1.0"?>
<aunit:runResult xmlns:aunit="http://www.sap.com/adt/aunit" xmlns:adtcore="http://www.sap.com/adt/core">
  <program adtcore:name="ZCL_DEMO">
    <testClasses>
      <testClass adtcore:name="LTCL_DEMO">
        <testMethods>
          <testMethod adtcore:name="TEST_OK" executionTime="0.01"/>
          <testMethod adtcore:name="TEST_FAIL">
            <alerts>
              <alert kind="failedAssertion" severity="critical">
                <title>Critical Assertion Error</title>
                <details>
                  <detail text="Expected 1 but got 2"/>
                </details>
              </alert>
            </alerts>
          </testMethod>
        </testMethods>
      </testClass>
    </testClasses>
  </program>
</aunit:runResult>`

func TestParseTestRunResult(t *testing.T) {
	t.Parallel()

	result, err := ParseTestRunResult([]byte(aunitDoc))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Failed)
	assert.False(t, result.Success())
	require.Len(t, result.Methods, 2)
	assert.Equal(t, "LTCL_DEMO", result.Methods[1].Class)
	assert.Equal(t, "TEST_FAIL", result.Methods[1].Method)
	require.Len(t, result.Methods[1].Alerts, 1)
	assert.Equal(t, "Critical Assertion Error", result.Methods[1].Alerts[0].Title)
	assert.Equal(t, []string{"Expected 1 but got 2"}, result.Methods[1].Alerts[0].Details)
}

func TestBuildTestRunXML(t *testing.T) {
	t.Parallel()

	body := BuildTestRunXML("/sap/bc/adt/oo/classes/zcl_demo")
	root, err := ParseXML([]byte(body))
	require.NoError(t, err)
	ref := root.Find("objectReference")
	require.NotNil(t, ref)
	assert.Equal(t, "/sap/bc/adt/oo/classes/zcl_demo", ref.Attr("adtcore:uri", "uri"))
}

const checkRunDoc = `<?xml version="1.0"?>
<chkrun:checkRunReports xmlns:chkrun="http://www.sap.com/adt/checkrun">
  <chkrun:checkReport chkrun:reporter="abapCheckRun">
    <chkrun:checkMessageList>
      <chkrun:checkMessage chkrun:uri="/sap/bc/adt/oo/classes/zcl_demo/source/main#start=5,0"
        chkrun:type="E" chkrun:shortText="Variable LV_X is not defined"/>
      <chkrun:checkMessage chkrun:uri="/sap/bc/adt/oo/classes/zcl_demo/source/main#start=9,0"
        chkrun:type="W" chkrun:shortText="Unused variable"/>
    </chkrun:checkMessageList>
  </chkrun:checkReport>
</chkrun:checkRunReports>`

func TestParseCheckRunResult(t *testing.T) {
	t.Parallel()

	result, err := ParseCheckRunResult([]byte(checkRunDoc))
	require.NoError(t, err)
	require.Len(t, result.Findings, 2)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, 1, result.WarnCount)
	assert.True(t, result.HasErrors())
	assert.Equal(t, 1, result.Findings[0].Priority)
	assert.Equal(t, "Variable LV_X is not defined", result.Findings[0].MessageText)
}

const transportListDoc = `<?xml version="1.0"?>
<tm:root xmlns:tm="http://www.sap.com/cts/adt/tm">
  <tm:workbench>
    <tm:target tm:name="LOCAL">
      <tm:modifiable>
        <tm:request tm:number="DEVK900123" tm:owner="DEVELOPER" tm:desc="feature work" tm:status="D" tm:type="K"/>
        <tm:request tm:number="DEVK900200" tm:owner="DEVELOPER" tm:desc="bugfix" tm:status="D" tm:type="K"/>
      </tm:modifiable>
    </tm:target>
  </tm:workbench>
</tm:root>`

func TestParseTransportList(t *testing.T) {
	t.Parallel()

	transports, err := ParseTransportList([]byte(transportListDoc))
	require.NoError(t, err)
	require.Len(t, transports, 2)
	assert.Equal(t, "DEVK900123", transports[0].Number)
	assert.Equal(t, "feature work", transports[0].Description)
	assert.Equal(t, "DEVELOPER", transports[0].Owner)
}

func TestParseCreatedTransport(t *testing.T) {
	t.Parallel()

	doc := `<tm:root xmlns:tm="http://www.sap.com/cts/adt/tm"><tm:request tm:number="DEVK900300"/></tm:root>`
	number, err := ParseCreatedTransport([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "DEVK900300", number)
}

func TestParseObjectInfo(t *testing.T) {
	t.Parallel()

	doc := `<?xml version="1.0"?>
<class:abapClass xmlns:class="http://www.sap.com/adt/oo/classes" xmlns:adtcore="http://www.sap.com/adt/core"
  adtcore:name="ZCL_DEMO" adtcore:type="CLAS/OC" adtcore:description="Demo class"
  adtcore:version="active" adtcore:changedBy="DEVELOPER">
  <adtcore:packageRef adtcore:name="ZDEMO"/>
</class:abapClass>`
	info, err := ParseObjectInfo([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "ZCL_DEMO", info.Name)
	assert.Equal(t, "CLAS/OC", info.Type)
	assert.Equal(t, "ZDEMO", info.Package)
	assert.Equal(t, "active", info.Version)
}

func TestBuildObjectCreateXML(t *testing.T) {
	t.Parallel()

	pkg, err := types.NewPackageName("ZDEMO")
	require.NoError(t, err)
	objType, err := types.NewObjectType("CLAS/OC")
	require.NoError(t, err)

	body, err := BuildObjectCreateXML(objType, "zcl_new", pkg, "new class")
	require.NoError(t, err)
	root, err := ParseXML([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "ZCL_NEW", root.Attr("adtcore:name"))
	assert.Equal(t, "CLAS/OC", root.Attr("adtcore:type"))
	assert.Equal(t, "ZDEMO", root.Find("packageRef").Attr("adtcore:name"))

	endpoint, err := CreateEndpoint(objType)
	require.NoError(t, err)
	assert.Equal(t, "/sap/bc/adt/oo/classes", endpoint)

	badType, err := types.NewObjectType("XXXX/X")
	require.NoError(t, err)
	_, err = BuildObjectCreateXML(badType, "x", pkg, "")
	assert.Error(t, err)
}
