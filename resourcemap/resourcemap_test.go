package resourcemap

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t2bot/data-package-repo/common"
	"github.com/t2bot/data-package-repo/common/config"
	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/util"
)

const mnUrl = "https://mn.example.org/mn"

func testCtx() rcontext.RequestContext {
	return rcontext.WithConfig(config.NewDefaultMainConfig())
}

func member(pid string, format string) MemberInfo {
	return MemberInfo{Pid: pid, Url: util.MakeResolveUrl(mnUrl, pid), FormatId: format}
}

func buildSample(t *testing.T) *ResourceMap {
	b := &Builder{Title: "Stream temperature \"2019\"", Description: "Line one\nline two & <more>"}
	rm, err := b.Build("resource_map_pkg.1", util.MakeResolveUrl(mnUrl, "resource_map_pkg.1"),
		member("doi:10.5063/F1/meta", "eml://ecoinformatics.org/eml-2.1.1"),
		[]MemberInfo{
			member("data.b.csv", "text/csv"),
			member("data.a.csv", "text/csv"),
			member("urn:uuid:c 1", "application/octet-stream"),
		})
	require.NoError(t, err)
	return rm
}

func TestBuildOrdersDataByPid(t *testing.T) {
	rm := buildSample(t)
	pids := make([]string, 0)
	for _, d := range rm.Data {
		pids = append(pids, d.Pid)
	}
	assert.Equal(t, []string{"data.a.csv", "data.b.csv", "urn:uuid:c 1"}, pids)
}

func TestBuildCollectsEveryMissingAttribute(t *testing.T) {
	b := &Builder{}
	_, err := b.Build("pkg.1", util.MakeResolveUrl(mnUrl, "pkg.1"),
		MemberInfo{Pid: "meta.1", Url: "", FormatId: "eml://x"},
		[]MemberInfo{
			{Pid: "data.1", Url: util.MakeResolveUrl(mnUrl, "data.1"), FormatId: ""},
			{Pid: "", Url: "", FormatId: "text/csv"},
		})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrCannotSerialize))
	msg := err.Error()
	assert.Contains(t, msg, "meta.1 has no content location")
	assert.Contains(t, msg, "data.1 has no format")
	assert.Contains(t, msg, "has no identifier")
	assert.Equal(t, 2, strings.Count(msg, "has no content location"))
}

func TestBuildRejectsMetadataAsData(t *testing.T) {
	b := &Builder{}
	_, err := b.Build("pkg.1", util.MakeResolveUrl(mnUrl, "pkg.1"), member("m", "eml://x"), []MemberInfo{member("m", "eml://x")})
	assert.ErrorIs(t, err, common.ErrCannotSerialize)
}

func TestUnsupportedDialect(t *testing.T) {
	rm := buildSample(t)
	_, err := rm.Serialize("yaml-ld")
	assert.ErrorIs(t, err, common.ErrUnsupportedSerialization)

	_, err = Parse(testCtx(), "rdfa", []byte("<html/>"))
	assert.ErrorIs(t, err, common.ErrUnsupportedSerialization)
}

func TestEveryDialectSerializesDeterministically(t *testing.T) {
	for _, d := range Dialects() {
		first, err := buildSample(t).Serialize(d)
		require.NoError(t, err, d)
		second, err := buildSample(t).Serialize(d)
		require.NoError(t, err, d)
		assert.NotEmpty(t, first, d)
		assert.Equal(t, string(first), string(second), d)
	}
}

func TestRoundTrip(t *testing.T) {
	rm := buildSample(t)
	for _, d := range Dialects() {
		if !Parseable(d) {
			continue
		}
		body, err := rm.Serialize(d)
		require.NoError(t, err, d)

		agg, err := Parse(testCtx(), d, body)
		require.NoError(t, err, d)
		require.NotNil(t, agg.Metadata, d)
		assert.Equal(t, "resource_map_pkg.1", agg.Pid, d)
		assert.Equal(t, rm.Url, agg.Url, d)
		assert.Equal(t, "doi:10.5063/F1/meta", agg.Metadata.Pid, d)
		assert.Equal(t, rm.Metadata.Url, agg.Metadata.Url, d)

		pids := make([]string, 0)
		for _, m := range agg.Data {
			pids = append(pids, m.Pid)
		}
		sort.Strings(pids)
		assert.Equal(t, []string{"data.a.csv", "data.b.csv", "urn:uuid:c 1"}, pids, d)

		g, err := ReadGraph(d, body)
		require.NoError(t, err, d)
		assert.Equal(t, rm.Graph().Len(), g.Len(), d)
		titles := g.Objects(NewIRI(rm.AggregationUrl), DcTitle)
		require.Len(t, titles, 1, d)
		assert.Equal(t, "Stream temperature \"2019\"", titles[0].Value, d)
		descriptions := g.Objects(NewIRI(rm.AggregationUrl), DcDescription)
		require.Len(t, descriptions, 1, d)
		assert.Equal(t, "Line one\nline two & <more>", descriptions[0].Value, d)
	}
}

func TestParseAmbiguousMetadataPicksFirst(t *testing.T) {
	doc := `<https://mn.example.org/mn/v1/resolve/meta.1> <http://purl.org/spar/cito/documents> <https://mn.example.org/mn/v1/resolve/data.1> .
<https://mn.example.org/mn/v1/resolve/data.1> <http://purl.org/spar/cito/isDocumentedBy> <https://mn.example.org/mn/v1/resolve/meta.1> .
<https://mn.example.org/mn/v1/resolve/data.2> <http://purl.org/spar/cito/isDocumentedBy> <https://mn.example.org/mn/v1/resolve/meta.2> .
`
	agg, err := Parse(testCtx(), "nt", []byte(doc))
	require.NoError(t, err)
	require.NotNil(t, agg.Metadata)
	assert.Equal(t, "meta.1", agg.Metadata.Pid)
	require.Len(t, agg.Data, 1)
	assert.Equal(t, "data.1", agg.Data[0].Pid)
}

func TestParsePrefersDcIdentifier(t *testing.T) {
	doc := `<https://x.example.org/m> <http://purl.org/dc/terms/identifier> "meta:real" .
<https://x.example.org/d> <http://purl.org/spar/cito/isDocumentedBy> <https://x.example.org/m> .
<https://x.example.org/d> <http://purl.org/dc/terms/identifier> "data:real!" .
<https://x.example.org/other> <http://purl.org/dc/terms/identifier> "ignored" .
`
	agg, err := Parse(testCtx(), "nt", []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "meta:real", agg.Metadata.Pid)
	require.Len(t, agg.Data, 1)
	assert.Equal(t, "data:real!", agg.Data[0].Pid)
}

func TestParseMetadataWithoutIdentifier(t *testing.T) {
	doc := `<https://x.example.org/d> <http://purl.org/spar/cito/isDocumentedBy> <https://x.example.org/m> .
`
	_, err := Parse(testCtx(), "nt", []byte(doc))
	assert.ErrorIs(t, err, common.ErrWrongFormat)
}

func TestParseNoMetadata(t *testing.T) {
	agg, err := Parse(testCtx(), "nt", []byte("<https://x.example.org/a> <http://purl.org/dc/terms/title> \"t\" .\n"))
	require.NoError(t, err)
	assert.Nil(t, agg.Metadata)
	assert.Empty(t, agg.Data)
}

func TestParseForeignRdfXml(t *testing.T) {
	doc := `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:cito="http://purl.org/spar/cito/"
         xmlns:dcterms="http://purl.org/dc/terms/"
         xmlns:ore="http://www.openarchives.org/ore/terms/">
  <ore:ResourceMap rdf:about="https://cn.example.org/cn/v1/resolve/rm.1">
    <dcterms:identifier>rm.1</dcterms:identifier>
    <ore:describes>
      <ore:Aggregation rdf:about="https://cn.example.org/cn/v1/resolve/rm.1#aggregation">
        <ore:aggregates rdf:resource="https://cn.example.org/cn/v1/resolve/meta.1"/>
      </ore:Aggregation>
    </ore:describes>
  </ore:ResourceMap>
  <rdf:Description rdf:about="https://cn.example.org/cn/v1/resolve/data%2F1">
    <cito:isDocumentedBy rdf:resource="https://cn.example.org/cn/v1/resolve/meta.1"/>
  </rdf:Description>
</rdf:RDF>`
	agg, err := Parse(testCtx(), "xml", []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "rm.1", agg.Pid)
	assert.Equal(t, "meta.1", agg.Metadata.Pid)
	require.Len(t, agg.Data, 1)
	assert.Equal(t, "data/1", agg.Data[0].Pid)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse(testCtx(), "nt", []byte("<https://a> <https://b> \"unterminated .\n"))
	assert.Error(t, err)
	_, err = Parse(testCtx(), "json", []byte("{not json"))
	assert.Error(t, err)
	_, err = Parse(testCtx(), "xml", []byte("<rdf:RDF xmlns:rdf=\"http://www.w3.org/1999/02/22-rdf-syntax-ns#\">"))
	assert.Error(t, err)
}

func TestParseTurtle(t *testing.T) {
	doc := `@prefix cito: <http://purl.org/spar/cito/> .
@prefix dcterms: <http://purl.org/dc/terms/> .
@prefix ore: <http://www.openarchives.org/ore/terms/> .

<https://x.example.org/m> dcterms:identifier "meta.1" ;
    cito:documents <https://x.example.org/d> .
<https://x.example.org/d> a ore:AggregatedResource ;
    dcterms:identifier "data.1" ;
    cito:isDocumentedBy <https://x.example.org/m> .
`
	for _, d := range []string{"turtle", "n3"} {
		agg, err := Parse(testCtx(), d, []byte(doc))
		require.NoError(t, err, d)
		require.NotNil(t, agg.Metadata, d)
		assert.Equal(t, "meta.1", agg.Metadata.Pid, d)
		require.Len(t, agg.Data, 1, d)
		assert.Equal(t, "data.1", agg.Data[0].Pid, d)
	}
}

func TestTurtleReadsNTriples(t *testing.T) {
	body, err := buildSample(t).Serialize("nt")
	require.NoError(t, err)
	g, err := ReadGraph("turtle", body)
	require.NoError(t, err)
	assert.Equal(t, buildSample(t).Graph().Len(), g.Len())
}

func TestRdfaCarriesRelations(t *testing.T) {
	body, err := buildSample(t).Serialize("rdfa")
	require.NoError(t, err)
	s := string(body)
	assert.Contains(t, s, `typeof="ore:ResourceMap"`)
	assert.Contains(t, s, `rel="cito:documents"`)
	assert.Contains(t, s, `property="dcterms:identifier"`)
	assert.Contains(t, s, "<title>Resource map resource_map_pkg.1</title>")
}
