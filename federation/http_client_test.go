package federation_test

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	circuit "github.com/rubyist/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/t2bot/data-package-repo/common/config"
	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/federation"
	"github.com/t2bot/data-package-repo/federation/fedtest"
	"github.com/t2bot/data-package-repo/types"
)

type HttpClientSuite struct {
	suite.Suite
	node   *fedtest.Node
	client *federation.HttpClient
	ctx    rcontext.RequestContext
	url    string
	close  func()
}

func TestHttpClientSuite(t *testing.T) {
	suite.Run(t, new(HttpClientSuite))
}

func (s *HttpClientSuite) SetupTest() {
	federation.ResetBreakers()
	s.node = fedtest.NewNode("")
	srv := fedtest.NewServer(s.node)
	s.close = srv.Close
	s.url = srv.URL

	conf := config.NewDefaultMainConfig()
	conf.Federation.Anonymous = true
	conf.Federation.TimeoutSeconds = 10
	s.ctx = rcontext.WithConfig(conf)

	var err error
	s.client, err = federation.NewHttpClient(conf.Federation, srv.URL)
	s.Require().NoError(err)
}

func (s *HttpClientSuite) TearDownTest() {
	s.close()
}

func (s *HttpClientSuite) TestGetFoundAndNotFound() {
	s.node.Seed("doi:10.5063/F1/abc", []byte("hello"), nil)

	body, found, err := s.client.Get(s.ctx, "doi:10.5063/F1/abc")
	s.Require().NoError(err)
	s.Require().True(found)
	b, err := io.ReadAll(body)
	s.Require().NoError(err)
	_ = body.Close()
	s.Equal("hello", string(b))

	body, found, err = s.client.Get(s.ctx, "missing")
	s.NoError(err)
	s.False(found)
	s.Nil(body)
}

func (s *HttpClientSuite) TestSystemMetadataRoundTrip() {
	uploaded := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	s.node.Seed("pid.1", nil, &types.SystemMetadata{
		SerialVersion: 3,
		FormatId:      "eml://ecoinformatics.org/eml-2.1.1",
		Size:          42,
		Checksum:      types.Checksum{Algorithm: "SHA-1", Value: "abc123"},
		Submitter:     "uid=someone",
		RightsHolder:  "uid=someone",
		AccessPolicy: &types.AccessPolicy{Allow: []types.AccessRule{
			{Subjects: []string{"public"}, Permissions: []string{"read"}},
		}},
		ReplicationPolicy: &types.ReplicationPolicy{Allowed: true, NumberReplicas: 2, PreferredNodes: []string{"urn:node:A"}},
		ObsoletedBy:       "pid.2",
		DateUploaded:      &uploaded,
	})

	meta, found, err := s.client.GetSystemMetadata(s.ctx, "pid.1")
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal(int64(3), meta.SerialVersion)
	s.Equal("pid.1", meta.Identifier)
	s.Equal("eml://ecoinformatics.org/eml-2.1.1", meta.FormatId)
	s.Equal(int64(42), meta.Size)
	s.Equal("SHA-1", meta.Checksum.Algorithm)
	s.Equal("abc123", meta.Checksum.Value)
	s.Equal("pid.2", meta.ObsoletedBy)
	s.Equal([]string{"public"}, meta.AccessPolicy.Allow[0].Subjects)
	s.True(meta.ReplicationPolicy.Allowed)
	s.Equal(2, meta.ReplicationPolicy.NumberReplicas)
	s.True(uploaded.Equal(*meta.DateUploaded))

	_, found, err = s.client.GetSystemMetadata(s.ctx, "pid.nope")
	s.NoError(err)
	s.False(found)
}

func (s *HttpClientSuite) TestResolveReadsSeeOther() {
	s.node.SeedLocations("pid.1",
		types.ObjectLocation{NodeIdentifier: "urn:node:A", BaseUrl: "https://a.example.org/mn", Url: "https://a.example.org/mn/v1/object/pid.1"},
		types.ObjectLocation{NodeIdentifier: "urn:node:B", BaseUrl: "https://b.example.org/mn", Url: "https://b.example.org/mn/v1/object/pid.1"},
	)

	locations, found, err := s.client.Resolve(s.ctx, "pid.1")
	s.Require().NoError(err)
	s.Require().True(found)
	s.Require().Len(locations, 2)
	s.Equal("https://a.example.org/mn", locations[0].BaseUrl)
	s.Equal("urn:node:B", locations[1].NodeIdentifier)

	_, found, err = s.client.Resolve(s.ctx, "pid.nope")
	s.NoError(err)
	s.False(found)
}

func (s *HttpClientSuite) TestListNodes() {
	s.node.SeedNodes(types.Node{Identifier: "urn:node:A", Name: "A", BaseUrl: "https://a.example.org/mn", Type: "mn", State: "up"})
	nodes, err := s.client.ListNodes(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(nodes, 1)
	s.Equal("urn:node:A", nodes[0].Identifier)
	s.Equal("https://a.example.org/mn", nodes[0].BaseUrl)
	s.Equal("mn", nodes[0].Type)
}

func (s *HttpClientSuite) TestCreateThenUpdate() {
	body := []byte("<eml>first</eml>")
	receipt, err := s.client.Create(s.ctx, "pid.v1", bytes.NewReader(body), &types.SystemMetadata{
		SerialVersion: 1, Identifier: "pid.v1", FormatId: "eml://x", Size: int64(len(body)),
		Checksum: types.Checksum{Algorithm: "SHA-1", Value: "x"},
	})
	s.Require().NoError(err)
	s.Equal("pid.v1", receipt.Pid)
	stored, ok := s.node.Object("pid.v1")
	s.Require().True(ok)
	s.Equal(body, stored)

	body2 := []byte("<eml>second</eml>")
	receipt, err = s.client.Update(s.ctx, "pid.v2", bytes.NewReader(body2), "pid.v1", &types.SystemMetadata{
		SerialVersion: 2, Identifier: "pid.v2", FormatId: "eml://x", Size: int64(len(body2)),
		Checksum: types.Checksum{Algorithm: "SHA-1", Value: "y"},
	})
	s.Require().NoError(err)
	s.Equal("pid.v2", receipt.Pid)

	old, _ := s.node.Meta("pid.v1")
	s.Equal("pid.v2", old.ObsoletedBy)
	updated, _ := s.node.Meta("pid.v2")
	s.Equal("pid.v1", updated.Obsoletes)
	s.Equal([]string{"pid.v1", "pid.v2"}, s.node.Published())
}

func (s *HttpClientSuite) TestCreateConflictIsErrorResponse() {
	s.node.Seed("pid.taken", []byte("x"), &types.SystemMetadata{Size: 1})
	_, err := s.client.Create(s.ctx, "pid.taken", bytes.NewReader([]byte("y")), &types.SystemMetadata{Identifier: "pid.taken", Size: 1})
	s.Require().Error(err)

	var resp federation.ErrorResponse
	s.Require().True(errors.As(err, &resp))
	s.Equal(409, resp.StatusCode)
	s.Equal("IdentifierNotUnique", resp.Name)
	s.False(federation.IsNotFound(err))
}

func (s *HttpClientSuite) TestServerFailureIsError() {
	s.node.FailOn(fedtest.OpGetSystemMetadata, errors.New("database on fire"))
	_, found, err := s.client.GetSystemMetadata(s.ctx, "pid.1")
	s.Require().Error(err)
	s.False(found)
	s.Contains(err.Error(), "database on fire")
}

func (s *HttpClientSuite) TestPublishSendsDeclaredContentType() {
	body := []byte(`{"http://example.org/a": {}}`)
	_, err := s.client.Create(s.ctx, "pid.rm", federation.WithContentType(bytes.NewReader(body), "application/rdf+json"), &types.SystemMetadata{
		SerialVersion: 1, Identifier: "pid.rm", FormatId: "http://www.openarchives.org/ore/terms", Size: int64(len(body)),
		Checksum: types.Checksum{Algorithm: "SHA-1", Value: "x"},
	})
	s.Require().NoError(err)
	s.Equal("application/rdf+json", s.node.ContentType("pid.rm"))

	plain := []byte("a,b\n1,2\n")
	_, err = s.client.Create(s.ctx, "pid.csv", bytes.NewReader(plain), &types.SystemMetadata{
		SerialVersion: 1, Identifier: "pid.csv", FormatId: "text/csv", Size: int64(len(plain)),
		Checksum: types.Checksum{Algorithm: "SHA-1", Value: "y"},
	})
	s.Require().NoError(err)
	s.NotEqual("application/rdf+json", s.node.ContentType("pid.csv"))
	s.NotEmpty(s.node.ContentType("pid.csv"))
}

func (s *HttpClientSuite) newClient(backoffAt int) *federation.HttpClient {
	conf := s.ctx.Config.Federation
	conf.BackoffAt = backoffAt
	client, err := federation.NewHttpClient(conf, s.url)
	s.Require().NoError(err)
	return client
}

func (s *HttpClientSuite) TestClientErrorsDoNotTripBreaker() {
	client := s.newClient(2)
	s.node.Seed("pid.taken", []byte("x"), &types.SystemMetadata{Size: 1})

	for i := 0; i < 5; i++ {
		_, err := client.Create(s.ctx, "pid.taken", bytes.NewReader([]byte("y")), &types.SystemMetadata{Identifier: "pid.taken", Size: 1})
		var resp federation.ErrorResponse
		s.Require().True(errors.As(err, &resp), "attempt %d: %v", i, err)
		s.Equal(409, resp.StatusCode)
	}

	_, found, err := client.GetSystemMetadata(s.ctx, "pid.taken")
	s.NoError(err)
	s.True(found)
}

func (s *HttpClientSuite) TestServerErrorsTripBreaker() {
	client := s.newClient(2)
	s.node.FailOn(fedtest.OpGetSystemMetadata, errors.New("database on fire"))

	for i := 0; i < 2; i++ {
		_, _, err := client.GetSystemMetadata(s.ctx, "pid.1")
		s.Require().Error(err)
		s.NotErrorIs(err, circuit.ErrBreakerOpen)
	}
	_, _, err := client.GetSystemMetadata(s.ctx, "pid.1")
	s.ErrorIs(err, circuit.ErrBreakerOpen)
}

func TestNewHttpClientRejectsBadUrls(t *testing.T) {
	conf := config.NewDefaultMainConfig().Federation
	_, err := federation.NewHttpClient(conf, "ftp://example.org")
	assert.Error(t, err)
}

func TestNewHttpClientRequiresCertificate(t *testing.T) {
	conf := config.NewDefaultMainConfig().Federation
	conf.Anonymous = false
	conf.CertFile = "/does/not/exist.pem"
	conf.KeyFile = "/does/not/exist.key"
	_, err := federation.NewHttpClient(conf, "https://mn.example.org/mn")
	require.Error(t, err)
}
