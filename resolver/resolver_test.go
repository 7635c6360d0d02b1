package resolver

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/t2bot/data-package-repo/common"
	"github.com/t2bot/data-package-repo/common/config"
	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/errcache"
	"github.com/t2bot/data-package-repo/federation/fedtest"
	"github.com/t2bot/data-package-repo/types"
)

const cnUrl = "https://cn.example.org/cn"
const mnUrl = "https://mn.example.org/mn"
const replicaAUrl = "https://a.example.org/mn"
const replicaBUrl = "https://b.example.org/mn"

type ResolverSuite struct {
	suite.Suite
	ctx      rcontext.RequestContext
	fed      *fedtest.Federation
	cn       *fedtest.Node
	mn       *fedtest.Node
	replicaA *fedtest.Node
	replicaB *fedtest.Node
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ctx = rcontext.WithConfig(config.NewDefaultMainConfig())
	s.fed = fedtest.NewFederation()
	s.cn = s.fed.AddNode(cnUrl)
	s.mn = s.fed.AddNode(mnUrl)
	s.replicaA = s.fed.AddNode(replicaAUrl)
	s.replicaB = s.fed.AddNode(replicaBUrl)
}

func (s *ResolverSuite) identifierResolver(failures *errcache.ErrCache) *IdentifierResolver {
	return NewIdentifierResolver(s.mn, s.cn, s.fed.Dialer(), failures)
}

func (s *ResolverSuite) readAll(loc *Location) string {
	defer loc.Body.Close()
	b, err := io.ReadAll(loc.Body)
	s.Require().NoError(err)
	return string(b)
}

func (s *ResolverSuite) TestPrimaryShortCircuit() {
	s.mn.Seed("pid.1", []byte("primary bytes"), nil)

	loc, err := s.identifierResolver(nil).ResolveLocation(s.ctx, "pid.1")
	s.Require().NoError(err)
	s.Equal(mnUrl, loc.NodeUrl)
	s.Equal("primary bytes", s.readAll(loc))
	s.Equal(0, s.cn.Calls(fedtest.OpResolve))
	s.Equal(0, s.cn.TotalCalls())
}

func (s *ResolverSuite) TestSecondCandidateWins() {
	s.replicaB.Seed("pid.1", []byte("replica bytes"), nil)
	s.replicaA.FailOn(fedtest.OpGet, errors.New("replica A is down"))
	s.cn.SeedLocations("pid.1",
		types.ObjectLocation{NodeIdentifier: "urn:node:MN", BaseUrl: mnUrl},
		types.ObjectLocation{NodeIdentifier: "urn:node:A", BaseUrl: replicaAUrl},
		types.ObjectLocation{NodeIdentifier: "urn:node:B", BaseUrl: replicaBUrl},
	)

	loc, err := s.identifierResolver(nil).ResolveLocation(s.ctx, "pid.1")
	s.Require().NoError(err)
	s.Equal(replicaBUrl, loc.NodeUrl)
	s.Equal("replica bytes", s.readAll(loc))
	s.Equal(1, s.cn.Calls(fedtest.OpResolve))
	s.Equal(1, s.mn.Calls(fedtest.OpGet), "primary is not retried as a candidate")
	s.Equal(0, s.fed.Dials(mnUrl))
	s.Equal(1, s.replicaA.Calls(fedtest.OpGet))
}

func (s *ResolverSuite) TestUnknownCandidateNodeIsSkipped() {
	s.replicaA.Seed("pid.1", []byte("a"), nil)
	s.cn.SeedLocations("pid.1",
		types.ObjectLocation{BaseUrl: "https://gone.example.org/mn"},
		types.ObjectLocation{BaseUrl: replicaAUrl},
	)

	loc, err := s.identifierResolver(nil).ResolveLocation(s.ctx, "pid.1")
	s.Require().NoError(err)
	s.Equal(replicaAUrl, loc.NodeUrl)
	_ = loc.Body.Close()
}

func (s *ResolverSuite) TestNoCandidates() {
	_, err := s.identifierResolver(nil).ResolveLocation(s.ctx, "pid.nowhere")
	s.ErrorIs(err, common.ErrObjectNotFound)

	s.cn.SeedLocations("pid.empty")
	_, err = s.identifierResolver(nil).ResolveLocation(s.ctx, "pid.empty")
	s.ErrorIs(err, common.ErrObjectNotFound)
}

func (s *ResolverSuite) TestAllCandidatesFail() {
	s.cn.SeedLocations("pid.1", types.ObjectLocation{BaseUrl: replicaAUrl}, types.ObjectLocation{BaseUrl: replicaBUrl})
	_, err := s.identifierResolver(nil).ResolveLocation(s.ctx, "pid.1")
	s.ErrorIs(err, common.ErrObjectNotFound)
	s.Equal(1, s.replicaA.Calls(fedtest.OpGet))
	s.Equal(1, s.replicaB.Calls(fedtest.OpGet))
}

func (s *ResolverSuite) TestPrimaryErrorDoesNotFallBack() {
	boom := errors.New("primary exploded")
	s.mn.FailOn(fedtest.OpGet, boom)

	_, err := s.identifierResolver(nil).ResolveLocation(s.ctx, "pid.1")
	s.ErrorIs(err, common.ErrResolutionFailed)
	s.ErrorIs(err, boom)
	s.Equal(0, s.cn.Calls(fedtest.OpResolve))

	var opErr *common.OperationError
	s.Require().ErrorAs(err, &opErr)
	s.Equal("pid.1", opErr.Pid)
	s.Equal(mnUrl, opErr.Node)
}

func (s *ResolverSuite) TestCoordinatingNodeErrorIsResolutionFailure() {
	s.cn.FailOn(fedtest.OpResolve, errors.New("cn down"))
	_, err := s.identifierResolver(nil).ResolveLocation(s.ctx, "pid.1")
	s.ErrorIs(err, common.ErrResolutionFailed)
}

func (s *ResolverSuite) TestMissingIdentifier() {
	_, err := s.identifierResolver(nil).ResolveLocation(s.ctx, "")
	s.ErrorIs(err, common.ErrMissingIdentifier)
	s.Equal(0, s.mn.TotalCalls())
}

func (s *ResolverSuite) TestFailureCacheRemembersNotFound() {
	failures := errcache.NewErrCache(1 * time.Minute)
	r := s.identifierResolver(failures)

	_, err := r.ResolveLocation(s.ctx, "pid.1")
	s.ErrorIs(err, common.ErrObjectNotFound)
	_, err = r.ResolveLocation(s.ctx, "pid.1")
	s.ErrorIs(err, common.ErrObjectNotFound)
	s.Equal(1, s.mn.Calls(fedtest.OpGet))
	s.Equal(1, s.cn.Calls(fedtest.OpResolve))
}

func (s *ResolverSuite) TestFailureCacheIgnoresOtherErrors() {
	failures := errcache.NewErrCache(1 * time.Minute)
	r := s.identifierResolver(failures)
	s.mn.FailOn(fedtest.OpGet, errors.New("flaky"))

	_, err := r.ResolveLocation(s.ctx, "pid.1")
	s.ErrorIs(err, common.ErrResolutionFailed)
	s.mn.FailOn(fedtest.OpGet, nil)
	s.mn.Seed("pid.1", []byte("x"), nil)

	loc, err := r.ResolveLocation(s.ctx, "pid.1")
	s.Require().NoError(err)
	_ = loc.Body.Close()
}

func (s *ResolverSuite) seedChain(node *fedtest.Node, pids ...string) {
	for i, pid := range pids {
		meta := &types.SystemMetadata{SerialVersion: 1, FormatId: "text/csv"}
		if i > 0 {
			meta.Obsoletes = pids[i-1]
		}
		if i < len(pids)-1 {
			meta.ObsoletedBy = pids[i+1]
		}
		node.Seed(pid, nil, meta)
	}
}

func (s *ResolverSuite) TestFixedPoint() {
	s.seedChain(s.cn, "pid.only")
	r := NewMetadataResolver(s.cn)

	followed, err := r.GetMetadata(s.ctx, "pid.only", true, nil)
	s.Require().NoError(err)
	exact, err := r.GetMetadata(s.ctx, "pid.only", false, nil)
	s.Require().NoError(err)
	s.Equal("pid.only", followed.Identifier)
	s.Equal(exact.Identifier, followed.Identifier)
}

func (s *ResolverSuite) TestChainFollow() {
	s.seedChain(s.cn, "pid.1", "pid.2", "pid.3")
	r := NewMetadataResolver(s.cn)

	meta, err := r.GetMetadata(s.ctx, "pid.1", true, nil)
	s.Require().NoError(err)
	s.Equal("pid.3", meta.Identifier)

	meta, err = r.GetMetadata(s.ctx, "pid.1", false, nil)
	s.Require().NoError(err)
	s.Equal("pid.1", meta.Identifier)
	s.Equal("pid.2", meta.ObsoletedBy)
}

func (s *ResolverSuite) TestCycleDetected() {
	s.cn.Seed("pid.a", nil, &types.SystemMetadata{ObsoletedBy: "pid.b"})
	s.cn.Seed("pid.b", nil, &types.SystemMetadata{ObsoletedBy: "pid.a"})

	_, err := NewMetadataResolver(s.cn).GetMetadata(s.ctx, "pid.a", true, nil)
	s.ErrorIs(err, common.ErrObsolescenceCycle)
	s.Equal(2, s.cn.Calls(fedtest.OpGetSystemMetadata))
}

func (s *ResolverSuite) TestSelfCycleDetected() {
	s.cn.Seed("pid.a", nil, &types.SystemMetadata{ObsoletedBy: "pid.a"})
	_, err := NewMetadataResolver(s.cn).GetMetadata(s.ctx, "pid.a", true, nil)
	s.ErrorIs(err, common.ErrObsolescenceCycle)
}

func (s *ResolverSuite) TestMemberNodeFallbackAtStart() {
	s.seedChain(s.mn, "pid.new")
	meta, err := NewMetadataResolver(s.cn).GetMetadata(s.ctx, "pid.new", true, s.mn)
	s.Require().NoError(err)
	s.Equal("pid.new", meta.Identifier)
	s.Equal(1, s.cn.Calls(fedtest.OpGetSystemMetadata))
}

func (s *ResolverSuite) TestMemberNodeFallbackMidChain() {
	// the coordinating node has not yet synchronized pid.2
	s.cn.Seed("pid.1", nil, &types.SystemMetadata{ObsoletedBy: "pid.2"})
	s.mn.Seed("pid.2", nil, &types.SystemMetadata{Obsoletes: "pid.1"})

	meta, err := NewMetadataResolver(s.cn).GetMetadata(s.ctx, "pid.1", true, s.mn)
	s.Require().NoError(err)
	s.Equal("pid.2", meta.Identifier)
}

func (s *ResolverSuite) TestNotFoundAnywhere() {
	_, err := NewMetadataResolver(s.cn).GetMetadata(s.ctx, "pid.1", true, s.mn)
	s.ErrorIs(err, common.ErrMetadataNotFound)
	s.Equal(1, s.mn.Calls(fedtest.OpGetSystemMetadata))

	_, err = NewMetadataResolver(s.cn).GetMetadata(s.ctx, "pid.1", true, nil)
	s.ErrorIs(err, common.ErrMetadataNotFound)
}

func (s *ResolverSuite) TestMetadataErrorIsResolutionFailure() {
	s.cn.FailOn(fedtest.OpGetSystemMetadata, errors.New("cn down"))
	_, err := NewMetadataResolver(s.cn).GetMetadata(s.ctx, "pid.1", true, s.mn)
	s.ErrorIs(err, common.ErrResolutionFailed)
	s.Equal(0, s.mn.Calls(fedtest.OpGetSystemMetadata))
}
