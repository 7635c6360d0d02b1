package datapackage

import (
	"bytes"
	"errors"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/data-package-repo/checksum"
	"github.com/t2bot/data-package-repo/common"
	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/federation"
	"github.com/t2bot/data-package-repo/metrics"
	"github.com/t2bot/data-package-repo/resourcemap"
	"github.com/t2bot/data-package-repo/types"
	"github.com/t2bot/data-package-repo/util"
)

const (
	KindMetadata    = "metadata"
	KindData        = "data"
	KindResourceMap = "resource map"

	OperationCreate = "create"
	OperationUpdate = "update"
)

// PublishStep is one object the save tried to publish.
type PublishStep struct {
	Pid       string
	Kind      string
	Operation string
	Obsoletes string
	Receipt   *types.Receipt
	Err       error
}

// SaveReport lists the steps of a save in the order they ran. Steps that
// succeeded stay published even when a later one fails.
type SaveReport struct {
	Steps []*PublishStep
}

func (r *SaveReport) Published() []string {
	res := make([]string, 0, len(r.Steps))
	for _, s := range r.Steps {
		if s.Err == nil {
			res = append(res, s.Pid)
		}
	}
	return res
}

func (r *SaveReport) Failed() []*PublishStep {
	res := make([]*PublishStep, 0)
	for _, s := range r.Steps {
		if s.Err != nil {
			res = append(res, s)
		}
	}
	return res
}

// plannedStep is a publish decided before anything is written.
type plannedStep struct {
	step     *PublishStep
	replaces string
	meta     *types.SystemMetadata
	open     func() (io.ReadCloser, error)
}

// Save publishes every dirty member and then a fresh resource map under the
// package pid. Every create-or-update decision is made before the first
// write, so a pid that is already taken fails the save without publishing
// anything. Publishing stops at the first failure; on failure every dirty
// flag is left set so the save can be retried.
func (p *DataPackage) Save(ctx rcontext.RequestContext) (*SaveReport, error) {
	report := &SaveReport{Steps: make([]*PublishStep, 0)}
	if p.pid == "" {
		return report, common.NewOperationError(common.ErrIncompletePackage, "", "", common.ErrMissingIdentifier)
	}
	if p.metadata == nil {
		return report, common.NewOperationError(common.ErrIncompletePackage, p.pid, "", errors.New("package has no science metadata"))
	}
	if !p.IsDirty() {
		ctx.Log.Debug("Package is not modified, nothing to save")
		return report, nil
	}
	ctx = ctx.ForPid(p.pid)
	if p.originalPid == p.pid {
		return report, common.NewOperationError(common.ErrPublishFailed, p.pid, "", errors.New("a package with this pid is already published, rename it before saving"))
	}

	p.prepareUrls()
	rm, body, dialect, err := p.buildResourceMap(ctx)
	if err != nil {
		return report, err
	}
	for _, d := range p.Data() {
		if err = p.checkPublishable(&d.PackageMember); err != nil {
			return report, err
		}
	}
	if err = p.checkPublishable(&p.metadata.PackageMember); err != nil {
		return report, err
	}

	alg, err := checksumAlgorithm(ctx)
	if err != nil {
		return report, err
	}
	sum, err := checksum.ComputeWithSize(bytes.NewReader(body), alg)
	if err != nil {
		return report, err
	}

	plan := make([]*plannedStep, 0, len(p.data)+2)
	if p.metadata.IsDirty() {
		plan = append(plan, p.memberStep(ctx, KindMetadata, &p.metadata.PackageMember))
	}
	for _, d := range p.Data() {
		if d.IsDirty() {
			plan = append(plan, p.memberStep(ctx, KindData, &d.PackageMember))
		}
	}
	contentType := resourcemap.ContentType(dialect)
	plan = append(plan, &plannedStep{
		step: &PublishStep{Pid: p.pid, Kind: KindResourceMap, Operation: OperationCreate},
		// a renamed package supersedes what it was loaded from
		replaces: p.originalPid,
		meta:     newSystemMetadata(ctx, p.pid, common.ResourceMapFormatId, sum),
		open: func() (io.ReadCloser, error) {
			return federation.WithContentType(bytes.NewReader(body), contentType), nil
		},
	})

	for _, ps := range plan {
		if err = p.decide(ctx, ps); err != nil {
			return report, err
		}
	}
	for _, ps := range plan {
		if err = p.publish(ctx, report, ps); err != nil {
			return report, err
		}
	}

	p.metadata.Dirty = false
	p.metadata.Replaces = ""
	for _, d := range p.data {
		d.Dirty = false
		d.Replaces = ""
	}
	p.resourceMap = rm
	p.originalPid = p.pid
	ctx.Log.WithFields(logrus.Fields{
		"published": len(report.Steps),
		"size":      humanize.Bytes(uint64(len(body))),
	}).Info("Package saved")
	return report, nil
}

// prepareUrls gives every member without a location one on the member node.
func (p *DataPackage) prepareUrls() {
	base := p.clients.Mn.BaseUrl()
	if p.metadata.ResolvedUrl == "" && p.metadata.Identifier != "" {
		p.metadata.ResolvedUrl = util.MakeResolveUrl(base, p.metadata.Identifier)
	}
	for _, d := range p.data {
		if d.ResolvedUrl == "" && d.Identifier != "" {
			d.ResolvedUrl = util.MakeResolveUrl(base, d.Identifier)
		}
		d.DocumentedBy = p.metadata.Identifier
	}
}

func (p *DataPackage) buildResourceMap(ctx rcontext.RequestContext) (*resourcemap.ResourceMap, []byte, string, error) {
	info := func(m *PackageMember) resourcemap.MemberInfo {
		return resourcemap.MemberInfo{Pid: m.Identifier, Url: m.ResolvedUrl, FormatId: m.FormatId}
	}
	data := make([]resourcemap.MemberInfo, 0, len(p.data))
	for _, d := range p.Data() {
		data = append(data, info(&d.PackageMember))
	}

	builder := &resourcemap.Builder{Title: "Simple aggregation of science metadata and data"}
	rm, err := builder.Build(p.pid, util.MakeResolveUrl(p.clients.Mn.BaseUrl(), p.pid), info(&p.metadata.PackageMember), data)
	if err != nil {
		return nil, nil, "", err
	}

	dialect := ctx.Config.Packages.Serialization
	if dialect == "" {
		dialect = common.DefaultSerialization
	}
	body, err := rm.Serialize(dialect)
	if err != nil {
		return nil, nil, "", err
	}
	return rm, body, dialect, nil
}

func (p *DataPackage) checkPublishable(m *PackageMember) error {
	if !m.IsDirty() {
		return nil
	}
	if m.Content == nil || (!m.Content.IsLocalFile() && !m.Content.IsStaged()) {
		return common.NewOperationError(common.ErrCannotSerialize, m.Identifier, "", errors.New("member has no content to publish"))
	}
	if m.SystemMetadata == nil {
		return common.NewOperationError(common.ErrCannotSerialize, m.Identifier, "", errors.New("member has no system metadata"))
	}
	return nil
}

func (p *DataPackage) memberStep(ctx rcontext.RequestContext, kind string, m *PackageMember) *plannedStep {
	meta := m.SystemMetadata.Copy()
	meta.Identifier = m.Identifier
	return &plannedStep{
		step:     &PublishStep{Pid: m.Identifier, Kind: kind, Operation: OperationCreate},
		replaces: m.Replaces,
		meta:     meta,
		open: func() (io.ReadCloser, error) {
			return p.openContent(ctx, m.Content)
		},
	}
}

// decide turns a planned step into a create, or into an update of the newest
// revision of what it replaces. It only reads from the federation.
func (p *DataPackage) decide(ctx rcontext.RequestContext, ps *plannedStep) error {
	pid := ps.step.Pid
	ctx = ctx.ForPid(pid).LogWithFields(logrus.Fields{"step": ps.step.Kind})
	fail := func(err error) error {
		return common.NewOperationError(common.ErrPublishFailed, pid, p.clients.Mn.BaseUrl(), err)
	}

	taken, err := p.metadatas.GetMetadata(ctx, pid, false, p.clients.Mn)
	if err != nil && !errors.Is(err, common.ErrMetadataNotFound) {
		return fail(err)
	}
	if taken != nil {
		return fail(errors.New(pid + " is already published, revise it under a new pid"))
	}
	if ps.replaces == "" || ps.replaces == pid {
		return nil
	}

	current, err := p.metadatas.GetMetadata(ctx, ps.replaces, true, p.clients.Mn)
	var opErr *common.OperationError
	if errors.As(err, &opErr) && errors.Is(err, common.ErrMetadataNotFound) && opErr.Pid == ps.replaces {
		ctx.Log.Warnf("%s is not published anywhere, creating %s instead of updating it", ps.replaces, pid)
		return nil
	}
	if err != nil {
		return fail(err)
	}
	if current.Identifier != ps.replaces {
		ctx.Log.Infof("%s has been revised since, updating the newest revision %s", ps.replaces, current.Identifier)
	}
	ps.step.Operation = OperationUpdate
	ps.step.Obsoletes = current.Identifier
	ps.meta.SerialVersion = current.SerialVersion + 1
	ps.meta.Obsoletes = current.Identifier
	return nil
}

// publish writes one decided step to the member node.
func (p *DataPackage) publish(ctx rcontext.RequestContext, report *SaveReport, ps *plannedStep) error {
	step := ps.step
	pid := step.Pid
	ctx = ctx.ForPid(pid).LogWithFields(logrus.Fields{"step": step.Kind})
	report.Steps = append(report.Steps, step)

	fail := func(err error) error {
		step.Err = err
		metrics.PublishFailures.With(prometheus.Labels{"kind": step.Kind}).Inc()
		ctx.Log.Error("Error publishing: ", err)
		return common.NewOperationError(common.ErrPublishFailed, pid, p.clients.Mn.BaseUrl(), err)
	}

	body, err := ps.open()
	if err != nil {
		return fail(err)
	}
	defer body.Close()

	var receipt *types.Receipt
	if step.Operation == OperationUpdate {
		ctx.Log.Info("Updating ", step.Obsoletes)
		receipt, err = p.clients.Mn.Update(ctx, pid, body, step.Obsoletes, ps.meta)
	} else {
		ctx.Log.Info("Creating object")
		receipt, err = p.clients.Mn.Create(ctx, pid, body, ps.meta)
	}
	if err != nil {
		return fail(err)
	}

	step.Receipt = receipt
	p.identifiers.Forget(pid)
	metrics.ObjectsPublished.With(prometheus.Labels{"kind": step.Kind, "operation": step.Operation}).Inc()
	return nil
}

// PendingPids lists the members a save would publish, in publishing order.
func (p *DataPackage) PendingPids() []string {
	res := make([]string, 0)
	if p.metadata != nil && p.metadata.IsDirty() {
		res = append(res, p.metadata.Identifier)
	}
	pids := make([]string, 0)
	for pid, d := range p.data {
		if d.IsDirty() {
			pids = append(pids, pid)
		}
	}
	sort.Strings(pids)
	return append(res, pids...)
}
