package datapackage

import (
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/data-package-repo/checksum"
	"github.com/t2bot/data-package-repo/common"
	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/types"
	"github.com/t2bot/data-package-repo/util"
)

// AddMetadata sets the science metadata member, replacing any previous one.
// With a path the member is a new local object; without one it refers to the
// newest published revision of pid.
func (p *DataPackage) AddMetadata(ctx rcontext.RequestContext, pid string, path string, formatId string) (*MetadataMember, error) {
	if pid == "" {
		return nil, common.ErrMissingIdentifier
	}
	ctx = ctx.ForPid(pid)

	var member *PackageMember
	var err error
	if path != "" {
		member, err = p.localMember(ctx, pid, path, formatId)
	} else {
		member, err = p.remoteMember(ctx, pid)
	}
	if err != nil {
		return nil, err
	}

	if !isMetadataFormat(ctx, member.FormatId) {
		return nil, common.NewOperationError(common.ErrInvalidMetadataFormat, member.Identifier, "", errors.New(member.FormatId))
	}

	if p.metadata != nil && p.metadata.Identifier != member.Identifier {
		ctx.Log.Info("Replacing science metadata ", p.metadata.Identifier)
	}
	p.metadata = &MetadataMember{PackageMember: *member}
	return p.metadata, nil
}

// AddData adds or replaces a data member. See AddMetadata for how path is used.
func (p *DataPackage) AddData(ctx rcontext.RequestContext, pid string, path string, formatId string) (*DataMember, error) {
	if pid == "" {
		return nil, common.ErrMissingIdentifier
	}
	ctx = ctx.ForPid(pid)

	var member *PackageMember
	var err error
	if path != "" {
		member, err = p.localMember(ctx, pid, path, formatId)
	} else {
		member, err = p.remoteMember(ctx, pid)
	}
	if err != nil {
		return nil, err
	}

	d := &DataMember{PackageMember: *member}
	if p.metadata != nil {
		d.DocumentedBy = p.metadata.Identifier
	}
	p.data[d.Identifier] = d
	return d, nil
}

// ReviseMetadata replaces the science metadata with a new local revision
// published under newPid. Saving updates the previous metadata pid.
func (p *DataPackage) ReviseMetadata(ctx rcontext.RequestContext, newPid string, path string, formatId string) (*MetadataMember, error) {
	if p.metadata == nil {
		return nil, common.NewOperationError(common.ErrMemberNotFound, newPid, "", errors.New("package has no science metadata to revise"))
	}
	old := p.metadata.Identifier
	if err := checkRevision(old, newPid, path); err != nil {
		return nil, err
	}
	m, err := p.AddMetadata(ctx, newPid, path, formatId)
	if err != nil {
		return nil, err
	}
	m.Replaces = old
	return m, nil
}

// ReviseData swaps a data member for a new local revision published under
// newPid. oldPid need not be a member, which lets a package adopt and revise
// an object published elsewhere.
func (p *DataPackage) ReviseData(ctx rcontext.RequestContext, oldPid string, newPid string, path string, formatId string) (*DataMember, error) {
	if err := checkRevision(oldPid, newPid, path); err != nil {
		return nil, err
	}
	d, err := p.AddData(ctx, newPid, path, formatId)
	if err != nil {
		return nil, err
	}
	d.Replaces = oldPid
	delete(p.data, oldPid)
	return d, nil
}

func checkRevision(oldPid string, newPid string, path string) error {
	if oldPid == "" || newPid == "" {
		return common.ErrMissingIdentifier
	}
	if oldPid == newPid {
		return errors.New("a revision of " + oldPid + " needs a new pid")
	}
	if path == "" {
		return errors.New("a revision of " + oldPid + " needs a file")
	}
	return nil
}

// localMember builds a dirty member from a file on disk.
func (p *DataPackage) localMember(ctx rcontext.RequestContext, pid string, rawPath string, formatId string) (*PackageMember, error) {
	cp := parseComplexPath(ctx, rawPath)
	if cp.Path == "" {
		return nil, errors.New("no file named in " + rawPath)
	}
	path, err := util.ExpandPath(cp.Path)
	if err != nil {
		return nil, err
	}
	if !util.FileExists(path) {
		return nil, errors.Wrap(os.ErrNotExist, path)
	}

	if formatId == "" {
		formatId = cp.FormatId
	}
	if formatId == "" {
		formatId = ctx.Config.Packages.DefaultFormat
	}
	if formatId == "" {
		hint := "unknown"
		if mime, err := mimetype.DetectFile(path); err == nil {
			hint = mime.String()
		}
		return nil, common.NewOperationError(common.ErrMissingFormat, pid, "", errors.New("no format given for "+path+" (looks like "+hint+")"))
	}

	alg, err := checksumAlgorithm(ctx)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening "+path)
	}
	defer f.Close()
	sum, err := checksum.ComputeWithSize(f, alg)
	if err != nil {
		return nil, errors.Wrap(err, "error reading "+path)
	}

	ctx.Log.WithFields(logrus.Fields{
		"path":     path,
		"formatId": formatId,
		"checksum": sum.Algorithm + ":" + sum.Value,
	}).Debug("Adding local object")

	return &PackageMember{
		Identifier:     pid,
		Dirty:          true,
		Content:        &types.ContentRef{Path: path, SizeBytes: sum.Size},
		SystemMetadata: newSystemMetadata(ctx, pid, formatId, sum),
		FormatId:       formatId,
	}, nil
}

// remoteMember refers to the newest published revision of pid without
// downloading it.
func (p *DataPackage) remoteMember(ctx rcontext.RequestContext, pid string) (*PackageMember, error) {
	meta, err := p.metadatas.GetMetadata(ctx, pid, true, p.clients.Mn)
	if err != nil {
		return nil, err
	}
	newest := meta.Identifier
	if newest == "" {
		newest = pid
	}
	if newest != pid {
		ctx.Log.Infof("Using %s, the newest revision of %s", newest, pid)
	}

	baseUrl := p.clients.Mn.BaseUrl()
	if meta.AuthoritativeMemberNode != "" {
		nodeUrl, found, err := p.nodes.BaseUrl(ctx, meta.AuthoritativeMemberNode)
		if err != nil {
			ctx.Log.Warn("Error looking up authoritative member node: ", err)
		} else if found {
			baseUrl = nodeUrl
		} else {
			ctx.Log.Warn("Authoritative member node is not in the node list: ", meta.AuthoritativeMemberNode)
		}
	}

	return &PackageMember{
		Identifier:     newest,
		Dirty:          false,
		ResolvedUrl:    util.MakeResolveUrl(baseUrl, newest),
		SystemMetadata: meta,
		FormatId:       meta.FormatId,
	}, nil
}
