package datapackage

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/data-package-repo/checksum"
	"github.com/t2bot/data-package-repo/common"
	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/metrics"
	"github.com/t2bot/data-package-repo/pool"
	"github.com/t2bot/data-package-repo/resourcemap"
	"github.com/t2bot/data-package-repo/types"
	"github.com/t2bot/data-package-repo/util"
	"github.com/t2bot/data-package-repo/util/cleanup"
)

// Load replaces the package's members with those of the published resource
// map named by the package pid. Member bytes are staged in the datastore.
// Nothing changes unless every member could be fetched.
func (p *DataPackage) Load(ctx rcontext.RequestContext) error {
	if p.pid == "" {
		return common.ErrMissingIdentifier
	}
	pid := p.pid
	ctx = ctx.ForPid(pid)

	meta, err := p.metadatas.GetMetadata(ctx, pid, false, p.clients.Mn)
	if err != nil {
		if errors.Is(err, common.ErrMetadataNotFound) {
			return common.NewOperationError(common.ErrPackageNotFound, pid, "", err)
		}
		return err
	}
	if meta.FormatId != common.ResourceMapFormatId {
		return common.NewOperationError(common.ErrWrongFormat, pid, "", errors.New("format is "+meta.FormatId))
	}

	loc, err := p.identifiers.ResolveLocation(ctx, pid)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(loc.Body)
	cleanup.DumpAndCloseStream(loc.Body)
	if err != nil {
		return common.NewOperationError(common.ErrResolutionFailed, pid, loc.NodeUrl, err)
	}

	dialect := sniffDialect(body)
	ctx.Log.WithFields(logrus.Fields{
		"node":    loc.NodeUrl,
		"dialect": dialect,
		"size":    humanize.Bytes(uint64(len(body))),
	}).Debug("Parsing resource map")
	agg, err := resourcemap.Parse(ctx, dialect, body)
	if err != nil {
		if errors.Is(err, common.ErrWrongFormat) {
			return err
		}
		return common.NewOperationError(common.ErrWrongFormat, pid, loc.NodeUrl, err)
	}

	var metadata *MetadataMember
	data := make(map[string]*DataMember)
	members := make([]pendingMember, 0, len(agg.Data)+1)
	if agg.Metadata != nil {
		metadata = &MetadataMember{PackageMember: PackageMember{
			Identifier:  agg.Metadata.Pid,
			ResolvedUrl: agg.Metadata.Url,
		}}
		members = append(members, pendingMember{member: &metadata.PackageMember, kind: "metadata"})
	} else {
		ctx.Log.Warn("Package has no science metadata")
	}
	for _, m := range agg.Data {
		d := &DataMember{PackageMember: PackageMember{
			Identifier:  m.Pid,
			ResolvedUrl: m.Url,
		}}
		if metadata != nil {
			d.DocumentedBy = metadata.Identifier
		}
		data[m.Pid] = d
		members = append(members, pendingMember{member: &d.PackageMember, kind: "data"})
	}

	if err = p.download(ctx, members); err != nil {
		return err
	}

	p.metadata = metadata
	p.data = data
	p.resourceMap = nil
	p.originalPid = pid
	ctx.Log.Infof("Loaded package with %d data members", len(data))
	return nil
}

// sniffDialect guesses the serialization of a fetched resource map.
func sniffDialect(body []byte) string {
	for m := mimetype.Detect(body); m != nil; m = m.Parent() {
		if m.Is("application/json") {
			return resourcemap.DialectJson
		}
		if m.Is("text/xml") {
			if bytes.Contains(body, []byte("<TriX")) {
				return resourcemap.DialectTrix
			}
			return resourcemap.DialectXml
		}
	}
	trimmed := bytes.TrimSpace(body)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		return resourcemap.DialectJson
	}
	if bytes.HasPrefix(trimmed, []byte("<?xml")) || bytes.HasPrefix(trimmed, []byte("<rdf:")) {
		return resourcemap.DialectXml
	}
	// Turtle is a superset of N-Triples
	return resourcemap.DialectTurtle
}

type pendingMember struct {
	member *PackageMember
	kind   string
}

// download fetches every member's bytes and system metadata in parallel,
// checking the bytes against the published checksum. On failure anything
// already staged is removed.
func (p *DataPackage) download(ctx rcontext.RequestContext, members []pendingMember) error {
	if len(members) == 0 {
		return nil
	}
	store, err := p.stagingStore(ctx)
	if err != nil {
		return err
	}

	stagedLock := &sync.Mutex{}
	staged := make([]string, 0, len(members))

	tasks := make([]func(ctx context.Context) error, 0, len(members))
	for _, pm := range members {
		m := pm.member
		kind := pm.kind
		tasks = append(tasks, func(taskCtx context.Context) error {
			mctx := rcontext.RequestContext{Context: taskCtx, Log: ctx.Log, Config: ctx.Config}.ForPid(m.Identifier)

			meta, err := p.metadatas.GetMetadata(mctx, m.Identifier, false, p.clients.Mn)
			if err != nil {
				return err
			}

			loc, err := p.identifiers.ResolveLocation(mctx, m.Identifier)
			if err != nil {
				return err
			}
			defer cleanup.DumpAndCloseStream(loc.Body)

			var reader io.Reader = loc.Body
			hasher, hashErr := checksum.NewHasher(meta.Checksum.Algorithm)
			if hashErr == nil && meta.Checksum.Value != "" {
				reader = io.TeeReader(loc.Body, hasher)
			} else {
				mctx.Log.Warn("Cannot verify checksum of member: ", meta.Checksum.Algorithm)
				hasher = nil
			}

			location, written, err := store.Put(mctx, reader, -1, "application/octet-stream")
			if err != nil {
				return common.NewOperationError(common.ErrResolutionFailed, m.Identifier, loc.NodeUrl, pkgerrors.Wrap(err, "error staging member"))
			}
			stagedLock.Lock()
			staged = append(staged, location)
			stagedLock.Unlock()

			if hasher != nil {
				actual := hex.EncodeToString(hasher.Sum(nil))
				if !strings.EqualFold(actual, meta.Checksum.Value) {
					return common.NewOperationError(common.ErrResolutionFailed, m.Identifier, loc.NodeUrl, fmt.Errorf("checksum mismatch: expected %s, got %s", meta.Checksum.Value, actual))
				}
			}

			m.Content = &types.ContentRef{DatastoreId: store.Id(), Location: location, SizeBytes: written}
			m.SystemMetadata = meta
			m.FormatId = meta.FormatId
			if m.ResolvedUrl == "" {
				m.ResolvedUrl = util.MakeResolveUrl(loc.NodeUrl, m.Identifier)
			}

			metrics.MembersDownloaded.With(prometheus.Labels{"kind": kind}).Inc()
			metrics.BytesDownloaded.Add(float64(written))
			mctx.Log.WithFields(logrus.Fields{
				"node": loc.NodeUrl,
				"size": humanize.Bytes(uint64(written)),
			}).Debug("Member downloaded")
			return nil
		})
	}

	queue := p.clients.Queue
	if queue == nil {
		queue = pool.DownloadQueue
	}
	if queue != nil {
		err = queue.RunAll(ctx, tasks)
	} else {
		for _, task := range tasks {
			if err = task(ctx); err != nil {
				break
			}
		}
	}

	if err != nil {
		for _, location := range staged {
			if rmErr := store.Remove(ctx, location); rmErr != nil {
				ctx.Log.Warn("Error removing staged member: ", rmErr)
			}
		}
		return err
	}
	return nil
}
