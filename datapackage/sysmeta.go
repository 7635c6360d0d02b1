package datapackage

import (
	"time"

	"github.com/ryanuber/go-glob"
	"github.com/t2bot/data-package-repo/checksum"
	"github.com/t2bot/data-package-repo/common"
	"github.com/t2bot/data-package-repo/common/config"
	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/types"
)

const publicSubject = "public"

func checksumAlgorithm(ctx rcontext.RequestContext) (string, error) {
	alg := ctx.Config.Packages.ChecksumAlgorithm
	if alg == "" {
		alg = common.DefaultChecksumAlgorithm
	}
	return checksum.Normalize(alg)
}

func accessPolicy(conf config.PackagesConfig) *types.AccessPolicy {
	policy := &types.AccessPolicy{Allow: make([]types.AccessRule, 0)}
	if conf.PublicRead {
		policy.Allow = append(policy.Allow, types.AccessRule{
			Subjects:    []string{publicSubject},
			Permissions: []string{"read"},
		})
	}
	for _, rule := range conf.AccessPolicy {
		if rule == nil || len(rule.Subjects) == 0 || len(rule.Permissions) == 0 {
			continue
		}
		policy.Allow = append(policy.Allow, types.AccessRule{
			Subjects:    append([]string{}, rule.Subjects...),
			Permissions: append([]string{}, rule.Permissions...),
		})
	}
	if len(policy.Allow) == 0 {
		return nil
	}
	return policy
}

func replicationPolicy(conf config.PackagesConfig) *types.ReplicationPolicy {
	if conf.ReplicationPolicy == nil {
		return nil
	}
	return &types.ReplicationPolicy{
		Allowed:        conf.ReplicationPolicy.Allowed,
		NumberReplicas: conf.ReplicationPolicy.NumberReplicas,
		PreferredNodes: append([]string{}, conf.ReplicationPolicy.PreferredNodes...),
		BlockedNodes:   append([]string{}, conf.ReplicationPolicy.BlockedNodes...),
	}
}

// newSystemMetadata describes a first version of pid using the configured defaults.
func newSystemMetadata(ctx rcontext.RequestContext, pid string, formatId string, sum *checksum.Sum) *types.SystemMetadata {
	now := time.Now().UTC()
	conf := ctx.Config.Packages
	return &types.SystemMetadata{
		SerialVersion:           1,
		Identifier:              pid,
		FormatId:                formatId,
		Size:                    sum.Size,
		Checksum:                types.Checksum{Algorithm: sum.Algorithm, Value: sum.Value},
		Submitter:               conf.Submitter,
		RightsHolder:            conf.RightsHolder,
		AccessPolicy:            accessPolicy(conf),
		ReplicationPolicy:       replicationPolicy(conf),
		DateUploaded:            &now,
		DateSysMetadataModified: &now,
		OriginMemberNode:        conf.OriginMemberNode,
		AuthoritativeMemberNode: conf.AuthoritativeMemberNode,
	}
}

// isMetadataFormat reports whether formatId names a science metadata format.
func isMetadataFormat(ctx rcontext.RequestContext, formatId string) bool {
	if formatId == "" {
		return false
	}
	patterns := ctx.Config.Packages.MetadataFormats
	if len(patterns) == 0 {
		patterns = common.DefaultMetadataFormats
	}
	for _, p := range patterns {
		if glob.Glob(p, formatId) {
			return true
		}
	}
	return false
}
