package config

import (
	"fmt"
	"strings"

	"github.com/alioygur/is"
	"github.com/hashicorp/go-multierror"
)

func Validate(c *MainRepoConfig) error {
	var result *multierror.Error

	checkUrl := func(name string, val string, required bool) {
		if val == "" {
			if required {
				result = multierror.Append(result, fmt.Errorf("%s is required", name))
			}
			return
		}
		if !is.URL(val) || !(strings.HasPrefix(val, "http://") || strings.HasPrefix(val, "https://")) {
			result = multierror.Append(result, fmt.Errorf("%s is not an http(s) URL: %s", name, val))
		}
	}
	checkUrl("federation.coordinatingNode", c.Federation.CoordinatingNode, true)
	checkUrl("federation.memberNode", c.Federation.MemberNode, true)

	if !c.Federation.Anonymous && (c.Federation.CertFile == "" || c.Federation.KeyFile == "") {
		result = multierror.Append(result, fmt.Errorf("federation.certFile and federation.keyFile are required unless federation.anonymous is set"))
	}
	if c.Federation.TimeoutSeconds < 0 || c.Federation.FailureCacheSeconds < 0 || c.Federation.NodeCacheMinutes < 0 {
		result = multierror.Append(result, fmt.Errorf("federation timeouts and cache durations cannot be negative"))
	}
	if c.Downloads.NumWorkers < 1 {
		result = multierror.Append(result, fmt.Errorf("downloads.numWorkers must be at least 1"))
	}
	for i, ds := range c.DataStores {
		if ds.Id == "" {
			result = multierror.Append(result, fmt.Errorf("datastores[%d] has no id", i))
		}
	}

	return result.ErrorOrNil()
}
