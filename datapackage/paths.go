package datapackage

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/data-package-repo/common/rcontext"
)

// complexPath is a file path with optional hints, eg "data.csv;format=text/csv".
type complexPath struct {
	Path     string
	FormatId string
}

func parseComplexPath(ctx rcontext.RequestContext, raw string) complexPath {
	res := complexPath{}
	for _, part := range strings.Split(strings.TrimSpace(raw), ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 1 {
			if path := strings.TrimSpace(kv[0]); path != "" {
				res.Path = path
			}
			continue
		}
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		if strings.HasPrefix(key, "format") {
			res.FormatId = strings.TrimSpace(kv[1])
		} else {
			ctx.Log.WithFields(logrus.Fields{"keyword": strings.TrimSpace(kv[0])}).Warn("Ignoring unknown keyword in path")
		}
	}
	return res
}
