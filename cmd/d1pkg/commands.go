package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/t2bot/data-package-repo/common/config"
	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/datapackage"
	"github.com/t2bot/data-package-repo/errcache"
	"github.com/t2bot/data-package-repo/federation"
	"github.com/t2bot/data-package-repo/pool"
)

// memberFlags collects repeated "pid=path" arguments.
type memberFlags []string

func (m *memberFlags) String() string {
	return strings.Join(*m, ",")
}

func (m *memberFlags) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func newClients(conf config.FederationConfig) (*datapackage.Clients, error) {
	cn, err := federation.NewHttpClient(conf, conf.CoordinatingNode)
	if err != nil {
		return nil, err
	}
	mn, err := federation.NewHttpClient(conf, conf.MemberNode)
	if err != nil {
		return nil, err
	}
	return &datapackage.Clients{
		Cn:       cn,
		Mn:       mn,
		Dial:     federation.NewDialer(conf),
		Nodes:    federation.NewNodeDirectory(cn, time.Duration(conf.NodeCacheMinutes)*time.Minute),
		Failures: errcache.NotFound,
		Queue:    pool.DownloadQueue,
	}, nil
}

func runShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	pid := fs.String("pid", "", "The package (resource map) identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := rcontext.Initial()
	clients, err := newClients(ctx.Config.Federation)
	if err != nil {
		return err
	}
	pkg := datapackage.New(clients, *pid)
	if err = pkg.Load(ctx); err != nil {
		return err
	}
	for _, line := range pkg.Summary() {
		fmt.Println(line)
	}
	return nil
}

func runPublish(args []string) error {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	pid := fs.String("pid", "", "The package (resource map) identifier to publish under")
	metaPid := fs.String("meta-pid", "", "The science metadata identifier; defaults to <pid>.meta")
	metaPath := fs.String("meta", "", "Science metadata file, optionally as path;format=<formatId>. Empty to reference -meta-pid as already published")
	metaFormat := fs.String("meta-format", "", "The science metadata format identifier")
	data := &memberFlags{}
	fs.Var(data, "data", "A data member as pid=path[;format=<formatId>], or just pid to reference a published object. Repeatable.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pid == "" {
		return errors.New("-pid is required")
	}
	if *metaPid == "" {
		*metaPid = *pid + ".meta"
	}

	ctx := rcontext.Initial().ForPid(*pid)
	clients, err := newClients(ctx.Config.Federation)
	if err != nil {
		return err
	}
	pkg := datapackage.New(clients, *pid)
	if _, err = pkg.AddMetadata(ctx, *metaPid, *metaPath, *metaFormat); err != nil {
		return err
	}
	for _, d := range *data {
		parts := strings.SplitN(d, "=", 2)
		path := ""
		if len(parts) == 2 {
			path = parts[1]
		}
		if _, err = pkg.AddData(ctx, parts[0], path, ""); err != nil {
			return err
		}
	}

	report, err := pkg.Save(ctx)
	for _, step := range report.Steps {
		outcome := "ok"
		if step.Err != nil {
			outcome = "FAILED: " + step.Err.Error()
		}
		fmt.Printf("%s %s %s: %s\n", step.Operation, step.Kind, step.Pid, outcome)
	}
	return err
}
