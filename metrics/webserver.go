package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/data-package-repo/common/config"
)

var srv *http.Server

// Init starts the /metrics listener when metrics are enabled. The CLI only
// runs for the length of one command, so this mostly matters for scripted
// batch publishing.
func Init() {
	conf := config.Get().Metrics
	if !conf.Enabled {
		logrus.Debug("Metrics disabled")
		return
	}
	rtr := mux.NewRouter()
	rtr.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	address := net.JoinHostPort(conf.BindAddress, strconv.Itoa(conf.Port))
	srv = &http.Server{Addr: address, Handler: rtr, ReadHeaderTimeout: 10 * time.Second}
	go func(s *http.Server) {
		logrus.WithField("address", address).Info("Metrics listener started")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Error(err)
		}
	}(srv)
}

func Reload() {
	Stop()
	Init()
}

func Stop() {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Error(err)
	}
	srv = nil
}
