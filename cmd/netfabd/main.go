// Command netfabd is the packet-processing daemon: it wires together the
// FB registry, the worker engine, the link-layer source FB, and the
// control-message dispatcher, then serves control connections until
// signaled to stop.
//
// Grounded on original_source/core.c's module init/cleanup ordering
// (init_tables, init_worker_engines, init_userctl_system, then the
// reverse on teardown).
package main

import (
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"code.hybscloud.com/netfab"
	"code.hybscloud.com/netfab/config"
	"code.hybscloud.com/netfab/control"
	"code.hybscloud.com/netfab/engine"
	"code.hybscloud.com/netfab/fblock/tee"
)

func main() {
	configPath := flag.String("config", "", "path to a netfabd.toml config file")
	controlAddr := flag.String("control-addr", "127.0.0.1:7790", "control listen address")
	linkName := flag.String("link-name", "", "network interface to attach the link-layer source FB to, also used as its FB name (empty disables it)")
	flag.Parse()

	log := logrus.New()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.WithError(err).Fatal("netfabd: load config")
		}
		cfg = loaded
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}

	eng, err := engine.New(engine.Config{
		NumWorkers:    cfg.Engine.Workers,
		SchedulerName: cfg.Engine.Scheduler,
		QueueCapacity: cfg.Engine.QueueCapacity,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("netfabd: init engine")
	}

	dispatcher := control.NewDispatcher(eng.Registry)
	registerBuiltinFactories(dispatcher, eng, cfg.Engine.Workers)

	if *linkName != "" {
		attachLink(eng, *linkName, log)
	}

	eng.Start()
	log.Info("netfabd: worker engine started")

	ln, err := net.Listen("tcp", *controlAddr)
	if err != nil {
		log.WithError(err).Fatal("netfabd: listen")
	}
	go serveControl(ln, dispatcher)
	log.WithField("addr", *controlAddr).Info("netfabd: control channel listening")

	waitForSignal()

	log.Info("netfabd: shutting down")
	_ = ln.Close()
	eng.Stop()
}

// registerBuiltinFactories wires the daemon's FB factories into the
// dispatcher so ADD can instantiate them by type name (spec.md §6: ADD
// "Instantiate factory type as name").
func registerBuiltinFactories(d *control.Dispatcher, eng *engine.Engine, nWorkers int) {
	d.RegisterFactory(tee.New(nWorkers, func(pkt *netfab.Packet) (tee.Backlogger, int) {
		id := eng.Policy.Schedule(int(pkt.Direction()), pkt.Len())
		return eng.Workers[id], id
	}))
}

func serveControl(ln net.Listener, d *control.Dispatcher) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go control.ServeConn(conn, d)
	}
}

func waitForSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
}
