package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/scarabworks/scarab.go/pkg/framework"
	"github.com/scarabworks/scarab.go/pkg/link"
	"github.com/scarabworks/scarab.go/pkg/mirror"
	"github.com/scarabworks/scarab.go/pkg/panel"
	"github.com/scarabworks/scarab.go/pkg/storage"
)

var (
	listenSpec = "-"
	storageDir = "scarab-data"
	mqttURL    = ""
	staleAfter = 5 * time.Second
)

func init() {
	if val := os.Getenv("SCARAB_LISTEN"); val != "" {
		listenSpec = val
	}
	if val := os.Getenv("SCARAB_STORAGE"); val != "" {
		storageDir = val
	}
	if val := os.Getenv("SCARAB_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&listenSpec, "listen", listenSpec, "Link endpoint: '-' (stdio), tcp://addr, or ws://addr.")
	flag.StringVar(&storageDir, "storage", storageDir, "Persistent storage directory.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "Optional MQTT broker URL for the telemetry mirror.")
	flag.DurationVar(&staleAfter, "stale-after", staleAfter, "Telemetry age before the link is considered down.")
}

func main() {
	flag.Parse()

	store, err := storage.NewDir(storageDir)
	if err != nil {
		glog.Exitf("storage: %v", err)
	}

	loop := framework.NewLoop()
	watchdog := framework.NewWatchdog(3 * time.Second)

	p := panel.New(panel.Config{
		Storage:    store,
		Notify:     loop,
		Watchdog:   watchdog,
		StaleAfter: staleAfter,
	})

	if mqttURL != "" {
		m, err := mirror.New(mqttURL)
		if err != nil {
			glog.Exitf("mirror: %v", err)
		}
		defer m.Close()
		p.OnTelemetry = m.PublishSnapshot
		p.OnIdentity = m.PublishIdentity
		m.PublishIdentity(p.Identity.Read())
	}
	p.AddToLoop(loop)

	endpoint, err := link.Listen(listenSpec)
	if err != nil {
		glog.Exitf("listen: %v", err)
	}

	serve := framework.RunFunc(func(ctx context.Context) error {
		defer endpoint.Close()
		for {
			stream, err := endpoint.Accept(ctx)
			if err != nil {
				return err
			}
			glog.Info("host connected")
			p.SetOutput(stream)
			ingest := &panel.Ingestor{Panel: p, Conn: stream}
			if err := ingest.Run(ctx); err != nil && err != context.Canceled {
				glog.Warningf("host session ended: %v", err)
			} else {
				glog.Info("host disconnected")
			}
			p.SetOutput(nil)
			stream.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	})

	runner := framework.NewRunner().HandleSignals()
	runner.Go(
		framework.NamedRun("loop", loop),
		framework.NamedRun("serve", serve),
		watchdog,
	)
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
