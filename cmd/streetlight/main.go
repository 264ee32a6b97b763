// Streetlight dashboard daemon: subscribes to the lamp's sensor topic,
// folds frames into bounded history and serves the REST API.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"

	"github.com/alfathangn/streetlight-dashboard3/internal/state"
	"github.com/alfathangn/streetlight-dashboard3/internal/tele"
	"github.com/alfathangn/streetlight-dashboard3/internal/ui"
	"github.com/alfathangn/streetlight-dashboard3/log2"
)

var BuildVersion string = "unknown" // set by ldflags -X

func main() {
	flagConfig := flag.String("config", "streetlight.hcl", "")
	flag.Parse()

	log := log2.NewStderr(log2.LInfo)
	if sdnotify(log, "READY=0\nSTATUS=starting\n") {
		// under systemd, journal already stamps time
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}
	log.Infof("streetlight-dashboard version=%s", BuildVersion)

	config := state.MustReadConfigFile(log, *flagConfig)
	if config.LogDebug {
		log.SetLevel(log2.LDebug)
	}
	log.Debugf("config=%+v", config)

	mqtt.CRITICAL = log
	mqtt.ERROR = log
	if config.LogDebug {
		mqtt.WARN = log
	}

	g := state.NewGlobal(log, config)
	g.BuildVersion = BuildVersion

	sup := tele.NewSupervisor(g)
	sup.Start()

	server := ui.NewServer(g, sup, tele.NewPublisher(config))
	server.RunTickLoop()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigch
		log.Infof("graceful stop on signal=%v", sig)
		sdnotify(log, "STATUS=stopping\n")
		g.Stop()
	}()

	sdnotify(log, daemon.SdNotifyReady)
	if err := server.Run(); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	g.Alive.Wait()
	log.Infof("goodbye")
}

func sdnotify(log *log2.Log, s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
