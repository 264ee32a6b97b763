// Operator console for the streetlight control topic. Sends one command
// per line over a short-lived broker session; works interactively or fed
// from a pipe.
package main

import (
	"flag"
	"strings"

	prompt "github.com/c-bata/go-prompt"

	"github.com/alfathangn/streetlight-dashboard3/helpers/cli"
	"github.com/alfathangn/streetlight-dashboard3/internal/state"
	"github.com/alfathangn/streetlight-dashboard3/internal/tele"
	"github.com/alfathangn/streetlight-dashboard3/log2"
)

var log = log2.NewStderr(log2.LInfo)

func main() {
	flagConfig := flag.String("config", "streetlight.hcl", "")
	flagBroker := flag.String("broker", "", "override config broker url")
	flag.Parse()
	log.SetFlags(log2.LInteractiveFlags)

	config := state.MustReadConfigFile(log, *flagConfig)
	if *flagBroker != "" {
		config.Mqtt.BrokerURL = *flagBroker
	}
	pub := tele.NewPublisher(config)
	log.Infof("broker=%s topic=%s", pub.BrokerURL, pub.ControlTopic)

	cli.MainLoop("streetlight", func(line string) { execLine(pub, line) }, complete)
}

func execLine(pub *tele.Publisher, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	word, arg, _ := strings.Cut(line, " ")
	command := ""
	switch word {
	case "help":
		log.Infof("commands: on off status raw <COMMAND> help")
		return
	case "on":
		command = tele.CmdLampOn
	case "off":
		command = tele.CmdLampOff
	case "status":
		command = tele.CmdGetStatus
	case "raw":
		if arg == "" {
			log.Errorf("raw requires an argument")
			return
		}
		command = arg
	default:
		log.Errorf("unknown command '%s', try help", word)
		return
	}
	if err := pub.Publish(command); err != nil {
		log.Errorf("publish %s: %v", command, err)
		return
	}
	log.Infof("sent %s", command)
}

func complete(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "on", Description: "turn lamp on"},
		{Text: "off", Description: "turn lamp off"},
		{Text: "status", Description: "request status report"},
		{Text: "raw", Description: "send arbitrary command"},
		{Text: "help", Description: ""},
	}
	return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
}
