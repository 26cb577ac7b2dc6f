package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/chzyer/readline"
	"github.com/hkontrol/hkpair"
	"github.com/hkontrol/hkpair/log"
	"github.com/olebedev/emitter"
)

func main() {
	path := flag.String(
		"config",
		"hkpair.yaml",
		"Path to hkpair configuration file",
	)
	flag.Parse()

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
	defer rl.Close()

	log.SetOutput(rl.Stderr(), cfg.Log.Format)
	log.SetLevel(cfg.Log.Level)

	store, err := hkpair.NewFsStore(cfg.Store)
	if err != nil {
		log.Info.Err(err, "open store")
		return
	}

	transport := &hkpair.HTTPTransport{Client: &http.Client{Timeout: cfg.Timeout}}

	c, err := hkpair.NewController(store, cfg.Controller.Name, transport)
	if err != nil {
		log.Info.Err(err, "create controller")
		return
	}

	for _, a := range cfg.Accessories {
		d := c.NewDevice(a.Id, a.URL, map[string]string{hkpair.TXTFeatureFlags: a.FeatureFlags})
		for _, topic := range []string{hkpair.EventPaired, hkpair.EventVerified, hkpair.EventUnpaired} {
			topic := topic
			d.OnEvent(topic, func(*emitter.Event) {
				log.Info.Printf("%s: %s", d.Id, topic)
			})
		}
	}

	r := &repl{
		c:       c,
		out:     rl.Stdout(),
		timeout: cfg.Timeout,
	}

	r.printHelp()

	for {
		rl.SetPrompt(r.prompt())

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return
		}

		if r.exec(line) {
			return
		}
	}
}
