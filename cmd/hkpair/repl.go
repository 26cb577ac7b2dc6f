package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hkontrol/hkpair"
	"github.com/xiam/to"
)

type repl struct {
	c       *hkpair.Controller
	out     io.Writer
	timeout time.Duration

	device *hkpair.Device
}

func (r *repl) prompt() string {
	if r.device == nil {
		return "> "
	}
	return r.device.Id + "> "
}

func (r *repl) println(args ...interface{}) {
	fmt.Fprintln(r.out, args...)
}

func (r *repl) printHelp() {
	r.println("commands: help")
	r.println("          devices")
	r.println("          use <device no>")
	r.println("          whoami")
	r.println("if device selected:")
	r.println("          pair <setup code>")
	r.println("          verify")
	r.println("          unpair")
	r.println("          pairings")
	r.println("          add <id> <hex public key> [admin]")
	r.println("          quit")
}

func (r *repl) context() (context.Context, context.CancelFunc) {
	if r.timeout > 0 {
		return context.WithTimeout(context.Background(), r.timeout)
	}
	return context.WithCancel(context.Background())
}

// exec runs one command line and reports whether the loop should end.
func (r *repl) exec(line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}

	switch args[0] {
	case "help":
		r.printHelp()

	case "quit", "exit":
		return true

	case "devices":
		r.println("#No\tID\tURL\tPaired\tVerified")
		for i, d := range r.c.GetAllDevices() {
			r.println(strconv.Itoa(i)+"\t"+d.Id+"\t"+d.BaseURL, "\t", d.IsPaired(), "\t", d.IsVerified())
		}

	case "use":
		if len(args) == 1 {
			r.device = nil
			return false
		}
		i, err := strconv.Atoi(args[1])
		devices := r.c.GetAllDevices()
		if err != nil || i < 0 || i >= len(devices) {
			r.println("use <device no>")
			return false
		}
		r.device = devices[i]
		r.println("selected device:", r.device.Id)

	case "whoami":
		id := r.c.Identity()
		r.println(id.Name, hex.EncodeToString(id.PublicKey))

	case "pair", "verify", "unpair", "pairings", "add":
		if r.device == nil {
			r.println("no device selected")
			return false
		}
		if err := r.deviceCommand(args); err != nil {
			r.println("error:", err)
		}

	default:
		r.println("unknown command, try help")
	}

	return false
}

func (r *repl) deviceCommand(args []string) error {
	ctx, cancel := r.context()
	defer cancel()

	d := r.device

	switch args[0] {
	case "pair":
		if len(args) != 2 {
			return errors.New("pair <setup code>")
		}
		if err := d.PairSetup(ctx, args[1]); err != nil {
			return err
		}
		r.println("paired")

	case "verify":
		if err := d.PairVerify(ctx); err != nil {
			return err
		}
		r.println("verified")

	case "unpair":
		if err := d.Unpair(ctx); err != nil {
			return err
		}
		r.println("unpaired")

	case "pairings":
		pairings, err := d.ListPairings(ctx)
		if err != nil {
			return err
		}
		for _, p := range pairings {
			r.println(p.Name, hex.EncodeToString(p.PublicKey), permissionName(p.Permission))
		}

	case "add":
		p, err := parsePairing(args[1:])
		if err != nil {
			return err
		}
		if err = d.PairAdd(ctx, p); err != nil {
			return err
		}
		r.println("added", p.Name)
	}

	return nil
}

// parsePairing reads <id> <hex public key> [admin].
func parsePairing(args []string) (hkpair.Pairing, error) {
	if len(args) < 2 || len(args) > 3 {
		return hkpair.Pairing{}, errors.New("add <id> <hex public key> [admin]")
	}

	key, err := hex.DecodeString(args[1])
	if err != nil {
		return hkpair.Pairing{}, fmt.Errorf("public key: %w", err)
	}

	p := hkpair.Pairing{Name: args[0], PublicKey: key, Permission: hkpair.PermissionUser}
	if len(args) == 3 && (args[2] == "admin" || to.Bool(args[2])) {
		p.Permission = hkpair.PermissionAdmin
	}

	return p, nil
}

func permissionName(p byte) string {
	if p == hkpair.PermissionAdmin {
		return "admin"
	}
	return "user"
}
