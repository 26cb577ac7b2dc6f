package hkpair

import (
	"context"
	"errors"
	"sync"

	"github.com/hkontrol/hkpair/log"
	"github.com/olebedev/emitter"
)

// Device events.
const (
	EventPaired   = "paired"
	EventVerified = "verified"
	EventUnpaired = "unpaired"
	EventError    = "error"
)

var (
	ErrNotPaired   = errors.New("hkpair: device is not paired")
	ErrNotVerified = errors.New("hkpair: device is not verified")
)

type eventCallback func(*emitter.Event)

// Device is one accessory as seen by a Controller. Handshakes on the same
// Device never run concurrently.
type Device struct {
	emitter.Emitter

	Id      string
	BaseURL string

	client *Client
	st     *storer

	mu       sync.Mutex
	pairing  Pairing
	keys     SessionKeys
	paired   bool // completed /pair-setup?
	verified bool // holds keys from /pair-verify?
}

func newDevice(id string, client *Client, st *storer) *Device {
	d := &Device{
		Id:      id,
		BaseURL: client.BaseURL,
		client:  client,
		st:      st,
		Emitter: emitter.Emitter{},
		pairing: Pairing{Name: id},
	}
	// flat callbacks
	d.Use("*", emitter.Void)

	if p, err := st.Pairing(id); err == nil {
		d.pairing = p
		d.paired = true
	}

	return d
}

// emit waits for every listener, so callbacks have run when it returns.
// It must not be called with d.mu held.
func (d *Device) emit(topic string, args ...interface{}) {
	<-d.Emit(topic, args...)
}

func (d *Device) done(topic string, err error) error {
	if err != nil {
		r := log.Root()
		r.Debug().Str("device", d.Id).Err(err).Msg("pairing failed")
		d.emit(EventError, err)
		return err
	}
	d.emit(topic)
	return nil
}

// OnEvent registers callback for topic.
func (d *Device) OnEvent(topic string, callback eventCallback) {
	d.On(topic, callback)
}

// PairSetup pairs with the accessory and stores its long-term identity.
// It does nothing if the device is already paired.
func (d *Device) PairSetup(ctx context.Context, code string) error {
	d.mu.Lock()
	if d.paired {
		d.mu.Unlock()
		log.Info.Printf("%s: already paired", d.Id)
		return nil
	}

	accessory, err := d.client.PairSetup(ctx, code)
	if err == nil {
		err = d.st.SavePairing(*accessory)
	}
	if err == nil {
		d.pairing = *accessory
		d.paired = true
		d.verified = false
		d.keys.Zero()
	}
	d.mu.Unlock()

	return d.done(EventPaired, err)
}

// PairVerify establishes a new session. Keys of an earlier session are
// discarded first.
func (d *Device) PairVerify(ctx context.Context) error {
	d.mu.Lock()
	d.keys.Zero()
	d.verified = false

	var err error
	if !d.paired {
		err = ErrNotPaired
	} else {
		var keys SessionKeys
		if keys, err = d.client.PairVerify(ctx, d.pairing); err == nil {
			d.keys = keys
			d.verified = true
		}
	}
	d.mu.Unlock()

	return d.done(EventVerified, err)
}

// Unpair removes this controller from the accessory. The stored pairing
// is only forgotten once the accessory confirmed the removal; on failure
// it is kept so the removal can be retried after a new pair-verify.
func (d *Device) Unpair(ctx context.Context) error {
	d.mu.Lock()

	var err error
	switch {
	case !d.paired:
		err = ErrNotPaired
	case !d.verified:
		err = ErrNotVerified
	default:
		err = d.client.PairRemove(ctx, d.keys, d.client.Controller.Id)
		d.keys.Zero()
		d.verified = false

		if err == nil {
			if err = d.st.DeletePairing(d.Id); errors.Is(err, ErrNotFound) {
				err = nil
			}
			d.pairing = Pairing{Name: d.Id}
			d.paired = false
		}
	}
	d.mu.Unlock()

	return d.done(EventUnpaired, err)
}

// ListPairings returns the controllers paired with the accessory.
func (d *Device) ListPairings(ctx context.Context) ([]Pairing, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.verified {
		return nil, ErrNotVerified
	}
	return d.client.ListPairings(ctx, d.keys)
}

// PairAdd adds another controller to the accessory.
func (d *Device) PairAdd(ctx context.Context, p Pairing) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.verified {
		return ErrNotVerified
	}
	return d.client.PairAdd(ctx, d.keys, p)
}

// Close ends the session and wipes its keys.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.keys.Zero()
	d.verified = false
}

// IsPaired returns true if device is paired by this controller.
// If another client is paired with device it will return false.
func (d *Device) IsPaired() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paired
}

// IsVerified returns true if /pair-verify step was completed by this controller.
func (d *Device) IsVerified() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.verified
}

// Pairing returns the accessory's long-term identity.
func (d *Device) Pairing() Pairing {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pairing
}

// SessionKeys returns a copy of the current session keys.
func (d *Device) SessionKeys() SessionKeys {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keys
}
