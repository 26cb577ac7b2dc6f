package hkpair

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/hkontrol/hkpair/log"
)

// Controller owns the long-term controller identity and the devices
// paired with it.
type Controller struct {
	name      string
	transport Transport

	mu      sync.Mutex
	devices map[string]*Device

	st *storer
	id Identity
}

// NewController loads the controller identity from store, creating and
// saving a new one on first use.
func NewController(store Store, name string, transport Transport) (*Controller, error) {
	st := &storer{store}

	id, err := st.Identity()
	if errors.Is(err, ErrNotFound) {
		id, err = generateIdentity(uuid.New().String())
		if err != nil {
			return nil, fmt.Errorf("generating identity failed: %w", err)
		}
		if err = st.SaveIdentity(id); err != nil {
			return nil, fmt.Errorf("saving identity failed: %w", err)
		}
		log.Info.Printf("created controller identity %s", id.Id)
	} else if err != nil {
		return nil, fmt.Errorf("loading identity failed: %w", err)
	}

	if err = id.valid(); err != nil {
		return nil, err
	}

	if transport == nil {
		transport = &HTTPTransport{}
	}

	return &Controller{
		name:      name,
		transport: transport,
		devices:   make(map[string]*Device),
		st:        st,
		id:        id,
	}, nil
}

func (c *Controller) Name() string {
	return c.name
}

// Identity returns the public half of the controller identity, the way
// an accessory lists it.
func (c *Controller) Identity() Pairing {
	return Pairing{Name: c.id.Id, PublicKey: c.id.PublicKey, Permission: PermissionAdmin}
}

// NewDevice registers the accessory id reachable at baseURL. txt carries
// the accessory's TXT record; only "ff" is read. A stored pairing for id
// marks the device as paired. Registering a known id again updates its
// address.
func (c *Controller) NewDevice(id, baseURL string, txt map[string]string) *Device {
	c.mu.Lock()
	defer c.mu.Unlock()

	client := NewClient(c.transport, baseURL, c.id)
	client.AccessoryID = id
	client.FeatureFlags = FeatureFlagsFromString(txt[TXTFeatureFlags])

	if d, ok := c.devices[id]; ok {
		d.mu.Lock()
		d.client = client
		d.BaseURL = baseURL
		d.mu.Unlock()
		return d
	}

	d := newDevice(id, client, c.st)
	c.devices[id] = d

	return d
}

func (c *Controller) GetDevice(id string) *Device {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.devices[id]
}

// GetAllDevices returns the registered devices ordered by id.
func (c *Controller) GetAllDevices() []*Device {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]*Device, 0, len(c.devices))
	for _, d := range c.devices {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Id < result[j].Id
	})

	return result
}

// Pairings returns the accessory identities persisted in the store.
func (c *Controller) Pairings() []Pairing {
	return c.st.Pairings()
}
