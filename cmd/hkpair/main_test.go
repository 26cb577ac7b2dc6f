package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hkontrol/hkpair"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hkpair.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store: /var/lib/hkpair
log:
  level: debug
timeout: 5s
accessories:
  - id: AA:BB:CC:DD:EE:FF
    url: http://192.168.1.20:51826
    feature_flags: "1"
`), 0600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/hkpair", cfg.Store)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "text", cfg.Log.Format)
	require.Equal(t, "hkpair", cfg.Controller.Name)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.Equal(t, []accessoryConfig{
		{Id: "AA:BB:CC:DD:EE:FF", URL: "http://192.168.1.20:51826", FeatureFlags: "1"},
	}, cfg.Accessories)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hkpair.yaml")
	require.NoError(t, os.WriteFile(path, []byte("accessories:\n  - id: x\n"), 0600))

	_, err := loadConfig(path)
	require.Error(t, err)
}

func TestParsePairing(t *testing.T) {
	key := "3d4017c3e843895a92b70aa74d1b7ebc9c982ccf2ec4968cc0cd55f12af4660c"

	p, err := parsePairing([]string{"controller-2", key})
	require.NoError(t, err)
	require.Equal(t, "controller-2", p.Name)
	require.Len(t, p.PublicKey, 32)
	require.Equal(t, hkpair.PermissionUser, p.Permission)

	p, err = parsePairing([]string{"controller-2", key, "admin"})
	require.NoError(t, err)
	require.Equal(t, hkpair.PermissionAdmin, p.Permission)

	p, err = parsePairing([]string{"controller-2", key, "true"})
	require.NoError(t, err)
	require.Equal(t, hkpair.PermissionAdmin, p.Permission)

	_, err = parsePairing([]string{"controller-2", "zz"})
	require.Error(t, err)
	_, err = parsePairing([]string{"controller-2"})
	require.Error(t, err)
}

func TestReplWithoutDevice(t *testing.T) {
	store, err := hkpair.NewFsStore(t.TempDir())
	require.NoError(t, err)
	c, err := hkpair.NewController(store, "test", nil)
	require.NoError(t, err)
	c.NewDevice("AA:BB:CC:DD:EE:FF", "http://127.0.0.1:1", nil)

	var out bytes.Buffer
	r := &repl{c: c, out: &out}

	require.False(t, r.exec("pair 031-45-154"))
	require.Contains(t, out.String(), "no device selected")

	require.False(t, r.exec("use 7"))
	require.Nil(t, r.device)

	require.False(t, r.exec("use 0"))
	require.NotNil(t, r.device)
	require.Equal(t, "AA:BB:CC:DD:EE:FF> ", r.prompt())

	out.Reset()
	require.False(t, r.exec("unpair"))
	require.Contains(t, out.String(), hkpair.ErrNotPaired.Error())

	require.False(t, r.exec(""))
	require.True(t, r.exec("quit"))
}
