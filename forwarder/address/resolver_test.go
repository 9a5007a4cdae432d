package address_test

import (
	"context"
	"testing"

	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/address"
)

var (
	alice  = address.MustAddress("osmo", []byte("alice_______________"))
	router = address.MustAddress("osmo", []byte("router______________"))
)

func TestResolver_PlainAddress(t *testing.T) {
	r := address.NewResolver("osmo")
	got, err := r.Resolve(context.Background(), alice)
	assert.NoError(t, err)
	assert.Equal(t, got, alice)
}

func TestResolver_RejectsWrongPrefix(t *testing.T) {
	r := address.NewResolver("terra")
	_, err := r.Resolve(context.Background(), alice)
	assert.Error(t, err)
}

func TestResolver_RejectsGarbage(t *testing.T) {
	r := address.NewResolver("")
	_, err := r.Resolve(context.Background(), "not-an-address")
	assert.Error(t, err)
	_, err = r.Resolve(context.Background(), "")
	assert.Error(t, err)
}

func TestResolver_Paths(t *testing.T) {
	r := address.NewResolver("osmo")
	assert.NoError(t, r.Register("/lib/osmosis/router", router))
	assert.Error(t, r.Register("lib/osmosis/router", router))

	got, err := r.Resolve(context.Background(), "/lib/osmosis/router")
	assert.NoError(t, err)
	assert.Equal(t, got, router)

	_, err = r.Resolve(context.Background(), "/lib/unknown")
	assert.Error(t, err)
}

func TestConvertBech32Address(t *testing.T) {
	converted, err := address.ConvertBech32Address(alice, "cosmos")
	assert.NoError(t, err)
	back, err := address.ConvertBech32Address(converted, "osmo")
	assert.NoError(t, err)
	assert.Equal(t, back, alice)
}
