package astroport_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/token"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/venues/astroport"
)

func TestBuildSwapRequest_Native(t *testing.T) {
	spread := decimal.RequireFromString("0.01")
	req, err := astroport.BuildSwapRequest("terra1router", asset.NativeAsset("uluna"), math.NewInt(100), asset.TokenAsset("terra1astro"), astroport.Params{MaxSpread: &spread})
	assert.NoError(t, err)
	assert.Equal(t, req.Contract, "terra1router")
	assert.Equal(t, len(req.Funds), 1)
	assert.Equal(t, req.Funds[0].Amount.String(), "100")

	ops, err := astroport.ParseExecuteMsg(req.Msg)
	assert.NoError(t, err)
	offer, err := ops.Operations[0].AstroSwap.OfferAssetInfo.ToAsset()
	assert.NoError(t, err)
	ask, err := ops.Operations[0].AstroSwap.AskAssetInfo.ToAsset()
	assert.NoError(t, err)
	assert.Equal(t, offer, asset.NativeAsset("uluna"))
	assert.Equal(t, ask, asset.TokenAsset("terra1astro"))
	assert.Equal(t, ops.MaxSpread.String(), "0.01")
}

func TestBuildSwapRequest_TokenUsesSendHook(t *testing.T) {
	req, err := astroport.BuildSwapRequest("terra1router", asset.TokenAsset("terra1astro"), math.NewInt(42), asset.NativeAsset("uluna"), astroport.Params{})
	assert.NoError(t, err)
	assert.Equal(t, req.Contract, "terra1astro")
	assert.Equal(t, len(req.Funds), 0)

	tokenMsg, err := token.ParseExecuteMsg(req.Msg)
	assert.NoError(t, err)
	assert.Equal(t, tokenMsg.Send.Contract, "terra1router")
	assert.Equal(t, tokenMsg.Send.Amount.String(), "42")

	_, err = astroport.ParseExecuteMsg(tokenMsg.Send.Msg)
	assert.NoError(t, err)
}

func TestBuildSwapRequest_Validation(t *testing.T) {
	_, err := astroport.BuildSwapRequest("", asset.NativeAsset("a"), math.NewInt(1), asset.NativeAsset("b"), astroport.Params{})
	assert.Error(t, err)

	bad := decimal.NewFromInt(2)
	_, err = astroport.BuildSwapRequest("r", asset.NativeAsset("a"), math.NewInt(1), asset.NativeAsset("b"), astroport.Params{MaxSpread: &bad})
	assert.Error(t, err)
}
