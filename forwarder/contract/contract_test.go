package contract_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"cosmossdk.io/math"
	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/address"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/contract"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/packet"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/store"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/token"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/venues/astroport"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/venues/osmosis"
)

var (
	contractAddr  = address.MustAddress("osmo", []byte("forwarder_contract__"))
	kernelAddr    = address.MustAddress("osmo", []byte("andromeda_kernel____"))
	osmosisRouter = address.MustAddress("osmo", []byte("osmosis_swaprouter__"))
	astroRouter   = address.MustAddress("osmo", []byte("astroport_router____"))
	ownerAddr     = address.MustAddress("osmo", []byte("owner_______________"))
	userAddr      = address.MustAddress("osmo", []byte("user________________"))
	recipientAddr = address.MustAddress("osmo", []byte("recipient___________"))
	tokenAddr     = address.MustAddress("osmo", []byte("cw20_token__________"))
)

type fakeQuerier struct {
	balances map[string]math.Int
	err      error
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{balances: make(map[string]math.Int)}
}

func (q *fakeQuerier) set(addr string, a asset.Asset, amount int64) {
	q.balances[addr+"/"+a.Key()] = math.NewInt(amount)
}

func (q *fakeQuerier) QueryBalance(_ context.Context, addr string, a asset.Asset) (math.Int, error) {
	if q.err != nil {
		return math.Int{}, q.err
	}
	if b, ok := q.balances[addr+"/"+a.Key()]; ok {
		return b, nil
	}
	return math.ZeroInt(), nil
}

type fixture struct {
	ctx     context.Context
	env     contract.Env
	storage *store.MemStore
	querier *fakeQuerier
	c       *contract.Contract
}

// newFixture instantiates a contract with osmosis on the given strategy and astroport on
// its default
func newFixture(t *testing.T, osmosisStrategy contract.ReplyStrategy) *fixture {
	t.Helper()
	resolver := address.NewResolver("osmo")
	assert.NoError(t, resolver.Register("/lib/osmosis/router", osmosisRouter))

	f := &fixture{
		ctx:     context.Background(),
		env:     contract.Env{ContractAddress: contractAddr, BlockHeight: 1},
		storage: store.NewMemStore(),
		querier: newFakeQuerier(),
	}
	f.c = contract.New(f.storage, f.querier, resolver)
	_, err := f.c.Instantiate(f.ctx, f.env, contract.MessageInfo{Sender: ownerAddr}, contract.InstantiateMsg{
		KernelAddress: kernelAddr,
		Routers: map[string]contract.RouterConfig{
			"osmosis":   {Address: "/lib/osmosis/router", Strategy: osmosisStrategy},
			"astroport": {Address: astroRouter},
		},
	})
	assert.NoError(t, err)
	return f
}

func osmosisSwap(to string) *contract.SwapAndForwardMsg {
	return &contract.SwapAndForwardMsg{
		Dex:     "osmosis",
		ToAsset: asset.NativeAsset(to),
		VenueParams: &contract.VenueParams{
			Osmosis: &contract.OsmosisParams{
				Slippage: osmosis.NewMinOutputSlippage(math.NewInt(1)),
			},
		},
	}
}

func (f *fixture) trigger(sender string, funds []asset.Coin, msg *contract.SwapAndForwardMsg) (*contract.Response, error) {
	return f.c.Execute(f.ctx, f.env, contract.MessageInfo{Sender: sender, Funds: funds},
		contract.ExecuteMsg{SwapAndForward: msg})
}

func (f *fixture) reply(id contract.ReplyID, result contract.SubMsgResult) (*contract.Response, error) {
	return f.c.Reply(f.ctx, f.env, contract.Reply{ID: id, Result: result})
}

func (f *fixture) pending(t *testing.T) *contract.PendingSwap {
	t.Helper()
	op, err := f.c.PendingSwap()
	assert.NoError(t, err)
	return op
}

func swapEvents(kv ...string) contract.SubMsgResult {
	return contract.SubMsgResult{Events: []contract.Event{contract.NewEvent("wasm", kv...)}}
}

func forwardedPacket(t *testing.T, msg contract.SubMsg) *packet.Packet {
	t.Helper()
	assert.NotNil(t, msg.Msg.Wasm)
	pkt, err := packet.ParseKernelMsg(msg.Msg.Wasm.Msg)
	assert.NoError(t, err)
	return pkt
}

func TestSwapAndForward_NativeEventLog(t *testing.T) {
	f := newFixture(t, contract.StrategyEventLog)

	resp, err := f.trigger(userAddr, []asset.Coin{asset.NewCoin("uosmo", 100)}, osmosisSwap("to_asset"))
	assert.NoError(t, err)
	assert.Equal(t, len(resp.Messages), 1)

	swap := resp.Messages[0]
	assert.Equal(t, swap.ID, contract.SwapReplyID)
	assert.Equal(t, swap.ReplyOn, contract.ReplyAlways)
	assert.Equal(t, swap.Msg.Wasm.ContractAddr, osmosisRouter)
	assert.Equal(t, len(swap.Msg.Wasm.Funds), 1)
	assert.Equal(t, swap.Msg.Wasm.Funds[0].Amount.Int64(), int64(100))

	venueMsg, err := osmosis.ParseExecuteMsg(swap.Msg.Wasm.Msg)
	assert.NoError(t, err)
	assert.Equal(t, venueMsg.InputCoin.Amount.Int64(), int64(100))
	assert.Equal(t, venueMsg.OutputDenom, "to_asset")

	op := f.pending(t)
	assert.NotNil(t, op)
	assert.Equal(t, op.ForwardAddress, userAddr)
	assert.Equal(t, op.RefundAddress, userAddr)
	assert.Equal(t, op.Strategy, contract.StrategyEventLog)

	resp, err = f.reply(contract.SwapReplyID, swapEvents("token_out_amount", "95"))
	assert.NoError(t, err)
	assert.True(t, f.pending(t) == nil)
	assert.Equal(t, len(resp.Messages), 1)

	forward := resp.Messages[0]
	assert.Equal(t, forward.ID, contract.ForwardReplyID)
	assert.Equal(t, forward.ReplyOn, contract.ReplyAlways)
	assert.Equal(t, forward.Msg.Wasm.ContractAddr, kernelAddr)
	assert.Equal(t, len(forward.Msg.Wasm.Funds), 1)
	assert.Equal(t, forward.Msg.Wasm.Funds[0].Denom, "to_asset")
	assert.Equal(t, forward.Msg.Wasm.Funds[0].Amount.Int64(), int64(95))

	pkt := forwardedPacket(t, forward)
	assert.Equal(t, len(pkt.Messages), 1)
	assert.Equal(t, pkt.Messages[0].Recipient, userAddr)
	assert.Equal(t, pkt.Messages[0].Funds[0].Amount.Int64(), int64(95))
	assert.Equal(t, pkt.Context.Origin, contractAddr)
	assert.Equal(t, pkt.Context.PreviousSender, contractAddr)

	for key, want := range map[string]string{
		"action":         "swap_and_forward",
		"dex":            "osmosis",
		"to_denom":       "to_asset",
		"to_amount":      "95",
		"forward_addr":   userAddr,
		"refund_addr":    userAddr,
		"kernel_address": kernelAddr,
	} {
		got, ok := resp.Attribute(key)
		assert.True(t, ok)
		assert.Equal(t, got, want)
	}
	_, ok := resp.Attribute("spread_amount")
	assert.False(t, ok)

	resp, err = f.reply(contract.ForwardReplyID, contract.SubMsgResult{})
	assert.NoError(t, err)
	action, _ := resp.Attribute("action")
	assert.Equal(t, action, "message_forwarded_success")
}

func TestSwapAndForward_DuplicateTokens(t *testing.T) {
	f := newFixture(t, "")
	before := f.storage.Len()

	resp, err := f.trigger(userAddr, []asset.Coin{asset.NewCoin("uosmo", 100)}, osmosisSwap("uosmo"))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, contract.ErrDuplicateTokens))
	assert.True(t, resp == nil)
	assert.Equal(t, f.storage.Len(), before)
}

func TestSwapAndForward_RejectsWhilePending(t *testing.T) {
	f := newFixture(t, contract.StrategyEventLog)

	_, err := f.trigger(userAddr, []asset.Coin{asset.NewCoin("uosmo", 100)}, osmosisSwap("uatom"))
	assert.NoError(t, err)
	first := f.pending(t)

	msg := osmosisSwap("uion")
	msg.ForwardAddr = recipientAddr
	_, err = f.trigger(recipientAddr, []asset.Coin{asset.NewCoin("uosmo", 7)}, msg)
	assert.True(t, errors.Is(err, contract.ErrUnauthorized))

	second := f.pending(t)
	assert.Equal(t, second.ForwardAddress, first.ForwardAddress)
	assert.Equal(t, second.DestinationAsset, first.DestinationAsset)
	assert.Equal(t, second.SourceAmount.Int64(), int64(100))
}

func TestSwapAndForward_InvalidDeposits(t *testing.T) {
	cases := []struct {
		name  string
		funds []asset.Coin
	}{
		{"zero", []asset.Coin{asset.NewCoin("uosmo", 0)}},
		{"none", nil},
		{"two coins", []asset.Coin{asset.NewCoin("uosmo", 1), asset.NewCoin("uatom", 1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, "")
			before := f.storage.Len()

			_, err := f.trigger(userAddr, tc.funds, osmosisSwap("uatom"))
			assert.True(t, errors.Is(err, contract.ErrInvalidAsset))
			assert.Equal(t, f.storage.Len(), before)
			assert.True(t, f.pending(t) == nil)
		})
	}
}

func TestSwapAndForward_UnsupportedVenue(t *testing.T) {
	f := newFixture(t, "")
	before := f.storage.Len()

	msg := osmosisSwap("uatom")
	msg.Dex = "dummy"
	_, err := f.trigger(userAddr, []asset.Coin{asset.NewCoin("uosmo", 100)}, msg)
	assert.True(t, errors.Is(err, contract.ErrUnsupportedVenue))
	assert.Equal(t, f.storage.Len(), before)
}

func TestSwapAndForward_OsmosisRequiresSlippage(t *testing.T) {
	f := newFixture(t, "")

	msg := osmosisSwap("uatom")
	msg.VenueParams = nil
	_, err := f.trigger(userAddr, []asset.Coin{asset.NewCoin("uosmo", 100)}, msg)
	assert.True(t, errors.Is(err, contract.ErrInvalidVenueParams))
	assert.True(t, f.pending(t) == nil)
}

func TestSwapAndForward_InvalidForwardAddress(t *testing.T) {
	f := newFixture(t, "")

	msg := osmosisSwap("uatom")
	msg.ForwardAddr = "not-an-address"
	_, err := f.trigger(userAddr, []asset.Coin{asset.NewCoin("uosmo", 100)}, msg)
	assert.Error(t, err)
	assert.True(t, f.pending(t) == nil)
}

func TestBalanceDiff_Success(t *testing.T) {
	f := newFixture(t, contract.StrategyBalanceDiff)
	uatom := asset.NativeAsset("uatom")
	f.querier.set(contractAddr, uatom, 10)

	msg := osmosisSwap("uatom")
	msg.ForwardAddr = recipientAddr
	_, err := f.trigger(userAddr, []asset.Coin{asset.NewCoin("uosmo", 100)}, msg)
	assert.NoError(t, err)
	assert.Equal(t, f.pending(t).Strategy, contract.StrategyBalanceDiff)

	f.querier.set(contractAddr, uatom, 58)
	resp, err := f.reply(contract.SwapReplyID, contract.SubMsgResult{})
	assert.NoError(t, err)

	forward := resp.Messages[0]
	assert.Equal(t, forward.Msg.Wasm.Funds[0].Amount.Int64(), int64(48))
	pkt := forwardedPacket(t, forward)
	assert.Equal(t, pkt.Messages[0].Recipient, recipientAddr)
	refund, _ := resp.Attribute("refund_addr")
	assert.Equal(t, refund, userAddr)
}

func TestBalanceDiff_NoChange(t *testing.T) {
	f := newFixture(t, contract.StrategyBalanceDiff)
	f.querier.set(contractAddr, asset.NativeAsset("uatom"), 10)
	before := f.storage.Len()

	_, err := f.trigger(userAddr, []asset.Coin{asset.NewCoin("uosmo", 100)}, osmosisSwap("uatom"))
	assert.NoError(t, err)
	assert.Equal(t, f.storage.Len(), before+2)

	_, err = f.reply(contract.SwapReplyID, contract.SubMsgResult{})
	assert.True(t, errors.Is(err, contract.ErrMalformedVenueResponse))
	assert.True(t, f.pending(t) == nil)
	assert.Equal(t, f.storage.Len(), before)
}

func TestBalanceDiff_QueryFailureLeavesIdle(t *testing.T) {
	f := newFixture(t, contract.StrategyBalanceDiff)
	f.querier.err = errors.New("node unavailable")
	before := f.storage.Len()

	_, err := f.trigger(userAddr, []asset.Coin{asset.NewCoin("uosmo", 100)}, osmosisSwap("uatom"))
	assert.Error(t, err)
	assert.Equal(t, f.storage.Len(), before)
}

func TestSwapReply_NothingPending(t *testing.T) {
	f := newFixture(t, "")
	before := f.storage.Len()

	_, err := f.reply(contract.SwapReplyID, swapEvents("token_out_amount", "95"))
	assert.True(t, errors.Is(err, contract.ErrInvalidReplyID))
	assert.Equal(t, f.storage.Len(), before)

	_, err = f.reply(contract.SwapReplyID, contract.SubMsgResult{})
	assert.True(t, errors.Is(err, contract.ErrInvalidReplyID))
}

func TestReply_UnknownID(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.reply(contract.ReplyID(42), contract.SubMsgResult{})
	assert.True(t, errors.Is(err, contract.ErrInvalidReplyID))
}

func TestSwapReply_Failure(t *testing.T) {
	f := newFixture(t, contract.StrategyEventLog)

	_, err := f.trigger(userAddr, []asset.Coin{asset.NewCoin("uosmo", 100)}, osmosisSwap("uatom"))
	assert.NoError(t, err)

	_, err = f.reply(contract.SwapReplyID, contract.SubMsgResult{Err: "slippage exceeded"})
	assert.True(t, errors.Is(err, contract.ErrVenueFailure))
	assert.True(t, strings.Contains(err.Error(), "osmosis swap failed with error: slippage exceeded"))
	assert.True(t, f.pending(t) == nil)

	// the next trigger is accepted
	_, err = f.trigger(userAddr, []asset.Coin{asset.NewCoin("uosmo", 5)}, osmosisSwap("uatom"))
	assert.NoError(t, err)
}

func TestSwapReply_EventLog(t *testing.T) {
	cases := []struct {
		name   string
		result contract.SubMsgResult
		amount int64
		err    error
	}{
		{
			name:   "last occurrence wins",
			result: contract.SubMsgResult{Events: []contract.Event{
				contract.NewEvent("wasm", "token_out_amount", "10"),
				contract.NewEvent("transfer", "amount", "500uatom"),
				contract.NewEvent("wasm-swap", "token_out_amount", "12"),
			}},
			amount: 12,
		},
		{
			name:   "other namespace ignored",
			result: contract.SubMsgResult{Events: []contract.Event{contract.NewEvent("message", "token_out_amount", "10")}},
			err:    contract.ErrMalformedVenueResponse,
		},
		{
			name:   "missing",
			result: swapEvents("other", "1"),
			err:    contract.ErrMalformedVenueResponse,
		},
		{
			name:   "zero",
			result: swapEvents("token_out_amount", "0"),
			err:    contract.ErrMalformedVenueResponse,
		},
		{
			name:   "not a number",
			result: swapEvents("token_out_amount", "lots"),
			err:    contract.ErrMalformedVenueResponse,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, contract.StrategyEventLog)
			_, err := f.trigger(userAddr, []asset.Coin{asset.NewCoin("uosmo", 100)}, osmosisSwap("uatom"))
			assert.NoError(t, err)

			resp, err := f.reply(contract.SwapReplyID, tc.result)
			assert.True(t, f.pending(t) == nil)
			if tc.err != nil {
				assert.True(t, errors.Is(err, tc.err))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, resp.Messages[0].Msg.Wasm.Funds[0].Amount.Int64(), tc.amount)
		})
	}
}

func TestForwardReply_Failure(t *testing.T) {
	f := newFixture(t, "")
	before := f.storage.Len()

	_, err := f.reply(contract.ForwardReplyID, contract.SubMsgResult{Err: "recipient rejected funds"})
	assert.True(t, errors.Is(err, contract.ErrVenueFailure))
	assert.True(t, strings.Contains(err.Error(), "recipient rejected funds"))
	assert.Equal(t, f.storage.Len(), before)
}

func TestAstroport_TokenToTokenWithSpread(t *testing.T) {
	f := newFixture(t, "")
	outToken := address.MustAddress("osmo", []byte("astro_token_________"))

	hook, err := json.Marshal(contract.TokenHookMsg{SwapAndForward: &contract.SwapAndForwardMsg{
		Dex:         "astroport",
		ToAsset:     asset.TokenAsset(outToken),
		ForwardAddr: recipientAddr,
		ForwardMsg:  []byte(`{"deposit":{}}`),
	}})
	assert.NoError(t, err)

	// the token contract is the direct sender of the receive hook
	resp, err := f.c.Execute(f.ctx, f.env, contract.MessageInfo{Sender: tokenAddr}, contract.ExecuteMsg{
		Receive: &contract.TokenReceiveMsg{Sender: userAddr, Amount: math.NewInt(300), Msg: hook},
	})
	assert.NoError(t, err)

	swap := resp.Messages[0].Msg.Wasm
	assert.Equal(t, swap.ContractAddr, tokenAddr)
	assert.Equal(t, len(swap.Funds), 0)
	send, err := token.ParseExecuteMsg(swap.Msg)
	assert.NoError(t, err)
	assert.NotNil(t, send.Send)
	assert.Equal(t, send.Send.Contract, astroRouter)
	assert.Equal(t, send.Send.Amount.Int64(), int64(300))

	op := f.pending(t)
	assert.Equal(t, op.Strategy, contract.StrategyEventLog)
	assert.True(t, op.SourceAsset.Equal(asset.TokenAsset(tokenAddr)))

	resp, err = f.reply(contract.SwapReplyID, swapEvents(
		astroport.ReturnAmountKey, "290",
		astroport.SpreadAmountKey, "3",
	))
	assert.NoError(t, err)

	forward := resp.Messages[0].Msg.Wasm
	assert.Equal(t, forward.ContractAddr, outToken)
	fwdSend, err := token.ParseExecuteMsg(forward.Msg)
	assert.NoError(t, err)
	assert.Equal(t, fwdSend.Send.Contract, kernelAddr)
	assert.Equal(t, fwdSend.Send.Amount.Int64(), int64(290))

	pkt, err := packet.ParseKernelMsg(fwdSend.Send.Msg)
	assert.NoError(t, err)
	assert.Equal(t, pkt.Messages[0].Recipient, recipientAddr)
	assert.Equal(t, string(pkt.Messages[0].Message), `{"deposit":{}}`)

	spread, ok := resp.Attribute("spread_amount")
	assert.True(t, ok)
	assert.Equal(t, spread, "3")
	toAsset, _ := resp.Attribute("to_asset")
	assert.Equal(t, toAsset, outToken)
}

func TestReceive_RejectsNativeFunds(t *testing.T) {
	f := newFixture(t, "")
	hook, err := json.Marshal(contract.TokenHookMsg{SwapAndForward: osmosisSwap("uatom")})
	assert.NoError(t, err)

	_, err = f.c.Execute(f.ctx, f.env,
		contract.MessageInfo{Sender: tokenAddr, Funds: []asset.Coin{asset.NewCoin("uosmo", 1)}},
		contract.ExecuteMsg{Receive: &contract.TokenReceiveMsg{Sender: userAddr, Amount: math.NewInt(5), Msg: hook}})
	assert.True(t, errors.Is(err, contract.ErrInvalidAsset))
}

func relayedPacket(t *testing.T, messages ...packet.Message) *packet.Packet {
	t.Helper()
	pkt := packet.NewPacket(userAddr, ownerAddr, messages...)
	pkt.Context.ID = 7
	return pkt
}

func relayedSwap(t *testing.T, funds []asset.Coin) packet.Message {
	t.Helper()
	inner, err := json.Marshal(contract.ExecuteMsg{SwapAndForward: osmosisSwap("uatom")})
	assert.NoError(t, err)
	return packet.NewMessage(contractAddr, inner, funds)
}

func TestAMPReceive_KeepsLineage(t *testing.T) {
	f := newFixture(t, contract.StrategyEventLog)
	pkt := relayedPacket(t, relayedSwap(t, []asset.Coin{asset.NewCoin("uosmo", 100)}))

	_, err := f.c.Execute(f.ctx, f.env, contract.MessageInfo{Sender: kernelAddr}, contract.ExecuteMsg{AMPReceive: pkt})
	assert.NoError(t, err)

	op := f.pending(t)
	assert.NotNil(t, op.Correlation)
	assert.Equal(t, op.Correlation.Origin, userAddr)
	assert.Equal(t, op.ForwardAddress, userAddr)

	resp, err := f.reply(contract.SwapReplyID, swapEvents("token_out_amount", "80"))
	assert.NoError(t, err)
	forwarded := forwardedPacket(t, resp.Messages[0])
	assert.Equal(t, forwarded.Context.Origin, userAddr)
	assert.Equal(t, forwarded.Context.PreviousSender, ownerAddr)
}

func TestAMPReceive_Rejections(t *testing.T) {
	swap := func(t *testing.T) packet.Message {
		return relayedSwap(t, []asset.Coin{asset.NewCoin("uosmo", 100)})
	}

	t.Run("not the kernel", func(t *testing.T) {
		f := newFixture(t, "")
		_, err := f.c.Execute(f.ctx, f.env, contract.MessageInfo{Sender: userAddr},
			contract.ExecuteMsg{AMPReceive: relayedPacket(t, swap(t))})
		assert.True(t, errors.Is(err, contract.ErrUnauthorized))
	})

	t.Run("two swaps in one packet", func(t *testing.T) {
		f := newFixture(t, "")
		_, err := f.c.Execute(f.ctx, f.env, contract.MessageInfo{Sender: kernelAddr},
			contract.ExecuteMsg{AMPReceive: relayedPacket(t, swap(t), swap(t))})
		assert.True(t, errors.Is(err, contract.ErrUnauthorized))
		assert.True(t, f.pending(t) == nil)
	})

	t.Run("zero funds", func(t *testing.T) {
		f := newFixture(t, "")
		_, err := f.c.Execute(f.ctx, f.env, contract.MessageInfo{Sender: kernelAddr},
			contract.ExecuteMsg{AMPReceive: relayedPacket(t, relayedSwap(t, nil))})
		assert.True(t, errors.Is(err, contract.ErrInvalidAsset))
	})
}

func TestUpdateSwapRouter(t *testing.T) {
	f := newFixture(t, "")
	newRouter := address.MustAddress("osmo", []byte("astroport_router_v2_"))
	msg := contract.ExecuteMsg{UpdateSwapRouter: &contract.UpdateSwapRouterMsg{
		Dex:    "astroport",
		Router: contract.RouterConfig{Address: newRouter, Strategy: contract.StrategyBalanceDiff},
	}}

	_, err := f.c.Execute(f.ctx, f.env, contract.MessageInfo{Sender: userAddr}, msg)
	assert.True(t, errors.Is(err, contract.ErrUnauthorized))

	resp, err := f.c.Execute(f.ctx, f.env, contract.MessageInfo{Sender: ownerAddr}, msg)
	assert.NoError(t, err)
	previous, _ := resp.Attribute("previous_swap_router")
	assert.Equal(t, previous, astroRouter)

	cfg, err := f.c.Config()
	assert.NoError(t, err)
	assert.Equal(t, cfg.Routers["astroport"].Address, newRouter)
	assert.Equal(t, cfg.Routers["astroport"].Strategy, contract.StrategyBalanceDiff)

	msg.UpdateSwapRouter.Dex = "dummy"
	_, err = f.c.Execute(f.ctx, f.env, contract.MessageInfo{Sender: ownerAddr}, msg)
	assert.True(t, errors.Is(err, contract.ErrUnsupportedVenue))
}

func TestInstantiate_Validation(t *testing.T) {
	c := contract.New(store.NewMemStore(), newFakeQuerier(), address.NewResolver("osmo"))
	env := contract.Env{ContractAddress: contractAddr}

	_, err := c.Instantiate(context.Background(), env, contract.MessageInfo{Sender: ownerAddr},
		contract.InstantiateMsg{KernelAddress: "bad"})
	assert.Error(t, err)

	_, err = c.Instantiate(context.Background(), env, contract.MessageInfo{Sender: ownerAddr},
		contract.InstantiateMsg{
			KernelAddress: kernelAddr,
			Routers:       map[string]contract.RouterConfig{"dummy": {Address: astroRouter}},
		})
	assert.True(t, errors.Is(err, contract.ErrUnsupportedVenue))

	resp, err := c.Instantiate(context.Background(), env, contract.MessageInfo{Sender: ownerAddr},
		contract.InstantiateMsg{KernelAddress: kernelAddr})
	assert.NoError(t, err)
	owner, _ := resp.Attribute("owner")
	assert.Equal(t, owner, ownerAddr)
}

func TestAstroport_NativeToTokenDestination(t *testing.T) {
	f := newFixture(t, "")
	toAsset := address.MustAddress("osmo", []byte("to_asset_token______"))

	resp, err := f.trigger(userAddr, []asset.Coin{asset.NewCoin("uosmo", 100)}, &contract.SwapAndForwardMsg{
		Dex:     "astroport",
		ToAsset: asset.TokenAsset(toAsset),
	})
	assert.NoError(t, err)

	swap := resp.Messages[0].Msg.Wasm
	assert.Equal(t, swap.ContractAddr, astroRouter)
	assert.Equal(t, len(swap.Funds), 1)
	assert.Equal(t, swap.Funds[0].Amount.Int64(), int64(100))
	ops, err := astroport.ParseExecuteMsg(swap.Msg)
	assert.NoError(t, err)
	assert.Equal(t, len(ops.Operations), 1)

	resp, err = f.reply(contract.SwapReplyID, swapEvents(astroport.ReturnAmountKey, "95"))
	assert.NoError(t, err)
	assert.True(t, f.pending(t) == nil)

	forward := resp.Messages[0]
	assert.Equal(t, forward.ID, contract.ForwardReplyID)
	assert.Equal(t, forward.Msg.Wasm.ContractAddr, toAsset)
	assert.Equal(t, len(forward.Msg.Wasm.Funds), 0)
	send, err := token.ParseExecuteMsg(forward.Msg.Wasm.Msg)
	assert.NoError(t, err)
	assert.Equal(t, send.Send.Contract, kernelAddr)
	assert.Equal(t, send.Send.Amount.Int64(), int64(95))

	pkt, err := packet.ParseKernelMsg(send.Send.Msg)
	assert.NoError(t, err)
	assert.Equal(t, pkt.Messages[0].Recipient, userAddr)
	assert.Equal(t, len(pkt.Messages[0].Funds), 0)

	toAttr, _ := resp.Attribute("to_asset")
	assert.Equal(t, toAttr, toAsset)
	amount, _ := resp.Attribute("to_amount")
	assert.Equal(t, amount, "95")
}

var errStoreFull = errors.New("store is full")

// refusingStore fails every write to one key
type refusingStore struct {
	*store.MemStore
	refuse string
}

func (s *refusingStore) Set(key, value []byte) error {
	if string(key) == s.refuse {
		return errStoreFull
	}
	return s.MemStore.Set(key, value)
}

func TestBalanceDiff_SnapshotWriteFailureReleasesGuard(t *testing.T) {
	ctx := context.Background()
	env := contract.Env{ContractAddress: contractAddr, BlockHeight: 1}
	storage := &refusingStore{MemStore: store.NewMemStore()}
	c := contract.New(storage, newFakeQuerier(), address.NewResolver("osmo"))
	_, err := c.Instantiate(ctx, env, contract.MessageInfo{Sender: ownerAddr}, contract.InstantiateMsg{
		KernelAddress: kernelAddr,
		Routers: map[string]contract.RouterConfig{
			"osmosis": {Address: osmosisRouter, Strategy: contract.StrategyBalanceDiff},
		},
	})
	assert.NoError(t, err)
	before := storage.Len()

	trigger := func() error {
		_, err := c.Execute(ctx, env,
			contract.MessageInfo{Sender: userAddr, Funds: []asset.Coin{asset.NewCoin("uosmo", 100)}},
			contract.ExecuteMsg{SwapAndForward: osmosisSwap("uatom")})
		return err
	}

	storage.refuse = "prev_balance"
	err = trigger()
	assert.True(t, errors.Is(err, errStoreFull))
	op, err := c.PendingSwap()
	assert.NoError(t, err)
	assert.True(t, op == nil)
	assert.Equal(t, storage.Len(), before)

	storage.refuse = ""
	assert.NoError(t, trigger())
	op, err = c.PendingSwap()
	assert.NoError(t, err)
	assert.NotNil(t, op)
}
