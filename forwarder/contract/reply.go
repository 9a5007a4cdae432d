package contract

import (
	"context"
	"fmt"
)

// Reply routes an asynchronous completion by its correlation id
func (c *Contract) Reply(ctx context.Context, env Env, reply Reply) (*Response, error) {
	switch reply.ID {
	case SwapReplyID:
		return c.handleSwapReply(ctx, env, reply)
	case ForwardReplyID:
		return c.handleForwardReply(reply)
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidReplyID, reply.ID)
	}
}

// handleSwapReply clears the guard before anything can fail, so a failed or malformed swap
// never blocks the next trigger.
func (c *Contract) handleSwapReply(ctx context.Context, env Env, reply Reply) (*Response, error) {
	op, opErr := c.guard.Take()
	preSwap, snapErr := takeSnapshot(c.storage)
	if opErr != nil {
		return nil, opErr
	}
	if op == nil {
		return nil, fmt.Errorf("%w: no swap pending for reply %d", ErrInvalidReplyID, reply.ID)
	}

	if !reply.Result.IsOk() {
		log.Warn().
			Str("dex", op.Venue.String()).
			Str("refund_addr", op.RefundAddress).
			Str("error", reply.Result.Err).
			Msg("Swap failed")
		return nil, fmt.Errorf("%w: %s swap failed with error: %s", ErrVenueFailure, op.Venue, reply.Result.Err)
	}

	var outcome SwapOutcome
	var err error
	switch op.Strategy {
	case StrategyEventLog:
		outcome, err = interpretEventLog(reply.Result.Events, op.Venue.logFields())
	case StrategyBalanceDiff:
		if snapErr != nil {
			return nil, snapErr
		}
		current, qerr := c.querier.QueryBalance(ctx, env.ContractAddress, op.DestinationAsset)
		if qerr != nil {
			return nil, fmt.Errorf("failed to query balance: %w", qerr)
		}
		outcome, err = interpretBalanceDiff(current, preSwap)
	default:
		return nil, fmt.Errorf("%w: unknown reply strategy %q", ErrUnsupportedVenue, op.Strategy)
	}
	if err != nil {
		log.Warn().Err(err).
			Str("dex", op.Venue.String()).
			Str("refund_addr", op.RefundAddress).
			Msg("Swap response rejected")
		return nil, err
	}

	return c.dispatchForward(ctx, env, *op, outcome)
}

// handleForwardReply surfaces forward failures. There is nothing to clear, the forward is not
// tracked in storage, and nothing is refunded.
func (c *Contract) handleForwardReply(reply Reply) (*Response, error) {
	if !reply.Result.IsOk() {
		log.Error().Str("error", reply.Result.Err).Msg("Forward failed")
		return nil, fmt.Errorf("%w: message forwarding failed with error: %s", ErrVenueFailure, reply.Result.Err)
	}
	resp := &Response{}
	resp.AddAttribute("action", "message_forwarded_success")
	return resp, nil
}
