package osmosis

import (
	"fmt"

	"cosmossdk.io/math"
)

// MinOutputFromQuote calculates minimum output with slippage tolerance.
// slippageBps is basis points (e.g., 100 = 1%)
// minOutput = expected * (10000 - slippageBps) / 10000
func MinOutputFromQuote(expectedOutput string, slippageBps uint32) (math.Int, error) {
	if slippageBps > 10000 {
		return math.Int{}, fmt.Errorf("slippage %d bps exceeds 100%%", slippageBps)
	}
	expected, ok := math.NewIntFromString(expectedOutput)
	if !ok {
		return math.Int{}, fmt.Errorf("failed to parse expected output: %q", expectedOutput)
	}
	return expected.MulRaw(int64(10000 - slippageBps)).QuoRaw(10000), nil
}
