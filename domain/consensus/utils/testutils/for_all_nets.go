package testutils

import (
	"testing"

	"github.com/xelnet/xeld/domain/chainconfig"
)

// ForAllNets runs the passed testFunc with all available networks. Each
// run gets its own copy of the params, so tests may modify them.
func ForAllNets(t *testing.T, testFunc func(*testing.T, *chainconfig.Params)) {
	allParams := []chainconfig.Params{
		chainconfig.MainnetParams,
		chainconfig.TestnetParams,
	}

	for _, params := range allParams {
		params := params
		t.Run(params.Name, func(t *testing.T) {
			t.Parallel()
			t.Logf("Running test for %s", params.Name)
			testFunc(t, &params)
		})
	}
}
