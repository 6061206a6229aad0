package config

import (
	"github.com/xelnet/xeld/domain/chainconfig"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet bool `long:"testnet" description:"Use the test network"`
	Offline bool `long:"offline" description:"Run without peers; forged blocks are accepted without a valid hit"`

	ActiveNetParams *chainconfig.Params
}

// ResolveNetwork sets ActiveNetParams according to the network flags
func (networkFlags *NetworkFlags) ResolveNetwork() {
	networkFlags.ActiveNetParams = &chainconfig.MainnetParams
	if networkFlags.Testnet {
		networkFlags.ActiveNetParams = &chainconfig.TestnetParams
	}
}

// NetParams returns the selected network parameters
func (networkFlags *NetworkFlags) NetParams() *chainconfig.Params {
	return networkFlags.ActiveNetParams
}
