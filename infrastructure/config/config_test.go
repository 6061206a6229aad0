package config

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/require"
	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
)

func parseTestFlags(t *testing.T, args ...string) *Flags {
	cfgFlags := defaultFlags()
	parser := newConfigParser(cfgFlags, &serviceOptions{}, flags.HelpFlag)
	_, err := parser.ParseArgs(args)
	require.NoError(t, err)
	return cfgFlags
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := resolveConfig(parseTestFlags(t))
	require.NoError(t, err)

	require.Equal(t, chainconfig.MainnetParams.Name, cfg.NetParams().Name)
	require.Equal(t, filepath.Join(defaultDataDir, chainconfig.MainnetParams.Name), cfg.DataDir)
	require.Equal(t, chainconfig.DefaultMaxRollback, cfg.MaxRollback)
	require.Equal(t, uint64(0), cfg.SoftForkVoteMask)
	require.False(t, cfg.FakeForging.Enabled)
}

func TestResolveConfigNamespacesTestnet(t *testing.T) {
	cfg, err := resolveConfig(parseTestFlags(t, "--testnet", "--appdir=/tmp/xeld"))
	require.NoError(t, err)

	require.True(t, cfg.NetParams().Testnet)
	require.Equal(t, filepath.Join("/tmp/xeld", chainconfig.TestnetParams.Name), cfg.DataDir)
}

func TestResolveConfigSoftForkVotes(t *testing.T) {
	cfg, err := resolveConfig(parseTestFlags(t, "--softforkvote=0", "--softforkvote=5", "--softforkvote=63"))
	require.NoError(t, err)
	require.Equal(t, uint64(1|1<<5|1<<63), cfg.SoftForkVoteMask)

	_, err = resolveConfig(parseTestFlags(t, "--softforkvote=64"))
	require.Error(t, err)
}

func TestResolveConfigRaisesMaxRollback(t *testing.T) {
	cfg, err := resolveConfig(parseTestFlags(t, "--maxrollback=10"))
	require.NoError(t, err)
	require.Equal(t, chainconfig.DefaultMaxRollback, cfg.MaxRollback)

	cfg, err = resolveConfig(parseTestFlags(t, "--maxrollback=1000"))
	require.NoError(t, err)
	require.Equal(t, int32(1000), cfg.MaxRollback)
}

func TestResolveConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown db type", args: []string{"--dbtype=bolt"}},
		{name: "negative forging delay", args: []string{"--forgingdelay=-1"}},
		{name: "negative forging speedup", args: []string{"--forgingspeedup=-1"}},
		{name: "no forgers", args: []string{"--maxforgers=0"}},
		{name: "low profile port", args: []string{"--profile=80"}},
		{name: "malformed fake forging account", args: []string{"--testnet", "--fakeforgingaccount=nope"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := resolveConfig(parseTestFlags(t, test.args...))
			require.Error(t, err)
		})
	}
}

func TestResolveConfigFakeForging(t *testing.T) {
	key, err := signing.GenerateKey()
	require.NoError(t, err)
	account := key.AccountID().String()

	cfg, err := resolveConfig(parseTestFlags(t, "--testnet", "--fakeforgingaccount="+account))
	require.NoError(t, err)
	require.True(t, cfg.FakeForging.Enabled)
	require.Equal(t, key.AccountID(), cfg.FakeForging.AccountID)

	_, err = resolveConfig(parseTestFlags(t, "--fakeforgingaccount="+account))
	require.Error(t, err, "fake forging must be refused on mainnet")
}

func TestParseForgingKeys(t *testing.T) {
	first, err := signing.GenerateKey()
	require.NoError(t, err)
	second, err := signing.GenerateKey()
	require.NoError(t, err)

	file := fmt.Sprintf("keys:\n  - name: first\n    privatekey: %s\n  - name: second\n    privatekey: %s\n",
		hex.EncodeToString(first.Serialize()), hex.EncodeToString(second.Serialize()))
	keys, err := ParseForgingKeys(strings.NewReader(file))
	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.Equal(t, first.AccountID(), keys[0].AccountID())
	require.Equal(t, second.AccountID(), keys[1].AccountID())

	keys, err = ParseForgingKeys(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, keys)

	_, err = ParseForgingKeys(strings.NewReader("keys:\n  - name: bad\n    privatekey: zz\n"))
	require.Error(t, err)

	_, err = ParseForgingKeys(strings.NewReader("wallets: []\n"))
	require.Error(t, err)
}

func TestParseRedeemClaims(t *testing.T) {
	first, err := signing.GenerateKey()
	require.NoError(t, err)
	second, err := signing.GenerateKey()
	require.NoError(t, err)

	file := fmt.Sprintf("claims:\n  - address: 2-entryA-entryB\n    amountnqt: 500\n    requiredsignatures: 2\n"+
		"    publickeys: [%s, %s]\n", first.PublicKey(), second.PublicKey())
	claims, err := ParseRedeemClaims(strings.NewReader(file))
	require.NoError(t, err)
	require.Len(t, claims, 1)
	require.Equal(t, "2-entryA-entryB", claims[0].Address)
	require.Equal(t, int64(500), claims[0].AmountNQT)
	require.Equal(t, 2, claims[0].RequiredSignatures)
	require.Equal(t, second.PublicKey(), claims[0].PublicKeys[1])

	claims, err = ParseRedeemClaims(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, claims)

	_, err = ParseRedeemClaims(strings.NewReader("claims:\n  - address: a\n    publickeys: [zz]\n"))
	require.Error(t, err)

	_, err = ParseRedeemClaims(strings.NewReader("entries: []\n"))
	require.Error(t, err)
}
