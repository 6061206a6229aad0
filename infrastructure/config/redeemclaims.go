package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"gopkg.in/yaml.v3"
)

// RedeemClaimsFile is the layout of the file given by --redeemclaimsfile:
//
//	claims:
//	  - address: 2-entryA-entryB
//	    amountnqt: 500000000000
//	    requiredsignatures: 2
//	    publickeys: [02ab..., 03cd..., 02ef...]
type RedeemClaimsFile struct {
	Claims []RedeemClaimEntry `yaml:"claims"`
}

// RedeemClaimEntry is a genesis entry with hex encoded public keys
type RedeemClaimEntry struct {
	Address            string   `yaml:"address"`
	AmountNQT          int64    `yaml:"amountnqt"`
	RequiredSignatures int      `yaml:"requiredsignatures"`
	PublicKeys         []string `yaml:"publickeys"`
}

// ParseRedeemClaims decodes the genesis claim list of a redeem claims file
func ParseRedeemClaims(r io.Reader) ([]*externalapi.RedeemClaim, error) {
	var file RedeemClaimsFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	err := decoder.Decode(&file)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "invalid redeem claims file")
	}

	claims := make([]*externalapi.RedeemClaim, 0, len(file.Claims))
	for i, entry := range file.Claims {
		claim := &externalapi.RedeemClaim{
			Address:            entry.Address,
			AmountNQT:          entry.AmountNQT,
			RequiredSignatures: entry.RequiredSignatures,
			PublicKeys:         make([]externalapi.PublicKey, len(entry.PublicKeys)),
		}
		for j, publicKey := range entry.PublicKeys {
			claim.PublicKeys[j], err = externalapi.NewPublicKeyFromString(publicKey)
			if err != nil {
				return nil, errors.Wrapf(err, "genesis entry %d (%s) key %d", i, entry.Address, j)
			}
		}
		claims = append(claims, claim)
	}
	return claims, nil
}

func loadRedeemClaims(path string) ([]*externalapi.RedeemClaim, error) {
	if path == "" {
		return nil, nil
	}
	file, err := os.Open(cleanAndExpandPath(path))
	if err != nil {
		return nil, errors.Wrap(err, "could not open the redeem claims file")
	}
	defer file.Close()

	claims, err := ParseRedeemClaims(file)
	if err != nil {
		return nil, err
	}
	log.Infof("Loaded %d genesis entries from %s", len(claims), path)
	return claims, nil
}
