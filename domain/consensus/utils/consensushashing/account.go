package consensushashing

import (
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/hashes"
)

// AccountID returns the id of the account that owns the given public key.
func AccountID(publicKey externalapi.PublicKey) externalapi.AccountID {
	return externalapi.AccountID(hashes.FirstEightBytesLE(hashes.Sum256(publicKey[:])))
}
