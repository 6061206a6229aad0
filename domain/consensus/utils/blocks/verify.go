package blocks

import (
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/consensushashing"
	"github.com/xelnet/xeld/domain/consensus/utils/hashes"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
)

// VerifySignature checks the signature of the block against its generator
// public key. Blocks generated by the redeem account never verify. Blocks
// carrying a redeem transaction always verify otherwise (see Builder.Bytes).
func VerifySignature(domainBlock externalapi.DomainBlock, redeemAccountID externalapi.AccountID) bool {
	if domainBlock.GeneratorID() == redeemAccountID {
		return false
	}
	if domainBlock.HasRedeemTransaction() {
		return true
	}
	header := domainBlock.Header()
	unsignedBytes := consensushashing.BlockBytes(&header, domainBlock.TransactionCount(), nil)
	return signing.Verify(header.GeneratorPublicKey, hashes.Sum256(unsignedBytes), domainBlock.Signature())
}

// VerifySignature checks the signature of a block under construction with
// the same rules as the package level VerifySignature.
func (b *Builder) VerifySignature(redeemAccountID externalapi.AccountID) bool {
	if consensushashing.AccountID(b.header.GeneratorPublicKey) == redeemAccountID {
		return false
	}
	if b.HasRedeemTransaction() {
		return true
	}
	if b.signature == nil {
		return false
	}
	return signing.Verify(b.header.GeneratorPublicKey, hashes.Sum256(b.UnsignedBytes()), *b.signature)
}

// PowCounts returns the number of proof of work transactions per work.
func PowCounts(transactions []*externalapi.DomainTransaction) map[externalapi.WorkID]int {
	counts := make(map[externalapi.WorkID]int)
	for _, tx := range transactions {
		if tx.Kind.IsProofOfWork() {
			counts[tx.WorkID]++
		}
	}
	return counts
}

// HasDuplicateTransactions returns whether two of the transactions share an
// id, or whether two supernode relayed transactions share a clean id.
func HasDuplicateTransactions(transactions []*externalapi.DomainTransaction) bool {
	seen := make(map[externalapi.TransactionID]struct{}, len(transactions))
	for _, tx := range transactions {
		id := consensushashing.TransactionID(tx)
		if _, ok := seen[id]; ok {
			return true
		}
		if tx.Kind.MustHaveSupernodeSignature() {
			cleanID := consensushashing.CleanID(tx)
			if _, ok := seen[cleanID]; ok {
				return true
			}
			seen[cleanID] = struct{}{}
		}
		seen[id] = struct{}{}
	}
	return false
}
