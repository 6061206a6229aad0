package externalapi

// DomainTransaction is the consensus view of a transaction. Consensus
// reads its identity, signer, amounts, kind and position in a block; the
// remaining ledger semantics belong to the ledger.
type DomainTransaction struct {
	Kind      TransactionKind
	Version   byte
	Timestamp int32
	// Deadline is the lifetime of the transaction in minutes.
	Deadline           int16
	SenderPublicKey    PublicKey
	RecipientID        AccountID
	AmountNQT          int64
	FeeNQT             int64
	WorkID             WorkID
	Attachment         []byte
	Signature          Signature
	SupernodeSignature Signature

	// Set when the transaction is linked into a block.
	BlockID        BlockID
	Height         int32
	IndexInBlock   int16
	BlockTimestamp int32
}

// Expiration returns the last epoch second at which the transaction may be
// included in a block.
func (tx *DomainTransaction) Expiration() int32 {
	return tx.Timestamp + int32(tx.Deadline)*60
}

// Clone returns a deep copy of the transaction.
func (tx *DomainTransaction) Clone() *DomainTransaction {
	clone := *tx
	if tx.Attachment != nil {
		clone.Attachment = make([]byte, len(tx.Attachment))
		copy(clone.Attachment, tx.Attachment)
	}
	return &clone
}

// CloneTransactions returns deep copies of the given transactions.
func CloneTransactions(transactions []*DomainTransaction) []*DomainTransaction {
	clones := make([]*DomainTransaction, len(transactions))
	for i, tx := range transactions {
		clones[i] = tx.Clone()
	}
	return clones
}
