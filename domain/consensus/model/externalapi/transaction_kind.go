package externalapi

import (
	"fmt"

	"github.com/pkg/errors"
)

// TransactionKind is the closed set of transaction kinds known to
// consensus. Every switch over TransactionKind in consensus code must be
// exhaustive.
type TransactionKind uint8

// Transaction kinds.
const (
	KindOrdinaryPayment TransactionKind = iota
	KindRedeem
	KindSupernodeAnnouncement
	KindAccountInfo
	KindEffectiveBalanceLeasing
	KindNewWork
	KindCancelWorkRequest
	KindProofOfWork
	KindBounty
	KindBountyAnnouncement

	numberOfTransactionKinds
)

type kindCode struct {
	typ, subtype byte
}

var kindCodes = [numberOfTransactionKinds]kindCode{
	KindOrdinaryPayment:         {0, 0},
	KindRedeem:                  {0, 1},
	KindSupernodeAnnouncement:   {1, 1},
	KindAccountInfo:             {1, 2},
	KindEffectiveBalanceLeasing: {2, 0},
	KindNewWork:                 {3, 0},
	KindCancelWorkRequest:       {3, 5},
	KindProofOfWork:             {3, 2},
	KindBounty:                  {3, 3},
	KindBountyAnnouncement:      {3, 4},
}

var kindNames = [numberOfTransactionKinds]string{
	KindOrdinaryPayment:         "OrdinaryPayment",
	KindRedeem:                  "Redeem",
	KindSupernodeAnnouncement:   "SupernodeAnnouncement",
	KindAccountInfo:             "AccountInfo",
	KindEffectiveBalanceLeasing: "EffectiveBalanceLeasing",
	KindNewWork:                 "NewWork",
	KindCancelWorkRequest:       "CancelWorkRequest",
	KindProofOfWork:             "ProofOfWork",
	KindBounty:                  "Bounty",
	KindBountyAnnouncement:      "BountyAnnouncement",
}

// TransactionKindFromCode returns the kind with the given wire type and
// subtype.
func TransactionKindFromCode(typ, subtype byte) (TransactionKind, error) {
	for kind, code := range kindCodes {
		if code.typ == typ && code.subtype == subtype {
			return TransactionKind(kind), nil
		}
	}
	return 0, errors.Errorf("unknown transaction type %d subtype %d", typ, subtype)
}

// IsValid returns whether the kind is one of the known kinds.
func (kind TransactionKind) IsValid() bool {
	return kind < numberOfTransactionKinds
}

// Code returns the wire type and subtype of the kind.
func (kind TransactionKind) Code() (typ byte, subtype byte) {
	code := kindCodes[kind]
	return code.typ, code.subtype
}

func (kind TransactionKind) String() string {
	if !kind.IsValid() {
		return fmt.Sprintf("UnknownKind(%d)", uint8(kind))
	}
	return kindNames[kind]
}

// IsRedeem returns whether the kind is the bootstrap redeem payment.
func (kind TransactionKind) IsRedeem() bool {
	switch kind {
	case KindRedeem:
		return true
	case KindOrdinaryPayment, KindSupernodeAnnouncement, KindAccountInfo, KindEffectiveBalanceLeasing,
		KindNewWork, KindCancelWorkRequest, KindProofOfWork, KindBounty, KindBountyAnnouncement:
		return false
	}
	panic(fmt.Sprintf("unhandled transaction kind %s", kind))
}

// IsProofOfWork returns whether the kind piggybacks a proof of work for a
// work of the work subsystem.
func (kind TransactionKind) IsProofOfWork() bool {
	switch kind {
	case KindProofOfWork:
		return true
	case KindOrdinaryPayment, KindRedeem, KindSupernodeAnnouncement, KindAccountInfo, KindEffectiveBalanceLeasing,
		KindNewWork, KindCancelWorkRequest, KindBounty, KindBountyAnnouncement:
		return false
	}
	panic(fmt.Sprintf("unhandled transaction kind %s", kind))
}

// MustHaveSupernodeSignature returns whether transactions of the kind are
// relayed through a supernode, which adds a second signature. Such
// transactions are also identified by a clean id that ignores the
// supernode signature.
func (kind TransactionKind) MustHaveSupernodeSignature() bool {
	switch kind {
	case KindNewWork, KindProofOfWork, KindBounty:
		return true
	case KindOrdinaryPayment, KindRedeem, KindSupernodeAnnouncement, KindAccountInfo, KindEffectiveBalanceLeasing,
		KindCancelWorkRequest, KindBountyAnnouncement:
		return false
	}
	panic(fmt.Sprintf("unhandled transaction kind %s", kind))
}

// HasWorkReference returns whether transactions of the kind reference a
// work by WorkID.
func (kind TransactionKind) HasWorkReference() bool {
	switch kind {
	case KindCancelWorkRequest, KindProofOfWork, KindBounty, KindBountyAnnouncement:
		return true
	case KindOrdinaryPayment, KindRedeem, KindSupernodeAnnouncement, KindAccountInfo, KindEffectiveBalanceLeasing,
		KindNewWork:
		return false
	}
	panic(fmt.Sprintf("unhandled transaction kind %s", kind))
}

// BackFeeBuckets is the number of previous forgers that can receive back
// fees from a block.
const BackFeeBuckets = 3

// BackFees returns the parts of fee that are paid to the forgers of the
// previous BackFeeBuckets blocks instead of the current forger. No kind
// pays back fees, the whole fee goes to the current forger.
func (kind TransactionKind) BackFees(feeNQT int64) [BackFeeBuckets]int64 {
	switch kind {
	case KindOrdinaryPayment, KindRedeem, KindAccountInfo, KindNewWork, KindCancelWorkRequest,
		KindProofOfWork, KindBounty, KindBountyAnnouncement, KindEffectiveBalanceLeasing,
		KindSupernodeAnnouncement:
		return [BackFeeBuckets]int64{}
	}
	panic(fmt.Sprintf("unhandled transaction kind %s", kind))
}
