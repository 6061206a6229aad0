package transactionhelper

import (
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/ruleerrors"
)

// CheckAmounts returns an ErrTransactionAmount rule error unless both the
// amount and the fee of tx are within [0, maxBalanceNQT]
func CheckAmounts(tx *externalapi.DomainTransaction, maxBalanceNQT int64) error {
	if tx.AmountNQT < 0 || tx.AmountNQT > maxBalanceNQT {
		return errors.Wrapf(ruleerrors.ErrTransactionAmount, "amount %d NQT is out of range", tx.AmountNQT)
	}
	if tx.FeeNQT < 0 || tx.FeeNQT > maxBalanceNQT {
		return errors.Wrapf(ruleerrors.ErrTransactionAmount, "fee %d NQT is out of range", tx.FeeNQT)
	}
	return nil
}

// SafeAdd returns a+b and whether the sum fits in an int64
func SafeAdd(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}
