package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionKind(t *testing.T) {
	tests := []struct {
		kind      TransactionKind
		valid     bool
		fund      bool
		increases bool
		sign      int
		prefix    string
	}{
		{KindIncome, true, false, true, 1, "INC"},
		{KindExpense, true, false, false, -1, "EXP"},
		{KindFundIn, true, true, true, 1, "FIN"},
		{KindFundOut, true, true, false, -1, "FOU"},
		{TransactionKind("refund"), false, false, false, -1, "UNK"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.kind.IsValid())
			assert.Equal(t, tt.fund, tt.kind.IsFund())
			assert.Equal(t, tt.increases, tt.kind.Increases())
			assert.Equal(t, tt.sign, tt.kind.Sign())
			assert.Equal(t, tt.prefix, tt.kind.Prefix())
		})
	}
}

func TestTransactionSignedAmount(t *testing.T) {
	amount := decimal.RequireFromString("150.75")

	income := &Transaction{Kind: KindIncome, Amount: amount}
	assert.True(t, income.SignedAmount().Equal(amount))

	expense := &Transaction{Kind: KindExpense, Amount: amount}
	assert.True(t, expense.SignedAmount().Equal(amount.Neg()))
}

func TestTransactionLabel(t *testing.T) {
	txn := &Transaction{Kind: KindIncome, Category: "consultation", Purpose: "ignored"}
	assert.Equal(t, "consultation", txn.Label())

	fund := &Transaction{Kind: KindFundIn, Purpose: "equipment loan"}
	assert.Equal(t, "equipment loan", fund.Label())
}

func TestVoucherTypeFor(t *testing.T) {
	assert.Equal(t, VoucherDebit, VoucherTypeFor(KindIncome))
	assert.Equal(t, VoucherDebit, VoucherTypeFor(KindFundIn))
	assert.Equal(t, VoucherCredit, VoucherTypeFor(KindExpense))
	assert.Equal(t, VoucherCredit, VoucherTypeFor(KindFundOut))
}

func TestVoucherSignedAmount(t *testing.T) {
	amount := decimal.RequireFromString("800.00")

	debit := &Voucher{Type: VoucherDebit, Amount: amount}
	require.True(t, debit.SignedAmount().Equal(amount))

	credit := &Voucher{Type: VoucherCredit, Amount: amount}
	require.True(t, credit.SignedAmount().Equal(amount.Neg()))
}

func TestScope(t *testing.T) {
	for _, s := range DepartmentScopes {
		assert.True(t, s.IsDepartment())
		assert.True(t, s.IsValid())
	}
	assert.False(t, ScopeMain.IsDepartment())
	assert.True(t, ScopeMain.IsValid())
	assert.False(t, Scope("pharmacy").IsValid())
	assert.Equal(t, "HOS", ScopeHospital.Prefix())
	assert.Equal(t, "MAIN", ScopeMain.Prefix())
}
