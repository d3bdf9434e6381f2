package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		name   string
		typ    TransactionType
		amount string
		want   string
	}{
		{name: "income stays positive", typ: Income, amount: "50.00", want: "50.00"},
		{name: "negative income flips positive", typ: Income, amount: "-50.00", want: "50.00"},
		{name: "expense stays negative", typ: Expense, amount: "-25.50", want: "-25.50"},
		{name: "positive expense flips negative", typ: Expense, amount: "50.00", want: "-50.00"},
		{name: "transfer left untouched", typ: Transfer, amount: "-200.00", want: "-200.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			got := NormalizeAmount(tt.typ, amount)
			if got.StringFixed(2) != tt.want {
				t.Errorf("NormalizeAmount(%s, %s) = %s, want %s", tt.typ, tt.amount, got, tt.want)
			}
		})
	}
}

func TestAccountTypeValid(t *testing.T) {
	for _, typ := range []AccountType{Checking, Savings, CreditCard, Investment, Cash} {
		if !typ.Valid() {
			t.Errorf("AccountType(%q).Valid() = false, want true", typ)
		}
	}
	if AccountType("brokerage").Valid() {
		t.Error("AccountType(\"brokerage\").Valid() = true, want false")
	}
}

func TestTransactionTypeValid(t *testing.T) {
	for _, typ := range []TransactionType{Income, Expense, Transfer} {
		if !typ.Valid() {
			t.Errorf("TransactionType(%q).Valid() = false, want true", typ)
		}
	}
	if TransactionType("refund").Valid() {
		t.Error("TransactionType(\"refund\").Valid() = true, want false")
	}
}

func TestValidateAccountName(t *testing.T) {
	if err := ValidateAccountName("Main Checking"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	if err := ValidateAccountName("   "); err == nil {
		t.Error("blank name accepted, want validation error")
	} else if !IsValidation(err) {
		t.Errorf("blank name error kind = %v, want validation", KindOf(err))
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in     string
		want   Category
		wantOK bool
	}{
		{in: "food_dining", want: CategoryFoodDining, wantOK: true},
		{in: "  Transportation ", want: CategoryTransportation, wantOK: true},
		{in: "INCOME", want: CategoryIncome, wantOK: true},
		{in: "snacks", want: CategoryOther, wantOK: false},
		{in: "", want: CategoryOther, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCategory(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseCategory(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsTransferLeg(t *testing.T) {
	leg := Transaction{Type: Transfer, TransferGroupID: "abc"}
	if !leg.IsTransferLeg() {
		t.Error("transfer leg not recognized")
	}
	plain := Transaction{Type: Expense}
	if plain.IsTransferLeg() {
		t.Error("expense recognized as transfer leg")
	}
}
