package sales

import (
	"strings"
	"testing"
)

func TestNewSyntheticEvent(t *testing.T) {
	a := NewSyntheticEvent("test-", SyntheticSale{SellerName: "  Ana Souza ", EntryValue: TextValue("1.500,00")})
	b := NewSyntheticEvent("test-", SyntheticSale{SellerName: "Ana Souza", EntryValue: TextValue("1.500,00")})

	if a.Op != OpInsert {
		t.Fatalf("op = %s, want INSERT", a.Op)
	}
	if !strings.HasPrefix(a.SellerID, "test-") {
		t.Fatalf("seller id %q lacks synthetic prefix", a.SellerID)
	}
	if a.SellerName != "Ana Souza" {
		t.Fatalf("seller name = %q", a.SellerName)
	}
	if a.ProcessType != "Teste" {
		t.Fatalf("process type = %q, want default", a.ProcessType)
	}
	if a.EventID == b.EventID || a.SaleProcessID == b.SaleProcessID {
		t.Fatal("synthetic events must not share ids")
	}
	if _, err := ParseValue(a.EntryValue); err != nil {
		t.Fatalf("entry value should parse: %v", err)
	}
}
