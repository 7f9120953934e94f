package sales

import (
	"strings"

	"github.com/google/uuid"
)

// SyntheticSale describes a test sale injected by an operator.
type SyntheticSale struct {
	SellerName  string
	ProcessType string
	EntryValue  RawValue
}

// NewSyntheticEvent builds an INSERT event with fresh ids. The seller id carries prefix so
// the seller lookup never goes remote for it.
func NewSyntheticEvent(prefix string, sale SyntheticSale) RawSaleEvent {
	name := strings.TrimSpace(sale.SellerName)
	processType := strings.TrimSpace(sale.ProcessType)
	if processType == "" {
		processType = "Teste"
	}
	return RawSaleEvent{
		Op:            OpInsert,
		EventID:       uuid.NewString(),
		SaleProcessID: uuid.NewString(),
		SellerID:      prefix + uuid.NewString(),
		SellerName:    name,
		ProcessType:   processType,
		EntryValue:    sale.EntryValue,
	}
}
