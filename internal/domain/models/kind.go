package models

// Kind identifies a document type. Every kind carries its own display-ID
// prefix, status set and yearly sequence counters.
type Kind string

const (
	KindQuotation Kind = "quotation"
	KindInvoice   Kind = "invoice"
	KindExpense   Kind = "expense"
	KindPlan      Kind = "plan"
	KindTicketA   Kind = "ticket_a" // client-specific ticket variant A
	KindTicketB   Kind = "ticket_b" // client-specific ticket variant B
)

// Kinds lists every document kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindQuotation, KindInvoice, KindExpense, KindPlan, KindTicketA, KindTicketB}
}

// Valid reports whether k is a known document kind.
func (k Kind) Valid() bool {
	switch k {
	case KindQuotation, KindInvoice, KindExpense, KindPlan, KindTicketA, KindTicketB:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}
