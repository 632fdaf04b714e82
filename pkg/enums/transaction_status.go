package enums

// TransactionStatus tracks settlement of an order's transaction row.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusPaid     TransactionStatus = "paid"
	TransactionStatusFailed   TransactionStatus = "failed"
	TransactionStatusRefunded TransactionStatus = "refunded"
)

// String implements fmt.Stringer.
func (s TransactionStatus) String() string {
	return string(s)
}
