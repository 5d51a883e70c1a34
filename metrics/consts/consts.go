package consts

const (
	DisputePromNamespace = "merkl_dispute"
	TransactionProcess   = "transaction_process"
)
