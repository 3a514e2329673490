package types

// TxID identifies a transaction.
// NoTx is never assigned to a transaction and marks clean buffers.
type TxID uint32

const (
	NoTx TxID = 0
	// TxIDStart is the id after which transaction ids are handed out.
	TxIDStart TxID = NoTx
)
