package domain

// LatencyRecord is one correlated (observer trade, reference trade)
// pair. SlotLatency is always > 0: the reference trade landed in a
// strictly earlier slot.
type LatencyRecord struct {
	Asset     string
	Symbol    string
	Direction string // DirectionBuy | DirectionSell

	ObserverSignature  string
	ReferenceSignature string
	ObserverSlot       int64
	ReferenceSlot      int64

	SlotLatency int64 // ObserverSlot - ReferenceSlot
	TimeLatency int64 // seconds, signed; negative under clock skew across slots
}
