package domain

const (
	// ZERO_ADDRESS is the EVM zero address, used as the absence sentinel for
	// address-valued fields.
	ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

	// FIRST_ENTITY_ID is the lowest identifier any contract assigns. Slot 0
	// is reserved on every contract so a zero identifier is never valid.
	FIRST_ENTITY_ID uint64 = 1
)
