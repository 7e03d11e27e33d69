package api

// Handoff transfers control to a fixed address, such as the boot monitor's
// reset vector. JumpTo never returns.
type Handoff interface {
	JumpTo(addr uint32)
}

// HandoffFunc adapts a function to Handoff.
type HandoffFunc func(addr uint32)

// JumpTo calls f. f must not return.
func (f HandoffFunc) JumpTo(addr uint32) {
	f(addr)
	panic("handoff returned")
}
