package affinity

// Mode parameterizes the key-affinity engine, per spec.md §3/§4.4.
type Mode string

const (
	// None disables key-affinity entirely; every request is round robin.
	None Mode = "NONE"
	// RMW routes only operations that will cause the server to do a
	// read-before-write (conditional writes, returning old values, and
	// so on).
	RMW Mode = "RMW"
	// AnyWrite routes every single-item write unconditionally.
	AnyWrite Mode = "ANY_WRITE"
)
