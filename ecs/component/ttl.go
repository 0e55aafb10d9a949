package component

// TTL is a frame-based time-to-live. The cleanup pass destroys the entity
// once Frames runs out.
type TTL struct {
	Frames int
}

var TTLComponent = NewComponent[TTL]()
