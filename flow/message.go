package flow

/*
Message is the record a host flow hands to a node and receives back. Nodes
never modify the message they were given; they clone it and set their
fields on the copy.
*/
type Message map[string]any

/*
Clone returns a copy of the top-level fields. Nested values are shared, so
nodes replace fields instead of mutating what they hold.
*/
func (m Message) Clone() Message {
	out := make(Message, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}

/*
Properties are the static settings a node was configured with. They are
read-only after construction; per-invocation values live in the request
each invocation builds.
*/
type Properties map[string]any

// Common message fields
const (
	FieldPayload = "payload"
	FieldError   = "error"
	FieldBucket  = "bucket"
	FieldKey     = "key"
)
