package types

// Metadata is a map of key-value pairs attached to gateway entities.
// Razorpay requires note values to be strings.
type Metadata map[string]string
