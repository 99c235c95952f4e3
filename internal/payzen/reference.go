package payzen

import "strings"

// ReferenceCodec maps a merchant transaction reference to the gateway's
// vads_order_id and back. The gateway rejects '/' in order ids, so references
// like invoice numbers need a reversible substitution. Kept pluggable because
// historical deployments used prefix-specific rewrites for some reference
// families.
type ReferenceCodec interface {
	Encode(reference string) string
	Decode(orderID string) string
}

// SlashSpaceCodec substitutes '/' with ' ' on the way out and reverses it on
// the way back. Spaces cannot appear in merchant references, so the mapping
// round-trips exactly.
type SlashSpaceCodec struct{}

func (SlashSpaceCodec) Encode(reference string) string {
	return strings.ReplaceAll(reference, "/", " ")
}

func (SlashSpaceCodec) Decode(orderID string) string {
	return strings.ReplaceAll(orderID, " ", "/")
}
