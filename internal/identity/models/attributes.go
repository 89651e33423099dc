package models

// AttributesPayload is the attribute set bound to an identity. Field order
// is the canonical serialization order: birthdate first, then country.
// Country is stored as provided and case-normalized only at evaluation time.
type AttributesPayload struct {
	Birthdate string `json:"birthdate"`
	Country   string `json:"country"`
}

// SetAttributesResult is what an attribute update returns to callers: the
// rotated commitment and root, never the payload itself.
type SetAttributesResult struct {
	IdentityID     string `json:"identityId"`
	Commitment     string `json:"commitment"`
	AttributesRoot string `json:"attributesRoot"`
}
