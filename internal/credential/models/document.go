package models

// Document is the W3C-style verifiable credential issued for a piece of
// AI-generated content. It is assembled locally and signed by nobody: the
// issuer DID anchors provenance, the hosted status list anchors revocation.
type Document struct {
	Context           []string      `json:"@context"`
	ID                string        `json:"id"`
	Type              []string      `json:"type"`
	Issuer            string        `json:"issuer"`
	IssuanceDate      string        `json:"issuanceDate"`
	CredentialSubject Subject       `json:"credentialSubject"`
	CredentialStatus  *StatusEntry  `json:"credentialStatus,omitempty"`
	PaymentRails      *PaymentRails `json:"paymentRails,omitempty"`
}

// Subject carries the content-derived claims.
type Subject struct {
	ID                string `json:"id"`
	ContentHash       string `json:"contentHash"`
	ContentPreview    string `json:"contentPreview"`
	AuthenticityScore int    `json:"authenticityScore"`
	AIProvider        string `json:"aiProvider"`
}

// StatusEntry references the issuer's hosted revocation status list.
// The index is fixed at issuance; bit manipulation is delegated.
type StatusEntry struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	StatusPurpose        string `json:"statusPurpose"`
	StatusListIndex      int    `json:"statusListIndex"`
	StatusListCredential string `json:"statusListCredential"`
}

// PaymentRails describes the settlement channel for verification fees.
// Settlement is disabled in this deployment; the block documents intent.
type PaymentRails struct {
	Enabled        bool    `json:"enabled"`
	Network        string  `json:"network"`
	PaymentAddress string  `json:"paymentAddress,omitempty"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	Note           string  `json:"note,omitempty"`
}
