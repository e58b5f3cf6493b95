// Package assembler builds credential documents from submitted content.
//
// Everything here is pure local computation: hashing, heuristic scoring,
// and document shaping. No network calls, no persistence, no signing.
package assembler

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"

	"github.com/UltraQuamfy/contentify/internal/credential/models"
	id "github.com/UltraQuamfy/contentify/pkg/domain"
)

const (
	// contextCredentialsV1 is the base W3C credentials context.
	contextCredentialsV1 = "https://www.w3.org/2018/credentials/v1"
	// contextContentProvenance extends the base context with the
	// AI-content claim vocabulary used in credentialSubject.
	contextContentProvenance = "https://contentify.io/contexts/ai-content/v1"

	typeVerifiableCredential = "VerifiableCredential"
	typeAIContentCredential  = "AIContentCredential"

	statusEntryType = "StatusList2021Entry"

	contentIDLength  = 16
	previewMaxLength = 100

	baseScore = 70
	maxScore  = 100
)

// aiMarkers are substrings whose presence suggests the content discloses
// its AI origin. Matched case-insensitively.
var aiMarkers = []string{
	"generated by",
	"ai-generated",
	"language model",
	"assistant",
}

// HashContent returns the lowercase hex SHA-256 digest of the content.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// DeriveContentID shortens a content hash into the subject identifier
// embedded in the credential document. The credential's own ID is minted
// separately and never derived from content.
func DeriveContentID(contentHash string) string {
	if len(contentHash) < contentIDLength {
		return contentHash
	}
	return contentHash[:contentIDLength]
}

// Preview truncates content to a human-readable excerpt for listings.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewMaxLength {
		return content
	}
	return string(runes[:previewMaxLength]) + "..."
}

// Score estimates how plausibly the content is disclosed AI output.
// Heuristic bonuses (additive, capped):
//  1. Self-disclosure marker present
//  2. Structured layout (headings or numbered lists)
//  3. Length beyond a short post
//  4. Length beyond a long-form piece
//
// The result is deterministic for a given input and always within [0, 100].
func Score(content string) int {
	score := baseScore

	lowered := strings.ToLower(content)
	for _, marker := range aiMarkers {
		if strings.Contains(lowered, marker) {
			score += 10
			break
		}
	}

	if hasStructure(content) {
		score += 5
	}

	if len(content) > 280 {
		score += 5
	}
	if len(content) > 1000 {
		score += 10
	}

	if score > maxScore {
		score = maxScore
	}
	return score
}

// hasStructure reports whether any line looks like a heading or a
// numbered list item.
func hasStructure(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			return true
		}
		if isNumberedItem(trimmed) {
			return true
		}
	}
	return false
}

// isNumberedItem matches "1. ", "2) " style list markers.
func isNumberedItem(line string) bool {
	i := 0
	for i < len(line) && unicode.IsDigit(rune(line[i])) {
		i++
	}
	if i == 0 || i >= len(line) {
		return false
	}
	if line[i] != '.' && line[i] != ')' {
		return false
	}
	return i+1 < len(line) && line[i+1] == ' '
}

// Params carries everything Assemble needs to shape a document. The
// credential ID is minted by the caller so the document and the stored
// row always agree.
type Params struct {
	CredentialID   id.CredentialID
	IssuerDID      string
	IssuedAt       time.Time
	AIProvider     string
	ContentHash    string
	ContentPreview string
	Score          int
	PaymentAmount  float64
	Network        string

	// Status list fields are empty when status list creation was
	// degraded; the document is then issued without a status reference.
	StatusListURL  string
	StatusPurpose  string
	PaymentAddress string
}

// Assemble shapes the W3C-style credential document. It never signs:
// provenance is anchored by the issuer DID, revocation by the hosted
// status list.
func Assemble(p Params) models.Document {
	doc := models.Document{
		Context:      []string{contextCredentialsV1, contextContentProvenance},
		ID:           p.CredentialID.String(),
		Type:         []string{typeVerifiableCredential, typeAIContentCredential},
		Issuer:       p.IssuerDID,
		IssuanceDate: p.IssuedAt.UTC().Format(time.RFC3339),
		CredentialSubject: models.Subject{
			ID:                DeriveContentID(p.ContentHash),
			ContentHash:       p.ContentHash,
			ContentPreview:    p.ContentPreview,
			AuthenticityScore: p.Score,
			AIProvider:        p.AIProvider,
		},
		PaymentRails: &models.PaymentRails{
			Enabled:        false,
			Network:        p.Network,
			PaymentAddress: p.PaymentAddress,
			Amount:         p.PaymentAmount,
			Currency:       "CHEQ",
			Note:           "verification fees accrue off-ledger; settlement disabled",
		},
	}

	if p.StatusListURL != "" {
		purpose := p.StatusPurpose
		if purpose == "" {
			purpose = "revocation"
		}
		doc.CredentialStatus = &models.StatusEntry{
			ID:                   p.StatusListURL + "#0",
			Type:                 statusEntryType,
			StatusPurpose:        purpose,
			StatusListIndex:      0,
			StatusListCredential: p.StatusListURL,
		}
	}

	return doc
}
