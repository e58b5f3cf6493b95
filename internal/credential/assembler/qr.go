package assembler

import (
	"encoding/base64"
	"encoding/json"

	"github.com/skip2/go-qrcode"

	dErrors "github.com/UltraQuamfy/contentify/pkg/domain-errors"
)

const qrImageSize = 256

// QRPayload is what a scanner sees: enough to verify the credential
// without resolving the full document first.
type QRPayload struct {
	Type              string `json:"type"`
	CredentialID      string `json:"credentialId"`
	VerificationURL   string `json:"verificationUrl"`
	Issuer            string `json:"issuer"`
	ContentHash       string `json:"contentHash"`
	AuthenticityScore int    `json:"authenticityScore"`
}

// RenderQR encodes the payload as a PNG QR code and returns it as a
// data URL ready for direct embedding in an <img> tag.
func RenderQR(payload QRPayload) (string, error) {
	if payload.Type == "" {
		payload.Type = typeAIContentCredential
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode QR payload")
	}

	png, err := qrcode.Encode(string(data), qrcode.Medium, qrImageSize)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to render QR code")
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
