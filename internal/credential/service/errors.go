package service

import (
	"errors"

	"github.com/UltraQuamfy/contentify/internal/cheqd"
	dErrors "github.com/UltraQuamfy/contentify/pkg/domain-errors"
)

// translateExternal maps hosted API failures onto the domain taxonomy. The
// remote message surfaces to callers; a tripped breaker maps to
// unavailable so clients know to back off rather than retry immediately.
func translateExternal(err error, fallback string) error {
	if errors.Is(err, cheqd.ErrCircuitOpen) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "Identity service temporarily unavailable")
	}
	msg := cheqd.RemoteMessage(err)
	if msg == "" {
		msg = fallback
	}
	return dErrors.Wrap(err, dErrors.CodeExternalService, msg)
}
