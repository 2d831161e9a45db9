// Package classifier maps a provider error's HTTP status and typed code to
// a domain.Verdict, the only place in the engine that inspects the
// provider's raw error shape.
package classifier

import "github.com/smilemakc/outreach-engine/internal/domain"

// permanentCodes are typedCodes that, paired with httpStatus 422, can never
// succeed on retry.
var permanentCodes = map[string]bool{
	"InvalidRecipient":            true,
	"NoConnectionWithRecipient":   true,
	"BlockedRecipient":            true,
	"UserUnreachable":             true,
	"UnprocessableEntity":         true,
	"PaymentError":                true,
	"InvalidMessage":              true,
	"InvalidPost":                 true,
	"InsufficientCredits":         true,
	"Unauthorized":                true,
	"SenderRejected":              true,
	"RecipientRejected":           true,
	"IpRejectedByServer":          true,
	"InvalidHeaders":              true,
	"SendAsDenied":                true,
	"LimitTooHigh":                true,
	"RealtimeClientNotInitialized": true,
	"InvalidAccount":              true,
}

var alreadyDoneCodes = map[string]bool{
	"ActionAlreadyPerformed": true,
	"AlreadyConnected":       true,
}

var alreadyInvitedRecentlyCodes = map[string]bool{
	"AlreadyInvitedRecently": true,
}

var wait24hCodes = map[string]bool{
	"CannotResendYet":         true,
	"CannotResendWithin24hrs": true,
}

var quotaExhaustedCodes = map[string]bool{
	"LimitExceeded": true,
}

var authFailureCodes = map[string]bool{
	"Unauthorized":              true,
	"AccountConfigurationError": true,
	"ProviderUnreachable":       true,
}

// Classify maps a provider error's HTTP status and typed code to a verdict.
// httpStatus of 0 means no HTTP response was received at all (a transport
// error), which classifies as Transient.
func Classify(httpStatus int, typedCode string) domain.Verdict {
	if httpStatus == 422 && permanentCodes[typedCode] {
		return domain.VerdictPermanent
	}
	if alreadyDoneCodes[typedCode] {
		return domain.VerdictAlreadyDone
	}
	if alreadyInvitedRecentlyCodes[typedCode] {
		return domain.VerdictAlreadyInvitedRecently
	}
	if wait24hCodes[typedCode] {
		return domain.VerdictWait24h
	}
	if quotaExhaustedCodes[typedCode] || httpStatus == 429 {
		return domain.VerdictQuotaExhausted
	}
	if httpStatus == 401 || httpStatus == 403 || authFailureCodes[typedCode] {
		return domain.VerdictAuthFailure
	}
	return domain.VerdictTransient
}
