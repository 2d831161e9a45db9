package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smilemakc/outreach-engine/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		typedCode string
		want      domain.Verdict
	}{
		{"permanent invalid recipient", 422, "InvalidRecipient", domain.VerdictPermanent},
		{"already connected", 409, "AlreadyConnected", domain.VerdictAlreadyDone},
		{"already invited recently", 409, "AlreadyInvitedRecently", domain.VerdictAlreadyInvitedRecently},
		{"cannot resend within 24h", 429, "CannotResendWithin24hrs", domain.VerdictWait24h},
		{"limit exceeded", 200, "LimitExceeded", domain.VerdictQuotaExhausted},
		{"429 without typed code", 429, "", domain.VerdictQuotaExhausted},
		{"401 unauthorized", 401, "", domain.VerdictAuthFailure},
		{"403 forbidden", 403, "", domain.VerdictAuthFailure},
		{"provider unreachable", 500, "ProviderUnreachable", domain.VerdictAuthFailure},
		{"unknown 500", 500, "InternalError", domain.VerdictTransient},
		{"transport error", 0, "", domain.VerdictTransient},
		{"422 without a permanent code", 422, "SomethingElse", domain.VerdictTransient},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.status, tc.typedCode))
		})
	}
}
