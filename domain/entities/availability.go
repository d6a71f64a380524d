package entities

// ErrorCode is a stable machine-readable code surfaced to host pages.
type ErrorCode string

const (
	CodeTrialExpired              ErrorCode = "TRIAL_EXPIRED"
	CodeTrialLimitExceeded        ErrorCode = "TRIAL_LIMIT_EXCEEDED"
	CodeSubscriptionLimitExceeded ErrorCode = "SUBSCRIPTION_LIMIT_EXCEEDED"
	CodeNoActiveSubscription      ErrorCode = "NO_ACTIVE_SUBSCRIPTION"

	CodeNetworkFailure     ErrorCode = "NETWORK_FAILURE"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeDomainRejected     ErrorCode = "DOMAIN_REJECTED"

	CodeContainerNotFound ErrorCode = "CONTAINER_NOT_FOUND"
	CodeAlreadyInProgress ErrorCode = "ALREADY_IN_PROGRESS"
	CodeHandshakeTimeout  ErrorCode = "HANDSHAKE_TIMEOUT"
	CodeTestClosed        ErrorCode = "TEST_CLOSED"
	CodeFrameError        ErrorCode = "FRAME_ERROR"

	CodePreconditionFailed ErrorCode = "PRECONDITION_FAILED"
	CodeConfigInvalid      ErrorCode = "CONFIG_INVALID"
	CodeNotInitialized     ErrorCode = "NOT_INITIALIZED"
	CodeInternal           ErrorCode = "INTERNAL"
)

// reasons holds the human-readable text for entitlement denials.
var reasons = map[ErrorCode]string{
	CodeTrialExpired:              "Trial expired",
	CodeTrialLimitExceeded:        "Trial cardio test limit reached",
	CodeSubscriptionLimitExceeded: "You have reached the maximum limit of cardio test usage policy. Please reach out to administrator.",
	CodeNoActiveSubscription:      "No active cardio subscription",
}

// Availability is the policy verdict for running a cardio test.
type Availability struct {
	Reason  string    `json:"reason"`
	Code    ErrorCode `json:"code,omitempty"`
	Allowed bool      `json:"allowed"`
}

// Allow returns an allowed verdict.
func Allow() Availability {
	return Availability{Allowed: true, Reason: "Cardio test available"}
}

// Deny returns a denied verdict with the standard reason for code.
func Deny(code ErrorCode) Availability {
	reason, ok := reasons[code]
	if !ok {
		reason = string(code)
	}
	return Availability{Reason: reason, Code: code}
}
