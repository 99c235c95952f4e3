package payzen

import "github.com/Horanet/payment-payzen/internal/models"

// Gateway transaction statuses (vads_trans_status / detailedStatus).
const (
	StatusAccepted                       = "ACCEPTED"
	StatusAuthorised                     = "AUTHORISED"
	StatusAuthorisedToValidate           = "AUTHORISED_TO_VALIDATE"
	StatusCaptured                       = "CAPTURED"
	StatusCancelled                      = "CANCELLED"
	StatusAbandoned                      = "ABANDONED"
	StatusInitial                        = "INITIAL"
	StatusUnderVerification              = "UNDER_VERIFICATION"
	StatusWaitingAuthorisation           = "WAITING_AUTHORISATION"
	StatusWaitingAuthorisationToValidate = "WAITING_AUTHORISATION_TO_VALIDATE"
	StatusCaptureFailed                  = "CAPTURE_FAILED"
	StatusExpired                        = "EXPIRED"
	StatusNotCreated                     = "NOT_CREATED"
	StatusRefused                        = "REFUSED"
	StatusSuspended                      = "SUSPENDED"
)

// Order-level statuses reported by the REST order-status endpoint.
const (
	StatusPaid    = "PAID"
	StatusRunning = "RUNNING"
	StatusUnpaid  = "UNPAID"
)

var statusStates = map[string]models.TxState{
	StatusAccepted:                       models.TxStateDone,
	StatusAuthorised:                     models.TxStateDone,
	StatusAuthorisedToValidate:           models.TxStateAuthorized,
	StatusCaptured:                       models.TxStateAuthorized,
	StatusCancelled:                      models.TxStateCancel,
	StatusAbandoned:                      models.TxStateCancel,
	StatusInitial:                        models.TxStatePending,
	StatusUnderVerification:              models.TxStatePending,
	StatusWaitingAuthorisation:           models.TxStatePending,
	StatusWaitingAuthorisationToValidate: models.TxStatePending,
	StatusCaptureFailed:                  models.TxStateError,
	StatusExpired:                        models.TxStateError,
	StatusNotCreated:                     models.TxStateError,
	StatusRefused:                        models.TxStateError,
	StatusSuspended:                      models.TxStateError,
	StatusPaid:                           models.TxStateDone,
	StatusRunning:                        models.TxStatePending,
	StatusUnpaid:                         models.TxStateCancel,
}

// MapStatus maps a gateway transaction status to the internal transaction
// state. It is total: every input yields exactly one state, and statuses
// absent from the table fail closed to error with known=false so the caller
// can log a warning. Unknown statuses never map to done.
func MapStatus(status string) (state models.TxState, known bool) {
	state, known = statusStates[status]
	if !known {
		state = models.TxStateError
	}
	return state, known
}

// authResultMessages maps a vads_auth_result authorization code to a
// human-readable explanation attached as diagnostic text.
var authResultMessages = map[string]string{
	"00":  "Approved or successfully processed transaction",
	"02":  "Contact the card issuer",
	"03":  "Invalid acceptor",
	"04":  "Keep the card",
	"05":  "Do not honor",
	"07":  "Keep the card, special conditions",
	"08":  "Confirm after identification",
	"12":  "Invalid transaction",
	"13":  "Invalid amount",
	"14":  "Invalid cardholder number",
	"15":  "Unknown issuer",
	"17":  "Canceled by the buyer",
	"19":  "Retry later",
	"20":  "Incorrect response (error on the domain server)",
	"24":  "Unsupported file update",
	"25":  "Unable to locate the registered elements in the file",
	"26":  "Duplicate registration, the previous record has been replaced",
	"27":  "File update edit error",
	"28":  "Denied access to file",
	"29":  "Unable to update",
	"30":  "Format error",
	"31":  "Unknown acquirer company ID",
	"33":  "Expired card",
	"34":  "Fraud suspected",
	"38":  "Expired card",
	"41":  "Lost card",
	"43":  "Stolen card",
	"51":  "Insufficient balance or exceeded credit limit",
	"54":  "Expired card",
	"55":  "Invalid cardholder number",
	"56":  "Card absent from the file",
	"57":  "Transaction not allowed to this cardholder",
	"58":  "Transaction not allowed to this cardholder",
	"59":  "Suspected fraud",
	"60":  "Card acceptor must contact the acquirer",
	"61":  "Withdrawal limit exceeded",
	"63":  "Security rules unfulfilled",
	"68":  "Response not received or received too late",
	"75":  "Number of attempts for entering the secret code has been exceeded",
	"76":  "The cardholder is already blocked, the previous record has been saved",
	"90":  "Temporary shutdown",
	"91":  "Unable to reach the card issuer",
	"94":  "Transaction duplicated",
	"96":  "System malfunction",
	"97":  "Overall monitoring timeout",
	"98":  "Server not available, new network route requested",
	"99":  "Initiator domain incident",
	"000": "Approved",
	"001": "Approve with ID",
	"002": "Partial Approval (Prepaid Cards only)",
	"100": "Declined",
	"101": "Expired Card / Invalid Expiration Date",
	"106": "Exceeded PIN attempts",
	"107": "Please Call Issuer",
	"109": "Invalid merchant",
	"110": "Invalid amount",
	"111": "Invalid account / Invalid MICR (Travelers Cheque)",
	"115": "Requested function not supported",
	"117": "Invalid PIN",
	"119": "Cardmember not enrolled / not permitted",
	"122": "Invalid card security code (a.k.a., CID, 4DBC, 4CSC)",
	"125": "Invalid effective date",
	"181": "Format error",
	"183": "Invalid currency code",
	"187": "Deny - New card issued",
	"189": "Deny - Account canceled",
	"200": "Deny - Pick up card",
	"900": "Accepted - ATC Synchronization",
	"909": "System malfunction (cryptographic error)",
	"912": "Issuer not available",
}

// AuthResultMessage returns the explanation for an authorization result code,
// or the empty string when the code is unmapped. Unknown codes never raise.
func AuthResultMessage(code string) string {
	return authResultMessages[code]
}
