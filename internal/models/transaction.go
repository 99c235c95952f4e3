package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TxState string

const (
	TxStateDraft      TxState = "draft"
	TxStatePending    TxState = "pending"
	TxStateAuthorized TxState = "authorized"
	TxStateDone       TxState = "done"
	TxStateCancel     TxState = "cancel"
	TxStateError      TxState = "error"
)

// IsTerminal reports whether no further automated transition is expected.
// Authorized transactions may still move to done on a later capture callback.
func (s TxState) IsTerminal() bool {
	return s == TxStateDone || s == TxStateCancel || s == TxStateError
}

type Environment string

const (
	EnvironmentTest Environment = "test"
	EnvironmentProd Environment = "prod"
)

// Acquirer holds the PayZen shop configuration. The certificate and the REST
// API password are selected from the active environment; test and production
// credentials are never mixed.
type Acquirer struct {
	ShopID          string
	TestCert        string
	ProdCert        string
	Environment     Environment
	FormActionURL   string
	ReturnURL       string
	RestEndpoint    string
	APITestPassword string
	APIProdPassword string
}

// Certificate returns the signing certificate for the active environment.
func (a *Acquirer) Certificate() string {
	if a.Environment == EnvironmentProd {
		return a.ProdCert
	}
	return a.TestCert
}

// APIPassword returns the REST API password for the active environment.
func (a *Acquirer) APIPassword() string {
	if a.Environment == EnvironmentProd {
		return a.APIProdPassword
	}
	return a.APITestPassword
}

// CtxMode returns the vads_ctx_mode value for the active environment.
func (a *Acquirer) CtxMode() string {
	if a.Environment == EnvironmentProd {
		return "PRODUCTION"
	}
	return "TEST"
}

// Partner is the customer snapshot captured at checkout. Fields are truncated
// to the gateway maximum lengths before transmission.
type Partner struct {
	ID        int64  `json:"id" db:"partner_id"`
	FirstName string `json:"first_name" db:"partner_first_name"`
	LastName  string `json:"last_name" db:"partner_last_name"`
	Address   string `json:"address" db:"partner_address"`
	Zip       string `json:"zip" db:"partner_zip"`
	City      string `json:"city" db:"partner_city"`
	State     string `json:"state" db:"partner_state"`
	Country   string `json:"country" db:"partner_country"`
	Email     string `json:"email" db:"partner_email"`
	Phone     string `json:"phone" db:"partner_phone"`
}

// Transaction is the merchant-side payment record. It is created in draft when
// checkout is initiated, mutated only through callback processing, and never
// deleted: it is the permanent financial audit trail.
type Transaction struct {
	ID                string          `json:"id" db:"id"`
	Reference         string          `json:"reference" db:"reference"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	Currency          string          `json:"currency" db:"currency"`
	State             TxState         `json:"state" db:"state"`
	Partner           Partner         `json:"partner"`
	AcquirerReference string          `json:"acquirer_reference,omitempty" db:"acquirer_reference"`
	StateMessage      string          `json:"state_message,omitempty" db:"state_message"`
	PayzenStatus      string          `json:"payzen_status,omitempty" db:"payzen_status"`
	ReturnedData      string          `json:"returned_data,omitempty" db:"returned_data"`
	DateValidated     time.Time       `json:"date_validated,omitempty" db:"date_validated"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// Database schema
const TransactionSchema = `
CREATE TABLE IF NOT EXISTS payment_transactions (
    id VARCHAR(36) PRIMARY KEY,
    reference VARCHAR(128) NOT NULL,
    amount DECIMAL(19, 2) NOT NULL,
    currency VARCHAR(3) NOT NULL,
    state VARCHAR(20) NOT NULL DEFAULT 'draft',
    partner_id BIGINT,
    partner_first_name VARCHAR(255),
    partner_last_name VARCHAR(255),
    partner_address VARCHAR(255),
    partner_zip VARCHAR(64),
    partner_city VARCHAR(64),
    partner_state VARCHAR(128),
    partner_country VARCHAR(2),
    partner_email VARCHAR(255),
    partner_phone VARCHAR(32),
    acquirer_reference VARCHAR(64),
    state_message TEXT,
    payzen_status VARCHAR(64),
    returned_data TEXT,
    date_validated TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_payment_transactions_reference ON payment_transactions (reference);
CREATE INDEX IF NOT EXISTS idx_payment_transactions_state ON payment_transactions (state);
CREATE INDEX IF NOT EXISTS idx_payment_transactions_created_at ON payment_transactions (created_at);
`
