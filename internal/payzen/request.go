package payzen

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Horanet/payment-payzen/internal/models"
)

// Gateway maximum lengths for customer fields. Truncation happens before
// signing; truncating afterwards would invalidate the signature.
const (
	maxLenFirstName = 62
	maxLenLastName  = 62
	maxLenAddress   = 254
	maxLenZip       = 62
	maxLenCity      = 62
	maxLenState     = 127
	maxLenEmail     = 126
	maxLenPhone     = 31
)

// RequestBuilder assembles the signed payment-initiation payload posted to the
// gateway's hosted payment page. Construction is pure: the caller transmits
// the payload and persists the generated trans id/date pair.
type RequestBuilder struct {
	Codec          SignatureCodec
	ReferenceCodec ReferenceCodec

	// now and transID are swappable for tests.
	now     func() time.Time
	transID func() string
}

func NewRequestBuilder(codec SignatureCodec, refCodec ReferenceCodec) *RequestBuilder {
	return &RequestBuilder{
		Codec:          codec,
		ReferenceCodec: refCodec,
		now:            time.Now,
		transID:        newTransID,
	}
}

// newTransID generates the per-attempt transaction id. The gateway requires a
// 6-digit number between 000000 and 899999, unique per calendar day.
func newTransID() string {
	return fmt.Sprintf("%06d", uuid.New().ID()%900000)
}

// MinorUnits converts a 2-decimal amount to the gateway's minor-unit integer,
// rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Build populates every gateway-mandated field for the transaction, truncates
// the customer snapshot, and attaches the signature.
func (b *RequestBuilder) Build(acquirer *models.Acquirer, tx *models.Transaction) (url.Values, error) {
	currency, err := CurrencyCode(tx.Currency)
	if err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("vads_site_id", acquirer.ShopID)
	values.Set("vads_amount", strconv.FormatInt(MinorUnits(tx.Amount), 10))
	values.Set("vads_currency", strconv.Itoa(currency))
	values.Set("vads_trans_date", b.now().UTC().Format("20060102150405"))
	values.Set("vads_trans_id", b.transID())
	values.Set("vads_ctx_mode", acquirer.CtxMode())
	values.Set("vads_page_action", "PAYMENT")
	values.Set("vads_action_mode", "INTERACTIVE")
	values.Set("vads_payment_config", "SINGLE")
	values.Set("vads_version", "V2")
	values.Set("vads_return_mode", "GET")
	values.Set("vads_url_return", acquirer.ReturnURL)
	values.Set("vads_order_id", b.ReferenceCodec.Encode(tx.Reference))

	if tx.Partner.ID != 0 {
		values.Set("vads_cust_id", strconv.FormatInt(tx.Partner.ID, 10))
	}
	values.Set("vads_cust_first_name", truncate(tx.Partner.FirstName, maxLenFirstName))
	values.Set("vads_cust_last_name", truncate(tx.Partner.LastName, maxLenLastName))
	values.Set("vads_cust_address", truncate(tx.Partner.Address, maxLenAddress))
	values.Set("vads_cust_zip", truncate(tx.Partner.Zip, maxLenZip))
	values.Set("vads_cust_city", truncate(tx.Partner.City, maxLenCity))
	values.Set("vads_cust_state", truncate(tx.Partner.State, maxLenState))
	values.Set("vads_cust_country", strings.ToUpper(tx.Partner.Country))
	values.Set("vads_cust_email", truncate(tx.Partner.Email, maxLenEmail))
	values.Set("vads_cust_phone", truncate(tx.Partner.Phone, maxLenPhone))

	values.Set(SignatureField, b.Codec.Sign(values, acquirer.Certificate()))

	return values, nil
}

// truncate cuts s to at most n runes, never splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
