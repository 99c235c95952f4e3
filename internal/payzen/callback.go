package payzen

import (
	"encoding/json"
	"net/url"
)

// Callback field names on the wire.
const (
	fieldOrderID     = "vads_order_id"
	fieldTransUUID   = "vads_trans_uuid"
	fieldAmount      = "vads_amount"
	fieldCustomerID  = "vads_cust_id"
	fieldSiteID      = "vads_site_id"
	fieldAuthResult  = "vads_auth_result"
	fieldTransStatus = "vads_trans_status"
)

// CallbackFields is the typed view of an inbound callback or a polled status
// translated to callback shape. The raw field set is retained for signature
// recomputation and for the audit snapshot stored on the transaction.
type CallbackFields struct {
	OrderID     string
	TransUUID   string
	Amount      string
	CustomerID  string
	ShopID      string
	AuthResult  string
	TransStatus string
	Signature   string

	raw url.Values
}

// ParseCallback converts the loosely-typed wire form into CallbackFields.
func ParseCallback(values url.Values) CallbackFields {
	return CallbackFields{
		OrderID:     values.Get(fieldOrderID),
		TransUUID:   values.Get(fieldTransUUID),
		Amount:      values.Get(fieldAmount),
		CustomerID:  values.Get(fieldCustomerID),
		ShopID:      values.Get(fieldSiteID),
		AuthResult:  values.Get(fieldAuthResult),
		TransStatus: values.Get(fieldTransStatus),
		Signature:   values.Get(SignatureField),
		raw:         values,
	}
}

// Values returns the wire form of the callback. Fields parsed from the network
// keep every received key; translated REST responses carry only the fields the
// translation produced.
func (f CallbackFields) Values() url.Values {
	if f.raw != nil {
		return f.raw
	}
	values := url.Values{}
	values.Set(fieldOrderID, f.OrderID)
	values.Set(fieldTransUUID, f.TransUUID)
	values.Set(fieldAmount, f.Amount)
	values.Set(fieldCustomerID, f.CustomerID)
	values.Set(fieldSiteID, f.ShopID)
	values.Set(fieldAuthResult, f.AuthResult)
	values.Set(fieldTransStatus, f.TransStatus)
	return values
}

// Snapshot renders the raw field set as JSON for the transaction audit trail.
func (f CallbackFields) Snapshot() string {
	flat := make(map[string]string)
	for key, vals := range f.Values() {
		if len(vals) > 0 {
			flat[key] = vals[0]
		}
	}
	data, err := json.MarshalIndent(flat, "", "    ")
	if err != nil {
		return ""
	}
	return string(data)
}
