package payzen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Horanet/payment-payzen/internal/models"
)

// ErrorCodeUnknownOrder is returned by the REST API when the order was never
// received by the gateway.
// See https://payzen.io/fr-FR/rest/V4.0/api/errors-reference.html
const ErrorCodeUnknownOrder = "PSP_010"

// GatewayError is a business error reported in the REST envelope, as opposed
// to a transport failure.
type GatewayError struct {
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payzen: gateway error %s: %s", e.Code, e.Message)
}

// IsUnknownOrder reports whether err is the gateway telling us it never saw
// the order.
func IsUnknownOrder(err error) bool {
	gwErr, ok := err.(*GatewayError)
	return ok && gwErr.Code == ErrorCodeUnknownOrder
}

type orderGetResponse struct {
	Status string `json:"status"`
	Answer struct {
		ErrorCode    string            `json:"errorCode"`
		ErrorMessage string            `json:"errorMessage"`
		OrderID      string            `json:"orderId"`
		Transactions []restTransaction `json:"transactions"`
	} `json:"answer"`
}

type restTransaction struct {
	UUID     string      `json:"uuid"`
	Amount   json.Number `json:"amount"`
	ShopID   string      `json:"shopId"`
	Customer struct {
		Reference string `json:"reference"`
	} `json:"customer"`
	DetailedErrorCode string `json:"detailedErrorCode"`
	DetailedStatus    string `json:"detailedStatus"`
}

// RestClient queries the gateway's Order/Get endpoint with HTTP basic auth
// (shop id and the environment-specific API password).
type RestClient struct {
	client *resty.Client
}

func NewRestClient(timeout time.Duration) *RestClient {
	client := resty.New()
	client.SetTimeout(timeout)
	return &RestClient{client: client}
}

// GetOrder fetches the current gateway status for a merchant order and
// translates it into the same field shape as an inbound callback, so polled
// statuses flow through the exact same validation path.
func (c *RestClient) GetOrder(ctx context.Context, acquirer *models.Acquirer, orderID string) (CallbackFields, error) {
	var response orderGetResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBasicAuth(acquirer.ShopID, acquirer.APIPassword()).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"orderId": orderID}).
		SetResult(&response).
		Post(acquirer.RestEndpoint + "/V4/Order/Get")
	if err != nil {
		return CallbackFields{}, fmt.Errorf("payzen: calling Order/Get for %s: %w", orderID, err)
	}
	if resp.IsError() {
		return CallbackFields{}, fmt.Errorf("payzen: Order/Get for %s returned HTTP %d", orderID, resp.StatusCode())
	}

	if response.Status == "ERROR" {
		return CallbackFields{}, &GatewayError{
			Code:    response.Answer.ErrorCode,
			Message: response.Answer.ErrorMessage,
		}
	}
	if len(response.Answer.Transactions) == 0 {
		return CallbackFields{}, fmt.Errorf("payzen: Order/Get for %s returned no transactions", orderID)
	}
	tx := response.Answer.Transactions[0]

	echoedOrderID := response.Answer.OrderID
	if echoedOrderID == "" {
		echoedOrderID = orderID
	}

	return CallbackFields{
		OrderID:     echoedOrderID,
		TransUUID:   tx.UUID,
		Amount:      tx.Amount.String(),
		CustomerID:  tx.Customer.Reference,
		ShopID:      tx.ShopID,
		AuthResult:  tx.DetailedErrorCode,
		TransStatus: tx.DetailedStatus,
	}, nil
}
