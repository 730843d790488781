package utils

import (
	"fmt"

	"yogalive/config"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// PaymentIntent is the client-usable handle for a pending payment. Token plays
// the role of the client secret; OrderID is the intent id used for
// reconciliation.
type PaymentIntent struct {
	OrderID     string `json:"order_id"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// PaymentGateway creates payment intents with the external provider. Calls are
// bounded by the provider client's own HTTP timeout and must be treated as
// retryable upstream failures by callers.
type PaymentGateway interface {
	CreatePaymentIntent(orderID string, grossAmount int64, customerName, customerEmail, itemName string) (*PaymentIntent, error)
}

// Payment is the process-wide gateway. Tests swap in a fake.
var Payment PaymentGateway

type midtransGateway struct {
	client snap.Client
}

// InitializePaymentGateway wires the Midtrans Snap client from configuration.
func InitializePaymentGateway() {
	env := midtrans.Sandbox
	if config.AppConfig.MidtransIsProduction {
		env = midtrans.Production
	}

	var s snap.Client
	s.New(config.AppConfig.MidtransServerKey, env)

	midtrans.ServerKey = config.AppConfig.MidtransServerKey
	midtrans.ClientKey = config.AppConfig.MidtransClientKey
	midtrans.Environment = env

	Payment = &midtransGateway{client: s}
}

func (g *midtransGateway) CreatePaymentIntent(orderID string, grossAmount int64, customerName, customerEmail, itemName string) (*PaymentIntent, error) {
	param := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: grossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: customerName,
			Email: customerEmail,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    orderID,
				Name:  itemName,
				Price: grossAmount,
				Qty:   1,
			},
		},
	}

	resp, err := g.client.CreateTransaction(param)
	if err != nil {
		return nil, fmt.Errorf("midtrans create transaction error: %v", err)
	}

	return &PaymentIntent{
		OrderID:     orderID,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}
