package service

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// Gateway is the part of the Snap API the checkout needs.
type Gateway interface {
	CreateTransaction(req *snap.Request) (*snap.Response, error)
}

type snapGateway struct {
	client snap.Client
}

func (g *snapGateway) CreateTransaction(req *snap.Request) (*snap.Response, error) {
	resp, merr := g.client.CreateTransaction(req)
	if merr != nil {
		return nil, merr
	}
	return resp, nil
}

// InitMidtrans builds the Snap client. Returns nil when no server key is set,
// which disables online checkout.
func InitMidtrans(serverKey string, useProduction bool) Gateway {
	if strings.TrimSpace(serverKey) == "" {
		return nil
	}
	g := &snapGateway{}
	if useProduction {
		g.client.New(serverKey, midtrans.Production)
	} else {
		g.client.New(serverKey, midtrans.Sandbox)
	}
	return g
}

// Notification is the HTTP notification body Midtrans posts after a status change.
type Notification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"` // capture, settlement, pending, deny, cancel, expire, refund, failure
	TransactionID     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"` // accept / challenge / deny
}

// Signature is SHA512(order_id + status_code + gross_amount + server_key), hex.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	h := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(h[:])
}

func (n Notification) validSignature(serverKey string) bool {
	if serverKey == "" || n.SignatureKey == "" {
		return false
	}
	want := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	got := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

type accion int

const (
	accionNinguna accion = iota
	accionAprobar
	accionRechazar
)

func (n Notification) accion() accion {
	switch strings.ToLower(n.TransactionStatus) {
	case "settlement":
		return accionAprobar
	case "capture":
		if f := strings.ToLower(n.FraudStatus); f == "" || f == "accept" {
			return accionAprobar
		}
		return accionNinguna
	case "deny", "cancel", "expire", "failure":
		return accionRechazar
	default:
		return accionNinguna
	}
}
