package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"fundflow-service/internal/models"
	"fundflow-service/pkg/common"

	"gorm.io/gorm"
)

// Gateway-reported order outcomes. Only success and failed are terminal.
type OrderStatus string

const (
	OrderSuccess OrderStatus = "success"
	OrderFailed  OrderStatus = "failed"
	OrderPending OrderStatus = "pending"
)

// Gateway-reported payout outcomes.
type TransferStatus string

const (
	TransferCompleted TransferStatus = "completed"
	TransferFailed    TransferStatus = "failed"
	TransferPending   TransferStatus = "pending"
)

type CreateOrderRequest struct {
	OrderId       string
	Amount        float64
	Currency      string
	CustomerId    string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	ReturnUrl     string
	NotifyUrl     string
}

type OrderSession struct {
	GatewayOrderId   string
	PaymentSessionId string
}

type PayoutRequest struct {
	TransferId    string
	Amount        float64
	Mode          string
	AccountNumber string
	Ifsc          string
	AccountHolder string
	UpiId         string
	Remarks       string
}

// PaymentGateway is the collaborator contract consumed by the
// reconciliation and withdrawal engines. Tests substitute a fake.
type PaymentGateway interface {
	CreateOrder(req CreateOrderRequest) (*OrderSession, error)
	GetOrderStatus(orderId string) (OrderStatus, error)
	InitiatePayout(req PayoutRequest) (string, error)
	GetTransferStatus(transferId string) (TransferStatus, error)
}

// CashfreeService talks to the Cashfree PG and Payouts APIs.
type CashfreeService struct {
	DB         *gorm.DB
	BaseUrl    string
	PayoutUrl  string
	ClientId   string
	SecretKey  string
	ApiVersion string
}

func NewCashfreeService(db *gorm.DB) *CashfreeService {
	baseUrl := os.Getenv("CASHFREE_BASE_URL")
	if baseUrl == "" {
		baseUrl = "https://sandbox.cashfree.com/pg"
	}
	payoutUrl := os.Getenv("CASHFREE_PAYOUT_URL")
	if payoutUrl == "" {
		payoutUrl = "https://payout-gamma.cashfree.com/payout/v1"
	}

	return &CashfreeService{
		DB:         db,
		BaseUrl:    baseUrl,
		PayoutUrl:  payoutUrl,
		ClientId:   os.Getenv("CASHFREE_CLIENT_ID"),
		SecretKey:  os.Getenv("CASHFREE_SECRET_KEY"),
		ApiVersion: "2023-08-01",
	}
}

func (s *CashfreeService) headers() map[string]string {
	return map[string]string{
		"x-client-id":     s.ClientId,
		"x-client-secret": s.SecretKey,
		"x-api-version":   s.ApiVersion,
		"Content-Type":    "application/json",
	}
}

func (s *CashfreeService) CreateOrder(req CreateOrderRequest) (*OrderSession, error) {
	payload := map[string]interface{}{
		"order_id":       req.OrderId,
		"order_amount":   req.Amount,
		"order_currency": req.Currency,
		"customer_details": map[string]interface{}{
			"customer_id":    req.CustomerId,
			"customer_name":  req.CustomerName,
			"customer_email": req.CustomerEmail,
			"customer_phone": req.CustomerPhone,
		},
		"order_meta": map[string]interface{}{
			"return_url": req.ReturnUrl,
			"notify_url": req.NotifyUrl,
		},
	}

	resp, err := common.Post(fmt.Sprintf("%s/orders", s.BaseUrl), payload, s.headers())
	if err != nil {
		return nil, err
	}

	respMap, ok := resp.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid response from cashfree")
	}

	cfOrderId, _ := respMap["cf_order_id"].(string)
	if cfOrderId == "" {
		// cf_order_id comes back numeric on some API versions
		if num, isNum := respMap["cf_order_id"].(float64); isNum {
			cfOrderId = fmt.Sprintf("%.0f", num)
		}
	}
	sessionId, _ := respMap["payment_session_id"].(string)
	if sessionId == "" {
		if msg, hasMsg := respMap["message"].(string); hasMsg {
			return nil, fmt.Errorf("cashfree order creation failed: %s", msg)
		}
		return nil, fmt.Errorf("cashfree order creation failed")
	}

	return &OrderSession{GatewayOrderId: cfOrderId, PaymentSessionId: sessionId}, nil
}

func (s *CashfreeService) GetOrderStatus(orderId string) (OrderStatus, error) {
	resp, err := common.Get(fmt.Sprintf("%s/orders/%s", s.BaseUrl, orderId), s.headers())
	if err != nil {
		return OrderPending, err
	}

	respMap, ok := resp.(map[string]interface{})
	if !ok {
		return OrderPending, fmt.Errorf("invalid response from cashfree")
	}

	status, _ := respMap["order_status"].(string)
	return MapOrderStatus(status), nil
}

// MapOrderStatus folds Cashfree order states onto the engine's terminal /
// non-terminal statuses. ACTIVE (and anything unknown) stays pending so the
// caller polls again rather than guessing.
func MapOrderStatus(cfStatus string) OrderStatus {
	switch cfStatus {
	case "PAID":
		return OrderSuccess
	case "EXPIRED", "CANCELLED", "TERMINATED":
		return OrderFailed
	default:
		return OrderPending
	}
}

func (s *CashfreeService) InitiatePayout(req PayoutRequest) (string, error) {
	payload := map[string]interface{}{
		"transferId": req.TransferId,
		"amount":     req.Amount,
		"remarks":    req.Remarks,
	}
	if req.Mode == models.PayoutModeUpi {
		payload["transferMode"] = "upi"
		payload["beneDetails"] = map[string]interface{}{
			"vpa":  req.UpiId,
			"name": req.AccountHolder,
		}
	} else {
		payload["transferMode"] = "banktransfer"
		payload["beneDetails"] = map[string]interface{}{
			"bankAccount": req.AccountNumber,
			"ifsc":        req.Ifsc,
			"name":        req.AccountHolder,
		}
	}

	resp, err := common.Post(fmt.Sprintf("%s/directTransfer", s.PayoutUrl), payload, s.headers())
	if err != nil {
		return "", err
	}

	respMap, ok := resp.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid response from cashfree payout")
	}

	status, _ := respMap["status"].(string)
	if status != "SUCCESS" && status != "PENDING" {
		msg, _ := respMap["message"].(string)
		return "", fmt.Errorf("payout rejected by gateway: %s", msg)
	}

	return req.TransferId, nil
}

func (s *CashfreeService) GetTransferStatus(transferId string) (TransferStatus, error) {
	url := fmt.Sprintf("%s/getTransferStatus?transferId=%s", s.PayoutUrl, transferId)
	resp, err := common.Get(url, s.headers())
	if err != nil {
		return TransferPending, err
	}

	respMap, ok := resp.(map[string]interface{})
	if !ok {
		return TransferPending, fmt.Errorf("invalid response from cashfree payout")
	}

	dataMap, _ := respMap["data"].(map[string]interface{})
	transferMap, _ := dataMap["transfer"].(map[string]interface{})
	status, _ := transferMap["status"].(string)

	return MapTransferStatus(status), nil
}

// MapTransferStatus folds Cashfree payout states onto the engine's statuses.
func MapTransferStatus(cfStatus string) TransferStatus {
	switch cfStatus {
	case "SUCCESS", "COMPLETED":
		return TransferCompleted
	case "FAILED", "REJECTED", "REVERSED", "ERROR":
		return TransferFailed
	default:
		return TransferPending
	}
}

// VerifyWebhookSignature checks the Cashfree webhook signature:
// base64(HMAC-SHA256(timestamp + rawBody, secret)).
func (s *CashfreeService) VerifyWebhookSignature(body []byte, timestamp, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.SecretKey))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// LogCallback records every webhook/verify interaction for audit.
func (s *CashfreeService) LogCallback(requestType, orderId, request string, response interface{}, status int) {
	respBytes, _ := json.Marshal(response)
	entry := models.CallbackLog{
		Request:     request,
		Response:    string(respBytes),
		Status:      status,
		RequestType: requestType,
		OrderId:     orderId,
	}
	s.DB.Create(&entry)
}
