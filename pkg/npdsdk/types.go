package npdsdk

import (
	"encoding/json"
	"time"
)

// ============================================================================
// Device Descriptor
// ============================================================================

// DeviceInfo identifies this client instance to the service. It is sent with
// every login, verification and renewal request.
type DeviceInfo struct {
	SourceDeviceID string      `json:"sourceDeviceId"`
	SourceType     string      `json:"sourceType"`
	AppVersion     string      `json:"appVersion"`
	MetaDetails    MetaDetails `json:"metaDetails"`
}

// MetaDetails carries the browser user agent the service expects.
type MetaDetails struct {
	UserAgent string `json:"userAgent"`
}

// ============================================================================
// Authentication Types
// ============================================================================

type passwordAuthRequest struct {
	Username   string     `json:"username"`
	Password   string     `json:"password"`
	DeviceInfo DeviceInfo `json:"deviceInfo"`
}

type smsStartRequest struct {
	Phone               string `json:"phone"`
	RequireTpToBeActive bool   `json:"requireTpToBeActive"`
}

type smsStartResponse struct {
	ChallengeToken string `json:"challengeToken"`
	Message        string `json:"message,omitempty"`
}

type smsVerifyRequest struct {
	ChallengeToken string     `json:"challengeToken"`
	Phone          string     `json:"phone"`
	Code           string     `json:"code"`
	DeviceInfo     DeviceInfo `json:"deviceInfo"`
}

type renewRequest struct {
	DeviceInfo   DeviceInfo `json:"deviceInfo"`
	RefreshToken string     `json:"refreshToken"`
}

// authResponse is the shape shared by password login, SMS verification and
// token renewal. Renewal omits Profile and may omit RefreshToken.
type authResponse struct {
	RefreshToken  string   `json:"refreshToken"`
	Token         string   `json:"token"`
	TokenExpireIn string   `json:"tokenExpireIn"`
	Profile       *Profile `json:"profile,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// Profile is the taxpayer profile returned by a successful login.
type Profile struct {
	// INN is the taxpayer identification number, the subject of the session.
	INN         string `json:"inn"`
	DisplayName string `json:"displayName,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

// SMSChallenge is returned by RequestSMSCode. The caller collects the code
// out of band and passes it back to AuthViaSMSCode along with ChallengeToken.
type SMSChallenge struct {
	ChallengeToken string `json:"challengeToken"`
	Phone          string `json:"phone"`
	DeviceID       string `json:"deviceId"`
}

// UserInfo is the decoded body of the "user" endpoint. Raw keeps the full
// response since the service returns more than is modelled here.
type UserInfo struct {
	INN         string          `json:"inn"`
	DisplayName string          `json:"displayName"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	Raw         json.RawMessage `json:"-"`
}

// ============================================================================
// Income Types
// ============================================================================

type incomeClient struct {
	ContactPhone *string `json:"contactPhone"`
	DisplayName  *string `json:"displayName"`
	IncomeType   string  `json:"incomeType"`
	INN          *string `json:"inn"`
}

type incomeRequest struct {
	PaymentType                     string       `json:"paymentType"`
	IgnoreMaxTotalIncomeRestriction bool         `json:"ignoreMaxTotalIncomeRestriction"`
	Client                          incomeClient `json:"client"`
	RequestTime                     string       `json:"requestTime"`
	OperationTime                   string       `json:"operationTime"`
	Services                        []Service    `json:"services"`
	TotalAmount                     string       `json:"totalAmount"`
}

type incomeResponse struct {
	ApprovedReceiptUUID string `json:"approvedReceiptUuid"`
}

// IncomeResult references the receipt issued for a submission.
type IncomeResult struct {
	ID                  string          `json:"id"`
	ApprovedReceiptUUID string          `json:"approvedReceiptUuid"`
	JSONURL             string          `json:"jsonUrl"`
	PrintURL            string          `json:"printUrl"`
	TotalAmount         string          `json:"totalAmount"`
	OperationTime       time.Time       `json:"operationTime"`
	Data                json.RawMessage `json:"data"`
}
