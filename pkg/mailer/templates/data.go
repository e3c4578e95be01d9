package templates

import (
	"encoding/json"
	"time"
)

// Brand carries the company fields every email footer uses.
type Brand struct {
	AppName        string
	CompanyName    string
	CompanyAddress string
	LogoURL        string
	SupportURL     string
	PrivacyURL     string
	StorefrontURL  string
}

// EmailData defines standard fields for email templates.
type EmailData struct {
	Name  string `json:"Name"`
	Email string `json:"Email"`
	Type  string `json:"Type"`

	AppName        string `json:"AppName"`
	CompanyName    string `json:"CompanyName"`
	CompanyAddress string `json:"CompanyAddress"`
	LogoURL        string `json:"LogoURL"`
	SupportURL     string `json:"SupportURL"`
	PrivacyURL     string `json:"PrivacyURL"`
	StorefrontURL  string `json:"StorefrontURL"`

	Code          string    `json:"Code"`
	Purpose       string    `json:"Purpose"`
	ExpiresAt     time.Time `json:"ExpiresAt"`
	ExpiresAtText string    `json:"ExpiresAtText"`
}

// Option pattern
type Option func(*EmailData)

func WithPurpose(p string) Option { return func(d *EmailData) { d.Purpose = p } }

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04 MST")
	}
}

// NewBaseEmailData fills the brand fields then applies opts.
func NewBaseEmailData(b Brand, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:  name,
		Email: email,
		Type:  typ,

		AppName:        b.AppName,
		CompanyName:    b.CompanyName,
		CompanyAddress: b.CompanyAddress,
		LogoURL:        b.LogoURL,
		SupportURL:     b.SupportURL,
		PrivacyURL:     b.PrivacyURL,
		StorefrontURL:  b.StorefrontURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// NewEmailOTPData builds the job data for a verification code email.
func NewEmailOTPData(b Brand, name, email, code string, opts ...Option) map[string]any {
	d := NewBaseEmailData(b, EmailOTP, name, email, opts...)
	d.Code = code
	return ToMap(d)
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}
