package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DepositConfig holds the deposit policy.  Percent is clamped into
// [MinPercent, MaxPercent] by the deposit package before use.
type DepositConfig struct {
	Percent          int           `envconfig:"DEPOSIT_PERCENT" default:"30"`
	MinPercent       int           `envconfig:"DEPOSIT_PERCENT_MIN" default:"0"`
	MaxPercent       int           `envconfig:"DEPOSIT_PERCENT_MAX" default:"50"`
	MaxProofBytes    int64         `envconfig:"DEPOSIT_PROOF_MAX_BYTES" default:"5242880"`
	Currency         string        `envconfig:"DEPOSIT_CURRENCY" default:"IDR"`
	Location         string        `envconfig:"BOOKING_TIMEZONE" default:"Asia/Makassar"`
	ReminderLead     time.Duration `envconfig:"REMINDER_LEAD" default:"5h"`
	ReminderInterval time.Duration `envconfig:"REMINDER_POLL_INTERVAL" default:"5m"`
}

// StorageConfig selects S3 when all AWS values are present, local disk otherwise.
type StorageConfig struct {
	AWSRegion    string `envconfig:"AWS_REGION"`
	AWSAccessKey string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	Bucket       string `envconfig:"AWS_S3_BUCKET"`
	Folder       string `envconfig:"PROOF_FOLDER" default:"payment_proofs"`
	UploadDir    string `envconfig:"UPLOAD_DIR" default:"uploads"`
}

// UseS3 reports whether the S3 backend is fully configured.
func (s StorageConfig) UseS3() bool {
	return s.AWSRegion != "" && s.AWSAccessKey != "" && s.AWSSecretKey != "" && s.Bucket != ""
}

// CheckoutConfig configures the hosted checkout provider.
type CheckoutConfig struct {
	StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY"`
	SuccessURL      string `envconfig:"CHECKOUT_SUCCESS_URL" default:"http://localhost:3000/membership/success"`
	CancelURL       string `envconfig:"CHECKOUT_CANCEL_URL" default:"http://localhost:3000/membership/cancel"`
	ProductName     string `envconfig:"CHECKOUT_PRODUCT_NAME" default:"Provider membership"`
}

// LoadDepositConfig, LoadStorageConfig and LoadCheckoutConfig read their
// sections with envconfig; defaults apply when a variable is unset.
func LoadDepositConfig() (DepositConfig, error) {
	var c DepositConfig
	err := envconfig.Process("", &c)
	return c, err
}

func LoadStorageConfig() (StorageConfig, error) {
	var c StorageConfig
	err := envconfig.Process("", &c)
	return c, err
}

func LoadCheckoutConfig() (CheckoutConfig, error) {
	var c CheckoutConfig
	err := envconfig.Process("", &c)
	return c, err
}
