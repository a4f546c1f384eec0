package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
)

// OfflineCodePrefix marks order codes generated on the device while
// disconnected. Server-issued codes never carry it, which lets the server
// recognize offline-originated orders on sync.
const OfflineCodePrefix = "OFF-"

type OrderLine struct {
	Reference   string          `json:"reference"`
	Description string          `json:"description,omitempty"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Total returns quantity * unit price for the line.
func (l OrderLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// Order is the commercial order payload built by the sales representative.
// The submission subsystem only relies on Code and ClientEmail; the rest is
// carried through to the server untouched.
type Order struct {
	Code        string                 `json:"code,omitempty"`
	ClientName  string                 `json:"client_name"`
	ClientEmail string                 `json:"client_email"`
	Commercial  string                 `json:"commercial"`
	Supplier    string                 `json:"supplier,omitempty"`
	Theme       string                 `json:"theme,omitempty"`
	Lines       []OrderLine            `json:"lines"`
	Signature   string                 `json:"signature"`
	Notes       string                 `json:"notes,omitempty"`
	MetaData    map[string]interface{} `json:"meta_data,omitempty"`
}

// Total sums all line totals.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Total())
	}
	return total
}

// Validate checks the payload before any network or storage work. A failure
// here must never be retried or persisted offline. The email check is
// format-only; validation runs while disconnected and must not touch the
// network.
func (o *Order) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.ClientName, validation.Required),
		validation.Field(&o.ClientEmail, validation.Required, is.EmailFormat),
		validation.Field(&o.Commercial, validation.Required),
		validation.Field(&o.Lines, validation.Required, validation.Length(1, 0)),
		validation.Field(&o.Signature, validation.Required),
	)
}

func (o *Order) ToJSON() ([]byte, error) {
	return json.Marshal(o)
}

// GenerateOfflineCode builds a locally unique order code from the current
// time, e.g. OFF-lx3k9q2f. Base36 millis keep it short enough to read back
// to a client over the phone.
func GenerateOfflineCode() string {
	return OfflineCodePrefix + strconv.FormatInt(time.Now().UnixMilli(), 36)
}

// IsOfflineCode reports whether the code was generated on the device.
func IsOfflineCode(code string) bool {
	return strings.HasPrefix(code, OfflineCodePrefix)
}
