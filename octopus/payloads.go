package octopus

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// AccountResponse is the payload of GET /v1/accounts/{number}/.
type AccountResponse struct {
	Number     string     `json:"number"`
	Properties []Property `json:"properties" validate:"required,dive"`
}

// Property is a supply address on an account.
type Property struct {
	ID                     int64                   `json:"id"`
	MovedInAt              *string                 `json:"moved_in_at"`
	MovedOutAt             *string                 `json:"moved_out_at"`
	AddressLine1           string                  `json:"address_line_1"`
	AddressLine2           string                  `json:"address_line_2"`
	AddressLine3           string                  `json:"address_line_3"`
	Town                   string                  `json:"town"`
	County                 string                  `json:"county"`
	Postcode               string                  `json:"postcode"`
	ElectricityMeterPoints []ElectricityMeterPoint `json:"electricity_meter_points" validate:"dive"`
	GasMeterPoints         []GasMeterPoint         `json:"gas_meter_points" validate:"dive"`
}

// ElectricityMeterPoint is an electricity supply point of a property.
type ElectricityMeterPoint struct {
	MPAN         string      `json:"mpan" validate:"required"`
	ProfileClass int         `json:"profile_class"`
	IsExport     bool        `json:"is_export"`
	Meters       []MeterRef  `json:"meters" validate:"dive"`
	Agreements   []Agreement `json:"agreements" validate:"dive"`
}

// GasMeterPoint is a gas supply point of a property.
type GasMeterPoint struct {
	MPRN       string      `json:"mprn" validate:"required"`
	Meters     []MeterRef  `json:"meters" validate:"dive"`
	Agreements []Agreement `json:"agreements" validate:"dive"`
}

// MeterRef identifies a physical meter at a meter point.
type MeterRef struct {
	SerialNumber string `json:"serial_number" validate:"required"`
}

// Agreement is a tariff a meter point was supplied under.
type Agreement struct {
	TariffCode string  `json:"tariff_code" validate:"required"`
	ValidFrom  string  `json:"valid_from" validate:"required"`
	ValidTo    *string `json:"valid_to"`
}

// ConsumptionResponse is a page of the electricity or gas consumption
// endpoints. Results is nil when the API omitted it.
type ConsumptionResponse struct {
	Count    int                 `json:"count"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
	Results  []ConsumptionResult `json:"results" validate:"dive"`
}

// ConsumptionResult is one interval of a consumption page.
type ConsumptionResult struct {
	Consumption   *float64 `json:"consumption" validate:"required"`
	IntervalStart string   `json:"interval_start" validate:"required"`
	IntervalEnd   string   `json:"interval_end" validate:"required"`
}

// TariffRateResponse is a page of a tariff's unit rates or standing charges.
type TariffRateResponse struct {
	Count    int                `json:"count"`
	Next     *string            `json:"next"`
	Previous *string            `json:"previous"`
	Results  []TariffRateResult `json:"results" validate:"dive"`
}

// TariffRateResult is one price period of a tariff.
type TariffRateResult struct {
	ValueExcVAT *decimal.Decimal `json:"value_exc_vat" validate:"required"`
	ValueIncVAT *decimal.Decimal `json:"value_inc_vat" validate:"required"`
	ValidFrom   string           `json:"valid_from" validate:"required"`
	ValidTo     *string          `json:"valid_to"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkRequired reports the first required field missing from payload.
func checkRequired(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return errors.Wrapf(ErrMissingField, "%s", verrs[0].Namespace())
	}
	return errors.WithStack(err)
}
