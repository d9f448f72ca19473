package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/vinaysengar-17/stock-trading/internal/domain/entity/trading"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// TradeInput checks a trade request before any entity is built.
// Quantity must be a non-zero integer within MaxQuantity either way. Price must be
// non-negative, below MaxPrice and carry at most PriceScale decimal places.
func TradeInput(in *trading.TradeInput) error {
	if in == nil {
		return &trading.ValidationError{Fields: []trading.FieldError{{Field: "trade", Message: "is required"}}}
	}
	in.StockName = strings.TrimSpace(in.StockName)
	in.BrokerName = strings.TrimSpace(in.BrokerName)

	var fields []trading.FieldError
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate trade: %w", err)
		}
		for _, fe := range verrs {
			fields = append(fields, trading.FieldError{Field: fe.Field(), Message: describe(fe)})
		}
	}
	if in.Price != nil {
		if msg := checkPrice(*in.Price); msg != "" {
			fields = append(fields, trading.FieldError{Field: "price", Message: msg})
		}
	}
	if len(fields) > 0 {
		return &trading.ValidationError{Fields: fields}
	}
	return nil
}

// DecodeTradeInput parses one raw JSON trade object and validates it.
func DecodeTradeInput(raw []byte) (trading.TradeInput, error) {
	var in trading.TradeInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, &trading.ValidationError{Fields: []trading.FieldError{{Field: "trade", Message: decodeMessage(err)}}}
	}
	if err := TradeInput(&in); err != nil {
		return in, err
	}
	return in, nil
}

func checkPrice(p decimal.Decimal) string {
	switch {
	case p.IsNegative():
		return "must be non-negative"
	case p.GreaterThanOrEqual(trading.MaxPrice):
		return "must be less than " + trading.MaxPrice.String()
	case !p.Equal(p.Truncate(trading.PriceScale)):
		return fmt.Sprintf("must have at most %d decimal places", trading.PriceScale)
	}
	return ""
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Field() == "quantity" {
			return "must be a non-zero integer"
		}
		return "is required"
	case "min", "max":
		if fe.Field() == "quantity" {
			return fmt.Sprintf("must be between -%d and %d", trading.MaxQuantity, trading.MaxQuantity)
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "quantity" {
			return "quantity must be an integer"
		}
		return fmt.Sprintf("%s has invalid type %s", typeErr.Field, typeErr.Value)
	}
	return "malformed trade: " + err.Error()
}
