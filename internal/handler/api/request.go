package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dukerupert/quickorder/internal/domain"
)

type buyerInput struct {
	CompanyID       int64  `json:"company_id" validate:"gte=0"`
	CustomerGroupID int64  `json:"customer_group_id" validate:"gte=0"`
	CurrencyCode    string `json:"currency_code" validate:"omitempty,len=3,alpha"`
}

type lineInput struct {
	ID        string `json:"id" validate:"max=64"`
	ProductID int64  `json:"product_id" validate:"gte=0"`
	VariantID int64  `json:"variant_id" validate:"gte=0"`
	SKU       string `json:"sku" validate:"required_without=ProductID,max=255"`
	Quantity  int    `json:"quantity"`
}

// listRequest is the body of the reconcile and submit endpoints. CSV
// uploads have their own row limit.
type listRequest struct {
	ListID string      `json:"list_id" validate:"max=128"`
	CartID string      `json:"cart_id" validate:"max=128"`
	Source string      `json:"source" validate:"omitempty,oneof=manual csv quote shopping_list"`
	Buyer  *buyerInput `json:"buyer" validate:"omitempty"`
	Lines  []lineInput `json:"lines" validate:"max=1000,dive"`
}

// orderLines converts the request lines. Lines without an ID get one so
// errors can be matched back to rows in the UI.
func (req listRequest) orderLines() []domain.OrderLine {
	source := req.source()
	lines := make([]domain.OrderLine, 0, len(req.Lines))
	for _, in := range req.Lines {
		id := in.ID
		if id == "" {
			id = uuid.NewString()
		}
		lines = append(lines, domain.OrderLine{
			ID:        id,
			ProductID: in.ProductID,
			VariantID: in.VariantID,
			SKU:       strings.TrimSpace(in.SKU),
			Quantity:  in.Quantity,
			Source:    source,
		})
	}
	return lines
}

func (req listRequest) source() domain.LineSource {
	if req.Source == "" {
		return domain.LineSourceManual
	}
	return domain.LineSource(req.Source)
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads and validates a JSON body into dst.
func decodeJSON(r *http.Request, v *validator.Validate, op string, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return domain.Errorf(domain.ETOOLARGE, op, "Request body must be at most %d bytes", tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return domain.Invalid(op, "Request body is empty")
		default:
			return domain.Invalid(op, "Request body is not valid JSON")
		}
	}

	return validateStruct(v, op, dst)
}

func validateStruct(v *validator.Validate, op string, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Internal(err, op, "request validation failed")
	}

	out := &domain.ValidationError{Op: op, Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		out.Fields[field] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "required_without":
		return fmt.Sprintf("%s is required when product_id is not set", fe.Field())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s can have at most %s entries", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or greater", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", fe.Field(), fe.Param())
	case "alpha":
		return fmt.Sprintf("%s must contain letters only", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
