package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields, and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return domain.ValidationError("request body is required")
		case errors.As(err, &syntaxErr):
			return domain.ValidationError("invalid JSON payload at offset %d", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			return domain.ValidationError("%s has the wrong type", typeErr.Field)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return domain.ValidationError("unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		default:
			return domain.ValidationError("invalid JSON payload")
		}
	}
	if dec.More() {
		return domain.ValidationError("request body must contain a single JSON object")
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return domain.ValidationError("%s", describeFieldError(fieldErrs[0]))
		}
		return fmt.Errorf("validate request: %w", err)
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return field + " is required"
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid":
		return fmt.Sprintf("%s %q is not a valid id", field, fe.Value())
	default:
		return field + " is invalid"
	}
}

// actorFromRequest reads the caller identity set by the upstream gateway.
func actorFromRequest(r *http.Request) domain.Actor {
	actor := domain.Actor{
		UserID: strings.TrimSpace(r.Header.Get("X-User-ID")),
		Role:   domain.RoleCustomer,
	}
	if strings.EqualFold(strings.TrimSpace(r.Header.Get("X-User-Role")), string(domain.RoleAdmin)) {
		actor.Role = domain.RoleAdmin
	}
	return actor
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.ValidationError("%s must be a positive integer", name)
	}
	return n, nil
}
