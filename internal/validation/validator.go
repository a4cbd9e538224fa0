package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"taskforce/internal/apperr"
	"taskforce/internal/config"
)

// Validator checks payload structs against their `validate` tags and
// reports failures by JSON path.
type Validator struct {
	v       *validator.Validate
	catalog *config.Catalog
}

// New creates a Validator whose taxonomy tags check against catalog.
func New(catalog *config.Catalog) *Validator {
	if catalog == nil {
		catalog = config.DefaultCatalog()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)

	val := &Validator{v: v, catalog: catalog}
	mustRegister(v, "http_url", func(fl validator.FieldLevel) bool {
		ok, _ := ValidatePublicURL(fl.Field().String())
		return ok
	})
	mustRegister(v, "sdg", func(fl validator.FieldLevel) bool {
		return catalog.HasSDG(int(fl.Field().Int()))
	})
	mustRegister(v, "ifrc", func(fl validator.FieldLevel) bool {
		return catalog.HasIFRCChallenge(fl.Field().String())
	})
	mustRegister(v, "project_category", func(fl validator.FieldLevel) bool {
		return catalog.HasProjectCategory(fl.Field().String())
	})
	mustRegister(v, "watchdog_category", func(fl validator.FieldLevel) bool {
		return catalog.HasWatchdogCategory(fl.Field().String())
	})
	mustRegister(v, "currency", func(fl validator.FieldLevel) bool {
		return catalog.HasCurrency(fl.Field().String())
	})
	return val
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Catalog returns the taxonomy the validator checks against.
func (v *Validator) Catalog() *config.Catalog {
	return v.catalog
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// Struct validates s and returns an *apperr.ValidationError listing every
// failing field, or nil.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &apperr.ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, apperr.FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: message(fe),
		})
	}
	return out
}

// fieldPath drops the root struct name from a namespace such as
// "ProjectPayload.links[0].url".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without", "required_with":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s items", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s items", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "gtefield":
		return "must not be less than " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "http_url":
		return "must be a public http:// or https:// URL"
	case "sdg":
		return "must be a sustainable development goal between 1 and 17"
	case "ifrc":
		return "is not a known IFRC challenge"
	case "project_category", "watchdog_category":
		return "is not a known category"
	case "currency":
		return "is not a supported currency"
	case "datetime":
		return "must be a date in " + fe.Param() + " format"
	case "iso3166_1_alpha2":
		return "must be a two-letter country code"
	case "email":
		return "must be a valid email address"
	case "unique":
		return "must not contain duplicates"
	}
	return "is invalid"
}
