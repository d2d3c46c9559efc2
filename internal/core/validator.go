package core

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"cropsense/internal/types"
)

// Validator wraps go-playground/validator and translates field violations
// into the AppError validation taxonomy.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a new Validator.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// ValidateStruct validates a tagged request struct. The first violation is
// translated into a *types.AppError (400) naming the offending field; nil is
// returned when the struct is valid.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if ok := asValidationErrors(err, &verrs); !ok || len(verrs) == 0 {
		return types.NewAppError(types.ErrCodeValidationMissingField, "invalid request", err)
	}

	first := verrs[0]
	field := strings.ToLower(first.Field())
	code := codeForField(field)

	return types.NewAppErrorWithDetails(
		code,
		fmt.Sprintf("field %q failed validation on the %q rule", field, first.Tag()),
		err,
		map[string]any{"field": field, "rule": first.Tag()},
	)
}

// asValidationErrors unwraps err into validator.ValidationErrors.
func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

// codeForField maps well-known fields onto their dedicated validation codes
// so clients can branch on them; everything else gets the generic code.
func codeForField(field string) types.ErrorCode {
	switch field {
	case "lat":
		return types.ErrCodeValidationInvalidLat
	case "lon":
		return types.ErrCodeValidationInvalidLon
	case "limit", "offset":
		return types.ErrCodeValidationInvalidLimit
	default:
		return types.ErrCodeValidationMissingField
	}
}
