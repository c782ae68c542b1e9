// Package validation registers the custom binding rules used by request DTOs.
package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/domain/content"
	"github.com/yigit/alumnet/internal/domain/points"
)

// Rule tags
const (
	TagEmoji          = "emoji"
	TagRoleSignup     = "role_signup"
	TagPointsCategory = "points_category"
)

// Register adds the custom rules to v and makes field errors report JSON names.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonTagName)

	rules := map[string]validator.Func{
		TagEmoji: func(fl validator.FieldLevel) bool {
			return content.IsEmoji(strings.TrimSpace(fl.Field().String()))
		},
		TagRoleSignup: func(fl validator.FieldLevel) bool {
			return models.Role(fl.Field().String()).SignupAllowed()
		},
		// Empty is allowed; callers default the category.
		TagPointsCategory: func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if s == "" {
				return true
			}
			_, err := points.ParseCategory(s)
			return err == nil
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s rule: %w", tag, err)
		}
	}
	return nil
}

// RegisterWithGin installs the rules on gin's default binding engine.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	return Register(v)
}

func jsonTagName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}
