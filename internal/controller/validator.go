package controller

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/seniorble/guardian/internal/util"
)

const (
	maxPasswordBytes = 72
	birthdateLayout  = "2006-01-02"
)

var krMobile = regexp.MustCompile(`^010-\d{4}-\d{4}$`)

//nolint:gochecknoglobals // lookup table
var fieldMessages = map[string]string{
	"email.required":      "이메일을 입력해주세요.",
	"email.email":         "올바른 이메일 형식이 아닙니다.",
	"password.required":   "비밀번호를 입력해주세요.",
	"password.min":        "비밀번호는 8자 이상이어야 합니다.",
	"password.bcrypt":     "비밀번호가 너무 깁니다.",
	"name.required":       "이름을 입력해주세요.",
	"name.min":            "이름은 2자 이상이어야 합니다.",
	"phone.required":      "전화번호를 입력해주세요.",
	"phone.kr_mobile":     "올바른 전화번호 형식이 아닙니다. (010-XXXX-XXXX)",
	"birthdate.birthdate": "올바른 생년월일이 아닙니다.",
	"gender.oneof":        "성별은 male 또는 female 이어야 합니다.",
}

// RequestValidator plugs go-playground/validator into echo.
type RequestValidator struct {
	v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("kr_mobile", func(fl validator.FieldLevel) bool {
		return krMobile.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("bcrypt", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})
	_ = v.RegisterValidation("birthdate", func(fl validator.FieldLevel) bool {
		d, err := time.Parse(birthdateLayout, fl.Field().String())
		if err != nil {
			return false
		}
		return d.Year() >= 1900 && !d.After(time.Now())
	})
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return util.NewValidationError(err.Error())
	}

	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
			details = append(details, msg)
			continue
		}
		details = append(details, fmt.Sprintf("%s 값이 올바르지 않습니다.", fe.Field()))
	}
	return util.NewValidationError(details...)
}
