package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	enLocale "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// Engine validates request bodies and queries against their binding tags
// and renders failures in English, keyed by json field name.
type Engine struct {
	validate *validator.Validate
	trans    ut.Translator
}

var _ binding.StructValidator = (*Engine)(nil)

func New() (*Engine, error) {
	validate := validator.New()
	validate.SetTagName("binding")
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	en := enLocale.New()
	trans, _ := ut.New(en, en).GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("register default translations: %w", err)
	}

	for _, r := range rules {
		if err := validate.RegisterValidation(r.tag, r.check); err != nil {
			return nil, fmt.Errorf("register %s: %w", r.tag, err)
		}
		tag, message := r.tag, r.message
		err := validate.RegisterTranslation(tag, trans,
			func(t ut.Translator) error { return t.Add(tag, message, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T(tag, fe.Field())
				return msg
			},
		)
		if err != nil {
			return nil, fmt.Errorf("register %s message: %w", tag, err)
		}
	}

	return &Engine{validate: validate, trans: trans}, nil
}

var defaultEngine = sync.OnceValue(func() *Engine {
	e, err := New()
	if err != nil {
		panic(err)
	}
	return e
})

// Default returns the shared engine installed into gin.
func Default() *Engine {
	return defaultEngine()
}

func RegisterValidatorWithGin() {
	binding.Validator = Default()
}

// ValidateStruct validates a struct, a pointer to one, or each element of a
// slice. Other kinds carry no binding tags and pass.
func (e *Engine) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	value := reflect.ValueOf(obj)
	for value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Struct:
		return e.validate.Struct(obj)
	case reflect.Slice, reflect.Array:
		for i := 0; i < value.Len(); i++ {
			if err := e.ValidateStruct(value.Index(i).Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) Engine() any {
	return e.validate
}

// Messages translates validation failures into field -> message pairs. Any
// other error yields nil.
func (e *Engine) Messages(err error) map[string]string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = fe.Translate(e.trans)
	}
	return out
}

// Messages uses the default engine.
func Messages(err error) map[string]string {
	return Default().Messages(err)
}
