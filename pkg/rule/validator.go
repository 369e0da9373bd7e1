// Package rule 提供结构体和字段验证功能的封装，基于 go-playground/validator 实现.
//
// 规则写在 `rule` 标签上. 初始化时会替换 gin 的 binding.Validator，ShouldBind 系列方法与 configs 的配置校验共用同一个实例.
package rule

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	inst *validator.Validate
	once sync.Once
)

// initValidator 新建带 `rule` 标签的 validator，并替换 gin 的 binding.Validator.
//
// 不复用 gin 自带的实例：gin 按 `binding` 标签缓存结构体元数据，之后再改 tag name 不会生效.
func initValidator() {
	inst = validator.New()
	inst.SetTagName("rule")
	inst.RegisterTagNameFunc(fieldName)

	binding.Validator = ginValidator{}
}

// ginValidator 实现 binding.StructValidator，ShouldBind 系列方法绑定后按 `rule` 标签校验.
type ginValidator struct{}

func (ginValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}

	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}

		return ginValidator{}.ValidateStruct(v.Elem().Interface())
	case reflect.Struct:
		return inst.Struct(obj)
	case reflect.Slice, reflect.Array:
		for i := range v.Len() {
			if err := (ginValidator{}).ValidateStruct(v.Index(i).Interface()); err != nil {
				return err
			}
		}

		return nil
	default:
		return nil
	}
}

func (ginValidator) Engine() any {
	return inst
}

// fieldName 错误信息中优先使用 form/json/mapstructure 标签名，与请求参数、配置键保持一致.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"form", "json", "mapstructure"} {
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

// lazyInit 初始化全局 validator（幂等）.
func lazyInit() {
	once.Do(initValidator)
}

// Engine 返回全局 *validator.Validate，若未初始化则先初始化.
func Engine() *validator.Validate {
	lazyInit()

	return inst
}

// RegisterValidation 代理 RegisterValidation，确保已初始化.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	lazyInit()

	return inst.RegisterValidation(tag, fn, opts...)
}

// ValidationErrors 是格式化后的验证错误字典，键为字段名（受 RegisterTagNameFunc 影响），值为可读错误信息.
type ValidationErrors map[string]string

// Error 实现 error，按字段名输出.
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for k, msg := range v {
		parts = append(parts, k+": "+msg)
	}

	return strings.Join(parts, "; ")
}

// Errors 把 validator 返回的错误整理为 ValidationErrors. 非校验错误返回 nil.
func Errors(err error) ValidationErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(ValidationErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = describe(fe)
	}

	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}

		return "failed " + fe.Tag()
	}
}

// ValidateStruct 对结构体执行完整校验，返回原始 error（可用 Errors 解析）.
func ValidateStruct(s any) error {
	lazyInit()

	return inst.Struct(s)
}

// ValidateVar 按规则对单个变量校验，例如: ValidateVar("abc", "required,email").
func ValidateVar(field any, tag string) error {
	lazyInit()

	return inst.Var(field, tag)
}

// RegisterAlias 包装 RegisterAlias，便于注册别名规则.
func RegisterAlias(alias, rules string) {
	lazyInit()

	inst.RegisterAlias(alias, rules)
}
