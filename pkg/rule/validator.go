// Package rule 封装 go-playground/validator，统一使用 rule 标签并内置文件服务的校验规则.
package rule

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// TagName 结构体校验标签.
const TagName = "rule"

var (
	inst *validator.Validate
	once sync.Once
)

// mimeTypePattern 匹配 type/subtype 或 type/*.
var mimeTypePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9!#$&^_.+-]*/(\*|[a-z0-9][a-z0-9!#$&^_.+-]*)$`)

// initValidator 优先复用 gin 的引擎，使 ShouldBind 与 ValidateStruct 行为一致.
func initValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok && v != nil {
		inst = v
	} else {
		inst = validator.New()
	}

	inst.SetTagName(TagName)
	inst.RegisterTagNameFunc(jsonName)

	_ = inst.RegisterValidation("mimetype", func(fl validator.FieldLevel) bool {
		return IsMimePattern(fl.Field().String())
	})
	_ = inst.RegisterValidation("entryname", func(fl validator.FieldLevel) bool {
		return IsEntryName(fl.Field().String())
	})

	inst.RegisterAlias("foldername", "required,max=255,entryname")
}

// jsonName 错误中的字段名使用 json 名称，与请求体一致.
func jsonName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}

		if name != "" {
			return name
		}
	}

	return f.Name
}

// IsMimePattern 判断字符串是否为合法的 MIME 类型或通配模式（如 video/*）.
func IsMimePattern(s string) bool {
	return mimeTypePattern.MatchString(strings.ToLower(strings.TrimSpace(s)))
}

// IsEntryName 判断是否可作为文件或文件夹名：非空，不含路径分隔符，不是 . 或 ..
func IsEntryName(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, "/\\\x00")
}

// Engine 返回全局 *validator.Validate.
func Engine() *validator.Validate {
	once.Do(initValidator)

	return inst
}

// ValidateStruct 对结构体执行完整校验.
func ValidateStruct(s any) error {
	return Engine().Struct(s)
}

// ValidateVar 按规则对单个变量校验，例如: ValidateVar("abc", "required,email").
func ValidateVar(field any, tag string) error {
	return Engine().Var(field, tag)
}

// Describe 把校验错误压缩为一行 "field: tag" 列表，非校验错误原样返回其文本.
func Describe(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}

	parts := make([]string, 0, len(ve))

	for _, fe := range ve {
		p := fe.Field() + ": " + fe.Tag()
		if fe.Param() != "" {
			p += "=" + fe.Param()
		}

		parts = append(parts, p)
	}

	return strings.Join(parts, "; ")
}
