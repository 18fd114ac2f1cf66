// Package schema 校验内容文档的 frontmatter 是否满足站点 content collection 的约定。
//
// 语义与站点构建时的校验保持一致：
// - 字段“必填”只要求存在（空字符串合法）
// - 未声明的字段被忽略
// - 扩展变体额外校验 compatibleFobs / troubleshooting / steps
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/wpmig/internal/frontmatter"
)

// Instructions 对应 instructions 集合（基础变体）。
type Instructions struct {
	Title               *string  `yaml:"title" validate:"required"`
	Description         *string  `yaml:"description" validate:"required"`
	Make                *string  `yaml:"make" validate:"required"`
	Model               *string  `yaml:"model" validate:"required"`
	Years               *string  `yaml:"years" validate:"required"`
	YearStart           *float64 `yaml:"yearStart" validate:"required"`
	YearEnd             *float64 `yaml:"yearEnd" validate:"required"`
	Difficulty          *string  `yaml:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	TimeMinutes         *float64 `yaml:"timeMinutes"`
	RequiresExistingKey *bool    `yaml:"requiresExistingKey"`
	RequiresLocksmith   *bool    `yaml:"requiresLocksmith"`
	Author              *string  `yaml:"author"`
	PubDate             *string  `yaml:"pubDate" validate:"required"`
	OldURL              *string  `yaml:"oldUrl"`
}

// Extended 在基础字段之上增加可选的嵌套数组。
type Extended struct {
	Instructions `yaml:",inline"`

	CompatibleFobs  []Fob     `yaml:"compatibleFobs" validate:"omitempty,dive"`
	Troubleshooting []Trouble `yaml:"troubleshooting" validate:"omitempty,dive"`
	Steps           []Step    `yaml:"steps" validate:"omitempty,dive"`
}

type Fob struct {
	Name       *string `yaml:"name" validate:"required"`
	PartNumber *string `yaml:"partNumber"`
	FCCID      *string `yaml:"fccId"`
	Frequency  *string `yaml:"frequency"`
}

type Trouble struct {
	Problem  *string `yaml:"problem" validate:"required"`
	Solution *string `yaml:"solution" validate:"required"`
}

type Step struct {
	Step        *float64 `yaml:"step" validate:"required,gt=0"`
	Title       *string  `yaml:"title" validate:"required"`
	Description *string  `yaml:"description" validate:"required"`
}

// Violation 是一条字段级违规。
type Violation struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Field == "" {
		return v.Message
	}
	return v.Field + "：" + v.Message
}

// ContractError 表示文档不满足 schema；由编排层记为 contract_invalid。
type ContractError struct {
	Violations []Violation
}

func (e *ContractError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return "frontmatter 不满足 schema：" + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 违规字段使用 frontmatter 中的键名。
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Check 校验一份完整文档（含 "---" 分隔行）。
//
// 返回值：
// - 文档满足 schema：nil
// - 字段违规：*ContractError
// - 文档结构本身不可解析（缺少分隔行、YAML 语法错误）：其它 error
func Check(data []byte, extended bool) error {
	var target any = &Instructions{}
	if extended {
		target = &Extended{}
	}

	var vs []Violation
	if _, err := frontmatter.Decode(data, target); err != nil {
		var te *yaml.TypeError
		if !errors.As(err, &te) {
			return err
		}
		for _, msg := range te.Errors {
			vs = append(vs, Violation{Rule: "type", Message: msg})
		}
	}

	if err := validate.Struct(target); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			return err
		}
		for _, fe := range ves {
			vs = append(vs, Violation{Field: fieldPath(fe.Namespace()), Rule: fe.Tag(), Message: message(fe)})
		}
	}

	if len(vs) == 0 {
		return nil
	}
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].Field < vs[j].Field })
	return &ContractError{Violations: vs}
}

// fieldPath 去掉顶层结构名与内嵌的 Instructions：Extended.Instructions.title -> title
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i == 0 || p == "Instructions" {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, ".")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "缺少必填字段"
	case "oneof":
		return fmt.Sprintf("取值必须为 %s 之一", strings.ReplaceAll(fe.Param(), " ", "/"))
	case "gt":
		return fmt.Sprintf("必须大于 %s", fe.Param())
	default:
		return fmt.Sprintf("不满足规则 %s", fe.Tag())
	}
}
