package web

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	weberrors "github.com/lk2023060901/gachalogs/pkg/web/errors"
)

// BindAndValidate 绑定并校验请求参数，失败时已写出响应
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			Fail(c, weberrors.CodeInvalidParams, errs.Error())
			return false
		}
		Fail(c, weberrors.CodeInvalidParams, "invalid request parameters: "+err.Error())
		return false
	}
	return true
}

// GetQuery 查询参数，缺省时返回 defaultValue
func GetQuery(c *gin.Context, key, defaultValue string) string {
	if val := c.Query(key); val != "" {
		return val
	}
	return defaultValue
}

// QueryBool 查询参数解析为布尔值，接受 1/true/yes
func QueryBool(c *gin.Context, key string) bool {
	switch strings.ToLower(c.Query(key)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// RegisterJSONTagNames 校验错误中使用 json tag 作为字段名
func RegisterJSONTagNames() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}
