package controllers

import (
	"errors"
	"log"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/services"
)

var kindStatus = map[services.Kind]int{
	services.KindValidation: http.StatusUnprocessableEntity,
	services.KindNotFound:   http.StatusNotFound,
	services.KindConflict:   http.StatusConflict,
	services.KindState:      http.StatusBadRequest,
}

// respondError writes err with the status matching its kind. Anything the
// services did not classify is logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	var se *services.Error
	if errors.As(err, &se) {
		body := gin.H{"error": se.Message}
		if len(se.Fields) > 0 {
			body["errors"] = se.Fields
		}
		c.JSON(kindStatus[se.Kind], body)
		return
	}
	log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// bindJSON decodes the body into req. Binding rule failures become a 422 with one
// entry per field, malformed JSON a 400.
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[jsonFieldName(fe)] = ruleText(fe)
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "errors": fields})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	return false
}

var registerNames sync.Once

// UseJSONFieldNames makes validation errors report the json name of a field
// (nama_lengkap) rather than the Go one (FullName).
func UseJSONFieldNames() {
	registerNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

func jsonFieldName(fe validator.FieldError) string {
	if name := fe.Field(); name != "" {
		return name
	}
	return strings.ToLower(fe.StructField())
}

func ruleText(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "max":
		return "max " + fe.Param()
	case "min":
		return "min " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "email":
		return "must be a valid email"
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return fe.Tag()
	}
}
