package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"aura-go/internal/services"
	"aura-go/internal/session"
)

// Error categories reported next to the message.
const (
	categoryValidation   = "validation"
	categoryNotFound     = "not_found"
	categoryConflict     = "conflict"
	categoryUnavailable  = "unavailable"
	categoryUnauthorized = "unauthorized"
	categoryInternal     = "internal"
)

var validate = validator.New()

// ErrorResponse 是 API 错误响应的通用结构体。
type ErrorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category"`
}

// writeJSONResponse 是一个辅助函数，用于发送 JSON 响应。
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// 头部已经发送，只能记录
			logrus.WithError(err).Error("无法编码 JSON 响应")
		}
	}
}

// writeJSONError 是一个辅助函数，用于发送 JSON 格式的错误响应。
func writeJSONError(w http.ResponseWriter, message, category string, statusCode int) {
	writeJSONResponse(w, statusCode, ErrorResponse{Error: message, Category: category})
}

// writeServiceError maps a service error kind to its HTTP status.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		writeJSONError(w, err.Error(), categoryValidation, http.StatusBadRequest)
	case errors.Is(err, services.ErrNotFound):
		writeJSONError(w, err.Error(), categoryNotFound, http.StatusNotFound)
	case errors.Is(err, services.ErrInvalidState):
		writeJSONError(w, err.Error(), categoryConflict, http.StatusConflict)
	case errors.Is(err, services.ErrUnauthorized):
		writeJSONError(w, err.Error(), categoryUnauthorized, http.StatusUnauthorized)
	case errors.Is(err, services.ErrStore):
		logrus.WithError(err).WithField("path", r.URL.Path).Error("store unavailable")
		writeJSONError(w, "存储暂时不可用，请稍后重试", categoryUnavailable, http.StatusServiceUnavailable)
	default:
		logrus.WithError(err).WithField("path", r.URL.Path).Error("unexpected error")
		writeJSONError(w, "服务器内部错误", categoryInternal, http.StatusInternalServerError)
	}
}

// decodeAndValidate reads a JSON body into dst and checks its validate tags.
// It writes the 400 response itself and reports false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, "请求体无效: "+err.Error(), categoryValidation, http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			writeJSONError(w, "字段 "+fe.Field()+" 无效 ("+fe.Tag()+")", categoryValidation, http.StatusBadRequest)
			return false
		}
		writeJSONError(w, err.Error(), categoryValidation, http.StatusBadRequest)
		return false
	}
	return true
}

// currentSession returns the authenticated caller or writes a 401.
func currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", categoryUnauthorized, http.StatusUnauthorized)
	}
	return sess, ok
}

// pathID parses the named mux variable as a positive id or writes a 400.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		writeJSONError(w, "缺少路径参数 "+name, categoryValidation, http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		writeJSONError(w, "无效的 ID 格式: "+raw, categoryValidation, http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}
