package api

import (
	"encoding/xml"
	"errors"
	"net/http"

	"WaveRider/internal/service"

	"github.com/gin-gonic/gin"
)

// writeXML 按游戏客户端期待的 text/xml 输出响应体
func writeXML(c *gin.Context, code int, v interface{}) {
	out, err := xml.Marshal(v)
	if err != nil {
		c.String(http.StatusInternalServerError, "serialize error")
		return
	}
	c.Data(code, "text/xml; charset=utf-8", append([]byte(xml.Header), out...))
}

// failureResponse 游戏路由的统一失败响应
type failureResponse struct {
	XMLName xml.Name `xml:"RESULT"`
	Status  string   `xml:"status,attr"`
}

// writeGameError 把业务错误映射为 HTTP 状态码 + failed 状态的XML
func writeGameError(c *gin.Context, err error) {
	writeXML(c, statusForError(err), failureResponse{Status: "failed"})
}

// statusForError 业务错误哨兵 → HTTP 状态码
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
