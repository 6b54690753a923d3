package server

import (
	nethttp "net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-kratos/kratos/v2/encoding"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/middleware/selector"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iWorld-y/stress_detector/app/wellness/internal/auth"
	"github.com/iWorld-y/stress_detector/app/wellness/internal/conf"
	"github.com/iWorld-y/stress_detector/app/wellness/internal/service"
)

// 5xx 错误附带的提示
const retryDetails = "Please try again later"

var allowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// ErrorReply 所有错误响应的结构
type ErrorReply struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func NewHTTPServer(c *conf.Server, s *service.WellnessService, v auth.Verifier, reg *prometheus.Registry, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			selector.Server(auth.Server(v)).Match(service.RequiresAuth).Build(),
		),
		http.Filter(
			cors.Handler(cors.Options{
				AllowedOrigins:     []string{"*"},
				AllowedMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:     allowedHeaders,
				OptionsPassthrough: true,
			}),
			preflight,
		),
		http.RequestDecoder(RequestDecoder),
		http.ErrorEncoder(ErrorEncoder),
	}
	if c != nil && c.Http != nil {
		if c.Http.Addr != "" {
			opts = append(opts, http.Address(c.Http.Addr))
		}
		if c.Http.Timeout != "" {
			if d, err := time.ParseDuration(c.Http.Timeout); err == nil {
				opts = append(opts, http.Timeout(d))
			} else {
				log.NewHelper(logger).Warnf("invalid http timeout %q: %v", c.Http.Timeout, err)
			}
		}
	}

	srv := http.NewServer(opts...)
	service.RegisterWellnessHTTPServer(srv, s)
	srv.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return srv
}

// RequestDecoder 未声明 Content-Type 的请求体按 JSON 解析
func RequestDecoder(r *nethttp.Request, v any) error {
	if r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", "application/json")
	}
	return http.DefaultRequestDecoder(r, v)
}

// ErrorEncoder 将错误渲染为 {error[, details]}，状态码取 kratos 错误码
func ErrorEncoder(w nethttp.ResponseWriter, r *nethttp.Request, err error) {
	se := errors.FromError(err)
	reply := ErrorReply{Error: se.Message}
	if se.Code >= nethttp.StatusInternalServerError {
		reply.Details = retryDetails
	}

	body, err := encoding.GetCodec("json").Marshal(&reply)
	if err != nil {
		w.WriteHeader(nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(int(se.Code))
	_, _ = w.Write(body)
}

// preflight 任何 OPTIONS 请求都直接返回 200 和 CORS 头，不带响应体；
// cors 拒绝的预检（未知方法或请求头）同样补齐头部
func preflight(next nethttp.Handler) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		h := w.Header()
		if h.Get("Access-Control-Allow-Origin") == "" {
			h.Set("Access-Control-Allow-Origin", "*")
		}
		if h.Get("Access-Control-Allow-Headers") == "" {
			h.Set("Access-Control-Allow-Headers", strings.Join(allowedHeaders, ", "))
		}
		w.WriteHeader(nethttp.StatusOK)
	})
}
