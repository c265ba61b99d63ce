package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// DefaultTimeout 是抓取阶段的固定时限（整次请求，含读 body）。
const DefaultTimeout = 30 * time.Second

// StatusError 表示服务端返回了非 2xx 状态码。
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d（%s）", e.StatusCode, e.URL)
}

// TimeoutError 表示抓取超出了固定时限。
type TimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("抓取超时（%s，限时 %s）：%v", e.URL, e.Timeout, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// NewClient 构造用于图片下载的 HTTP client。
//
// 规则：
// - 单一总超时（默认 30s），覆盖连接、响应头与 body 读取
// - 不做重试：一次失败直接中止整条流水线（由调用方决定善后）
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// Fetch 执行一次 GET 并读取完整响应体。
//
// - 非 2xx：StatusError
// - 超时（连接/读取阶段均算）：TimeoutError
// - 其余网络错误原样返回
func Fetch(ctx context.Context, c *http.Client, u string) ([]byte, error) {
	if c == nil {
		return nil, errors.New("http client 不能为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{URL: u, Timeout: c.Timeout, Err: err}
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: u, StatusCode: resp.StatusCode}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{URL: u, Timeout: c.Timeout, Err: err}
		}
		return nil, err
	}
	if len(b) == 0 {
		return nil, errors.New("响应体为空")
	}
	return b, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
