package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// Kind classifies an upstream generation failure. Each kind maps to one
// fixed player-safe message; upstream diagnostic detail is never
// forwarded to the player.
type Kind string

const (
	KindUnavailable       Kind = "unavailable"        // upstream 5xx
	KindAuth              Kind = "auth"               // upstream rejected credentials
	KindRateLimited       Kind = "rate_limited"       // upstream 429
	KindTimeout           Kind = "timeout"            // generation ceiling exceeded
	KindStreamInterrupted Kind = "stream_interrupted" // connection dropped mid-stream
	KindOther             Kind = "other"
)

var safeMessages = map[Kind]string{
	KindUnavailable:       "AI服务暂时不可用，请稍后重试",
	KindAuth:              "AI服务认证失败，请联系管理员",
	KindRateLimited:       "AI服务请求过于频繁，请稍后重试",
	KindTimeout:           "AI服务响应超时，请重试",
	KindStreamInterrupted: "AI服务连接中断，请重试",
	KindOther:             "处理请求时发生错误，请重试",
}

// UpstreamError wraps a generation-service failure with its classified
// kind. Error() carries the diagnostic detail for logs; SafeMessage()
// is the only text a player may see.
type UpstreamError struct {
	Kind Kind
	Err  error
}

func (e *UpstreamError) Error() string {
	return "generation service: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// SafeMessage returns the fixed player-facing message for this failure
// class.
func (e *UpstreamError) SafeMessage() string {
	return safeMessages[e.Kind]
}

// WrapError classifies err as an UpstreamError. midStream tells a bare
// connection drop apart from a call that never got through.
func WrapError(err error, midStream bool) *UpstreamError {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue
	}
	return &UpstreamError{Kind: classifyErr(err, midStream), Err: err}
}

func classifyErr(err error, midStream bool) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return kindForStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return kindForStatus(reqErr.HTTPStatusCode)
	}

	if midStream {
		return KindStreamInterrupted
	}
	return KindOther
}

func kindForStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindRateLimited
	case status >= 500:
		return KindUnavailable
	default:
		return KindOther
	}
}
