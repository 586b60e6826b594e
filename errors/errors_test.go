package errors

import (
	"errors"
	"fmt"
	"testing"
)

// TestCodeAndWrap 验证 Wrap/Code/errors.Is 的基础行为。
func TestCodeAndWrap(t *testing.T) {
	base := errors.New("x")
	e := Wrap(CodeBackend, "dial failed", base)
	if Code(e) != CodeBackend {
		t.Fatalf("code=%d", Code(e))
	}
	if !errors.Is(e, base) {
		t.Fatalf("unwrap failed")
	}
	if !Is(fmt.Errorf("outer: %w", e), CodeBackend) {
		t.Fatalf("expected code through wrapping")
	}
}

// TestWithMessageAndCodeFallback 验证 WithMessage 及默认错误码回退。
func TestWithMessageAndCodeFallback(t *testing.T) {
	base := errors.New("x")
	w := WithMessage(base, "ctx")
	if w == nil {
		t.Fatalf("expected error")
	}
	if Code(base) != CodeInternal {
		t.Fatalf("expected default code")
	}
	if Code(nil) != 0 {
		t.Fatalf("expected code 0 for nil")
	}
	if Is(nil, CodeInternal) {
		t.Fatalf("nil must not match any code")
	}
	if WithMessage(nil, "ctx") != nil {
		t.Fatalf("expected nil passthrough")
	}
}

// TestNewAndWithMessageOnCodeError 验证 CodeError 的 New/WithMessage/Wrap 组合行为。
func TestNewAndWithMessageOnCodeError(t *testing.T) {
	ce := New(CodeBadRequest, "bad")
	if Code(ce) != CodeBadRequest {
		t.Fatalf("code=%d", Code(ce))
	}
	if ce.Error() != "502 bad" {
		t.Fatalf("unexpected message: %q", ce.Error())
	}
	if ce.Unwrap() != nil {
		t.Fatalf("expected nil unwrap")
	}
	w := WithMessage(ce, "ctx")
	if Code(w) != CodeBadRequest {
		t.Fatalf("code=%d", Code(w))
	}
	w2 := Wrap(CodeConfig, "ctx", nil)
	if Code(w2) != CodeConfig {
		t.Fatalf("code=%d", Code(w2))
	}
	var nilErr *CodeError
	if nilErr.Error() != "" {
		t.Fatalf("nil CodeError must render empty")
	}
}
