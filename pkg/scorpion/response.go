// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scorpion

import (
	"fmt"
	"strings"
)

// ResponseKind classifies a reply line.
type ResponseKind int

const (
	ResponseSuccess ResponseKind = iota
	ResponseDeviceError
	ResponseValue
	ResponseUnexpected
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseSuccess:
		return "SUCCESS"
	case ResponseDeviceError:
		return "DEVICE_ERROR"
	case ResponseValue:
		return "VALUE"
	default:
		return "UNEXPECTED"
	}
}

// Response is a classified reply line.
type Response struct {
	Kind  ResponseKind
	Raw   string // the line as received
	Value string // Raw without the expected prefix, for ResponseValue
}

// Classify interprets line as a reply to a request whose value replies start
// with prefix. An empty prefix accepts any non-sentinel line as a value.
func Classify(line, prefix string) Response {
	switch {
	case line == SuccessResult:
		return Response{Kind: ResponseSuccess, Raw: line}
	case line == ErrorResult:
		return Response{Kind: ResponseDeviceError, Raw: line}
	case prefix != "" && !strings.HasPrefix(line, prefix):
		return Response{Kind: ResponseUnexpected, Raw: line}
	default:
		return Response{Kind: ResponseValue, Raw: line, Value: strings.TrimPrefix(line, prefix)}
	}
}

// expect returns nil if r is of kind want, ErrRequest for the error
// sentinel, and an UnexpectedResponseError otherwise.
func (r Response) expect(request string, want ResponseKind) error {
	switch {
	case r.Kind == ResponseDeviceError:
		return fmt.Errorf("%s: %w", request, ErrRequest)
	case r.Kind == want:
		return nil
	default:
		return &UnexpectedResponseError{Request: request, Response: r.Raw}
	}
}
