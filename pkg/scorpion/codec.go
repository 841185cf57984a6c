// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scorpion

import "strconv"

// EncodeSet builds a "Key=Value" parameter command.
func EncodeSet(key string, value int) string {
	return key + "=" + strconv.Itoa(value)
}

// EncodePosition validates a position (0-255) and builds its set command.
func EncodePosition(key string, position int) (string, error) {
	if err := checkRange(key, position, MinPosition, MaxPosition); err != nil {
		return "", err
	}
	return EncodeSet(key, position), nil
}

// EncodePlateHeight validates a plate height (1-255) and builds its set
// command.
func EncodePlateHeight(key string, height int) (string, error) {
	if err := checkRange(key, height, MinPlateHeight, MaxPlateHeight); err != nil {
		return "", err
	}
	return EncodeSet(key, height), nil
}

func checkRange(param string, value, lo, hi int) error {
	if value < lo || value > hi {
		return &ValidationError{Param: param, Value: value, Min: lo, Max: hi}
	}
	return nil
}

// DecodeInt parses a non-negative decimal reply value. request and the
// response's raw line are carried in the error on failure.
func DecodeInt(request string, r Response) (int, error) {
	n, err := strconv.Atoi(r.Value)
	if err != nil || n < 0 {
		return 0, &UnexpectedResponseError{Request: request, Response: r.Raw}
	}
	return n, nil
}

// enum is a closed set of integer codes.
type enum interface {
	~int
	Valid() bool
}

// decodeEnum parses an integer reply that must belong to E's value set.
func decodeEnum[E enum](request string, r Response) (E, error) {
	n, err := strconv.Atoi(r.Value)
	if err != nil {
		return 0, &UnexpectedResponseError{Request: request, Response: r.Raw}
	}
	v := E(n)
	if !v.Valid() {
		return 0, &UnexpectedResponseError{Request: request, Response: r.Raw}
	}
	return v, nil
}

// DecodeStatus parses a status reply.
func DecodeStatus(request string, r Response) (StatusCode, error) {
	return decodeEnum[StatusCode](request, r)
}

// DecodeErrorCode parses an error code reply.
func DecodeErrorCode(request string, r Response) (ErrorCode, error) {
	return decodeEnum[ErrorCode](request, r)
}

// DecodeSpeed parses an arm speed reply.
func DecodeSpeed(request string, r Response) (Speed, error) {
	return decodeEnum[Speed](request, r)
}

// DecodeMode parses a mode reply.
func DecodeMode(request string, r Response) (Mode, error) {
	return decodeEnum[Mode](request, r)
}
