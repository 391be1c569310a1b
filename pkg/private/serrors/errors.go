// Copyright 2025 The upstreamkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package serrors provides errors that carry key/value context and an
// optional stack trace. The errors render nicely through zap and support the
// standard errors.Is and errors.As functions.
//
// Sentinel errors should be created with errors.New or New and then combined
// with call site context using Join or JoinNoStack:
//
//	var ErrNotFound = errors.New("not found")
//	...
//	return serrors.JoinNoStack(ErrNotFound, nil, "id", id)
package serrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxPair struct {
	Key   string
	Value any
}

// info is the part shared by wrapError and joinError.
type info struct {
	ctx   []ctxPair
	cause error
	stack *stack
}

func newInfo(cause error, withStack bool, errCtx []any) info {
	pairs := make([]ctxPair, 0, len(errCtx)/2)
	for i := 0; i+1 < len(errCtx); i += 2 {
		pairs = append(pairs, ctxPair{Key: fmt.Sprint(errCtx[i]), Value: errCtx[i+1]})
	}
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].Key < pairs[b].Key })

	i := info{ctx: pairs, cause: cause}
	// Only the innermost serrors error records a stack.
	if withStack && !hasStack(cause) {
		i.stack = callers()
	}
	return i
}

func hasStack(err error) bool {
	switch e := err.(type) {
	case nil:
		return false
	case interface{ StackTrace() StackTrace }:
		if e.StackTrace() != nil {
			return true
		}
	}
	switch e := err.(type) {
	case interface{ Unwrap() error }:
		return hasStack(e.Unwrap())
	case interface{ Unwrap() []error }:
		for _, c := range e.Unwrap() {
			if hasStack(c) {
				return true
			}
		}
	}
	return false
}

func (i info) suffix() string {
	var b strings.Builder
	if len(i.ctx) > 0 {
		b.WriteString(" {")
		for n, p := range i.ctx {
			if n > 0 {
				b.WriteString("; ")
			}
			fmt.Fprintf(&b, "%s=%v", p.Key, p.Value)
		}
		b.WriteString("}")
	}
	if i.cause != nil {
		fmt.Fprintf(&b, ": %s", i.cause)
	}
	return b.String()
}

func (i info) marshal(enc zapcore.ObjectEncoder) error {
	if i.cause != nil {
		if m, ok := i.cause.(zapcore.ObjectMarshaler); ok {
			if err := enc.AddObject("cause", m); err != nil {
				return err
			}
		} else {
			enc.AddString("cause", i.cause.Error())
		}
	}
	if i.stack != nil {
		if err := enc.AddArray("stacktrace", i.stack); err != nil {
			return err
		}
	}
	for _, p := range i.ctx {
		zap.Any(p.Key, p.Value).AddTo(enc)
	}
	return nil
}

// StackTrace returns the recorded stack trace, if any.
func (i info) StackTrace() StackTrace {
	if i.stack == nil {
		return nil
	}
	return i.stack.StackTrace()
}

type wrapError struct {
	info
	msg string
}

func (e *wrapError) Error() string {
	return e.msg + e.info.suffix()
}

func (e *wrapError) Unwrap() error {
	return e.cause
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (e *wrapError) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("msg", e.msg)
	return e.info.marshal(enc)
}

type joinError struct {
	info
	base error
}

func (e *joinError) Error() string {
	return e.base.Error() + e.info.suffix()
}

func (e *joinError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.base}
	}
	return []error{e.base, e.cause}
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (e *joinError) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("msg", e.base.Error())
	return e.info.marshal(enc)
}

// New creates an error with the given message and context and records a
// stack trace.
func New(msg string, errCtx ...any) error {
	return &wrapError{info: newInfo(nil, true, errCtx), msg: msg}
}

// Wrap returns an error with message msg that wraps cause. A stack trace is
// recorded unless cause already carries one.
func Wrap(msg string, cause error, errCtx ...any) error {
	return &wrapError{info: newInfo(cause, true, errCtx), msg: msg}
}

// WrapNoStack is like Wrap but never records a stack trace.
func WrapNoStack(msg string, cause error, errCtx ...any) error {
	return &wrapError{info: newInfo(cause, false, errCtx), msg: msg}
}

// Join returns an error for which errors.Is matches both err and cause.
// The message of err is used as the message of the returned error. Join
// returns nil if both err and cause are nil.
func Join(err, cause error, errCtx ...any) error {
	if err == nil && cause == nil {
		return nil
	}
	if err == nil {
		return Wrap("error", cause, errCtx...)
	}
	return &joinError{info: newInfo(cause, true, errCtx), base: err}
}

// JoinNoStack is like Join but never records a stack trace.
func JoinNoStack(err, cause error, errCtx ...any) error {
	if err == nil && cause == nil {
		return nil
	}
	if err == nil {
		return WrapNoStack("error", cause, errCtx...)
	}
	return &joinError{info: newInfo(cause, false, errCtx), base: err}
}

// IsTimeout returns whether err is or is caused by a timeout error.
func IsTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// List is a slice of errors.
type List []error

// Error implements the error interface.
func (e List) Error() string {
	s := make([]string, 0, len(e))
	for _, err := range e {
		s = append(s, err.Error())
	}
	return fmt.Sprintf("[ %s ]", strings.Join(s, "; "))
}

// ToError returns nil for an empty list and the list otherwise.
func (e List) ToError() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// MarshalLogArray implements zapcore.ArrayMarshaler.
func (e List) MarshalLogArray(ae zapcore.ArrayEncoder) error {
	for _, err := range e {
		if m, ok := err.(zapcore.ObjectMarshaler); ok {
			if err := ae.AppendObject(m); err != nil {
				return err
			}
			continue
		}
		ae.AppendString(err.Error())
	}
	return nil
}
