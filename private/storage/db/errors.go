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

package db

import (
	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
)

var (
	// ErrInvalidInputData indicates that invalid data was passed to the DB.
	ErrInvalidInputData = serrors.New("db: input data invalid")
	// ErrDataInvalid indicates that invalid data is stored in the DB.
	ErrDataInvalid = serrors.New("db: db data invalid")
	// ErrReadFailed indicates that reading from the DB failed.
	ErrReadFailed = serrors.New("db: read failed")
	// ErrWriteFailed indicates that writing to the DB failed.
	ErrWriteFailed = serrors.New("db: write failed")
	// ErrNotFound indicates that the requested row does not exist.
	ErrNotFound = serrors.New("db: not found")
)

func newError(base error, msg string, err error, logCtx []any) error {
	return serrors.JoinNoStack(base, err, append([]any{"detailMsg", msg}, logCtx...)...)
}

func NewInputDataError(msg string, err error, logCtx ...any) error {
	return newError(ErrInvalidInputData, msg, err, logCtx)
}

func NewDataError(msg string, err error, logCtx ...any) error {
	return newError(ErrDataInvalid, msg, err, logCtx)
}

func NewReadError(msg string, err error, logCtx ...any) error {
	return newError(ErrReadFailed, msg, err, logCtx)
}

func NewWriteError(msg string, err error, logCtx ...any) error {
	return newError(ErrWriteFailed, msg, err, logCtx)
}

func NewNotFoundError(msg string, logCtx ...any) error {
	return newError(ErrNotFound, msg, nil, logCtx)
}
