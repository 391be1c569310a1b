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


package config

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// CtxMap holds the values samplers substitute into their output, for example
// the service ID under the key ID.
type CtxMap map[string]string

// WriteSample renders the samplers to dst in order. A TableSampler is rendered
// below its own [path.name] header and its body is indented by four spaces.
// It panics if writing fails.
func WriteSample(dst io.Writer, path Path, ctx CtxMap, samplers ...Sampler) {
	w := sampleWriter{dst: dst}
	for _, s := range samplers {
		var body bytes.Buffer
		ts, ok := s.(TableSampler)
		if !ok {
			s.Sample(&body, path, ctx)
			w.write(body.Bytes())
			continue
		}
		table := path.Extend(ts.ConfigName())
		ts.Sample(&body, table, ctx)
		w.header(table)
		w.indented(body.Bytes())
	}
}

// WriteString writes s to dst. It panics if writing fails.
func WriteString(dst io.Writer, s string) {
	sampleWriter{dst: dst}.write([]byte(s))
}

type sampleWriter struct {
	dst io.Writer
}

func (w sampleWriter) write(b []byte) {
	if _, err := w.dst.Write(b); err != nil {
		panic(fmt.Sprintf("writing sample: %s", err))
	}
}

func (w sampleWriter) header(table Path) {
	w.write([]byte("\n[" + strings.Join(table, ".") + "]"))
}

// indented writes body line by line. Empty lines stay empty so that the
// rendered file has no trailing whitespace.
func (w sampleWriter) indented(body []byte) {
	var out bytes.Buffer
	for line := range bytes.Lines(body) {
		line = bytes.TrimRight(line, "\r\n")
		if len(line) > 0 {
			out.WriteString("    ")
			out.Write(line)
		}
		out.WriteByte('\n')
	}
	w.write(out.Bytes())
}
