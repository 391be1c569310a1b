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

import "time"

const idSample = "upstreamd-1"

// DefaultExportInterval is the default interval of the pool state export.
const DefaultExportInterval = 10 * time.Second

const upstreamdSample = `
# Interval at which the state of the pools is exported as metrics.
# (default 10s)
export_interval = "10s"
`

const groupsSample = `
# Per type overrides of the pool configuration. Every key of the [pool]
# table can be set. Unset keys keep the value of the [pool] table.
#
# [groups.http]
# ttl = "30s"
# decay = 0.5
`
