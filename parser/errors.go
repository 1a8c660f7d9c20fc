// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import "errors"

var (
	// ErrNoBackendAvailable indicates no probed backend supports the file type.
	ErrNoBackendAvailable = errors.New("no parser backend available for file type")

	// ErrAllBackendsFailed indicates every candidate backend was tried and failed.
	ErrAllBackendsFailed = errors.New("all parser backends failed")

	// ErrNoContent indicates a backend ran successfully but extracted nothing.
	ErrNoContent = errors.New("no content extracted")
)
