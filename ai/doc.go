// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides the embedding service abstraction used by docvault.
//
// The package defines the Embedder interface together with its configuration,
// following the dependency inversion principle: the ingestion pipeline and
// the search engine depend on the abstraction, never on a concrete provider.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Deterministic test doubles for unit testing without
//     external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewEmbedder) return the ai.Embedder INTERFACE
// to enforce abstraction and prevent accidental coupling to a concrete
// provider. Test utility constructors (mock.NewEmbedder) return CONCRETE
// types to enable assertions and behavior injection.
//
// # Truncation Contract
//
// Every implementation head-truncates input to Config.MaxInputChars before
// the remote call. Truncation is deterministic and happens client-side; the
// provider never sees more than the configured limit. Retrying failed calls
// is deliberately left to the caller.
//
// # Usage Example
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("https://api.siliconflow.cn/v1"),
//	    ai.WithModel("BAAI/bge-large-zh-v1.5"),
//	    ai.WithAPIKey(os.Getenv("SILICONFLOW_API_KEY")),
//	)
//	embedder, err := openai.NewEmbedder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vector, err := embedder.EmbedText(ctx, "Hello world")
package ai
