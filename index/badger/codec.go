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

package badger

import (
	"sort"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/docvault/core"
)

// vectorRecordSer is the MUS serializer for vector records. Metadata keys
// are written in sorted order so identical records always produce identical
// bytes.
type vectorRecordSer struct{}

var vectorRecordMUS = vectorRecordSer{}

func (vectorRecordSer) Size(r core.VectorRecord) int {
	size := ord.String.Size(r.ID)
	size += varint.Int.Size(len(r.Vector))
	for _, v := range r.Vector {
		size += varint.Float32.Size(v)
	}
	size += varint.Int.Size(len(r.Metadata))
	for k, v := range r.Metadata {
		size += ord.String.Size(k)
		size += ord.String.Size(v)
	}
	return size
}

func (vectorRecordSer) Marshal(r core.VectorRecord, bs []byte) int {
	n := ord.String.Marshal(r.ID, bs)
	n += varint.Int.Marshal(len(r.Vector), bs[n:])
	for _, v := range r.Vector {
		n += varint.Float32.Marshal(v, bs[n:])
	}
	n += varint.Int.Marshal(len(r.Metadata), bs[n:])
	keys := make([]string, 0, len(r.Metadata))
	for k := range r.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(r.Metadata[k], bs[n:])
	}
	return n
}

func (vectorRecordSer) Unmarshal(bs []byte) (r core.VectorRecord, n int, err error) {
	var cnt int

	r.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}

	var vectorLen int
	vectorLen, cnt, err = varint.Int.Unmarshal(bs[n:])
	n += cnt
	if err != nil {
		return
	}
	if vectorLen > 0 {
		r.Vector = make([]float32, vectorLen)
		for i := 0; i < vectorLen; i++ {
			r.Vector[i], cnt, err = varint.Float32.Unmarshal(bs[n:])
			n += cnt
			if err != nil {
				return
			}
		}
	}

	var metaLen int
	metaLen, cnt, err = varint.Int.Unmarshal(bs[n:])
	n += cnt
	if err != nil {
		return
	}
	if metaLen > 0 {
		r.Metadata = make(map[string]string, metaLen)
		for i := 0; i < metaLen; i++ {
			var k, v string
			k, cnt, err = ord.String.Unmarshal(bs[n:])
			n += cnt
			if err != nil {
				return
			}
			v, cnt, err = ord.String.Unmarshal(bs[n:])
			n += cnt
			if err != nil {
				return
			}
			r.Metadata[k] = v
		}
	}
	return
}

// marshalVectorRecord serializes a record to bytes.
func marshalVectorRecord(r core.VectorRecord) []byte {
	buf := make([]byte, vectorRecordMUS.Size(r))
	vectorRecordMUS.Marshal(r, buf)
	return buf
}

// unmarshalVectorRecord deserializes a record from bytes.
func unmarshalVectorRecord(data []byte) (core.VectorRecord, error) {
	r, _, err := vectorRecordMUS.Unmarshal(data)
	return r, err
}
