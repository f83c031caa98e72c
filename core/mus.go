package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for entities persisted by the index. Written by hand in
// mus-go's manual style; field order is part of the storage format and must
// not change between releases.

var (
	// IDMUS serializes IDs.
	IDMUS = idMUS{}
	// DocumentMUS serializes Documents.
	DocumentMUS = documentMUS{}

	vectorMUS   = ord.NewSliceSer[float32](raw.Float32)
	metadataMUS = ord.NewMapSer[string, string](ord.String, ord.String)
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(d.Id), bs)
	n += ord.String.Marshal(d.Title, bs[n:])
	n += ord.String.Marshal(d.URL, bs[n:])
	n += ord.String.Marshal(d.Content, bs[n:])
	n += vectorMUS.Marshal(d.Vector, bs[n:])
	n += metadataMUS.Marshal(d.Metadata, bs[n:])
	// Timestamps stored as Unix microseconds
	n += varint.Int64.Marshal(d.InsertedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(d.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	id, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	d.Id = ID(id)

	var n1 int
	d.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.URL, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Metadata, n1, err = metadataMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.InsertedAt = time.UnixMicro(micros).UTC()

	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.UpdatedAt = time.UnixMicro(micros).UTC()
	return
}

func (documentMUS) Size(d Document) (size int) {
	size = varint.Uint64.Size(uint64(d.Id))
	size += ord.String.Size(d.Title)
	size += ord.String.Size(d.URL)
	size += ord.String.Size(d.Content)
	size += vectorMUS.Size(d.Vector)
	size += metadataMUS.Size(d.Metadata)
	size += varint.Int64.Size(d.InsertedAt.UnixMicro())
	size += varint.Int64.Size(d.UpdatedAt.UnixMicro())
	return size
}

func (m documentMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = m.Unmarshal(bs)
	return n, err
}
