package serialization

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// recordReader walks the fields of a protobuf encoded record.
type recordReader struct {
	data []byte
}

// next returns the number and type of the next field, and false once the
// record is exhausted.
func (r *recordReader) next() (protowire.Number, protowire.Type, bool, error) {
	if len(r.data) == 0 {
		return 0, 0, false, nil
	}
	number, typ, n := protowire.ConsumeTag(r.data)
	if n < 0 {
		return 0, 0, false, errors.WithStack(protowire.ParseError(n))
	}
	r.data = r.data[n:]
	return number, typ, true, nil
}

func (r *recordReader) bytes(typ protowire.Type) ([]byte, error) {
	if typ != protowire.BytesType {
		return nil, errors.Errorf("unexpected wire type %d for a bytes field", typ)
	}
	value, n := protowire.ConsumeBytes(r.data)
	if n < 0 {
		return nil, errors.WithStack(protowire.ParseError(n))
	}
	r.data = r.data[n:]
	return append([]byte(nil), value...), nil
}

func (r *recordReader) varint(typ protowire.Type) (uint64, error) {
	if typ != protowire.VarintType {
		return 0, errors.Errorf("unexpected wire type %d for a varint field", typ)
	}
	value, n := protowire.ConsumeVarint(r.data)
	if n < 0 {
		return 0, errors.WithStack(protowire.ParseError(n))
	}
	r.data = r.data[n:]
	return value, nil
}

func (r *recordReader) fixed64(typ protowire.Type) (uint64, error) {
	if typ != protowire.Fixed64Type {
		return 0, errors.Errorf("unexpected wire type %d for a fixed64 field", typ)
	}
	value, n := protowire.ConsumeFixed64(r.data)
	if n < 0 {
		return 0, errors.WithStack(protowire.ParseError(n))
	}
	r.data = r.data[n:]
	return value, nil
}

// skip discards the value of a field this version does not know.
func (r *recordReader) skip(number protowire.Number, typ protowire.Type) error {
	n := protowire.ConsumeFieldValue(number, typ, r.data)
	if n < 0 {
		return errors.WithStack(protowire.ParseError(n))
	}
	r.data = r.data[n:]
	return nil
}

func appendBytesField(b []byte, number protowire.Number, value []byte) []byte {
	b = protowire.AppendTag(b, number, protowire.BytesType)
	return protowire.AppendBytes(b, value)
}

func appendVarintField(b []byte, number protowire.Number, value uint64) []byte {
	b = protowire.AppendTag(b, number, protowire.VarintType)
	return protowire.AppendVarint(b, value)
}

func appendFixed64Field(b []byte, number protowire.Number, value uint64) []byte {
	b = protowire.AppendTag(b, number, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, value)
}
