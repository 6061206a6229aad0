package serialization

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
)

// errNoEncodingForType signifies that there's no encoding for the given type.
var errNoEncodingForType = errors.New("there's no encoding for this type")

var littleEndian = binary.LittleEndian

// WriteElement writes the little-endian representation of element to w.
func WriteElement(w io.Writer, element interface{}) error {
	var scratch [8]byte
	switch e := element.(type) {
	case uint8:
		scratch[0] = e
		return write(w, scratch[:1])
	case bool:
		if e {
			scratch[0] = 1
		}
		return write(w, scratch[:1])
	case int16:
		littleEndian.PutUint16(scratch[:2], uint16(e))
		return write(w, scratch[:2])
	case int32:
		littleEndian.PutUint32(scratch[:4], uint32(e))
		return write(w, scratch[:4])
	case uint32:
		littleEndian.PutUint32(scratch[:4], e)
		return write(w, scratch[:4])
	case int64:
		littleEndian.PutUint64(scratch[:8], uint64(e))
		return write(w, scratch[:8])
	case uint64:
		littleEndian.PutUint64(scratch[:8], e)
		return write(w, scratch[:8])
	case externalapi.BlockID:
		littleEndian.PutUint64(scratch[:8], uint64(e))
		return write(w, scratch[:8])
	case externalapi.AccountID:
		littleEndian.PutUint64(scratch[:8], uint64(e))
		return write(w, scratch[:8])
	case externalapi.WorkID:
		littleEndian.PutUint64(scratch[:8], uint64(e))
		return write(w, scratch[:8])
	case externalapi.DomainHash:
		return write(w, e[:])
	case externalapi.PublicKey:
		return write(w, e[:])
	case externalapi.Signature:
		return write(w, e[:])
	}
	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to write type %T", element)
}

// WriteElements writes multiple elements to w. It is equivalent to
// multiple calls to WriteElement.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := WriteElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadElement reads the little-endian representation of the element
// pointed to by element from r.
func ReadElement(r io.Reader, element interface{}) error {
	var scratch [8]byte
	switch e := element.(type) {
	case *uint8:
		if err := read(r, scratch[:1]); err != nil {
			return err
		}
		*e = scratch[0]
		return nil
	case *bool:
		if err := read(r, scratch[:1]); err != nil {
			return err
		}
		*e = scratch[0] != 0
		return nil
	case *int16:
		if err := read(r, scratch[:2]); err != nil {
			return err
		}
		*e = int16(littleEndian.Uint16(scratch[:2]))
		return nil
	case *int32:
		if err := read(r, scratch[:4]); err != nil {
			return err
		}
		*e = int32(littleEndian.Uint32(scratch[:4]))
		return nil
	case *uint32:
		if err := read(r, scratch[:4]); err != nil {
			return err
		}
		*e = littleEndian.Uint32(scratch[:4])
		return nil
	case *int64:
		if err := read(r, scratch[:8]); err != nil {
			return err
		}
		*e = int64(littleEndian.Uint64(scratch[:8]))
		return nil
	case *uint64:
		if err := read(r, scratch[:8]); err != nil {
			return err
		}
		*e = littleEndian.Uint64(scratch[:8])
		return nil
	case *externalapi.BlockID:
		if err := read(r, scratch[:8]); err != nil {
			return err
		}
		*e = externalapi.BlockID(littleEndian.Uint64(scratch[:8]))
		return nil
	case *externalapi.AccountID:
		if err := read(r, scratch[:8]); err != nil {
			return err
		}
		*e = externalapi.AccountID(littleEndian.Uint64(scratch[:8]))
		return nil
	case *externalapi.WorkID:
		if err := read(r, scratch[:8]); err != nil {
			return err
		}
		*e = externalapi.WorkID(littleEndian.Uint64(scratch[:8]))
		return nil
	case *externalapi.DomainHash:
		return read(r, e[:])
	case *externalapi.PublicKey:
		return read(r, e[:])
	case *externalapi.Signature:
		return read(r, e[:])
	}
	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to read type %T", element)
}

// ReadElements reads multiple elements from r. It is equivalent to
// multiple calls to ReadElement.
func ReadElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		err := ReadElement(r, element)
		if err != nil {
			return err
		}
	}
	return nil
}

func write(w io.Writer, data []byte) error {
	_, err := w.Write(data)
	return errors.WithStack(err)
}

func read(r io.Reader, data []byte) error {
	_, err := io.ReadFull(r, data)
	return errors.WithStack(err)
}
