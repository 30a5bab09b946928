package types

import (
	"encoding/binary"
	"io"
)

type IndexTable struct {
	Keys []KeyMeta // slice of key metadata
}

func (t *IndexTable) Encode(w io.Writer) error {
	for _, meta := range t.Keys {
		if err := binary.Write(w, binary.LittleEndian, meta); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads count entries from r. The count lives in the file
// header, not in the table itself.
func (t *IndexTable) Decode(r io.Reader, count uint32) error {
	t.Keys = make([]KeyMeta, count)
	for i := uint32(0); i < count; i++ {
		if err := binary.Read(r, binary.LittleEndian, &t.Keys[i]); err != nil {
			return err
		}
	}
	return nil
}
