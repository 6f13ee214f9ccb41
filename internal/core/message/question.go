package message

import (
	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/rr"
	"github.com/bdijkstra82/dnsjava/internal/core/wire"
)

// Question is a single entry in the QUESTION section.
type Question struct {
	Name  name.Name
	Type  rr.Type
	Class rr.Class
}

func decodeQuestion(buf *wire.Buffer) (Question, error) {
	n, err := name.DecodeWire(buf)
	if err != nil {
		return Question{}, err
	}
	typ, err := buf.ReadUint16()
	if err != nil {
		return Question{}, err
	}
	class, err := buf.ReadUint16()
	if err != nil {
		return Question{}, err
	}
	return Question{Name: n, Type: rr.Type(typ), Class: rr.Class(class)}, nil
}

func (q Question) encode(buf *wire.Buffer, tbl name.CompressionTable) error {
	if err := q.Name.EncodeWire(buf, tbl); err != nil {
		return err
	}
	if err := buf.WriteUint16(uint16(q.Type)); err != nil {
		return err
	}
	return buf.WriteUint16(uint16(q.Class))
}
