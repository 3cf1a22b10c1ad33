package cache

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec serializes cached values for the memory estimate and for the
// durable mirror. Values are never decoded: the mirror is write-only.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
}

// JSONCodec is the default codec.
type JSONCodec struct{}

func (JSONCodec) Name() string                  { return "json" }
func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// MsgpackCodec produces smaller payloads for numeric-heavy analytics.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string                  { return "msgpack" }
func (MsgpackCodec) Marshal(v any) ([]byte, error) { return msgpack.Marshal(v) }

// CodecByName resolves a codec from configuration. Empty means json.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown cache codec %q", name)
	}
}
