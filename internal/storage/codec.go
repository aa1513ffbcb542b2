package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/julianstephens/habits/internal/models"
)

// Codec encodes values into blobs.
type Codec interface {
	Name() string
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

// JSONCodec is the default codec. Its output matches the documented blob format.
type JSONCodec struct{}

func (JSONCodec) Name() string { return CodecJSON }

func (JSONCodec) Marshal(v interface{}) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

// MsgpackCodec produces compact binary blobs. It reuses the json struct tags
// so both codecs agree on field names.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return CodecMsgpack }

func (MsgpackCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (MsgpackCodec) Unmarshal(data []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// CodecByName returns the codec registered under name. An empty name means JSON.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return JSONCodec{}, nil
	case CodecMsgpack:
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q (expected %s or %s)", name, CodecJSON, CodecMsgpack)
	}
}

// EncodeHabits encodes a habit collection. A nil slice encodes as an empty list.
func EncodeHabits(c Codec, habits []models.Habit) ([]byte, error) {
	if habits == nil {
		habits = []models.Habit{}
	}
	return c.Marshal(habits)
}

// DecodeHabits decodes a blob written by the named codec.
func DecodeHabits(codecName string, data []byte) ([]models.Habit, error) {
	c, err := CodecByName(codecName)
	if err != nil {
		return nil, err
	}
	var habits []models.Habit
	if err := c.Unmarshal(data, &habits); err != nil {
		return nil, err
	}
	for i := range habits {
		if habits[i].CompletedDates == nil {
			habits[i].CompletedDates = models.DaySet{}
		}
	}
	return habits, nil
}

func EncodeProfile(c Codec, profile models.UserProfile) ([]byte, error) {
	return c.Marshal(profile)
}

func DecodeProfile(codecName string, data []byte) (models.UserProfile, error) {
	c, err := CodecByName(codecName)
	if err != nil {
		return models.UserProfile{}, err
	}
	var profile models.UserProfile
	if err := c.Unmarshal(data, &profile); err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}
