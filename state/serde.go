package state

import (
	"encoding/json"
	"strconv"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

type Serde[T any] interface {
	Serialize(T) ([]byte, error)
	Deserialize([]byte) (T, error)
}

func JSONSerde[T any]() Serde[T] {
	return &jsonSerde[T]{}
}

type jsonSerde[T any] struct{}

var _ Serde[any] = &jsonSerde[any]{}

func (*jsonSerde[T]) Serialize(o T) ([]byte, error) {
	b, err := json.Marshal(o)
	return b, errors.Annotate(err, "json serialize")
}

func (*jsonSerde[T]) Deserialize(b []byte) (T, error) {
	var res T
	err := json.Unmarshal(b, &res)
	return res, errors.Annotate(err, "json deserialize")
}

// -------------------------------

func YAMLSerde[T any]() Serde[T] {
	return &yamlSerde[T]{}
}

type yamlSerde[T any] struct{}

var _ Serde[any] = &yamlSerde[any]{}

func (*yamlSerde[T]) Serialize(o T) ([]byte, error) {
	b, err := yaml.Marshal(o)
	return b, errors.Annotate(err, "yaml serialize")
}

func (*yamlSerde[T]) Deserialize(b []byte) (T, error) {
	var res T
	err := yaml.Unmarshal(b, &res)
	return res, errors.Annotate(err, "yaml deserialize")
}

// -------------------------------

var (
	IntSerde    Serde[int]    = intSerde{}
	StringSerde Serde[string] = stringSerde{}
)

type intSerde struct{}

func (intSerde) Serialize(i int) ([]byte, error) {
	return []byte(strconv.Itoa(i)), nil
}

func (intSerde) Deserialize(b []byte) (int, error) {
	i, err := strconv.Atoi(string(b))
	return i, errors.Annotatef(err, "int deserialize %q", b)
}

type stringSerde struct{}

func (stringSerde) Serialize(s string) ([]byte, error) {
	return []byte(s), nil
}

func (stringSerde) Deserialize(b []byte) (string, error) {
	return string(b), nil
}
