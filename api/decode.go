package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"

	"github.com/rpupo63/devfolio-backend/errs"
)

const maxBodyBytes int64 = 1 << 20

type rawFields map[string]json.RawMessage

// decodeBody reads a JSON object. An empty body is an empty object; anything
// other than a single object is malformed.
func decodeBody(w http.ResponseWriter, r *http.Request) (rawFields, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	var fields rawFields
	if err := dec.Decode(&fields); err != nil {
		if errors.Is(err, io.EOF) {
			return rawFields{}, nil
		}
		return nil, bodyError(err)
	}
	if fields == nil {
		return nil, errs.NewInvalidJSONError(errors.New("body is null"))
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("trailing data after object")
		}
		return nil, bodyError(err)
	}
	return fields, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errs.NewMaxBodySizeExceededError(tooLarge.Limit)
	}
	return errs.NewInvalidJSONError(err)
}

// lookup returns the raw value of name. A JSON null counts as a wrong type.
func (f rawFields) lookup(name string) (json.RawMessage, bool, error) {
	msg, ok := f[name]
	if !ok {
		return nil, false, nil
	}
	if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
		return nil, false, errs.NewInvalidTypeError(name)
	}
	return msg, true, nil
}

func (f rawFields) str(name string) (*string, error) {
	return decodeField[string](f, name)
}

func (f rawFields) boolean(name string) (*bool, error) {
	return decodeField[bool](f, name)
}

// integer accepts integral JSON numbers only, 3.0 included.
func (f rawFields) integer(name string) (*int, error) {
	n, err := decodeField[float64](f, name)
	if err != nil || n == nil {
		return nil, err
	}
	if *n != math.Trunc(*n) || math.Abs(*n) > math.MaxInt32 {
		return nil, errs.NewInvalidTypeError(name)
	}
	v := int(*n)
	return &v, nil
}

// stringList accepts an array whose every element is a string.
func (f rawFields) stringList(name string) (*[]string, error) {
	items, err := decodeField[[]*string](f, name)
	if err != nil || items == nil {
		return nil, err
	}
	out := make([]string, 0, len(*items))
	for _, item := range *items {
		if item == nil {
			return nil, errs.NewInvalidTypeError(name)
		}
		out = append(out, *item)
	}
	return &out, nil
}

func decodeField[T any](f rawFields, name string) (*T, error) {
	msg, ok, err := f.lookup(name)
	if err != nil || !ok {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(msg, &v); err != nil {
		return nil, errs.NewInvalidTypeError(name)
	}
	return &v, nil
}
