package crontab

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/unicode/norm"
)

// IDLength is the number of hex characters in a job identifier.
const IDLength = 16

type canonicalJob struct {
	Name     string         `json:"name"`
	Schedule string         `json:"schedule"`
	Args     []any          `json:"args"`
	Kwargs   map[string]any `json:"kwargs"`
}

// canonicalize serializes the identity-bearing parts of a job. Map keys are
// sorted by encoding/json and strings are NFC-normalized, so neither kwargs
// order nor Unicode composition affects the result.
func canonicalize(j *Job) ([]byte, error) {
	args, err := normalizeSlice(j.args)
	if err != nil {
		return nil, errors.Wrapf(err, "job %s", j.name)
	}
	kwargs, err := normalizeMap(j.kwargs)
	if err != nil {
		return nil, errors.Wrapf(err, "job %s", j.name)
	}

	c := canonicalJob{
		Name:     norm.NFC.String(j.name),
		Schedule: j.schedule.String(),
		Args:     args,
		Kwargs:   kwargs,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "job %s has arguments that cannot be serialized", j.name), ErrConfiguration)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// identify computes the job identifier from its canonical serialization.
func identify(j *Job) (id string, canonical []byte, err error) {
	canonical, err = canonicalize(j)
	if err != nil {
		return "", nil, err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])[:IDLength], canonical, nil
}

func normalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return norm.NFC.String(t), nil
	case []any:
		return normalizeSlice(t)
	case map[string]any:
		return normalizeMap(t)
	case []string:
		out := make([]string, len(t))
		for i, s := range t {
			out[i] = norm.NFC.String(s)
		}
		return out, nil
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, s := range t {
			key := norm.NFC.String(k)
			if _, dup := out[key]; dup {
				return nil, duplicateKeyError(key)
			}
			out[key] = norm.NFC.String(s)
		}
		return out, nil
	default:
		return v, nil
	}
}

func normalizeSlice(in []any) ([]any, error) {
	out := make([]any, len(in))
	for i, v := range in {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, err
		}
		out[i] = nv
	}
	return out, nil
}

// normalizeMap rejects keys that only differ in Unicode composition: after
// normalization they would collapse into one and a value would be lost.
func normalizeMap(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for k, v := range in {
		key := norm.NFC.String(k)
		if _, dup := out[key]; dup {
			return nil, duplicateKeyError(key)
		}
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, err
		}
		out[key] = nv
	}
	return out, nil
}

func duplicateKeyError(key string) error {
	return configurationErrorf("keyword argument %q is given twice in different Unicode forms", key)
}
