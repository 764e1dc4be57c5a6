package jobs

import (
	"fmt"
	"slices"
	"time"

	"github.com/aatumaykin/cronsync/internal/crontab"
)

func stringKwarg(call crontab.Call, key, def string) (string, error) {
	v, ok := call.Kwarg(key)
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("kwarg %s must be a string, got %T", key, v)
	}
	return s, nil
}

func hoursKwarg(call crontab.Call, key string, def time.Duration) (time.Duration, error) {
	v, ok := call.Kwarg(key)
	if !ok {
		return def, nil
	}

	var hours float64
	switch n := v.(type) {
	case int:
		hours = float64(n)
	case int64:
		hours = float64(n)
	case float64:
		hours = n
	default:
		return 0, fmt.Errorf("kwarg %s must be a number, got %T", key, v)
	}
	if hours < 0 {
		return 0, fmt.Errorf("kwarg %s cannot be negative", key)
	}
	return time.Duration(hours * float64(time.Hour)), nil
}

func stringArg(call crontab.Call, i int, name string) (string, error) {
	v := call.Arg(i)
	if v == nil {
		return "", fmt.Errorf("missing argument %d (%s)", i, name)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("argument %d (%s) must be a non-empty string, got %T", i, name, v)
	}
	return s, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
