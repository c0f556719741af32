package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

func Strings(key string, values []string) Field {
	out := make([]string, len(values))
	copy(out, values)
	return Field{Key: key, Value: out}
}

func Component(name string) Field {
	return String("component", name)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}

// Domain fields

func ModelID(id string) Field {
	return String("model", id)
}

func Variant(name string) Field {
	return String("variant", name)
}

func DetectorElement(id string) Field {
	return String("detector_element", id)
}

func RefinementElement(id string) Field {
	return String("refinement_element", id)
}

func TopologyElement(id string) Field {
	return String("topology_element", id)
}

func Reason(reason string) Field {
	return String("reason", reason)
}

func Iteration(n int) Field {
	return Int("iteration", n)
}

func Backend(name string) Field {
	return String("backend", name)
}
