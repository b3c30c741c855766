package config

import (
	"fmt"
	"strconv"

	"github.com/jackrun/bdicore/schema"
	"github.com/jackrun/bdicore/tactic"
)

// kindNames maps the YAML field-kind spelling onto schema.Kind, since
// schema.Kind carries no String()/parse pair of its own (it is only ever
// compared, never serialized, by the rest of the module).
var kindNames = map[string]schema.Kind{
	"bool":    schema.KindBool,
	"int8":    schema.KindInt8,
	"int16":   schema.KindInt16,
	"int32":   schema.KindInt32,
	"int64":   schema.KindInt64,
	"uint8":   schema.KindUint8,
	"uint16":  schema.KindUint16,
	"uint32":  schema.KindUint32,
	"uint64":  schema.KindUint64,
	"float32": schema.KindFloat32,
	"float64": schema.KindFloat64,
	"vec2":    schema.KindVec2,
	"string":  schema.KindString,
	"vector":  schema.KindVector,
	"message": schema.KindMessage,
}

func parseKind(name string) (schema.Kind, error) {
	k, ok := kindNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown field kind %q", name)
	}
	return k, nil
}

func parsePlanOrder(name string) (tactic.PlanOrder, error) {
	switch name {
	case "", "chooseBestPlan":
		return tactic.ChooseBestPlan, nil
	case "excludePlanAfterAttempt":
		return tactic.ExcludePlanAfterAttempt, nil
	case "strict":
		return tactic.Strict, nil
	default:
		return 0, fmt.Errorf("unknown planOrder %q", name)
	}
}

// valueFromAny converts a YAML-decoded scalar into a schema.Value of the
// declared kind, accepting the handful of concrete Go types yaml.v3 produces
// for scalars (bool, int, float64, string).
func valueFromAny(kind schema.Kind, raw any) (schema.Value, error) {
	switch kind {
	case schema.KindBool:
		b, ok := raw.(bool)
		if !ok {
			return schema.Value{}, fmt.Errorf("expected bool, got %T", raw)
		}
		return schema.BoolValue(b), nil
	case schema.KindInt8, schema.KindInt16, schema.KindInt32, schema.KindInt64:
		i, err := toInt64(raw)
		if err != nil {
			return schema.Value{}, err
		}
		return schema.IntValue(kind, i), nil
	case schema.KindUint8, schema.KindUint16, schema.KindUint32, schema.KindUint64:
		i, err := toInt64(raw)
		if err != nil {
			return schema.Value{}, err
		}
		return schema.UintValue(kind, uint64(i)), nil
	case schema.KindFloat32:
		f, err := toFloat64(raw)
		if err != nil {
			return schema.Value{}, err
		}
		return schema.Float32Value(float32(f)), nil
	case schema.KindFloat64:
		f, err := toFloat64(raw)
		if err != nil {
			return schema.Value{}, err
		}
		return schema.Float64Value(f), nil
	case schema.KindString:
		s, ok := raw.(string)
		if !ok {
			return schema.Value{}, fmt.Errorf("expected string, got %T", raw)
		}
		return schema.StringValue(s), nil
	default:
		return schema.Value{}, fmt.Errorf("unsupported field kind %d in config params", kind)
	}
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("expected integer, got %T", raw)
	}
}

func toFloat64(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("expected number, got %T", raw)
	}
}
