package marketo

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ToAttributes converts a flat lead into an attribute list sorted by name.
// Booleans are sent as "1" or "0" and declared as boolean.
func ToAttributes(lead Lead) []Attribute {
	names := make([]string, 0, len(lead))
	for name := range lead {
		names = append(names, name)
	}
	sort.Strings(names)

	attrs := make([]Attribute, 0, len(names))
	for _, name := range names {
		value, typ := encodeValue(lead[name])
		attrs = append(attrs, Attribute{Name: name, Type: typ, Value: value})
	}
	return attrs
}

func encodeValue(v interface{}) (string, string) {
	switch val := v.(type) {
	case nil:
		return "", ""
	case bool:
		if val {
			return "1", TypeBoolean
		}
		return "0", TypeBoolean
	case string:
		return val, ""
	case int:
		return strconv.FormatInt(int64(val), 10), ""
	case int32:
		return strconv.FormatInt(int64(val), 10), ""
	case int64:
		return strconv.FormatInt(val, 10), ""
	case uint:
		return strconv.FormatUint(uint64(val), 10), ""
	case uint32:
		return strconv.FormatUint(uint64(val), 10), ""
	case uint64:
		return strconv.FormatUint(val, 10), ""
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), ""
	default:
		return fmt.Sprint(val), ""
	}
}

// FlattenAttributes converts an attribute list into a flat lead, coercing each
// value to its declared type. Later duplicates overwrite earlier ones.
// Undeclared or unknown types stay strings.
func FlattenAttributes(attrs []Attribute) (Lead, error) {
	lead := make(Lead, len(attrs))
	for _, attr := range attrs {
		value, err := coerce(attr)
		if err != nil {
			return nil, err
		}
		lead[attr.Name] = value
	}
	return lead, nil
}

func coerce(attr Attribute) (interface{}, error) {
	typ := strings.ToLower(attr.Type)
	raw := attr.Value

	switch typ {
	case TypeInteger, TypeFloat, TypeBoolean:
		// the API sends empty values for unset typed fields
		if strings.TrimSpace(raw) == "" {
			return nil, nil
		}
	}

	switch typ {
	case TypeInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: invalid integer %q: %w", attr.Name, raw, err)
		}
		return n, nil
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: invalid float %q: %w", attr.Name, raw, err)
		}
		return f, nil
	case TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("attribute %s: invalid boolean %q: %w", attr.Name, raw, err)
		}
		return b, nil
	default:
		return raw, nil
	}
}

// parseNumeric reports whether s, ignoring surrounding space, is all digits
// and returns its value. Signs make s non-numeric. Digits that overflow an
// int64 are an error rather than a name or email.
func parseNumeric(s string) (int64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false, nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("numeric key %q out of range: %w", s, err)
	}
	return n, true, nil
}

// normalizeKeyType upper-cases a key type, e.g. "email" to EMAIL
func normalizeKeyType(keyType string) LeadKeyType {
	return LeadKeyType(strings.ToUpper(strings.TrimSpace(keyType)))
}
