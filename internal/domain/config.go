package domain

// Metadata is an unstructured string-keyed container for run configs and metrics.
type Metadata map[string]any

func (m Metadata) Clone() Metadata {
	if m == nil {
		return Metadata{}
	}
	copy := make(Metadata, len(m))
	for k, v := range m {
		copy[k] = v
	}
	return copy
}

// Convertible is implemented by config objects that can render themselves
// as a plain mapping.
type Convertible interface {
	ToMapping() map[string]any
}

// normalizeConfig reduces the accepted config shapes to a plain Metadata.
// The stored form is always a clone, so later mutation of the caller's map
// cannot reach inside a constructed RunDefinition.
func normalizeConfig(value any) (Metadata, error) {
	switch c := value.(type) {
	case nil:
		return Metadata{}, nil
	case Metadata:
		return c.Clone(), nil
	case map[string]any:
		return Metadata(c).Clone(), nil
	case Convertible:
		m := c.ToMapping()
		if m == nil {
			return nil, &ConfigTypeError{Value: value}
		}
		return Metadata(m).Clone(), nil
	default:
		return nil, &ConfigTypeError{Value: value}
	}
}
