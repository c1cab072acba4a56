package client

import "envhub/pkg/models"

// PropertiesToValues flattens an evaluated environment's properties to plain
// values, collapsing the nested {"value": ...} wrappers the API uses to
// annotate evaluation results.
func PropertiesToValues(properties map[string]models.Value) map[string]any {
	if properties == nil {
		return nil
	}
	values := make(map[string]any, len(properties))
	for key, property := range properties {
		values[key] = propertyValue(property.Value)
	}
	return values
}

// propertyValue recursively unwraps a property value. Maps carrying a
// "value" key are wrappers; their payload is unwrapped in turn. Lists and
// plain maps are converted element-wise.
func propertyValue(property any) any {
	switch v := property.(type) {
	case map[string]any:
		if inner, ok := v["value"]; ok {
			return propertyValue(inner)
		}
		result := make(map[string]any, len(v))
		for key, item := range v {
			result[key] = propertyValue(item)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = propertyValue(item)
		}
		return result
	default:
		return v
	}
}
