package cont

import "context"

type ctxKey string

const operatorKey ctxKey = "operator"

// PutOperator stores the authenticated API operator name in the context.
func PutOperator(c context.Context, name string) context.Context {
	return context.WithValue(c, operatorKey, name)
}

// GetOperator returns the operator name set by the authenticate middleware,
// or an empty string for unauthenticated contexts.
func GetOperator(c context.Context) string {
	name, ok := c.Value(operatorKey).(string)
	if !ok {
		return ""
	}
	return name
}
