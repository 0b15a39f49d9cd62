package service

import "context"

type contextKey string

const operatorKey contextKey = "operator"

// OperatorInfo identifies the authenticated caller of a queue operation.
type OperatorInfo struct {
	UserID string
	Name   string
	Role   string
}

// Admin reports whether the caller bypasses job ownership checks.
func (o *OperatorInfo) Admin() bool {
	return o != nil && o.Role == "admin"
}

func WithOperator(ctx context.Context, op *OperatorInfo) context.Context {
	return context.WithValue(ctx, operatorKey, op)
}

func GetOperatorInfo(ctx context.Context) *OperatorInfo {
	val, ok := ctx.Value(operatorKey).(*OperatorInfo)
	if !ok {
		return nil
	}
	return val
}
