package httpapi

import "context"

type subjectKey struct{}

// subjectSlotKey holds a *string owned by the request logger, which runs outside the auth
// middleware and so never sees the context it derives.
type subjectSlotKey struct{}

func WithSubject(ctx context.Context, subjectID string) context.Context {
	if slot, ok := ctx.Value(subjectSlotKey{}).(*string); ok {
		*slot = subjectID
	}
	return context.WithValue(ctx, subjectKey{}, subjectID)
}

// SubjectFromContext returns the authenticated subject set by the auth middleware.
func SubjectFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(subjectKey{}).(string)
	return v, ok && v != ""
}

func withSubjectSlot(ctx context.Context) (context.Context, *string) {
	slot := new(string)
	return context.WithValue(ctx, subjectSlotKey{}, slot), slot
}
