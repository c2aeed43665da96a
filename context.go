package agent

import "context"

type contextKey int

const (
	ctxKeyWorkDir contextKey = iota
)

// WithContextWorkDir returns a context whose batch calls expand relative
// patterns under dir instead of the process working directory. Matched files
// are reported joined to dir, so BatchItem.FilePath and the {file}
// substitution carry the full path. Absolute patterns ignore dir.
func WithContextWorkDir(ctx context.Context, dir string) context.Context {
	return context.WithValue(ctx, ctxKeyWorkDir, dir)
}

// ContextWorkDir returns the batch work dir carried by ctx, or "" when
// patterns resolve against the process working directory.
func ContextWorkDir(ctx context.Context) string {
	dir, _ := ctx.Value(ctxKeyWorkDir).(string)
	return dir
}
