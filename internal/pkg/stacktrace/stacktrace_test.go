package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	dump := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/notifyd/internal/pkg/goroutine.(*Manager).Go.func1.1()
	/src/notifyd/internal/pkg/goroutine/goroutine.go:71 +0x85
github.com/shandysiswandi/notifyd/internal/notification/usecase.(*Usecase).FlushDigest(...)
	/src/notifyd/internal/notification/usecase/digest.go:40 +0x1a
`)

	assert.Equal(t, []string{
		"internal/pkg/goroutine/goroutine.go:71",
		"internal/notification/usecase/digest.go:40",
	}, InternalPaths(dump))
	assert.Empty(t, InternalPaths([]byte("no frames here")))
}
