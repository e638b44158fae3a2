package inbound

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/notifyd/internal/notification/usecase"
	"github.com/shandysiswandi/notifyd/internal/pkg/config"
	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
	"github.com/shandysiswandi/notifyd/internal/pkg/goroutine"
)

func TestRunEvery_KeepsGoingAfterFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := make(chan struct{}, 10)
	errs := []error{
		goerror.NewBusiness("job is already running", goerror.CodeConflict),
		goerror.NewServer(assert.AnError),
		nil,
	}
	job := scheduledJob{
		name:  "test",
		every: 5 * time.Millisecond,
		run: func(context.Context) error {
			n := len(runs)
			runs <- struct{}{}
			if n < len(errs) {
				return errs[n]
			}
			return nil
		},
	}

	done := make(chan struct{})
	go func() {
		runEvery(ctx, job)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(runs) >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runEvery did not return after cancel")
	}
}

func TestRegisterScheduler_Disabled(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  notification:\n    scheduler:\n      enabled: false\n"))
	require.NoError(t, err)

	uc := &mockUC{}
	routine := goroutine.NewManager(2)
	RegisterScheduler(context.Background(), cfg, routine, uc)

	require.NoError(t, routine.Wait())
	uc.AssertNotCalled(t, "RunDigestJob", mock.Anything)
	uc.AssertNotCalled(t, "RunChatBatchJob", mock.Anything)
}

func TestRegisterScheduler_StopsWithContext(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  notification:\n    scheduler:\n      enabled: true\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	uc := &mockUC{}
	uc.On("RunChatBatchJob", mock.Anything).Return(&usecase.ChatBatchJobOutput{}, nil).Maybe()
	routine := goroutine.NewManager(2)
	RegisterScheduler(ctx, cfg, routine, uc)

	cancel()
	assert.NoError(t, routine.Wait())
}
