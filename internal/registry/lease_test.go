package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaseSweeper_SweepOnce_EvictsExpiredServices(t *testing.T) {
	s := NewStore(10*time.Millisecond, nil, nil)
	s.Apply(RegisterService{ServiceID: "svc-1", GroupID: "g1"})
	s.Apply(JoinGroup{ServiceID: "svc-1", GroupID: "g1", StageID: "stage-a"})

	time.Sleep(20 * time.Millisecond)

	sweeper := NewLeaseSweeper(s, time.Second, nil)
	dropped := sweeper.SweepOnce()
	assert.Equal(t, 1, dropped)

	_, ok := s.ServiceByID("svc-1")
	assert.False(t, ok)

	g, ok := s.Group("g1")
	require.True(t, ok)
	assert.NotContains(t, g.Members, "svc-1")
}

func TestLeaseSweeper_SweepOnce_RenewedServiceSurvives(t *testing.T) {
	s := NewStore(50*time.Millisecond, nil, nil)
	s.Apply(RegisterService{ServiceID: "svc-1"})

	time.Sleep(10 * time.Millisecond)
	s.Apply(RenewLease{ServiceID: "svc-1"})

	sweeper := NewLeaseSweeper(s, time.Second, nil)
	assert.Equal(t, 0, sweeper.SweepOnce())

	_, ok := s.ServiceByID("svc-1")
	assert.True(t, ok)
}

func TestLeaseSweeper_StartStop(t *testing.T) {
	s := NewStore(5*time.Millisecond, nil, nil)
	s.Apply(RegisterService{ServiceID: "svc-1"})

	sweeper := NewLeaseSweeper(s, 5*time.Millisecond, nil)
	ctx := context.Background()
	sweeper.Start(ctx)
	defer sweeper.Stop()

	require.Eventually(t, func() bool {
		_, ok := s.ServiceByID("svc-1")
		return !ok
	}, time.Second, 5*time.Millisecond)
}
