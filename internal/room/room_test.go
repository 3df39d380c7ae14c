package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoom() (*Room, *fakeClock) {
	clock := newFakeClock()
	r := New("ABCD", "hostsecret123456789012345", clock)
	return r, clock
}

func TestNew_Defaults(t *testing.T) {
	r, _ := newTestRoom()
	v := r.Snapshot()

	assert.Equal(t, "ABCD", v.RoomCode)
	assert.Equal(t, "lobby", v.Phase)
	assert.Equal(t, defaultDurationMs, v.DurationMs)
	assert.Equal(t, defaultDurationMs, v.RemainingMs)
	assert.False(t, v.TimerRunning)
	assert.True(t, v.FairPlayEnabled)
	assert.Len(t, v.Teams, 2)
	assert.Equal(t, "1", v.Teams[0].ID)
	assert.Equal(t, "Team 1", v.Teams[0].Name)
	assert.Equal(t, "2", v.Teams[1].ID)
}

func TestIsHost(t *testing.T) {
	r, _ := newTestRoom()
	assert.True(t, r.IsHost(r.HostKey()))
	assert.False(t, r.IsHost("wrong"))
	assert.False(t, r.IsHost(""))
}

func TestSetTeam_FirstClaimSucceeds(t *testing.T) {
	r, _ := newTestRoom()
	events, err := r.SetTeam("p1", "1")
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	teamID, ok := r.TeamForPlayer("p1")
	require.True(t, ok)
	assert.Equal(t, "1", teamID)
}

func TestSetTeam_IdempotentSameTeam(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.SetTeam("p1", "1")
	require.NoError(t, err)

	events, err := r.SetTeam("p1", "1")
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	teamID, _ := r.TeamForPlayer("p1")
	assert.Equal(t, "1", teamID)
}

func TestSetTeam_DifferentTeamIgnored(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.SetTeam("p1", "1")
	require.NoError(t, err)

	_, err = r.SetTeam("p1", "2")
	assert.Error(t, err)

	teamID, _ := r.TeamForPlayer("p1")
	assert.Equal(t, "1", teamID, "team binding must not change")
}

func TestSetTeam_AlreadyTakenByAnotherPlayer(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.SetTeam("p1", "1")
	require.NoError(t, err)

	_, err = r.SetTeam("p2", "1")
	assert.ErrorIs(t, err, ErrTeamAlreadyTaken)
}

func TestSetTeam_UnknownTeam(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.SetTeam("p1", "9")
	assert.ErrorIs(t, err, ErrUnknownTeam)
}

func TestSetTeamName_BoundaryLengths(t *testing.T) {
	testCases := []struct {
		name    string
		len     int
		wantErr bool
	}{
		{"len 1 rejected", 1, true},
		{"len 2 accepted", 2, false},
		{"len 16 accepted", 16, false},
		{"len 17 rejected", 17, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestRoom()
			_, err := r.SetTeam("p1", "1")
			require.NoError(t, err)

			name := make([]byte, tc.len)
			for i := range name {
				name[i] = 'a'
			}

			_, err = r.SetTeamName("p1", "1", string(name))
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetTeamName_OnlyOncePerLifetime(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.SetTeam("p1", "1")
	require.NoError(t, err)

	_, err = r.SetTeamName("p1", "1", "The Aces")
	require.NoError(t, err)

	_, err = r.SetTeamName("p1", "1", "New Name")
	assert.ErrorIs(t, err, ErrNameAlreadySet)
}

func TestSetTeamName_WhitespaceCollapsed(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.SetTeam("p1", "1")
	require.NoError(t, err)

	_, err = r.SetTeamName("p1", "1", "  The   Aces  ")
	require.NoError(t, err)

	v := r.Snapshot()
	assert.Equal(t, "The Aces", v.Teams[0].Name)
}

func TestSetTeamName_RequiresOwnership(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.SetTeam("p1", "1")
	require.NoError(t, err)

	_, err = r.SetTeamName("p2", "1", "Sneaky")
	assert.ErrorIs(t, err, ErrNotTeamOwner)
}

func TestHostSetTeamCount_Boundaries(t *testing.T) {
	testCases := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{"2 accepted", 2, false},
		{"6 accepted", 6, false},
		{"1 rejected", 1, true},
		{"7 rejected", 7, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestRoom()
			_, err := r.HostSetTeamCount(true, tc.count)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHostSetTeamCount_NonHostRejected(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.HostSetTeamCount(false, 4)
	assert.ErrorIs(t, err, ErrNotHost)
}

func TestHostSetTeamCount_Idempotent(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.HostSetTeamCount(true, 2)
	assert.NoError(t, err, "equal to current count is a no-op, not an error")
}

func TestHostSetTeamCount_RejectsDecrease(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.HostSetTeamCount(true, 4)
	require.NoError(t, err)

	_, err = r.HostSetTeamCount(true, 3)
	assert.ErrorIs(t, err, ErrTeamCountLower)
}

func TestHostSetTeamCount_AppendsDefaultNamedTeams(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.HostSetTeamCount(true, 4)
	require.NoError(t, err)

	v := r.Snapshot()
	require.Len(t, v.Teams, 4)
	assert.Equal(t, "Team 3", v.Teams[2].Name)
	assert.Equal(t, "Team 4", v.Teams[3].Name)
}

func TestHostSetDuration_Boundaries(t *testing.T) {
	testCases := []struct {
		name    string
		seconds float64
		wantErr bool
	}{
		{"0 rejected", 0, true},
		{"600 accepted", 600, false},
		{"601 rejected", 601, true},
		{"negative rejected", -5, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestRoom()
			_, err := r.HostSetDuration(true, tc.seconds)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHostSetDuration_OnlyUpdatesRemainingWhenStopped(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.HostBeepStart(true)
	require.NoError(t, err)

	_, err = r.HostSetDuration(true, 30)
	require.NoError(t, err)

	v := r.Snapshot()
	assert.Equal(t, 30000, v.DurationMs)
	assert.Equal(t, defaultDurationMs, v.RemainingMs, "remainingMs must not change while timer runs")
}

func TestHostAdjustScore_Boundaries(t *testing.T) {
	testCases := []struct {
		name    string
		delta   int
		wantErr bool
	}{
		{"-100 accepted", -100, false},
		{"100 accepted", 100, false},
		{"-101 rejected", -101, true},
		{"101 rejected", 101, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestRoom()
			_, err := r.HostAdjustScore(true, "1", tc.delta)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuzz_LockedOutTeamNeverChangesState(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.SetTeam("p1", "1")
	require.NoError(t, err)
	_, err = r.HostBeepStart(true)
	require.NoError(t, err)

	events := r.Buzz("p1")
	require.Len(t, events, 2)
	_, err = r.HostIncorrect(true)
	require.NoError(t, err)

	before := r.Snapshot()
	events = r.Buzz("p1")
	after := r.Snapshot()

	assert.Len(t, events, 1)
	assert.Equal(t, before.Phase, after.Phase)
	assert.Equal(t, before.LockedByTeamID, after.LockedByTeamID)
}

func TestInvariant_LockedImpliesTimerStopped(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.SetTeam("p1", "1")
	require.NoError(t, err)
	_, err = r.HostBeepStart(true)
	require.NoError(t, err)
	r.Buzz("p1")

	v := r.Snapshot()
	assert.Equal(t, "locked", v.Phase)
	assert.False(t, v.TimerRunning)
	require.NotNil(t, v.LockedByPlayerID)
	assert.Equal(t, "p1", *v.LockedByPlayerID)
}

func TestInvariant_RemainingMsWithinBounds(t *testing.T) {
	r, clock := newTestRoom()
	_, err := r.HostBeepStart(true)
	require.NoError(t, err)

	clock.Advance(1 * time.Second)
	r.Tick(clock.Now())

	v := r.Snapshot()
	assert.GreaterOrEqual(t, v.RemainingMs, 0)
	assert.LessOrEqual(t, v.RemainingMs, v.DurationMs)
}

func TestTick_OneMillisecondRemainingFiresTimeUp(t *testing.T) {
	r, clock := newTestRoom()
	_, err := r.HostSetDuration(true, 1)
	require.NoError(t, err)
	_, err = r.HostBeepStart(true)
	require.NoError(t, err)

	// Drive remainingMs down to 1ms first.
	clock.Advance(999 * time.Millisecond)
	events, fired := r.Tick(clock.Now())
	assert.False(t, fired)
	assert.Nil(t, events)
	assert.Equal(t, 1, r.Snapshot().RemainingMs)

	clock.Advance(1 * time.Millisecond)
	events, fired = r.Tick(clock.Now())
	assert.True(t, fired)
	assert.NotEmpty(t, events)
	assert.Equal(t, "lobby", r.Snapshot().Phase)
	assert.Equal(t, 0, r.Snapshot().RemainingMs)
}

func TestHostRemoveTeam_UnlocksAndResumesTimer(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.SetTeam("p2", "2")
	require.NoError(t, err)
	_, err = r.HostBeepStart(true)
	require.NoError(t, err)
	r.Buzz("p2")

	require.Equal(t, "locked", r.Snapshot().Phase)

	events, kicked, err := r.HostRemoveTeam(true, "2")
	require.NoError(t, err)
	assert.Equal(t, "p2", kicked)
	assert.NotEmpty(t, events)

	v := r.Snapshot()
	assert.Equal(t, "armed", v.Phase)
	assert.True(t, v.TimerRunning)
	assert.Equal(t, "Team 2", v.Teams[1].Name)
	assert.Equal(t, 0, v.Teams[1].Score)
}

func TestRoundNumberNeverDecreases(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.SetTeam("p1", "1")
	require.NoError(t, err)

	seen := r.Snapshot().RoundNumber
	for i := 0; i < 5; i++ {
		_, _ = r.HostBeepStart(true)
		r.Buzz("p1")
		_, err := r.HostCorrect(true)
		require.NoError(t, err)
		next := r.Snapshot().RoundNumber
		assert.GreaterOrEqual(t, next, seen)
		seen = next
	}
}

func TestHostEndRound_SingleWinner(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.HostAdjustScore(true, "1", 5)
	require.NoError(t, err)

	events, err := r.HostEndRound(true)
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	v := r.Snapshot()
	assert.True(t, v.GameOver)
	require.NotNil(t, v.WinnerTeamID)
	assert.Equal(t, "1", *v.WinnerTeamID)
	assert.Nil(t, v.WinnerText)
}

func TestHostEndRound_Tie(t *testing.T) {
	r, _ := newTestRoom()
	events, err := r.HostEndRound(true)
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	v := r.Snapshot()
	assert.True(t, v.GameOver)
	assert.Nil(t, v.WinnerTeamID)
	require.NotNil(t, v.WinnerText)
}

func TestGameOver_FreezesHostCommands(t *testing.T) {
	r, _ := newTestRoom()
	_, err := r.HostEndRound(true)
	require.NoError(t, err)

	_, err = r.HostBeepStart(true)
	assert.ErrorIs(t, err, ErrGameOver)

	_, err = r.HostNextRound(true)
	assert.ErrorIs(t, err, ErrGameOver)

	_, err = r.HostAdjustScore(true, "1", 1)
	assert.ErrorIs(t, err, ErrGameOver)
}
