// README: Status state machine tests.
package order

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		wantErr  error
	}{
		// forward moves
		{StatusConfirmed, StatusPicked, nil},
		{StatusPicked, StatusDelivered, nil},
		{StatusConfirmed, StatusDelivered, nil}, // skipping ahead is still forward
		// reverts
		{StatusPicked, StatusConfirmed, ErrStatusCannotRevert},
		{StatusDelivered, StatusPicked, ErrStatusCannotRevert},
		{StatusDelivered, StatusConfirmed, ErrStatusCannotRevert},
		// no-op rewrites are rejected too
		{StatusConfirmed, StatusConfirmed, ErrStatusCannotRevert},
		{StatusDelivered, StatusDelivered, ErrStatusCannotRevert},
		// unknown statuses
		{StatusConfirmed, Status("cancelled"), ErrInvalidStatus},
		{Status("draft"), StatusPicked, ErrInvalidStatus},
	}

	for _, tc := range cases {
		if err := CanTransition(tc.from, tc.to); err != tc.wantErr {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, err, tc.wantErr)
		}
	}
}

func TestRank(t *testing.T) {
	if r, ok := Rank(StatusDelivered); !ok || r != 3 {
		t.Errorf("Rank(delivered) = %d, %v", r, ok)
	}
	if _, ok := Rank(Status("bogus")); ok {
		t.Error("Rank accepted an unknown status")
	}
}
