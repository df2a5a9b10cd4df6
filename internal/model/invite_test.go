package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInviteRedeemable_Active(t *testing.T) {
	inv := Invite{IsActive: true}
	assert.True(t, inv.Redeemable(time.Now()))
}

func TestInviteRedeemable_Inactive(t *testing.T) {
	inv := Invite{IsActive: false}
	assert.False(t, inv.Redeemable(time.Now()))
}

func TestInviteRedeemable_Exhausted(t *testing.T) {
	maxUses := 1
	inv := Invite{IsActive: true, MaxUses: &maxUses, UsedCount: 1}
	assert.False(t, inv.Redeemable(time.Now()))
}

func TestInviteRedeemable_Expired(t *testing.T) {
	expires := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inv := Invite{IsActive: true, ExpiresAt: &expires}

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.False(t, inv.Redeemable(now))

	before := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	assert.True(t, inv.Redeemable(before))
}

func TestInviteRedeemable_ExpiryBoundary(t *testing.T) {
	expires := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inv := Invite{IsActive: true, ExpiresAt: &expires}

	// Exactly at the expiration instant the invite is no longer redeemable.
	assert.False(t, inv.Redeemable(expires))
}

// Validity is monotonically non-increasing in UsedCount: once the limit is
// reached it stays unredeemable until MaxUses is administratively raised.
func TestInviteRedeemable_MonotoneInUsedCount(t *testing.T) {
	maxUses := 3
	inv := Invite{IsActive: true, MaxUses: &maxUses}
	now := time.Now()

	wasRedeemable := true
	for used := 0; used <= 5; used++ {
		inv.UsedCount = used
		ok := inv.Redeemable(now)
		if !wasRedeemable {
			assert.False(t, ok, "validity regained at used=%d", used)
		}
		wasRedeemable = ok
	}
	assert.False(t, inv.Redeemable(now))

	raised := 10
	inv.MaxUses = &raised
	assert.True(t, inv.Redeemable(now))
}

func TestInviteRedeemable_UnlimitedUses(t *testing.T) {
	inv := Invite{IsActive: true, UsedCount: 10000}
	assert.True(t, inv.Redeemable(time.Now()))
}
