package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/Taistois/mims/internal/adapters/persistence/repositories"
	"github.com/Taistois/mims/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClaimCreateNotifiesStaff(t *testing.T) {
	e := newTestEnv(t)
	w := e.world(t)
	ctx := context.Background()

	claim, err := e.claims.Create(ctx, w.alice.Actor(), &CreateClaimInput{
		PolicyID:    w.alicePolicy.ID,
		Description: "hospital stay",
		ClaimAmount: dec("2000"),
	})
	require.NoError(t, err)
	assert.NotZero(t, claim.ID)
	assert.Equal(t, domain.ClaimPending, claim.Status)
	assert.Equal(t, "general", claim.ClaimType)
	assert.Equal(t, w.aliceMember.ID, claim.MemberID)

	for _, u := range []uint{w.admin.ID, w.staff.ID} {
		list := e.notificationsOf(t, u)
		require.Len(t, list, 1)
		assert.Equal(t, "New Claim Submitted", list[0].Title)
		assert.Equal(t, fmt.Sprintf("A new claim (ID: %d) was submitted by Alice.", claim.ID), list[0].Message)
	}
	assert.Empty(t, e.notificationsOf(t, w.alice.ID))
	assert.Empty(t, e.notificationsOf(t, w.bob.ID))
	assert.Equal(t, 2, e.pusher.count())
}

func TestClaimFanOutIsSnapshot(t *testing.T) {
	e := newTestEnv(t)
	w := e.world(t)
	ctx := context.Background()

	_, err := e.claims.Create(ctx, w.alice.Actor(), &CreateClaimInput{PolicyID: w.alicePolicy.ID, ClaimAmount: dec("50")})
	require.NoError(t, err)

	late := e.user(t, "Late Staff", "late@mims.test", domain.RoleInsuranceStaff)
	assert.Empty(t, e.notificationsOf(t, late.ID))

	var total int64
	require.NoError(t, e.db.Table("notifications").Count(&total).Error)
	assert.Equal(t, int64(2), total)
}

func TestClaimCreateRules(t *testing.T) {
	e := newTestEnv(t)
	w := e.world(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		actor *domain.Actor
		input CreateClaimInput
		want  error
	}{
		{"anonymous", nil, CreateClaimInput{PolicyID: w.alicePolicy.ID, ClaimAmount: dec("10")}, domain.ErrUnauthenticated},
		{"someone else's policy", w.bob.Actor(), CreateClaimInput{PolicyID: w.alicePolicy.ID, ClaimAmount: dec("10")}, domain.ErrForbidden},
		{"missing policy", w.alice.Actor(), CreateClaimInput{PolicyID: 999, ClaimAmount: dec("10")}, ErrPolicyNotFound},
		{"zero amount", w.alice.Actor(), CreateClaimInput{PolicyID: w.alicePolicy.ID, ClaimAmount: dec("0")}, domain.ErrValidation},
		{"three decimals", w.alice.Actor(), CreateClaimInput{PolicyID: w.alicePolicy.ID, ClaimAmount: dec("10.125")}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.claims.Create(ctx, tt.actor, &tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	staffClaim, err := e.claims.Create(ctx, w.staff.Actor(), &CreateClaimInput{
		PolicyID: w.bobPolicy.ID, ClaimAmount: dec("99.99"), ClaimType: "accident",
	})
	require.NoError(t, err)
	assert.Equal(t, "accident", staffClaim.ClaimType)
}

func TestClaimApprovalNotifiesOwner(t *testing.T) {
	e := newTestEnv(t)
	w := e.world(t)
	ctx := context.Background()

	claim, err := e.claims.Create(ctx, w.alice.Actor(), &CreateClaimInput{PolicyID: w.alicePolicy.ID, ClaimAmount: dec("2000")})
	require.NoError(t, err)

	updated, err := e.claims.UpdateStatus(ctx, w.staff.Actor(), claim.ID, &UpdateClaimStatusInput{Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimApproved, updated.Status)

	list := e.notificationsOf(t, w.alice.ID)
	require.Len(t, list, 1)
	assert.Equal(t, "Claim Status Updated", list[0].Title)
	assert.Contains(t, list[0].Message, "approved")
	assert.Equal(t, fmt.Sprintf("Hello Alice, your claim #%d has been updated from 'pending' to 'approved'.", claim.ID), list[0].Message)

	claims, total, err := e.claims.List(ctx, w.alice.Actor(), repositories.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, claims, 1)
	assert.Equal(t, claim.ID, claims[0].ID)
	assert.Equal(t, domain.ClaimApproved, claims[0].Status)
}

func TestClaimTransitions(t *testing.T) {
	e := newTestEnv(t)
	w := e.world(t)
	ctx := context.Background()
	staff := w.staff.Actor()

	claim, err := e.claims.Create(ctx, w.alice.Actor(), &CreateClaimInput{PolicyID: w.alicePolicy.ID, ClaimAmount: dec("100")})
	require.NoError(t, err)

	_, err = e.claims.UpdateStatus(ctx, w.alice.Actor(), claim.ID, &UpdateClaimStatusInput{Status: "approved"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = e.claims.UpdateStatus(ctx, staff, claim.ID, &UpdateClaimStatusInput{Status: "paid"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.claims.UpdateStatus(ctx, staff, claim.ID, &UpdateClaimStatusInput{Status: "pending"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.claims.UpdateStatus(ctx, staff, claim.ID, &UpdateClaimStatusInput{Status: "in review"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.claims.UpdateStatus(ctx, staff, 404, &UpdateClaimStatusInput{Status: "approved"})
	assert.ErrorIs(t, err, ErrClaimNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.claims.UpdateStatus(ctx, staff, claim.ID, &UpdateClaimStatusInput{Status: "rejected"})
	require.NoError(t, err)
	latest := e.notificationsOf(t, w.alice.ID)[0]
	assert.Contains(t, latest.Message, "from 'pending' to 'rejected'")

	_, err = e.claims.UpdateStatus(ctx, staff, claim.ID, &UpdateClaimStatusInput{Status: "approved"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestClaimOwnershipScoping(t *testing.T) {
	e := newTestEnv(t)
	w := e.world(t)
	ctx := context.Background()

	aliceClaim, err := e.claims.Create(ctx, w.alice.Actor(), &CreateClaimInput{PolicyID: w.alicePolicy.ID, ClaimAmount: dec("10")})
	require.NoError(t, err)
	_, err = e.claims.Create(ctx, w.bob.Actor(), &CreateClaimInput{PolicyID: w.bobPolicy.ID, ClaimAmount: dec("20")})
	require.NoError(t, err)

	list, total, err := e.claims.List(ctx, w.alice.Actor(), repositories.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	for _, c := range list {
		assert.Equal(t, w.aliceMember.ID, c.MemberID)
	}

	_, total, err = e.claims.List(ctx, w.staff.Actor(), repositories.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, err = e.claims.Get(ctx, w.bob.Actor(), aliceClaim.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	first, err := e.claims.Get(ctx, w.alice.Actor(), aliceClaim.ID)
	require.NoError(t, err)
	second, err := e.claims.Get(ctx, w.alice.Actor(), aliceClaim.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestClaimSurvivesNotificationFailure(t *testing.T) {
	e := newTestEnv(t)
	w := e.world(t)
	ctx := context.Background()

	claims := NewClaimService(e.claimRepo, e.policyRepo, failingNotifier{}, zap.NewNop(), nil)
	claim, err := claims.Create(ctx, w.alice.Actor(), &CreateClaimInput{PolicyID: w.alicePolicy.ID, ClaimAmount: dec("10")})
	require.NoError(t, err)

	updated, err := claims.UpdateStatus(ctx, w.admin.Actor(), claim.ID, &UpdateClaimStatusInput{Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimApproved, updated.Status)
}
