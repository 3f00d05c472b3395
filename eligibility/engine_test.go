package eligibility

import (
	"math/rand"
	"reflect"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestEvaluateClaim_Success(t *testing.T) {
	snap := ClaimSnapshot{AdViews: 250, ActiveInvites: 12, LastClaimAt: nil}
	d := EvaluateClaim(GiftHeart, snap, testNow)
	if !d.Allowed {
		t.Fatalf("expected claim to pass, got reason %q", d.Reason)
	}
	if d.Mutation == nil {
		t.Fatal("granted claim must carry a mutation")
	}
	want := Mutation{ResetAdViews: 0, LastClaimAt: testNow, GrantInc: 1}
	if *d.Mutation != want {
		t.Fatalf("unexpected mutation %+v", *d.Mutation)
	}
}

func TestEvaluateClaim_Pure(t *testing.T) {
	last := testNow.Add(-72 * time.Hour)
	snap := ClaimSnapshot{AdViews: 500, ActiveInvites: 30, LastClaimAt: &last}
	a := EvaluateClaim(GiftRose, snap, testNow)
	b := EvaluateClaim(GiftRose, snap, testNow)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical inputs produced different decisions: %+v vs %+v", a, b)
	}
}

func TestEvaluateClaim_AdViewBoundary(t *testing.T) {
	base := ClaimSnapshot{ActiveInvites: 15}

	s := base
	s.AdViews = 199
	d := EvaluateClaim(GiftBear, s, testNow)
	if d.Allowed || d.Reason != ReasonInsufficientAdViews {
		t.Fatalf("199 views must fail the bear check, got %+v", d)
	}
	if d.Deficit != 1 {
		t.Fatalf("expected deficit 1, got %d", d.Deficit)
	}

	s.AdViews = 200
	if d := EvaluateClaim(GiftBear, s, testNow); !d.Allowed {
		t.Fatalf("200 views must pass the bear check, got reason %q", d.Reason)
	}
}

func TestEvaluateClaim_PerKindThresholds(t *testing.T) {
	cases := []struct {
		gift     string
		required int64
	}{
		{GiftBear, 200},
		{GiftHeart, 250},
		{GiftBox, 350},
		{GiftRose, 350},
		{"mystery", 200}, // unlisted kinds fall back to the default
	}
	for _, tc := range cases {
		if got := AdViewThreshold(tc.gift); got != tc.required {
			t.Fatalf("%s: threshold %d, want %d", tc.gift, got, tc.required)
		}
		snap := ClaimSnapshot{AdViews: tc.required - 1, ActiveInvites: 20}
		d := EvaluateClaim(tc.gift, snap, testNow)
		if d.Reason != ReasonInsufficientAdViews || d.Deficit != 1 {
			t.Fatalf("%s: got %+v, want deficit 1", tc.gift, d)
		}
	}
}

func TestEvaluateClaim_InviteBoundary(t *testing.T) {
	snap := ClaimSnapshot{AdViews: 400, ActiveInvites: 9}
	d := EvaluateClaim(GiftBox, snap, testNow)
	if d.Allowed || d.Reason != ReasonInsufficientInvites {
		t.Fatalf("9 invites must fail, got %+v", d)
	}

	snap.ActiveInvites = 10
	if d := EvaluateClaim(GiftBox, snap, testNow); !d.Allowed {
		t.Fatalf("10 invites must pass, got reason %q", d.Reason)
	}
}

func TestEvaluateClaim_Cooldown(t *testing.T) {
	snap := ClaimSnapshot{AdViews: 300, ActiveInvites: 12}

	recent := testNow.Add(-47 * time.Hour)
	snap.LastClaimAt = &recent
	d := EvaluateClaim(GiftBear, snap, testNow)
	if d.Allowed || d.Reason != ReasonCooldownActive {
		t.Fatalf("47h old claim must hit the cooldown, got %+v", d)
	}
	if d.RetryAfter != time.Hour {
		t.Fatalf("expected 1h retry hint, got %v", d.RetryAfter)
	}

	old := testNow.Add(-49 * time.Hour)
	snap.LastClaimAt = &old
	if d := EvaluateClaim(GiftBear, snap, testNow); !d.Allowed {
		t.Fatalf("49h old claim must pass the cooldown, got reason %q", d.Reason)
	}
}

func TestEvaluateClaim_CheckOrder(t *testing.T) {
	// everything is wrong at once: cooldown wins, then ad views, then invites
	recent := testNow.Add(-time.Hour)
	snap := ClaimSnapshot{AdViews: 0, ActiveInvites: 0, LastClaimAt: &recent}
	if d := EvaluateClaim(GiftBear, snap, testNow); d.Reason != ReasonCooldownActive {
		t.Fatalf("cooldown must be checked first, got %q", d.Reason)
	}

	snap.LastClaimAt = nil
	if d := EvaluateClaim(GiftBear, snap, testNow); d.Reason != ReasonInsufficientAdViews {
		t.Fatalf("ad views must be checked before invites, got %q", d.Reason)
	}
}

func TestEvaluateTaskClaim(t *testing.T) {
	d := EvaluateTaskClaim(TaskBear, TaskSnapshot{ActiveInvites: 10})
	if !d.Allowed {
		t.Fatalf("task with 10 invites must pass, got reason %q", d.Reason)
	}

	d = EvaluateTaskClaim(TaskBear, TaskSnapshot{ActiveInvites: 9})
	if d.Reason != ReasonInsufficientInvites {
		t.Fatalf("expected InsufficientInvites, got %q", d.Reason)
	}

	d = EvaluateTaskClaim(TaskBear, TaskSnapshot{ActiveInvites: 50, AlreadyClaimed: true})
	if d.Reason != ReasonAlreadyClaimed {
		t.Fatalf("repeat task claim must be rejected, got %q", d.Reason)
	}

	d = EvaluateTaskClaim("walk-the-dog", TaskSnapshot{ActiveInvites: 50})
	if d.Reason != ReasonUnknownTask {
		t.Fatalf("expected UnknownTask, got %q", d.Reason)
	}
}

func TestComputeInviteStats_Partition(t *testing.T) {
	// randomized ages; the partition identity must hold regardless
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 20; run++ {
		n := rng.Intn(50)
		regs := make([]time.Time, n)
		for i := range regs {
			regs[i] = testNow.Add(-time.Duration(rng.Intn(96)) * time.Hour)
		}
		stats := ComputeInviteStats(regs, testNow)
		if stats.Active+stats.Pending != stats.Total {
			t.Fatalf("run %d: active %d + pending %d != total %d", run, stats.Active, stats.Pending, stats.Total)
		}
		if stats.Total != int64(n) {
			t.Fatalf("run %d: total %d, want %d", run, stats.Total, n)
		}
	}
}

func TestInviteActive_Boundary(t *testing.T) {
	if InviteActive(testNow.Add(-47*time.Hour), testNow) {
		t.Fatal("47h old account must still be pending")
	}
	if !InviteActive(testNow.Add(-48*time.Hour), testNow) {
		t.Fatal("48h old account must be active")
	}
}
