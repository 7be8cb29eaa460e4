package session

import "testing"

func TestStatusActive(t *testing.T) {
	active := []Status{StatusPendingOTP, StatusProcessing}
	for _, s := range active {
		if !s.Active() || s.Terminal() {
			t.Errorf("%s: active = %v terminal = %v", s, s.Active(), s.Terminal())
		}
	}
	terminal := []Status{StatusCompleted, StatusFailed, StatusExpired}
	for _, s := range terminal {
		if s.Active() || !s.Terminal() {
			t.Errorf("%s: active = %v terminal = %v", s, s.Active(), s.Terminal())
		}
	}
}

func TestStoreTracksOneTransaction(t *testing.T) {
	store := NewStore()
	if store.Current() != nil {
		t.Fatal("fresh store tracks a transaction")
	}
	store.SetActive(Transaction{ID: 1, Status: StatusPendingOTP})
	store.SetActive(Transaction{ID: 2, Status: StatusProcessing})
	if tx := store.Current(); tx == nil || tx.ID != 2 {
		t.Fatalf("current = %+v, want id 2", tx)
	}
	store.Clear()
	if store.Current() != nil {
		t.Fatal("clear left a transaction tracked")
	}
}
