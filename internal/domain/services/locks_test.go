package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestAccountLocks(t *testing.T) {
	locks := NewAccountLocks()
	a := common.HexToAddress("0x1")
	b := common.HexToAddress("0x2")

	unlockA, err := locks.Lock(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}

	// other accounts are independent
	unlockB, err := locks.Lock(context.Background(), b)
	if err != nil {
		t.Fatalf("Lock(b) error = %v", err)
	}
	unlockB()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := locks.Lock(ctx, a); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Lock(a) while held error = %v, want DeadlineExceeded", err)
	}

	acquired := make(chan struct{})
	go func() {
		unlock, err := locks.Lock(context.Background(), a)
		if err == nil {
			unlock()
		}
		close(acquired)
	}()

	unlockA()
	unlockA() // second call is a no-op

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter did not acquire the lock after release")
	}
}
