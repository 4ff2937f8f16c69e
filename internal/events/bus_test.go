/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import (
	"sync"
	"testing"
)

func TestPublishReachesSubscriber(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventTaskScheduled)

	bus.Publish(EventTaskScheduled, Payload{"task_id": "t1"})

	select {
	case payload := <-sub:
		if payload["task_id"] != "t1" {
			t.Errorf("unexpected payload: %+v", payload)
		}
	default:
		t.Fatal("expected a buffered payload")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventTaskDeleted)
	bus.Unsubscribe(EventTaskDeleted, sub)

	if _, ok := <-sub; ok {
		t.Fatal("expected channel to be closed")
	}

	// Closed subscribers no longer receive anything.
	bus.Publish(EventTaskDeleted, Payload{"task_id": "gone"})
}

func TestPublishDuringUnsubscribe(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		sub := bus.Subscribe(EventAgendaInvalidated)
		wg.Add(2)
		go func(s Subscriber) {
			defer wg.Done()
			bus.Unsubscribe(EventAgendaInvalidated, s)
		}(sub)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Publish(EventAgendaInvalidated, Payload{"date": "2026-03-02"})
			}
		}()
	}
	wg.Wait()
}
