package events_test

import (
	"testing"

	"github.com/ardanlabs/powledger/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestPublish(t *testing.T) {
	evts := events.New("viewer:")

	t.Log("Given the need to deliver events to subscribers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen publishing with two subscribers.", testID)
		{
			a, err := evts.Subscribe("a")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to subscribe: %v", failed, testID, err)
			}
			b, _ := evts.Subscribe("b")

			evts.Publish("state: not for viewers")
			evts.Publish(`viewer: block: {"hash":"00ab"}`)

			for _, ch := range []<-chan string{a, b} {
				if got := <-ch; got != `block: {"hash":"00ab"}` {
					t.Fatalf("\t%s\tTest %d:\tShould get the viewer message, got %q.", failed, testID, got)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould get only the viewer message.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a subscriber falls behind.", testID)
		{
			for i := 0; i < 150; i++ {
				evts.Publish("viewer: tick")
			}

			if evts.Dropped() != 100 {
				t.Fatalf("\t%s\tTest %d:\tShould drop the overflow for both subscribers, got %d.", failed, testID, evts.Dropped())
			}
			t.Logf("\t%s\tTest %d:\tShould drop the overflow without blocking.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen shutting down.", testID)
		{
			if err := evts.Unsubscribe("a"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unsubscribe: %v", failed, testID, err)
			}
			if err := evts.Unsubscribe("a"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not unsubscribe twice.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould unsubscribe once.", success, testID)

			evts.Shutdown()
			if evts.Subscribers() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould have no subscribers.", failed, testID)
			}
			if _, err := evts.Subscribe("c"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not subscribe after shutdown.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould close every subscriber.", success, testID)
		}
	}
}
