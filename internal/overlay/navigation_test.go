package overlay

import (
	"context"
	"testing"
)

func TestNavigatorMarksSelectionChanges(t *testing.T) {
	c := New("history", staticBuilder("cat", "dog"))
	c.Show(context.Background())
	in := NewInput()

	var queried []string
	in.OnChange(func(text string, origin Origin) {
		if origin == OriginUser {
			queried = append(queried, text)
		}
	})
	aborted := 0
	nav := NewNavigator(c, in, func() { aborted++ })

	nav.Type("ca")
	if !nav.Move(Next) {
		t.Fatalf("expected move to succeed")
	}
	if in.Text() != "cat" {
		t.Fatalf("expected input to show the selected key, got %q", in.Text())
	}
	nav.Move(Next)
	if in.Text() != "dog" {
		t.Fatalf("expected input to follow the selection, got %q", in.Text())
	}
	if aborted != 2 {
		t.Fatalf("expected navigation hook per move, got %d", aborted)
	}
	if len(queried) != 1 || queried[0] != "ca" {
		t.Fatalf("selection changes leaked to user listeners: %v", queried)
	}

	nav.Type("dogs")
	if !c.Selection().IsNone() {
		t.Fatalf("expected typing to clear the selection")
	}
	if len(queried) != 2 || queried[1] != "dogs" {
		t.Fatalf("expected new typed text to be seen, got %v", queried)
	}
}

func TestNavigatorClearKeepsText(t *testing.T) {
	c := New("history", staticBuilder("cat"))
	c.Show(context.Background())
	in := NewInput()
	nav := NewNavigator(c, in, nil)

	nav.Move(Next)
	nav.Clear()
	if !c.Selection().IsNone() {
		t.Fatalf("expected selection cleared")
	}
	if in.Text() != "cat" {
		t.Fatalf("expected text kept, got %q", in.Text())
	}
}

func TestNavigatorEmptyListLeavesInputAlone(t *testing.T) {
	c := New("history", staticBuilder())
	c.Show(context.Background())
	in := NewInput()
	in.SetText("typed", OriginUser)
	nav := NewNavigator(c, in, func() { t.Fatalf("hook must not run on empty list") })
	if nav.Move(Next) {
		t.Fatalf("expected no-op on empty list")
	}
	if in.Text() != "typed" {
		t.Fatalf("input changed on empty move")
	}
}

func TestInputUnsubscribe(t *testing.T) {
	in := NewInput()
	calls := 0
	unsubscribe := in.OnChange(func(string, Origin) { calls++ })
	in.SetText("a", OriginUser)
	unsubscribe()
	in.SetText("b", OriginUser)
	if in.SetText("b", OriginUser) {
		t.Fatalf("expected unchanged text to report false")
	}
	if calls != 1 {
		t.Fatalf("expected one notification, got %d", calls)
	}
}
