package storage

import (
	"errors"
	"reflect"
	"sort"
	"testing"
)

func mustAddTopic(t *testing.T, s *Store, id string) {
	t.Helper()
	if err := s.AddTopic(id); err != nil {
		t.Fatalf("AddTopic(%q): %v", id, err)
	}
}

func mustAddItem(t *testing.T, s *Store, topic int, text string) {
	t.Helper()
	if err := s.AddItem(topic, NewItem(text)); err != nil {
		t.Fatalf("AddItem(%d, %q): %v", topic, text, err)
	}
}

func texts(t *testing.T, s *Store, topic int) []string {
	t.Helper()
	items, err := s.Items(topic)
	if err != nil {
		t.Fatalf("Items(%d): %v", topic, err)
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

// checkOrder verifies order is exactly the key set of topics.
func checkOrder(t *testing.T, s *Store) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !isPermutation(s.order, s.topics) {
		keys := make([]string, 0, len(s.topics))
		for k := range s.topics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		t.Fatalf("order %v is not a permutation of %v", s.order, keys)
	}
}

func TestWorkScenario(t *testing.T) {
	s := New()
	mustAddTopic(t, s, "Work")

	order, err := s.Order()
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"Work"}) {
		t.Fatalf("order = %v, want [Work]", order)
	}
	if n, _ := s.ItemCount(0); n != 0 {
		t.Fatalf("item count = %d, want 0", n)
	}

	if err := s.AddItem(0, Item{Status: Todo, Text: "Buy milk"}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if n, _ := s.ItemCount(0); n != 1 {
		t.Fatalf("item count = %d, want 1", n)
	}

	removed, err := s.DeleteItem(0, 0)
	if err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if removed.Text != "Buy milk" {
		t.Fatalf("removed %q, want Buy milk", removed.Text)
	}
	if n, _ := s.ItemCount(0); n != 0 {
		t.Fatalf("item count = %d, want 0", n)
	}

	_, err = s.AccessItem(0, 0)
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("AccessItem err = %v, want ErrItemNotFound", err)
	}
}

func TestAddTopicDuplicate(t *testing.T) {
	s := New()
	mustAddTopic(t, s, "X")

	err := s.AddTopic("X")
	if !errors.Is(err, ErrDuplicateTopic) {
		t.Fatalf("second AddTopic err = %v, want ErrDuplicateTopic", err)
	}
	var se *Error
	if !errors.As(err, &se) || se.Topic != "X" {
		t.Fatalf("expected *Error naming topic X, got %#v", err)
	}
	if n, _ := s.TopicCount(); n != 1 {
		t.Fatalf("topic count = %d after failed add, want 1", n)
	}
	checkOrder(t, s)
}

func TestDeleteItemPreservesOrder(t *testing.T) {
	s := New()
	mustAddTopic(t, s, "T")
	for _, txt := range []string{"a", "b", "c", "d", "e"} {
		mustAddItem(t, s, 0, txt)
	}

	if _, err := s.DeleteItem(0, 2); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if got, want := texts(t, s, 0), []string{"a", "b", "d", "e"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("items = %v, want %v", got, want)
	}

	for i := 0; i < 4; i++ {
		if _, err := s.DeleteItem(0, 0); err != nil {
			t.Fatalf("DeleteItem #%d: %v", i, err)
		}
	}
	if n, _ := s.ItemCount(0); n != 0 {
		t.Fatalf("item count = %d, want 0", n)
	}
	if _, err := s.DeleteItem(0, 0); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("DeleteItem on empty topic err = %v, want ErrItemNotFound", err)
	}
}

func TestToggleItemMovesToEnd(t *testing.T) {
	s := New()
	mustAddTopic(t, s, "Home")
	mustAddItem(t, s, 0, "Buy milk")
	mustAddItem(t, s, 0, "Call mum")
	mustAddItem(t, s, 0, "Water plants")

	got, err := s.ToggleItem(0, 0)
	if err != nil {
		t.Fatalf("ToggleItem: %v", err)
	}
	if got.Status != Done || got.Text != "Buy milk" {
		t.Fatalf("toggled = %+v, want Done Buy milk", got)
	}
	if txt := texts(t, s, 0); !reflect.DeepEqual(txt, []string{"Call mum", "Water plants", "Buy milk"}) {
		t.Fatalf("items = %v", txt)
	}
	last, _ := s.AccessItem(0, 2)
	if last.Status != Done {
		t.Fatalf("last item status = %v, want done", last.Status)
	}

	back, err := s.ToggleItem(0, 2)
	if err != nil {
		t.Fatalf("ToggleItem back: %v", err)
	}
	if back.Status != Todo || back.Text != "Buy milk" {
		t.Fatalf("toggled back = %+v", back)
	}
}

func TestIndexErrors(t *testing.T) {
	s := New()
	mustAddTopic(t, s, "A")
	mustAddItem(t, s, 0, "one")

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"delete topic negative", func() error { return s.DeleteTopic(-1) }, ErrTopicNotFound},
		{"delete topic past end", func() error { return s.DeleteTopic(1) }, ErrTopicNotFound},
		{"add item missing topic", func() error { return s.AddItem(3, NewItem("x")) }, ErrTopicNotFound},
		{"access missing topic", func() error { _, err := s.AccessItem(1, 0); return err }, ErrTopicNotFound},
		{"access missing item", func() error { _, err := s.AccessItem(0, 1); return err }, ErrItemNotFound},
		{"delete missing item", func() error { _, err := s.DeleteItem(0, -1); return err }, ErrItemNotFound},
		{"toggle missing item", func() error { _, err := s.ToggleItem(0, 5); return err }, ErrItemNotFound},
		{"toggle missing topic", func() error { _, err := s.ToggleItem(2, 0); return err }, ErrTopicNotFound},
		{"item count missing topic", func() error { _, err := s.ItemCount(9); return err }, ErrTopicNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if txt := texts(t, s, 0); !reflect.DeepEqual(txt, []string{"one"}) {
		t.Fatalf("failed calls mutated items: %v", txt)
	}
}

func TestOrderInvariantAcrossOperations(t *testing.T) {
	s := New()
	for _, name := range []string{"a", "b", "c", "d"} {
		mustAddTopic(t, s, name)
		checkOrder(t, s)
	}
	_ = s.AddTopic("b")
	checkOrder(t, s)

	if err := s.DeleteTopic(1); err != nil {
		t.Fatalf("DeleteTopic: %v", err)
	}
	checkOrder(t, s)
	order, _ := s.Order()
	if !reflect.DeepEqual(order, []string{"a", "c", "d"}) {
		t.Fatalf("order = %v", order)
	}

	mustAddTopic(t, s, "b")
	checkOrder(t, s)
	if err := s.DeleteTopic(0); err != nil {
		t.Fatalf("DeleteTopic: %v", err)
	}
	_ = s.DeleteTopic(10)
	checkOrder(t, s)
	order, _ = s.Order()
	if !reflect.DeepEqual(order, []string{"c", "d", "b"}) {
		t.Fatalf("order = %v", order)
	}
}

func TestDeleteTopicDiscardsItems(t *testing.T) {
	s := New()
	mustAddTopic(t, s, "gone")
	mustAddItem(t, s, 0, "x")
	if err := s.DeleteTopic(0); err != nil {
		t.Fatalf("DeleteTopic: %v", err)
	}
	mustAddTopic(t, s, "gone")
	if n, _ := s.ItemCount(0); n != 0 {
		t.Fatalf("re-added topic has %d items, want 0", n)
	}
}

func TestCompletionRatio(t *testing.T) {
	s := New()
	mustAddTopic(t, s, "empty")
	mustAddTopic(t, s, "half")
	mustAddItem(t, s, 1, "a")
	mustAddItem(t, s, 1, "b")
	if _, err := s.ToggleItem(1, 0); err != nil {
		t.Fatalf("ToggleItem: %v", err)
	}

	if _, ok, err := s.CompletionRatio(0); err != nil || ok {
		t.Fatalf("empty topic ratio ok=%v err=%v, want no ratio", ok, err)
	}
	r, ok, err := s.CompletionRatio(1)
	if err != nil || !ok || r != 0.5 {
		t.Fatalf("ratio = %v ok=%v err=%v, want 0.5", r, ok, err)
	}
	if _, _, err := s.CompletionRatio(2); !errors.Is(err, ErrTopicNotFound) {
		t.Fatalf("ratio on missing topic err = %v", err)
	}

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	want := []TopicSummary{{Name: "empty"}, {Name: "half", Total: 2, Done: 1}}
	if !reflect.DeepEqual(snap.Topics, want) {
		t.Fatalf("snapshot = %+v, want %+v", snap.Topics, want)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	s := New()
	mustAddTopic(t, s, "T")
	mustAddItem(t, s, 0, "orig")

	items, _ := s.Items(0)
	items[0].Text = "changed"
	if txt := texts(t, s, 0); txt[0] != "orig" {
		t.Fatalf("store mutated through Items copy: %v", txt)
	}
}

func TestPanicPoisonsStore(t *testing.T) {
	s := New()
	mustAddTopic(t, s, "T")

	err := s.locked("boom", func() error { panic("boom") })
	if !errors.Is(err, ErrPoisonedLock) {
		t.Fatalf("err = %v, want ErrPoisonedLock", err)
	}
	if _, err := s.TopicCount(); !errors.Is(err, ErrPoisonedLock) {
		t.Fatalf("TopicCount after poison err = %v, want ErrPoisonedLock", err)
	}
	if err := s.AddTopic("U"); !errors.Is(err, ErrPoisonedLock) {
		t.Fatalf("AddTopic after poison err = %v, want ErrPoisonedLock", err)
	}
}

func TestNewStoreRepairsOrder(t *testing.T) {
	topics := map[string][]Item{"b": nil, "a": {NewItem("x")}}
	s := newStore(topics, []string{"b", "b"})
	order, _ := s.Order()
	if !reflect.DeepEqual(order, []string{"a", "b"}) {
		t.Fatalf("order = %v, want sorted keys", order)
	}
	items, _ := s.Items(1)
	if items == nil {
		t.Fatalf("nil item slice should be normalized to empty")
	}
}
