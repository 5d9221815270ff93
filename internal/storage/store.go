package storage

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
)

// Store holds every topic and its items together with the display order of
// the topics. order is always a permutation of the keys of topics; only the
// methods below touch either field.
type Store struct {
	mu       sync.Mutex
	topics   map[string][]Item
	order    []string
	poisoned error
	logger   *log.Logger
}

type Option func(*Store)

// WithLogger sets the logger used for mutation and persistence events.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(opts ...Option) *Store {
	return newStore(map[string][]Item{}, nil, opts...)
}

// newStore adopts topics. A nil or inconsistent order is replaced by the
// sorted key set.
func newStore(topics map[string][]Item, order []string, opts ...Option) *Store {
	if topics == nil {
		topics = map[string][]Item{}
	}
	for name, items := range topics {
		if items == nil {
			topics[name] = []Item{}
		}
	}
	if !isPermutation(order, topics) {
		order = make([]string, 0, len(topics))
		for name := range topics {
			order = append(order, name)
		}
		sort.Strings(order)
	}
	s := &Store{
		topics: topics,
		order:  slices.Clone(order),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func isPermutation(order []string, topics map[string][]Item) bool {
	if order == nil || len(order) != len(topics) {
		return false
	}
	seen := make(map[string]struct{}, len(order))
	for _, name := range order {
		if _, ok := topics[name]; !ok {
			return false
		}
		if _, dup := seen[name]; dup {
			return false
		}
		seen[name] = struct{}{}
	}
	return true
}

// locked runs fn with the store lock held. A panic inside fn poisons the
// store for good.
func (s *Store) locked(op string, fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned != nil {
		return &Error{Op: op, Kind: ErrPoisonedLock, Index: -1, Err: s.poisoned}
	}
	defer func() {
		if r := recover(); r != nil {
			s.poisoned = fmt.Errorf("panic during %s: %v", op, r)
			err = &Error{Op: op, Kind: ErrPoisonedLock, Index: -1, Err: s.poisoned}
		}
	}()
	return fn()
}

// topicAt must be called with the lock held.
func (s *Store) topicAt(op string, index int) (string, error) {
	if index < 0 || index >= len(s.order) {
		return "", topicNotFound(op, index)
	}
	return s.order[index], nil
}

func (s *Store) AddTopic(id string) error {
	return s.locked("add topic", func() error {
		if _, ok := s.topics[id]; ok {
			return &Error{Op: "add topic", Kind: ErrDuplicateTopic, Topic: id, Index: -1}
		}
		s.topics[id] = []Item{}
		s.order = append(s.order, id)
		s.logger.Debug("topic added", "topic", id, "topics", len(s.order))
		return nil
	})
}

func (s *Store) DeleteTopic(index int) error {
	return s.locked("delete topic", func() error {
		name, err := s.topicAt("delete topic", index)
		if err != nil {
			return err
		}
		delete(s.topics, name)
		s.order = slices.Delete(s.order, index, index+1)
		s.logger.Debug("topic deleted", "topic", name, "topics", len(s.order))
		return nil
	})
}

func (s *Store) AddItem(topic int, item Item) error {
	return s.locked("add item", func() error {
		name, err := s.topicAt("add item", topic)
		if err != nil {
			return err
		}
		s.topics[name] = append(s.topics[name], item)
		s.logger.Debug("item added", "topic", name, "status", item.Status, "items", len(s.topics[name]))
		return nil
	})
}

// DeleteItem removes the item at index and returns it. Later items shift
// down by one; the relative order of the rest is unchanged.
func (s *Store) DeleteItem(topic, index int) (Item, error) {
	var removed Item
	err := s.locked("delete item", func() error {
		name, err := s.topicAt("delete item", topic)
		if err != nil {
			return err
		}
		items := s.topics[name]
		if index < 0 || index >= len(items) {
			return itemNotFound("delete item", name, index)
		}
		removed = items[index]
		s.topics[name] = slices.Delete(items, index, index+1)
		s.logger.Debug("item deleted", "topic", name, "index", index, "items", len(s.topics[name]))
		return nil
	})
	return removed, err
}

func (s *Store) AccessItem(topic, index int) (Item, error) {
	var item Item
	err := s.locked("access item", func() error {
		name, err := s.topicAt("access item", topic)
		if err != nil {
			return err
		}
		items := s.topics[name]
		if index < 0 || index >= len(items) {
			return itemNotFound("access item", name, index)
		}
		item = items[index]
		return nil
	})
	return item, err
}

// ToggleItem flips the status of the item at index and moves it to the end
// of its topic. It returns the item as stored after the toggle.
func (s *Store) ToggleItem(topic, index int) (Item, error) {
	var toggled Item
	err := s.locked("toggle item", func() error {
		name, err := s.topicAt("toggle item", topic)
		if err != nil {
			return err
		}
		items := s.topics[name]
		if index < 0 || index >= len(items) {
			return itemNotFound("toggle item", name, index)
		}
		toggled = Item{Status: items[index].Status.Flip(), Text: items[index].Text}
		items = slices.Delete(items, index, index+1)
		s.topics[name] = append(items, toggled)
		s.logger.Debug("item toggled", "topic", name, "index", index, "status", toggled.Status)
		return nil
	})
	return toggled, err
}

func (s *Store) TopicCount() (int, error) {
	var n int
	err := s.locked("topic count", func() error {
		n = len(s.order)
		return nil
	})
	return n, err
}

func (s *Store) ItemCount(topic int) (int, error) {
	var n int
	err := s.locked("item count", func() error {
		name, err := s.topicAt("item count", topic)
		if err != nil {
			return err
		}
		n = len(s.topics[name])
		return nil
	})
	return n, err
}

func (s *Store) TopicName(topic int) (string, error) {
	var name string
	err := s.locked("topic name", func() error {
		var err error
		name, err = s.topicAt("topic name", topic)
		return err
	})
	return name, err
}

func (s *Store) Order() ([]string, error) {
	var order []string
	err := s.locked("order", func() error {
		order = slices.Clone(s.order)
		return nil
	})
	return order, err
}

// Items returns a copy of the items of the topic at the given position.
func (s *Store) Items(topic int) ([]Item, error) {
	var items []Item
	err := s.locked("items", func() error {
		name, err := s.topicAt("items", topic)
		if err != nil {
			return err
		}
		items = cloneItems(s.topics[name])
		return nil
	})
	return items, err
}

// CompletionRatio reports done/total for the topic. ok is false when the
// topic has no items.
func (s *Store) CompletionRatio(topic int) (ratio float64, ok bool, err error) {
	err = s.locked("completion ratio", func() error {
		name, err := s.topicAt("completion ratio", topic)
		if err != nil {
			return err
		}
		ratio, ok = summarize(name, s.topics[name]).Ratio()
		return nil
	})
	return ratio, ok, err
}

type TopicSummary struct {
	Name  string
	Total int
	Done  int
}

func (t TopicSummary) Ratio() (float64, bool) {
	if t.Total == 0 {
		return 0, false
	}
	return float64(t.Done) / float64(t.Total), true
}

// Snapshot is a point-in-time copy of the topic list for rendering.
type Snapshot struct {
	Topics []TopicSummary
}

func (s *Store) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := s.locked("snapshot", func() error {
		snap.Topics = make([]TopicSummary, 0, len(s.order))
		for _, name := range s.order {
			snap.Topics = append(snap.Topics, summarize(name, s.topics[name]))
		}
		return nil
	})
	return snap, err
}

func summarize(name string, items []Item) TopicSummary {
	sum := TopicSummary{Name: name, Total: len(items)}
	for _, it := range items {
		if it.Status == Done {
			sum.Done++
		}
	}
	return sum
}

// contents copies the topics and order out of the store for persistence.
func (s *Store) contents() (map[string][]Item, []string, error) {
	var (
		topics map[string][]Item
		order  []string
	)
	err := s.locked("save", func() error {
		topics = make(map[string][]Item, len(s.topics))
		for name, items := range s.topics {
			topics[name] = cloneItems(items)
		}
		order = slices.Clone(s.order)
		return nil
	})
	return topics, order, err
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
