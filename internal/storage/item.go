package storage

import (
	"encoding/json"
	"fmt"
)

type Status int

const (
	Todo Status = iota
	Done
)

func (s Status) String() string {
	if s == Done {
		return "done"
	}
	return "todo"
}

// Flip returns the opposite status.
func (s Status) Flip() Status {
	if s == Done {
		return Todo
	}
	return Done
}

func (s Status) marker() byte {
	if s == Done {
		return '1'
	}
	return '0'
}

type Item struct {
	Status Status
	Text   string
}

func NewItem(text string) Item {
	return Item{Status: Todo, Text: text}
}

// Encode packs the item into its on-disk form: one status byte followed by
// the text.
func (it Item) Encode() string {
	return string(it.Status.marker()) + it.Text
}

func DecodeItem(raw string) (Item, error) {
	if raw == "" {
		return Item{}, fmt.Errorf("%w: empty item", ErrEncoding)
	}
	switch raw[0] {
	case '0':
		return Item{Status: Todo, Text: raw[1:]}, nil
	case '1':
		return Item{Status: Done, Text: raw[1:]}, nil
	default:
		return Item{}, fmt.Errorf("%w: unknown status %q in item %q", ErrEncoding, raw[0], raw)
	}
}

func (it Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(it.Encode())
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	decoded, err := DecodeItem(raw)
	if err != nil {
		return err
	}
	*it = decoded
	return nil
}
