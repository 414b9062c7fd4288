package protocol

import (
	"encoding/json"
	"fmt"

	"golang.org/x/exp/slices"
)

// Instance identifies one playback page. Src disambiguates several media
// elements living in the same tab.
type Instance struct {
	TabID int    `json:"tabId" jsonschema:"required"`
	Src   string `json:"src" jsonschema:"required"`
}

func (i Instance) String() string {
	return fmt.Sprintf("%d/%s", i.TabID, i.Src)
}

// Instances is an ordered instance list. It always encodes as a JSON array,
// never as null.
type Instances []Instance

// MarshalJSON implements json.Marshaler.
func (s Instances) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Instance(s))
}

// Equal reports whether both lists hold the same instances in the same order.
func (s Instances) Equal(other Instances) bool {
	return slices.Equal(s, other)
}

// Contains reports whether the list holds the instance.
func (s Instances) Contains(instance Instance) bool {
	return slices.Contains(s, instance)
}

// Clone returns a copy that does not share memory with s.
func (s Instances) Clone() Instances {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}
