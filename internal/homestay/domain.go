package homestay

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Checkin is a guest arrival registered for a homestay unit.
type Checkin struct {
	ID             string
	HomestayID     string
	PersonInCharge string
	Guests         int
	Plates         []string
	Arrival        *string
	Departure      *string
	Notes          *string
	SubmittedAt    time.Time
}

// Details are the editable fields shared by create and update.
type Details struct {
	PersonInCharge string
	Guests         int
	Plates         []string
	Arrival        *string
	Departure      *string
	Notes          *string
}

// ListFilter narrows a listing.
type ListFilter struct {
	HomestayID string
	Page       int
	PageSize   int
}

// Plates accepts either a JSON array or a comma separated string. Blank
// entries are dropped.
type Plates []string

// UnmarshalJSON implements json.Unmarshaler.
func (p *Plates) UnmarshalJSON(data []byte) error {
	var list []any
	if err := json.Unmarshal(data, &list); err == nil {
		*p = cleanPlates(list)
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*p = Plates{}
		return nil
	}
	parts := strings.Split(fmt.Sprint(raw), ",")
	items := make([]any, len(parts))
	for i, s := range parts {
		items[i] = s
	}
	*p = cleanPlates(items)
	return nil
}

func cleanPlates(items []any) Plates {
	out := Plates{}
	for _, it := range items {
		if it == nil {
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(it)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
