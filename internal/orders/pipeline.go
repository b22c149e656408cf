// Package orders renders the customer-facing order status pipeline.
package orders

import "pisos_storefront/internal/models"

type StageState string

const (
	StageCompleted StageState = "completed"
	StageActive    StageState = "active"
	StagePending   StageState = "pending"
)

type StageView struct {
	Status models.OrderStatus `json:"status"`
	Label  string             `json:"label"`
	State  StageState         `json:"state"`
}

// CurrentIndex returns the position of status in stages, or -1.
func CurrentIndex(status string, stages []models.OrderStatus) int {
	for i, s := range stages {
		if string(s) == status {
			return i
		}
	}
	return -1
}

// Render maps every stage to its visual state. Stages before the current one
// are completed, the current one is active and the rest are pending. An
// unknown status leaves every stage pending.
func Render(status string, stages []models.OrderStatus) []StageView {
	current := CurrentIndex(status, stages)
	views := make([]StageView, len(stages))
	for i, s := range stages {
		state := StagePending
		switch {
		case current < 0:
		case i < current:
			state = StageCompleted
		case i == current:
			state = StageActive
		}
		views[i] = StageView{Status: s, Label: s.Label(), State: state}
	}
	return views
}

// Tracking is an order together with its rendered pipeline.
type Tracking struct {
	models.Order
	Pipeline []StageView `json:"pipeline"`
}

func Track(o models.Order) Tracking {
	return Tracking{Order: o, Pipeline: Render(string(o.Status), models.OrderStatuses)}
}

func TrackAll(list []models.Order) []Tracking {
	out := make([]Tracking, 0, len(list))
	for _, o := range list {
		out = append(out, Track(o))
	}
	return out
}
