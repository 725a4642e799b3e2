package models

import "livelox_dl/internal/geo"

// Course is one course of a class with its controls in running order.
type Course struct {
	Name     string
	Controls geo.Route
}

// Event holds everything fetched from Livelox for one class.
type Event struct {
	ClassID     int
	EventName   string
	MapName     string
	MapURL      string
	ImageFormat string
	Quad        geo.Quad
	Resolution  geo.Resolution
	Courses     []Course
}

// Routes returns the control sequences of all courses.
func (e *Event) Routes() []geo.Route {
	routes := make([]geo.Route, 0, len(e.Courses))
	for _, c := range e.Courses {
		routes = append(routes, c.Controls)
	}
	return routes
}
