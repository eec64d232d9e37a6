// Package audit holds the record type for admin mutations.
package audit

import "time"

// Action names an admin mutation.
type Action string

const (
	ActionDisable Action = "disable"
	ActionEnable  Action = "enable"
	ActionDelete  Action = "delete"
	ActionSetRole Action = "set_role"
)

// Event is one admin mutation, successful or not.
type Event struct {
	ID        string         `json:"id"`
	ActorUID  string         `json:"actorUid"`
	Action    Action         `json:"action"`
	TargetUID string         `json:"targetUid"`
	Detail    map[string]any `json:"detail,omitempty"`
	Succeeded bool           `json:"succeeded"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ListFilter narrows audit queries.
type ListFilter struct {
	TargetUID string
	Limit     int
}
