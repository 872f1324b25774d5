package dto

import "time"

type AnnotateRequest struct {
	IPs     []string `json:"ips"`
	DebugIP string   `json:"debug_ip"`
}

type VisitResponse struct {
	VisitID    string           `json:"visit_id"`
	Location   LocationResponse `json:"location"`
	Spoofed    bool             `json:"spoofed"`
	ResolvedAt time.Time        `json:"resolved_at"`
}

type ListVisitsResponse struct {
	Visits []VisitResponse `json:"visits"`
}
